package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type leaseDoc struct {
	Holder    string    `firestore:"Holder"`
	ExpiresAt time.Time `firestore:"ExpiresAt"`
}

type lockRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newLockRepository(client *firestore.Client) *lockRepository {
	return &lockRepository{
		client: client,
	}
}

func (r *lockRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, locksCollection))
}

func (r *lockRepository) TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	docRef := r.collection().Doc(name)

	var acquired bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		acquired = false
		now := time.Now().UTC()

		snap, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get lease")
		}
		if err == nil {
			var current leaseDoc
			if err := snap.DataTo(&current); err != nil {
				return goerr.Wrap(err, "failed to unmarshal lease")
			}
			if current.Holder != holder && now.Before(current.ExpiresAt) {
				return nil
			}
		}

		acquired = true
		return tx.Set(docRef, &leaseDoc{Holder: holder, ExpiresAt: now.Add(ttl)})
	})
	if err != nil {
		return false, goerr.Wrap(err, "failed to acquire lease", goerr.V("name", name), goerr.V("holder", holder))
	}

	return acquired, nil
}

func (r *lockRepository) Release(ctx context.Context, name, holder string) error {
	docRef := r.collection().Doc(name)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil
			}
			return goerr.Wrap(err, "failed to get lease")
		}

		var current leaseDoc
		if err := snap.DataTo(&current); err != nil {
			return goerr.Wrap(err, "failed to unmarshal lease")
		}
		if current.Holder != holder {
			return nil
		}
		return tx.Delete(docRef)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to release lease", goerr.V("name", name), goerr.V("holder", holder))
	}
	return nil
}
