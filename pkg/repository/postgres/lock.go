package postgres

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gorm.io/gorm"
)

type leaseRow struct {
	Name      string    `gorm:"primaryKey"`
	Holder    string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"type:timestamptz;not null"`
}

func (leaseRow) TableName() string {
	return "leases"
}

type lockRepository struct {
	db *gorm.DB
}

func (r *lockRepository) TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()

	// The conflicting row is only overwritten when it is ours or expired
	res := r.db.WithContext(ctx).Exec(`
insert into leases(name, holder, expires_at) values (?, ?, ?)
on conflict (name) do update
set holder = excluded.holder, expires_at = excluded.expires_at
where leases.holder = excluded.holder or leases.expires_at < ?`,
		name, holder, now.Add(ttl), now)
	if res.Error != nil {
		return false, goerr.Wrap(res.Error, "failed to acquire lease", goerr.V("name", name), goerr.V("holder", holder))
	}
	return res.RowsAffected == 1, nil
}

func (r *lockRepository) Release(ctx context.Context, name, holder string) error {
	err := r.db.WithContext(ctx).Exec(`delete from leases where name = ? and holder = ?`, name, holder).Error
	if err != nil {
		return goerr.Wrap(err, "failed to release lease", goerr.V("name", name), goerr.V("holder", holder))
	}
	return nil
}
