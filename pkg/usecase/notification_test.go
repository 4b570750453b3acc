package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/domain/types"
	"github.com/secmon-lab/contactbook/pkg/repository/memory"
	"github.com/secmon-lab/contactbook/pkg/usecase"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNotificationUseCase_Log(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps the 50 newest notifications per owner", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewNotificationUseCase(repo, nil)

		for i := 0; i < 55; i++ {
			_, err := uc.Log(ctx, &model.UserNotification{
				OwnerID: "owner-1",
				Type:    types.NotificationTypeContactCreated,
				Title:   fmt.Sprintf("contact %02d", i),
			})
			gt.NoError(t, err).Required()
		}
		_, err := uc.Log(ctx, &model.UserNotification{
			OwnerID: "owner-2",
			Type:    types.NotificationTypeContactCreated,
			Title:   "other owner",
		})
		gt.NoError(t, err).Required()

		list, err := repo.Notification().ListByOwner(ctx, "owner-1", 0)
		gt.NoError(t, err).Required()
		gt.Array(t, list).Length(model.NotificationRetention).Required()
		gt.Value(t, list[0].Title).Equal("contact 54")
		gt.Value(t, list[len(list)-1].Title).Equal("contact 05")

		other, err := repo.Notification().ListByOwner(ctx, "owner-2", 0)
		gt.NoError(t, err).Required()
		gt.Array(t, other).Length(1)
	})

	t.Run("concurrent logs for one owner stay bounded", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewNotificationUseCase(repo, nil)

		var wg sync.WaitGroup
		for i := 0; i < 80; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := uc.Log(ctx, &model.UserNotification{
					OwnerID: "owner-1",
					Type:    types.NotificationTypeContactCreated,
					Title:   fmt.Sprintf("contact %d", i),
				})
				gt.NoError(t, err)
			}(i)
		}
		wg.Wait()

		list, err := repo.Notification().ListByOwner(ctx, "owner-1", 0)
		gt.NoError(t, err).Required()
		gt.Array(t, list).Length(model.NotificationRetention)
	})

	t.Run("rejects notification without owner", func(t *testing.T) {
		uc := usecase.NewNotificationUseCase(memory.New(), nil)
		_, err := uc.Log(ctx, &model.UserNotification{Type: types.NotificationTypeContactCreated, Title: "x"})
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})

	t.Run("rejects notification without title", func(t *testing.T) {
		uc := usecase.NewNotificationUseCase(memory.New(), nil)
		_, err := uc.Log(ctx, &model.UserNotification{OwnerID: "owner-1", Type: types.NotificationTypeContactCreated})
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})
}

func TestNotificationUseCase_Prune(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.NewNotificationUseCase(repo, nil)

	// Rows written without the use case are not pruned until Prune runs
	for i := 0; i < 60; i++ {
		_, err := repo.Notification().Create(ctx, &model.UserNotification{
			OwnerID: "owner-1",
			Type:    types.NotificationTypeContactCreated,
			Title:   fmt.Sprintf("n%d", i),
		})
		gt.NoError(t, err).Required()
	}

	deleted, err := uc.Prune(ctx, "owner-1")
	gt.NoError(t, err).Required()
	gt.Value(t, deleted).Equal(10)

	deleted, err = uc.Prune(ctx, "owner-1")
	gt.NoError(t, err).Required()
	gt.Value(t, deleted).Equal(0)
}

func TestNotificationUseCase_ListAndStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	repo := memory.New()
	uc := usecase.NewNotificationUseCase(repo, fixedClock(now))

	var ids []model.NotificationID
	for i := 0; i < 3; i++ {
		n, err := uc.Log(ctx, &model.UserNotification{
			OwnerID: "owner-1",
			Type:    types.NotificationTypeContactCreated,
			Title:   fmt.Sprintf("n%d", i),
		})
		gt.NoError(t, err).Required()
		ids = append(ids, n.ID)
	}

	t.Run("List caps limit to retention", func(t *testing.T) {
		list, err := uc.List(ctx, "owner-1", 1000)
		gt.NoError(t, err).Required()
		gt.Array(t, list).Length(3)

		list, err = uc.List(ctx, "owner-1", 2)
		gt.NoError(t, err).Required()
		gt.Array(t, list).Length(2)
	})

	t.Run("marking read stamps read_at and lowers unread count", func(t *testing.T) {
		updated, err := uc.UpdateStatus(ctx, "owner-1", ids[0], types.NotificationStatusRead)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Status).Equal(types.NotificationStatusRead)
		gt.Value(t, updated.ReadAt).NotNil().Required()
		gt.Bool(t, updated.ReadAt.Equal(now)).True()

		count, err := uc.UnreadCount(ctx, "owner-1")
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(2)
	})

	t.Run("other owner cannot update", func(t *testing.T) {
		_, err := uc.UpdateStatus(ctx, "owner-2", ids[1], types.NotificationStatusRead)
		gt.Error(t, err).Is(usecase.ErrNotificationNotFound)
	})

	t.Run("invalid status is rejected", func(t *testing.T) {
		_, err := uc.UpdateStatus(ctx, "owner-1", ids[1], "seen")
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})
}
