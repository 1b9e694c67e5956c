package firestore

import (
	"context"

	gfs "cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"troop-backend/internal/domain"
	"troop-backend/internal/logger"
	"troop-backend/internal/repository"
)

type notificationRepository struct {
	client *gfs.Client
}

func NewNotificationRepository(client *gfs.Client) repository.NotificationRepository {
	return &notificationRepository{client: client}
}

func (r *notificationRepository) col() *gfs.CollectionRef {
	return r.client.Collection(notificationsCollection)
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "userKey", n.UserKey, "title", n.Title)
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	_, err := r.col().Doc(n.ID).Set(ctx, n)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "userKey", n.UserKey)
		return translateErr(err)
	}
	logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	return nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userKey string, limit int) ([]domain.Notification, error) {
	snaps, err := r.col().
		Where("userKey", "==", userKey).
		OrderBy("createdAt", gfs.Desc).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, translateErr(err)
	}
	out := make([]domain.Notification, 0, len(snaps))
	for _, snap := range snaps {
		var n domain.Notification
		if err := snap.DataTo(&n); err != nil {
			return nil, err
		}
		n.ID = snap.Ref.ID
		out = append(out, n)
	}
	return out, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userKey string) error {
	ref := r.col().Doc(id)
	return translateErr(r.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		owner, err := snap.DataAt("userKey")
		if err != nil {
			return err
		}
		if owner != userKey {
			return domain.ErrNotFound
		}
		return tx.Update(ref, []gfs.Update{{Path: "isRead", Value: true}})
	}))
}
