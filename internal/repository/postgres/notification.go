package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"troop-backend/internal/domain"
	"troop-backend/internal/logger"
	"troop-backend/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "userKey", n.UserKey, "title", n.Title)

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	doc, err := json.Marshal(n)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to marshal notification")
		return err
	}

	query := `INSERT INTO notifications (id, user_key, is_read, doc, created_at) VALUES ($1, $2, $3, $4, $5)`
	logger.StoreCall("INSERT", "notifications", "userKey", n.UserKey)
	_, err = r.db.ExecContext(ctx, query, n.ID, n.UserKey, n.IsRead, doc, n.CreatedAt)
	logger.StoreResult("INSERT", "notifications", err, "notificationID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "userKey", n.UserKey)
		return translateErr(err)
	}
	logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	return nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userKey string, limit int) ([]domain.Notification, error) {
	query := `SELECT id, is_read, doc FROM notifications WHERE user_key = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userKey, limit)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	notes := []domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		var id string
		var isRead bool
		var doc []byte
		if err := rows.Scan(&id, &isRead, &doc); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(doc, &n); err != nil {
			return nil, err
		}
		n.ID = id
		n.IsRead = isRead
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userKey string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_key = $2`
	result, err := r.db.ExecContext(ctx, query, id, userKey)
	if err != nil {
		return translateErr(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
