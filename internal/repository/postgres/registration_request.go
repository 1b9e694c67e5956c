package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"troop-backend/internal/domain"
	"troop-backend/internal/logger"
	"troop-backend/internal/repository"
)

type registrationRequestRepository struct {
	db *sql.DB
}

func NewRegistrationRequestRepository(db *sql.DB) repository.RegistrationRequestRepository {
	return &registrationRequestRepository{db: db}
}

func (r *registrationRequestRepository) Create(ctx context.Context, req *domain.RegistrationRequest) error {
	doc, err := json.Marshal(req)
	if err != nil {
		return err
	}
	logger.StoreCall("INSERT", "registration_requests", "id", req.ID)
	_, err = r.db.ExecContext(ctx, `INSERT INTO registration_requests (id, status, doc, created_at) VALUES ($1, $2, $3, $4)`,
		req.ID, string(req.Status), doc, req.CreatedAt)
	logger.StoreResult("INSERT", "registration_requests", err, "id", req.ID)
	return translateErr(err)
}

func (r *registrationRequestRepository) GetByID(ctx context.Context, id string) (*domain.RegistrationRequest, error) {
	var doc []byte
	if err := r.db.QueryRowContext(ctx, `SELECT doc FROM registration_requests WHERE id = $1`, id).Scan(&doc); err != nil {
		return nil, translateErr(err)
	}
	var req domain.RegistrationRequest
	if err := json.Unmarshal(doc, &req); err != nil {
		return nil, err
	}
	req.ID = id
	return &req, nil
}

func (r *registrationRequestRepository) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.RegistrationRequest, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, doc FROM registration_requests WHERE status = $1 ORDER BY created_at DESC`, string(status))
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	out := []domain.RegistrationRequest{}
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var req domain.RegistrationRequest
		if err := json.Unmarshal(doc, &req); err != nil {
			return nil, err
		}
		req.ID = id
		out = append(out, req)
	}
	return out, rows.Err()
}

// statusPatch is merged into the stored document; only workflow fields change.
type statusPatch struct {
	Status          domain.RequestStatus `json:"status"`
	UpdatedAt       time.Time            `json:"updatedAt"`
	ApprovedAt      *time.Time           `json:"approvedAt"`
	ApprovedBy      string               `json:"approvedBy"`
	RejectedAt      *time.Time           `json:"rejectedAt"`
	RejectedBy      string               `json:"rejectedBy"`
	RejectionReason string               `json:"rejectionReason"`
	EmailsQueuedAt  *time.Time           `json:"emailsQueuedAt"`
}

func (r *registrationRequestRepository) Update(ctx context.Context, req *domain.RegistrationRequest, from domain.RequestStatus) error {
	patch, err := json.Marshal(statusPatch{
		Status:          req.Status,
		UpdatedAt:       req.UpdatedAt,
		ApprovedAt:      req.ApprovedAt,
		ApprovedBy:      req.ApprovedBy,
		RejectedAt:      req.RejectedAt,
		RejectedBy:      req.RejectedBy,
		RejectionReason: req.RejectionReason,
		EmailsQueuedAt:  req.EmailsQueuedAt,
	})
	if err != nil {
		return err
	}
	logger.StoreCall("UPDATE", "registration_requests", "id", req.ID, "from", from, "to", req.Status)
	result, err := r.db.ExecContext(ctx, `UPDATE registration_requests SET status = $2, doc = doc || $3::jsonb WHERE id = $1 AND status = $4`,
		req.ID, string(req.Status), patch, string(from))
	logger.StoreResult("UPDATE", "registration_requests", err, "id", req.ID)
	if err != nil {
		return translateErr(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: either the row is gone or its status moved on.
	var current string
	if err := r.db.QueryRowContext(ctx, `SELECT status FROM registration_requests WHERE id = $1`, req.ID).Scan(&current); err != nil {
		return translateErr(err)
	}
	return fmt.Errorf("%w: request %s is %s, expected %s", domain.ErrConflict, req.ID, current, from)
}

func (r *registrationRequestRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM registration_requests WHERE id = $1`, id)
	return translateErr(err)
}
