package firestore

import (
	"context"
	"fmt"

	gfs "cloud.google.com/go/firestore"

	"troop-backend/internal/domain"
	"troop-backend/internal/logger"
	"troop-backend/internal/repository"
)

type registrationRequestRepository struct {
	client *gfs.Client
}

func NewRegistrationRequestRepository(client *gfs.Client) repository.RegistrationRequestRepository {
	return &registrationRequestRepository{client: client}
}

func (r *registrationRequestRepository) col() *gfs.CollectionRef {
	return r.client.Collection(requestsCollection)
}

func decodeRequest(snap *gfs.DocumentSnapshot) (*domain.RegistrationRequest, error) {
	var req domain.RegistrationRequest
	if err := snap.DataTo(&req); err != nil {
		return nil, err
	}
	req.ID = snap.Ref.ID
	return &req, nil
}

func (r *registrationRequestRepository) Create(ctx context.Context, req *domain.RegistrationRequest) error {
	logger.StoreCall("CREATE", requestsCollection, "id", req.ID)
	_, err := r.col().Doc(req.ID).Create(ctx, req)
	logger.StoreResult("CREATE", requestsCollection, err, "id", req.ID)
	return translateErr(err)
}

func (r *registrationRequestRepository) GetByID(ctx context.Context, id string) (*domain.RegistrationRequest, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		return nil, translateErr(err)
	}
	return decodeRequest(snap)
}

func (r *registrationRequestRepository) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.RegistrationRequest, error) {
	snaps, err := r.col().
		Where("status", "==", string(status)).
		OrderBy("createdAt", gfs.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, translateErr(err)
	}
	out := make([]domain.RegistrationRequest, 0, len(snaps))
	for _, snap := range snaps {
		req, err := decodeRequest(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, nil
}

// Update reads and writes inside one transaction so two reviewers deciding the
// same request cannot both succeed.
func (r *registrationRequestRepository) Update(ctx context.Context, req *domain.RegistrationRequest, from domain.RequestStatus) error {
	logger.StoreCall("UPDATE", requestsCollection, "id", req.ID, "from", from, "to", req.Status)
	ref := r.col().Doc(req.ID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		current, err := snap.DataAt("status")
		if err != nil {
			return err
		}
		if current != string(from) {
			return fmt.Errorf("%w: request %s is %v, expected %s", domain.ErrConflict, req.ID, current, from)
		}
		return tx.Update(ref, []gfs.Update{
			{Path: "status", Value: string(req.Status)},
			{Path: "updatedAt", Value: req.UpdatedAt},
			{Path: "approvedAt", Value: req.ApprovedAt},
			{Path: "approvedBy", Value: req.ApprovedBy},
			{Path: "rejectedAt", Value: req.RejectedAt},
			{Path: "rejectedBy", Value: req.RejectedBy},
			{Path: "rejectionReason", Value: req.RejectionReason},
			{Path: "emailsQueuedAt", Value: req.EmailsQueuedAt},
		})
	})
	logger.StoreResult("UPDATE", requestsCollection, err, "id", req.ID)
	return translateErr(err)
}

func (r *registrationRequestRepository) Delete(ctx context.Context, id string) error {
	_, err := r.col().Doc(id).Delete(ctx)
	return translateErr(err)
}
