package jobs

import (
	"context"
	"errors"
	"fmt"

	"troop-backend/internal/domain"
	"troop-backend/internal/identity"
	"troop-backend/internal/logger"
)

// SendPendingDigest emails reviewers about requests waiting longer than the
// configured reminder age.
func (jr *JobRunner) SendPendingDigest() { _ = jr.RunSendPendingDigest() }

func (jr *JobRunner) RunSendPendingDigest() error {
	return jr.runWithRecovery("SendPendingDigest", func(ctx context.Context) error {
		pending, err := jr.repos.Requests.ListByStatus(ctx, domain.RequestStatusPending)
		if err != nil {
			return fmt.Errorf("list pending requests: %w", err)
		}
		if len(pending) == 0 {
			logger.Info("No pending registration requests")
			return nil
		}

		var reviewers []domain.UserProfile
		for _, role := range []string{domain.RoleAdmin, domain.RoleApprover} {
			users, err := jr.repos.Users.ListByRole(ctx, role)
			if err != nil {
				return fmt.Errorf("list %s users: %w", role, err)
			}
			reviewers = append(reviewers, users...)
		}

		result, err := jr.services.Emails.QueuePendingDigest(ctx, pending, reviewers)
		if err != nil {
			return err
		}
		logger.Info("Pending digest queued", "pending", len(pending), "rows", result.Rows, "delivery", result.Delivery)
		return nil
	})
}

// ReconcileApprovedRequests finishes approvals whose side effects stopped
// before the request was deleted.
func (jr *JobRunner) ReconcileApprovedRequests() { _ = jr.RunReconcileApprovedRequests() }

func (jr *JobRunner) RunReconcileApprovedRequests() error {
	return jr.runWithRecovery("ReconcileApprovedRequests", func(ctx context.Context) error {
		approved, err := jr.repos.Requests.ListByStatus(ctx, domain.RequestStatusApproved)
		if err != nil {
			return fmt.Errorf("list approved requests: %w", err)
		}

		var errs []error
		finished := 0
		for _, req := range approved {
			result, err := jr.services.Auth.ApproveRegistrationRequest(ctx, req.ID, identity.SystemPrincipal)
			if err != nil {
				logger.Error("Failed to reconcile approved request", "requestID", req.ID, "error", err)
				errs = append(errs, fmt.Errorf("request %s: %w", req.ID, err))
				continue
			}
			if result.CleanupErr != nil {
				errs = append(errs, fmt.Errorf("request %s cleanup: %w", req.ID, result.CleanupErr))
				continue
			}
			finished++
		}
		logger.Info("Reconciled approved requests", "found", len(approved), "finished", finished)
		return errors.Join(errs...)
	})
}

// PurgeRejectedRequests deletes rejected requests past the retention window.
func (jr *JobRunner) PurgeRejectedRequests() { _ = jr.RunPurgeRejectedRequests() }

func (jr *JobRunner) RunPurgeRejectedRequests() error {
	return jr.runWithRecovery("PurgeRejectedRequests", func(ctx context.Context) error {
		rejected, err := jr.repos.Requests.ListByStatus(ctx, domain.RequestStatusRejected)
		if err != nil {
			return fmt.Errorf("list rejected requests: %w", err)
		}

		cutoff := jr.now().UTC().AddDate(0, 0, -jr.config.Scheduler.RejectedRetentionDays)
		var errs []error
		purged := 0
		for _, req := range rejected {
			at := req.UpdatedAt
			if req.RejectedAt != nil {
				at = *req.RejectedAt
			}
			if at.After(cutoff) {
				continue
			}
			if err := jr.repos.Requests.Delete(ctx, req.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				errs = append(errs, fmt.Errorf("delete %s: %w", req.ID, err))
				continue
			}
			purged++
		}
		logger.Info("Purged rejected requests", "purged", purged, "cutoff", cutoff)
		return errors.Join(errs...)
	})
}
