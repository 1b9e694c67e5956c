package firestore

import (
	"context"

	gfs "cloud.google.com/go/firestore"

	"troop-backend/internal/domain"
	"troop-backend/internal/logger"
	"troop-backend/internal/repository"
)

type userRepository struct {
	client *gfs.Client
}

func NewUserRepository(client *gfs.Client) repository.UserRepository {
	return &userRepository{client: client}
}

func (r *userRepository) col() *gfs.CollectionRef {
	return r.client.Collection(usersCollection)
}

func decodeProfile(snap *gfs.DocumentSnapshot) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := snap.DataTo(&p); err != nil {
		return nil, err
	}
	p.Key = snap.Ref.ID
	return &p, nil
}

func decodeProfiles(snaps []*gfs.DocumentSnapshot) ([]domain.UserProfile, error) {
	out := make([]domain.UserProfile, 0, len(snaps))
	for _, snap := range snaps {
		p, err := decodeProfile(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *userRepository) Get(ctx context.Context, key string) (*domain.UserProfile, error) {
	snap, err := r.col().Doc(key).Get(ctx)
	if err != nil {
		return nil, translateErr(err)
	}
	return decodeProfile(snap)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	logger.StoreCall("QUERY", usersCollection, "email", email)
	snaps, err := r.col().Where("email", "==", email).Limit(1).Documents(ctx).GetAll()
	logger.StoreResult("QUERY", usersCollection, err, "matches", len(snaps))
	if err != nil {
		return nil, translateErr(err)
	}
	if len(snaps) == 0 {
		return nil, domain.ErrNotFound
	}
	return decodeProfile(snaps[0])
}

func (r *userRepository) List(ctx context.Context) ([]domain.UserProfile, error) {
	snaps, err := r.col().Documents(ctx).GetAll()
	if err != nil {
		return nil, translateErr(err)
	}
	return decodeProfiles(snaps)
}

func (r *userRepository) ListByRole(ctx context.Context, role string) ([]domain.UserProfile, error) {
	snaps, err := r.col().Where("roles", "array-contains", role).Documents(ctx).GetAll()
	if err != nil {
		return nil, translateErr(err)
	}
	return decodeProfiles(snaps)
}

func (r *userRepository) Save(ctx context.Context, p *domain.UserProfile) error {
	_, err := r.col().Doc(p.Key).Set(ctx, p)
	return translateErr(err)
}

func (r *userRepository) UpsertApproved(ctx context.Context, p *domain.UserProfile) error {
	logger.StoreCall("UPSERT", usersCollection, "key", p.Key)
	ref := r.col().Doc(p.Key)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		existing := &domain.UserProfile{}
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			if existing, err = decodeProfile(snap); err != nil {
				return err
			}
		case isNotFound(err):
		default:
			return err
		}
		existing.MergeApproved(p)
		return tx.Set(ref, existing)
	})
	logger.StoreResult("UPSERT", usersCollection, err, "key", p.Key)
	return translateErr(err)
}

func (r *userRepository) Promote(ctx context.Context, legacyKey, uid string) (*domain.UserProfile, error) {
	logger.StoreCall("PROMOTE", usersCollection, "from", legacyKey, "to", uid)
	legacyRef := r.col().Doc(legacyKey)
	uidRef := r.col().Doc(uid)

	var promoted *domain.UserProfile
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(legacyRef)
		if err != nil {
			return err
		}
		p, err := decodeProfile(snap)
		if err != nil {
			return err
		}
		p.Key = uid
		p.UID = uid
		if err := tx.Set(uidRef, p); err != nil {
			return err
		}
		promoted = p
		return tx.Delete(legacyRef)
	})
	logger.StoreResult("PROMOTE", usersCollection, err, "to", uid)
	if err != nil {
		return nil, translateErr(err)
	}
	return promoted, nil
}

func (r *userRepository) Delete(ctx context.Context, key string) error {
	_, err := r.col().Doc(key).Delete(ctx)
	return translateErr(err)
}
