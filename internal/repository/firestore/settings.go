package firestore

import (
	"context"

	gfs "cloud.google.com/go/firestore"

	"troop-backend/internal/domain"
	"troop-backend/internal/repository"
)

type settingsRepository struct {
	client *gfs.Client
}

func NewSettingsRepository(client *gfs.Client) repository.SettingsRepository {
	return &settingsRepository{client: client}
}

func (r *settingsRepository) doc() *gfs.DocumentRef {
	return r.client.Collection(settingsCollection).Doc(settingsDocument)
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.TroopSettings, error) {
	snap, err := r.doc().Get(ctx)
	if err != nil {
		return nil, translateErr(err)
	}
	var s domain.TroopSettings
	if err := snap.DataTo(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepository) Save(ctx context.Context, s *domain.TroopSettings) error {
	_, err := r.doc().Set(ctx, s)
	return translateErr(err)
}
