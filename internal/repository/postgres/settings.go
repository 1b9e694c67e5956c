package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"troop-backend/internal/domain"
	"troop-backend/internal/repository"
)

const settingsID = "troop"

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.TroopSettings, error) {
	var doc []byte
	if err := r.db.QueryRowContext(ctx, `SELECT doc FROM settings WHERE id = $1`, settingsID).Scan(&doc); err != nil {
		return nil, translateErr(err)
	}
	var s domain.TroopSettings
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepository) Save(ctx context.Context, s *domain.TroopSettings) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO settings (id, doc) VALUES ($1, $2)
	          ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`, settingsID, doc)
	return translateErr(err)
}
