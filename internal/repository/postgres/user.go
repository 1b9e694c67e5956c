package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"troop-backend/internal/domain"
	"troop-backend/internal/logger"
	"troop-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanProfile(key string, doc []byte) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, err
	}
	p.Key = key
	return &p, nil
}

func (r *userRepository) Get(ctx context.Context, key string) (*domain.UserProfile, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM users WHERE key = $1`, key).Scan(&doc)
	if err != nil {
		return nil, translateErr(err)
	}
	return scanProfile(key, doc)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	logger.StoreCall("SELECT", "users", "email", email)
	var key string
	var doc []byte
	err := r.db.QueryRowContext(ctx, `SELECT key, doc FROM users WHERE email = $1 LIMIT 1`, email).Scan(&key, &doc)
	logger.StoreResult("SELECT", "users", err, "email", email)
	if err != nil {
		return nil, translateErr(err)
	}
	return scanProfile(key, doc)
}

func (r *userRepository) list(ctx context.Context, query string, args ...any) ([]domain.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	out := []domain.UserProfile{}
	for rows.Next() {
		var key string
		var doc []byte
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, err
		}
		p, err := scanProfile(key, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *userRepository) List(ctx context.Context) ([]domain.UserProfile, error) {
	return r.list(ctx, `SELECT key, doc FROM users ORDER BY email`)
}

func (r *userRepository) ListByRole(ctx context.Context, role string) ([]domain.UserProfile, error) {
	return r.list(ctx, `SELECT key, doc FROM users WHERE doc -> 'roles' ? $1 ORDER BY email`, role)
}

func writeProfile(ctx context.Context, q querier, p *domain.UserProfile) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `INSERT INTO users (key, email, doc, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (key) DO UPDATE SET email = EXCLUDED.email, doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		p.Key, p.Email, doc, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *userRepository) Save(ctx context.Context, p *domain.UserProfile) error {
	return translateErr(writeProfile(ctx, r.db, p))
}

func (r *userRepository) UpsertApproved(ctx context.Context, p *domain.UserProfile) error {
	logger.EnterMethod("userRepository.UpsertApproved", "key", p.Key)
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		existing := &domain.UserProfile{}
		var doc []byte
		err := tx.QueryRowContext(ctx, `SELECT doc FROM users WHERE key = $1 FOR UPDATE`, p.Key).Scan(&doc)
		switch {
		case err == nil:
			if existing, err = scanProfile(p.Key, doc); err != nil {
				return err
			}
		case errors.Is(err, sql.ErrNoRows):
			existing.Key = p.Key
		default:
			return err
		}
		existing.MergeApproved(p)
		return writeProfile(ctx, tx, existing)
	})
	if err != nil {
		logger.ExitMethodWithError("userRepository.UpsertApproved", err, "key", p.Key)
		return translateErr(err)
	}
	logger.ExitMethod("userRepository.UpsertApproved", "key", p.Key)
	return nil
}

func (r *userRepository) Promote(ctx context.Context, legacyKey, uid string) (*domain.UserProfile, error) {
	var promoted *domain.UserProfile
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var doc []byte
		if err := tx.QueryRowContext(ctx, `SELECT doc FROM users WHERE key = $1 FOR UPDATE`, legacyKey).Scan(&doc); err != nil {
			return err
		}
		p, err := scanProfile(uid, doc)
		if err != nil {
			return err
		}
		p.UID = uid
		if err := writeProfile(ctx, tx, p); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE key = $1`, legacyKey); err != nil {
			return err
		}
		promoted = p
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return promoted, nil
}

func (r *userRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE key = $1`, key)
	return translateErr(err)
}

func (r *userRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
