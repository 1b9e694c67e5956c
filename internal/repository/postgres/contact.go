package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"troop-backend/internal/domain"
	"troop-backend/internal/repository"
)

type contactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) repository.ContactRepository {
	return &contactRepository{db: db}
}

func scanContact(id string, doc []byte) (*domain.Contact, error) {
	var c domain.Contact
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, err
	}
	c.ID = id
	return &c, nil
}

func (r *contactRepository) List(ctx context.Context) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, doc FROM contacts ORDER BY name`)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	out := []domain.Contact{}
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		c, err := scanContact(id, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *contactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	var doc []byte
	if err := r.db.QueryRowContext(ctx, `SELECT doc FROM contacts WHERE id = $1`, id).Scan(&doc); err != nil {
		return nil, translateErr(err)
	}
	return scanContact(id, doc)
}

func (r *contactRepository) FindByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	var id string
	var doc []byte
	if err := r.db.QueryRowContext(ctx, `SELECT id, doc FROM contacts WHERE email = $1 LIMIT 1`, email).Scan(&id, &doc); err != nil {
		return nil, translateErr(err)
	}
	return scanContact(id, doc)
}

func (r *contactRepository) Save(ctx context.Context, c *domain.Contact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO contacts (id, name, email, doc) VALUES ($1, $2, $3, $4)
	          ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, doc = EXCLUDED.doc`,
		c.ID, c.Name, c.Email, doc)
	return translateErr(err)
}

func (r *contactRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	return translateErr(err)
}
