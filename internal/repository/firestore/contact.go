package firestore

import (
	"context"

	gfs "cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"troop-backend/internal/domain"
	"troop-backend/internal/repository"
)

type contactRepository struct {
	client *gfs.Client
}

func NewContactRepository(client *gfs.Client) repository.ContactRepository {
	return &contactRepository{client: client}
}

func (r *contactRepository) col() *gfs.CollectionRef {
	return r.client.Collection(contactsCollection)
}

func decodeContact(snap *gfs.DocumentSnapshot) (*domain.Contact, error) {
	var c domain.Contact
	if err := snap.DataTo(&c); err != nil {
		return nil, err
	}
	c.ID = snap.Ref.ID
	return &c, nil
}

func (r *contactRepository) List(ctx context.Context) ([]domain.Contact, error) {
	snaps, err := r.col().OrderBy("name", gfs.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, translateErr(err)
	}
	out := make([]domain.Contact, 0, len(snaps))
	for _, snap := range snaps {
		c, err := decodeContact(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *contactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		return nil, translateErr(err)
	}
	return decodeContact(snap)
}

func (r *contactRepository) FindByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	snaps, err := r.col().Where("email", "==", email).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, translateErr(err)
	}
	if len(snaps) == 0 {
		return nil, domain.ErrNotFound
	}
	return decodeContact(snaps[0])
}

func (r *contactRepository) Save(ctx context.Context, c *domain.Contact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.col().Doc(c.ID).Set(ctx, c)
	return translateErr(err)
}

func (r *contactRepository) Delete(ctx context.Context, id string) error {
	_, err := r.col().Doc(id).Delete(ctx)
	return translateErr(err)
}
