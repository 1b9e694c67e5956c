package domain

import (
	"errors"
	"time"
)

var ErrContactNameRequired = errors.New("contact name is required")

// Contact is an entry in the troop directory (leaders, committee, chartered org).
type Contact struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	Email     string    `json:"email,omitempty" firestore:"email,omitempty"`
	Phone     string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	Role      string    `json:"role,omitempty" firestore:"role,omitempty"`
	Notes     string    `json:"notes,omitempty" firestore:"notes,omitempty"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

func (c *Contact) Validate() error {
	if c.Name == "" {
		return ErrContactNameRequired
	}
	return nil
}
