package domain

import "time"

// Notification is an in-app message. UserKey is the recipient's normalized
// email so it survives the email-to-UID profile promotion.
type Notification struct {
	ID        string    `json:"id" firestore:"-"`
	UserKey   string    `json:"userKey" firestore:"userKey"`
	Title     string    `json:"title" firestore:"title"`
	Message   string    `json:"message" firestore:"message"`
	Link      string    `json:"link,omitempty" firestore:"link,omitempty"`
	IsRead    bool      `json:"isRead" firestore:"isRead"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}
