package domain

import "time"

const DefaultPendingReminderDays = 3

// TroopSettings is the single settings/troop document.
type TroopSettings struct {
	TroopName           string    `json:"troopName" firestore:"troopName"`
	ReplyTo             string    `json:"replyTo,omitempty" firestore:"replyTo,omitempty"`
	SiteURL             string    `json:"siteUrl,omitempty" firestore:"siteUrl,omitempty"`
	WelcomeMessage      string    `json:"welcomeMessage,omitempty" firestore:"welcomeMessage,omitempty"` // markdown
	PendingReminderDays int       `json:"pendingReminderDays" firestore:"pendingReminderDays"`
	UpdatedAt           time.Time `json:"updatedAt" firestore:"updatedAt"`
	UpdatedBy           string    `json:"updatedBy,omitempty" firestore:"updatedBy,omitempty"`
}

func DefaultTroopSettings() *TroopSettings {
	return &TroopSettings{
		TroopName:           "Troop",
		PendingReminderDays: DefaultPendingReminderDays,
	}
}
