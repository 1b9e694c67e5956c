package domain

import (
	"encoding/json"
	"time"
)

type EmailType string

const (
	EmailTypeApproval  EmailType = "APPROVAL"
	EmailTypeRejection EmailType = "REJECTION"
	EmailTypeDigest    EmailType = "DIGEST"
)

// EmailQueueStatusPending is the only status this service writes; the queue
// processor moves rows to SENT or FAILED.
const EmailQueueStatusPending = "PENDING"

// EmailRow is one outbound email record handed to a delivery path.
type EmailRow struct {
	Type     EmailType         `json:"type"`
	To       string            `json:"to"`
	Name     string            `json:"name"`
	Role     string            `json:"role"`
	Subject  string            `json:"subject"`
	HTMLBody string            `json:"htmlBody"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// SheetValues lays the row out in the fixed 9-column queue order:
// timestamp, type, to, name, role, subject, htmlBody, status, metaJson.
func (r EmailRow) SheetValues(at time.Time) []interface{} {
	meta := "{}"
	if len(r.Meta) > 0 {
		if b, err := json.Marshal(r.Meta); err == nil {
			meta = string(b)
		}
	}
	return []interface{}{
		at.UTC().Format(time.RFC3339),
		string(r.Type),
		r.To,
		r.Name,
		r.Role,
		r.Subject,
		r.HTMLBody,
		EmailQueueStatusPending,
		meta,
	}
}

// EmailQueueResult describes a batch accepted by a delivery path. Acceptance is
// all this service ever observes; actual delivery happens downstream.
type EmailQueueResult struct {
	Delivery string    `json:"delivery"`
	Rows     int       `json:"rows"`
	QueuedAt time.Time `json:"queuedAt"`
}
