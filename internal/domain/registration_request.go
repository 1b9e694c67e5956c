package domain

import (
	"errors"
	"strings"
	"time"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

var (
	ErrScoutNameRequired  = errors.New("scout first and last name are required")
	ErrScoutEmailRequired = errors.New("scout email is required")
	ErrFatherEmailMissing = errors.New("father email is required when father is included")
	ErrMotherEmailMissing = errors.New("mother email is required when mother is included")
)

// RegistrationRequest is a transient workflow record: created pending, moved once
// to approved or rejected, and deleted after a successful approval.
type RegistrationRequest struct {
	ID                 string `json:"id" firestore:"-"`
	ScoutFirstName     string `json:"scoutFirstName" firestore:"scoutFirstName"`
	ScoutLastName      string `json:"scoutLastName" firestore:"scoutLastName"`
	ScoutPreferredName string `json:"scoutPreferredName,omitempty" firestore:"scoutPreferredName,omitempty"`
	ScoutEmail         string `json:"scoutEmail" firestore:"scoutEmail"`
	ScoutPhone         string `json:"scoutPhone,omitempty" firestore:"scoutPhone,omitempty"`
	ScoutDOB           string `json:"scoutDOB,omitempty" firestore:"scoutDOB,omitempty"`

	FatherFirstName string `json:"fatherFirstName,omitempty" firestore:"fatherFirstName,omitempty"`
	FatherLastName  string `json:"fatherLastName,omitempty" firestore:"fatherLastName,omitempty"`
	FatherEmail     string `json:"fatherEmail,omitempty" firestore:"fatherEmail,omitempty"`
	FatherPhone     string `json:"fatherPhone,omitempty" firestore:"fatherPhone,omitempty"`
	MotherFirstName string `json:"motherFirstName,omitempty" firestore:"motherFirstName,omitempty"`
	MotherLastName  string `json:"motherLastName,omitempty" firestore:"motherLastName,omitempty"`
	MotherEmail     string `json:"motherEmail,omitempty" firestore:"motherEmail,omitempty"`
	MotherPhone     string `json:"motherPhone,omitempty" firestore:"motherPhone,omitempty"`
	IncludeFather   bool   `json:"includeFather" firestore:"includeFather"`
	IncludeMother   bool   `json:"includeMother" firestore:"includeMother"`

	Address    string `json:"address,omitempty" firestore:"address,omitempty"`
	DateToJoin string `json:"dateToJoin,omitempty" firestore:"dateToJoin,omitempty"`

	Status          RequestStatus `json:"status" firestore:"status"`
	RejectionReason string        `json:"rejectionReason,omitempty" firestore:"rejectionReason,omitempty"`
	CreatedAt       time.Time     `json:"createdAt" firestore:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt" firestore:"updatedAt"`
	ApprovedAt      *time.Time    `json:"approvedAt,omitempty" firestore:"approvedAt,omitempty"`
	ApprovedBy      string        `json:"approvedBy,omitempty" firestore:"approvedBy,omitempty"`
	RejectedAt      *time.Time    `json:"rejectedAt,omitempty" firestore:"rejectedAt,omitempty"`
	RejectedBy      string        `json:"rejectedBy,omitempty" firestore:"rejectedBy,omitempty"`

	// EmailsQueuedAt is set once the decision emails were accepted for delivery.
	EmailsQueuedAt *time.Time `json:"emailsQueuedAt,omitempty" firestore:"emailsQueuedAt,omitempty"`
}

// Guardian is one included parent of a registration request.
type Guardian struct {
	Relation  Relation
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (g Guardian) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

// NormalizeEmail is the key function for email-keyed profile documents.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Normalize trims names and normalizes every email on the request.
func (r *RegistrationRequest) Normalize() {
	r.ScoutFirstName = strings.TrimSpace(r.ScoutFirstName)
	r.ScoutLastName = strings.TrimSpace(r.ScoutLastName)
	r.ScoutPreferredName = strings.TrimSpace(r.ScoutPreferredName)
	r.ScoutEmail = NormalizeEmail(r.ScoutEmail)
	r.FatherEmail = NormalizeEmail(r.FatherEmail)
	r.MotherEmail = NormalizeEmail(r.MotherEmail)
}

func (r *RegistrationRequest) Validate() error {
	if r.ScoutFirstName == "" || r.ScoutLastName == "" {
		return ErrScoutNameRequired
	}
	if NormalizeEmail(r.ScoutEmail) == "" {
		return ErrScoutEmailRequired
	}
	if r.IncludeFather && NormalizeEmail(r.FatherEmail) == "" {
		return ErrFatherEmailMissing
	}
	if r.IncludeMother && NormalizeEmail(r.MotherEmail) == "" {
		return ErrMotherEmailMissing
	}
	return nil
}

// ScoutDisplayName prefers the preferred name over the legal first name.
func (r *RegistrationRequest) ScoutDisplayName() string {
	first := r.ScoutFirstName
	if r.ScoutPreferredName != "" {
		first = r.ScoutPreferredName
	}
	return strings.TrimSpace(first + " " + r.ScoutLastName)
}

// Guardians returns the included parents that carry an email address.
func (r *RegistrationRequest) Guardians() []Guardian {
	var out []Guardian
	if r.IncludeFather && NormalizeEmail(r.FatherEmail) != "" {
		out = append(out, Guardian{
			Relation:  RelationFather,
			FirstName: r.FatherFirstName,
			LastName:  r.FatherLastName,
			Email:     NormalizeEmail(r.FatherEmail),
			Phone:     r.FatherPhone,
		})
	}
	if r.IncludeMother && NormalizeEmail(r.MotherEmail) != "" {
		out = append(out, Guardian{
			Relation:  RelationMother,
			FirstName: r.MotherFirstName,
			LastName:  r.MotherLastName,
			Email:     NormalizeEmail(r.MotherEmail),
			Phone:     r.MotherPhone,
		})
	}
	return out
}

// CanTransition reports whether the request may move to the given status.
// pending is initial; approved and rejected are terminal.
func (r *RegistrationRequest) CanTransition(to RequestStatus) bool {
	return r.Status == RequestStatusPending && (to == RequestStatusApproved || to == RequestStatusRejected)
}
