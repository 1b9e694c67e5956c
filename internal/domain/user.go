package domain

import (
	"slices"
	"strings"
	"time"
)

type AccessStatus string

const (
	AccessStatusPending  AccessStatus = "pending"
	AccessStatusApproved AccessStatus = "approved"
	AccessStatusRejected AccessStatus = "rejected"
	AccessStatusRetired  AccessStatus = "retired"
)

func (s AccessStatus) Valid() bool {
	switch s {
	case AccessStatusPending, AccessStatusApproved, AccessStatusRejected, AccessStatusRetired:
		return true
	}
	return false
}

const (
	RoleScout    = "scout"
	RoleParent   = "parent"
	RoleAdmin    = "admin"
	RoleApprover = "approver"
	RoleUser     = "user"
)

type Relation string

const (
	RelationFather Relation = "father"
	RelationMother Relation = "mother"
)

const (
	FamilyRoleScout  = "scout"
	FamilyRoleParent = "parent"
)

// UserProfile lives at users/{key}. The key is the normalized email until the
// first login, when the document is promoted to users/{uid}.
type UserProfile struct {
	Key            string       `json:"key" firestore:"-"`
	UID            string       `json:"uid,omitempty" firestore:"uid,omitempty"`
	Email          string       `json:"email" firestore:"email"`
	DisplayName    string       `json:"displayName" firestore:"displayName"`
	Roles          []string     `json:"roles" firestore:"roles"`
	AccessStatus   AccessStatus `json:"accessStatus" firestore:"accessStatus"`
	ScoutingStatus string       `json:"scoutingStatus,omitempty" firestore:"scoutingStatus,omitempty"`
	FamilyRole     string       `json:"familyRole,omitempty" firestore:"familyRole,omitempty"`
	Relation       Relation     `json:"relation,omitempty" firestore:"relation,omitempty"`
	ParentEmails   []string     `json:"parentEmails,omitempty" firestore:"parentEmails,omitempty"`
	ChildEmails    []string     `json:"childEmails,omitempty" firestore:"childEmails,omitempty"`
	FirstName      string       `json:"firstName" firestore:"firstName"`
	LastName       string       `json:"lastName" firestore:"lastName"`
	PreferredName  string       `json:"preferredName,omitempty" firestore:"preferredName,omitempty"`
	Phone          string       `json:"phone,omitempty" firestore:"phone,omitempty"`
	Patrol         string       `json:"patrol,omitempty" firestore:"patrol,omitempty"`
	Address        string       `json:"address,omitempty" firestore:"address,omitempty"`
	DateOfBirth    string       `json:"dateOfBirth,omitempty" firestore:"dateOfBirth,omitempty"`
	ApprovedAt     *time.Time   `json:"approvedAt,omitempty" firestore:"approvedAt,omitempty"`
	ApprovedBy     string       `json:"approvedBy,omitempty" firestore:"approvedBy,omitempty"`
	CreatedAt      time.Time    `json:"createdAt" firestore:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt" firestore:"updatedAt"`
}

func (p *UserProfile) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

func (p *UserProfile) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// CanReview reports whether the profile may approve or reject registrations.
func (p *UserProfile) CanReview() bool {
	return p.HasRole(RoleAdmin) || p.HasRole(RoleApprover)
}

func (p *UserProfile) IsApproved() bool {
	return p.AccessStatus == AccessStatusApproved
}

// MergeApproved folds an approval-time upsert into an existing profile. Scalar
// fields from the upsert win when set; roles and family links are unioned so a
// parent approved for a second child keeps the first.
func (p *UserProfile) MergeApproved(in *UserProfile) {
	p.Email = in.Email
	p.AccessStatus = AccessStatusApproved
	p.Roles = unionStrings(p.Roles, in.Roles)
	p.ParentEmails = unionStrings(p.ParentEmails, in.ParentEmails)
	p.ChildEmails = unionStrings(p.ChildEmails, in.ChildEmails)
	setIfPresent := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setIfPresent(&p.DisplayName, in.DisplayName)
	setIfPresent(&p.ScoutingStatus, in.ScoutingStatus)
	setIfPresent(&p.FamilyRole, in.FamilyRole)
	setIfPresent(&p.FirstName, in.FirstName)
	setIfPresent(&p.LastName, in.LastName)
	setIfPresent(&p.PreferredName, in.PreferredName)
	setIfPresent(&p.Phone, in.Phone)
	setIfPresent(&p.Address, in.Address)
	setIfPresent(&p.DateOfBirth, in.DateOfBirth)
	setIfPresent(&p.ApprovedBy, in.ApprovedBy)
	if in.Relation != "" {
		p.Relation = in.Relation
	}
	if in.ApprovedAt != nil {
		p.ApprovedAt = in.ApprovedAt
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = in.CreatedAt
	}
	p.UpdatedAt = in.UpdatedAt
}

// ProfilePatch carries the fields an admin or the user may edit.
type ProfilePatch struct {
	DisplayName    *string       `json:"displayName,omitempty"`
	FirstName      *string       `json:"firstName,omitempty"`
	LastName       *string       `json:"lastName,omitempty"`
	PreferredName  *string       `json:"preferredName,omitempty"`
	Phone          *string       `json:"phone,omitempty"`
	Patrol         *string       `json:"patrol,omitempty"`
	Address        *string       `json:"address,omitempty"`
	ScoutingStatus *string       `json:"scoutingStatus,omitempty"`
	Roles          *[]string     `json:"roles,omitempty"`
	AccessStatus   *AccessStatus `json:"accessStatus,omitempty"`
}

// SelfEditable strips the fields only reviewers may change.
func (pp ProfilePatch) SelfEditable() ProfilePatch {
	pp.Roles = nil
	pp.AccessStatus = nil
	pp.ScoutingStatus = nil
	pp.Patrol = nil
	return pp
}

func (pp ProfilePatch) Apply(p *UserProfile) {
	if pp.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*pp.DisplayName)
	}
	if pp.FirstName != nil {
		p.FirstName = strings.TrimSpace(*pp.FirstName)
	}
	if pp.LastName != nil {
		p.LastName = strings.TrimSpace(*pp.LastName)
	}
	if pp.PreferredName != nil {
		p.PreferredName = strings.TrimSpace(*pp.PreferredName)
	}
	if pp.Phone != nil {
		p.Phone = *pp.Phone
	}
	if pp.Patrol != nil {
		p.Patrol = *pp.Patrol
	}
	if pp.Address != nil {
		p.Address = *pp.Address
	}
	if pp.ScoutingStatus != nil {
		p.ScoutingStatus = *pp.ScoutingStatus
	}
	if pp.Roles != nil {
		p.Roles = unionStrings(nil, *pp.Roles)
	}
	if pp.AccessStatus != nil {
		p.AccessStatus = *pp.AccessStatus
	}
}

func unionStrings(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}
