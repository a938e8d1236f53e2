package registrar

import (
	"strings"
	"time"

	"rollwise/attendance/internal/identity"
)

type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerHash  string    `json:"-"`
	Restricted bool      `json:"isRestricted"`
	Public     bool      `json:"isPublic"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Mark struct {
	EventID   string    `json:"eventId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Attended  bool      `json:"attended"`
	OwnerHash string    `json:"-"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarkState is the lifecycle of a (event, email) record. The only
// transition is Registered -> Attended.
type MarkState int

const (
	StateRegistered MarkState = iota
	StateAttended
)

func (s MarkState) String() string {
	switch s {
	case StateAttended:
		return "attended"
	default:
		return "registered"
	}
}

// Attend moves the state forward. Attended stays attended.
func (s MarkState) Attend() MarkState {
	return StateAttended
}

func (m Mark) State() MarkState {
	if m.Attended {
		return StateAttended
	}
	return StateRegistered
}

type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Owner is the caller identity asserted by the identity provider.
type Owner struct {
	UserID string
	Email  string
}

func (o Owner) Hash() string {
	return identity.OwnerHash(o.UserID, o.Email)
}

func (o Owner) validate(v *ValidationError) {
	if strings.TrimSpace(o.UserID) == "" {
		v.add("userId")
	}
	if strings.TrimSpace(o.Email) == "" {
		v.add("email")
	}
}
