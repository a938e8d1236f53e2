// Package registrar owns events and the attendance marks recorded against
// them. Every operation runs inside one scoped storage acquisition.
package registrar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rollwise/attendance/internal/identity"
	"rollwise/attendance/internal/metrics"
)

type Registrar struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func New(store Store, log *zap.Logger) *Registrar {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registrar{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *Registrar) CreateEvent(ctx context.Context, owner Owner, name string) (Event, error) {
	v := &ValidationError{}
	owner.validate(v)
	name = strings.TrimSpace(name)
	if name == "" {
		v.add("name")
	}
	if err := v.orNil(); err != nil {
		return Event{}, err
	}

	ev := Event{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerHash: owner.Hash(),
		CreatedAt: r.now(),
	}
	var created Event
	err := r.store.WithConn(ctx, func(q Queries) error {
		var err error
		created, err = q.InsertEvent(ctx, ev)
		return err
	})
	if err != nil {
		return Event{}, r.fail("insert event", err)
	}
	return created, nil
}

// DeleteEvent removes the event when it belongs to owner. Zero rows deleted
// is not an error.
func (r *Registrar) DeleteEvent(ctx context.Context, owner Owner, eventID string) (int64, error) {
	id, err := r.ownerScoped(owner, eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var deleted int64
	err = r.store.WithConn(ctx, func(q Queries) error {
		var err error
		deleted, err = q.DeleteEvent(ctx, id, owner.Hash())
		return err
	})
	if err != nil {
		return 0, r.fail("delete event", err)
	}
	return deleted, nil
}

func (r *Registrar) ListEvents(ctx context.Context, owner Owner) ([]Event, error) {
	v := &ValidationError{}
	owner.validate(v)
	if err := v.orNil(); err != nil {
		return nil, err
	}
	var events []Event
	err := r.store.WithConn(ctx, func(q Queries) error {
		var err error
		events, err = q.ListEventsByOwner(ctx, owner.Hash())
		return err
	})
	if err != nil {
		return nil, r.fail("list events", err)
	}
	return events, nil
}

func (r *Registrar) EventDetails(ctx context.Context, eventID string) (Event, error) {
	id, err := parseEventID(eventID)
	if err != nil {
		return Event{}, err
	}
	var ev Event
	err = r.store.WithConn(ctx, func(q Queries) error {
		var err error
		ev, err = q.GetEvent(ctx, id)
		return err
	})
	if err != nil {
		return Event{}, r.fail("get event", err)
	}
	return ev, nil
}

// OwnedEvent returns the event when it belongs to owner and NotFound
// otherwise.
func (r *Registrar) OwnedEvent(ctx context.Context, owner Owner, eventID string) (Event, error) {
	id, err := r.ownerScoped(owner, eventID)
	if err != nil {
		return Event{}, err
	}
	var ev Event
	err = r.store.WithConn(ctx, func(q Queries) error {
		var err error
		ev, err = q.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if !identity.Equal(ev.OwnerHash, owner.Hash()) {
			return ErrEventNotFound
		}
		return nil
	})
	if err != nil {
		return Event{}, r.fail("get owned event", err)
	}
	return ev, nil
}

// AddPeople pre-registers people on an event the owner holds. Existing marks
// keep their attended flag.
func (r *Registrar) AddPeople(ctx context.Context, owner Owner, eventID string, people []Person) ([]Mark, error) {
	v := &ValidationError{}
	owner.validate(v)
	if strings.TrimSpace(eventID) == "" {
		v.add("eventId")
	}
	if len(people) == 0 {
		v.add("people")
	}
	cleaned := make([]Person, 0, len(people))
	for i, p := range people {
		p.Name = strings.TrimSpace(p.Name)
		p.Email = strings.TrimSpace(p.Email)
		if p.Name == "" {
			v.add(fmt.Sprintf("people[%d].name", i))
		}
		if p.Email == "" {
			v.add(fmt.Sprintf("people[%d].email", i))
		}
		cleaned = append(cleaned, p)
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}
	id, err := parseEventID(eventID)
	if err != nil {
		return nil, err
	}

	ownerHash := owner.Hash()
	marks := make([]Mark, 0, len(cleaned))
	err = r.store.WithTx(ctx, func(q Queries) error {
		ev, err := q.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if !identity.Equal(ev.OwnerHash, ownerHash) {
			return ErrEventNotFound
		}
		now := r.now()
		for _, p := range cleaned {
			mark, err := q.UpsertRegistration(ctx, Mark{
				EventID:   id,
				Email:     p.Email,
				Name:      p.Name,
				OwnerHash: ownerHash,
				UpdatedAt: now,
			})
			if err != nil {
				return err
			}
			marks = append(marks, mark)
		}
		return nil
	})
	if err != nil {
		return nil, r.fail("add people", err)
	}
	return marks, nil
}

// OwnPeople lists marks of an event scoped to the owner. A foreign or unknown
// event yields an empty list.
func (r *Registrar) OwnPeople(ctx context.Context, owner Owner, eventID string) ([]Mark, error) {
	id, err := r.ownerScoped(owner, eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return []Mark{}, nil
		}
		return nil, err
	}
	var marks []Mark
	err = r.store.WithConn(ctx, func(q Queries) error {
		var err error
		marks, err = q.ListMarksByOwner(ctx, id, owner.Hash())
		return err
	})
	if err != nil {
		return nil, r.fail("list marks", err)
	}
	return marks, nil
}

// PublicPeople lists every mark of an event whose results were published.
func (r *Registrar) PublicPeople(ctx context.Context, eventID string) ([]Mark, error) {
	id, err := parseEventID(eventID)
	if err != nil {
		return nil, err
	}
	var marks []Mark
	err = r.store.WithConn(ctx, func(q Queries) error {
		ev, err := q.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if !ev.Public {
			return ErrResultsPrivate
		}
		marks, err = q.ListMarks(ctx, id)
		return err
	})
	if err != nil {
		return nil, r.fail("list public marks", err)
	}
	return marks, nil
}

func (r *Registrar) IsRestricted(ctx context.Context, eventID string) (bool, error) {
	ev, err := r.EventDetails(ctx, eventID)
	if err != nil {
		return false, err
	}
	return ev.Restricted, nil
}

// ToggleRestricted flips the restricted flag atomically and returns the new
// value.
func (r *Registrar) ToggleRestricted(ctx context.Context, owner Owner, eventID string) (bool, error) {
	return r.toggle(ctx, owner, eventID, "toggle restricted", func(q Queries, id, hash string) (bool, error) {
		return q.ToggleRestricted(ctx, id, hash)
	})
}

func (r *Registrar) TogglePublic(ctx context.Context, owner Owner, eventID string) (bool, error) {
	return r.toggle(ctx, owner, eventID, "toggle public", func(q Queries, id, hash string) (bool, error) {
		return q.TogglePublic(ctx, id, hash)
	})
}

func (r *Registrar) toggle(ctx context.Context, owner Owner, eventID, op string, flip func(Queries, string, string) (bool, error)) (bool, error) {
	id, err := r.ownerScoped(owner, eventID)
	if err != nil {
		return false, err
	}
	var value bool
	err = r.store.WithConn(ctx, func(q Queries) error {
		var err error
		value, err = flip(q, id, owner.Hash())
		return err
	})
	if err != nil {
		return false, r.fail(op, err)
	}
	return value, nil
}

// MarkAttendance records that email attended the event. On a restricted event
// only pre-registered emails are accepted, and nothing is written otherwise.
// Repeating the call is idempotent apart from the refreshed name.
func (r *Registrar) MarkAttendance(ctx context.Context, eventID, name, email string) (Mark, error) {
	mark, err := r.markAttendance(ctx, eventID, name, email)
	metrics.ObserveMark(markOutcome(err))
	return mark, err
}

func (r *Registrar) markAttendance(ctx context.Context, eventID, name, email string) (Mark, error) {
	v := &ValidationError{}
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if strings.TrimSpace(eventID) == "" {
		v.add("eventId")
	}
	if name == "" {
		v.add("name")
	}
	if email == "" {
		v.add("email")
	}
	if err := v.orNil(); err != nil {
		return Mark{}, err
	}
	id, err := parseEventID(eventID)
	if err != nil {
		return Mark{}, err
	}

	var mark Mark
	err = r.store.WithConn(ctx, func(q Queries) error {
		ev, err := q.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if ev.Restricted {
			registered, err := q.MarkExists(ctx, id, email)
			if err != nil {
				return err
			}
			if !registered {
				return ErrNotRegistered
			}
		}
		mark, err = q.UpsertAttendance(ctx, Mark{
			EventID:   id,
			Email:     email,
			Name:      name,
			Attended:  true,
			OwnerHash: ev.OwnerHash,
			UpdatedAt: r.now(),
		})
		return err
	})
	if err != nil {
		return Mark{}, r.fail("mark attendance", err)
	}
	return mark, nil
}

// RemoveAttendee deletes one mark from an event the owner holds.
func (r *Registrar) RemoveAttendee(ctx context.Context, owner Owner, eventID, email string) (int64, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		v := &ValidationError{}
		owner.validate(v)
		if strings.TrimSpace(eventID) == "" {
			v.add("id")
		}
		v.add("deleteEmail")
		return 0, v
	}
	id, err := r.ownerScoped(owner, eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var deleted int64
	err = r.store.WithConn(ctx, func(q Queries) error {
		var err error
		deleted, err = q.DeleteMark(ctx, id, owner.Hash(), email)
		return err
	})
	if err != nil {
		return 0, r.fail("delete mark", err)
	}
	return deleted, nil
}

// ownerScoped validates the owner and event id fields and returns the
// canonical event id.
func (r *Registrar) ownerScoped(owner Owner, eventID string) (string, error) {
	v := &ValidationError{}
	owner.validate(v)
	if strings.TrimSpace(eventID) == "" {
		v.add("eventId")
	}
	if err := v.orNil(); err != nil {
		return "", err
	}
	return parseEventID(eventID)
}

func (r *Registrar) fail(op string, err error) error {
	err = storageErr(op, err)
	var serr *StorageError
	if errors.As(err, &serr) {
		r.log.Error("storage failure", zap.String("op", op), zap.Error(err))
	}
	return err
}

// parseEventID returns the canonical form of id. Ids that are not UUIDs can
// never name an event.
func parseEventID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", &ValidationError{Fields: []string{"eventId"}}
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrEventNotFound
	}
	return parsed.String(), nil
}

func markOutcome(err error) string {
	if err == nil {
		return "marked"
	}
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, ErrEventNotFound):
		return "not_found"
	case errors.Is(err, ErrNotRegistered):
		return "not_registered"
	}
	return "error"
}
