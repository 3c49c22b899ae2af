// Package form drives one customer's input session against a category schema:
// edits, conditional fields, validation, uploads and the hand-off to submission.
package form

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"borgo/internal/catalog"
	"borgo/internal/domain"
	"borgo/internal/rules"
)

// Identity is the customer's fixed contact data.
type Identity struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
}

// Snapshot is a validated session handed to the order lifecycle.
type Snapshot struct {
	CategoryID string
	Identity   Identity
	UserID     string
	Values     map[string]string
}

// Submitter persists a snapshot as an order.
type Submitter interface {
	Submit(ctx context.Context, snap Snapshot) (domain.Order, error)
}

type Option func(*Session)

// WithClock sets the source of "today". Defaults to time.Now.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

func WithUploader(u Uploader) Option { return func(s *Session) { s.uploader = u } }

// Session is safe for concurrent use; uploads complete on their own goroutines.
type Session struct {
	mu sync.Mutex

	category domain.Category
	fields   []domain.CategoryField
	dateKey  string
	now      func() time.Time
	uploader Uploader

	identity   Identity
	locked     bool
	userID     string
	values     map[string]string
	visible    map[string]bool
	inflight   map[string]int
	gen        map[string]int
	uploadErr  map[string]error
	state      State
	submitting bool
	lastErr    error
}

// New starts an empty session. Fields are ordered by position; equal positions
// keep their given order.
func New(cat domain.Category, fields []domain.CategoryField, opts ...Option) *Session {
	sorted := append([]domain.CategoryField(nil), fields...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	s := &Session{
		category:  cat,
		fields:    sorted,
		now:       time.Now,
		values:    map[string]string{},
		visible:   map[string]bool{},
		inflight:  map[string]int{},
		gen:       map[string]int{},
		uploadErr: map[string]error{},
	}
	for _, f := range sorted {
		if f.FieldKey == catalog.KeyPickupDate && f.Kind == domain.KindDate {
			s.dateKey = f.FieldKey
			break
		}
	}
	if s.dateKey == "" {
		for _, f := range sorted {
			if f.Kind == domain.KindDate {
				s.dateKey = f.FieldKey
				break
			}
		}
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError is the failure surfaced by the latest validation or submission.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) Fields() []domain.CategoryField {
	return append([]domain.CategoryField(nil), s.fields...)
}

// Prefill copies the signed-in customer's identity and locks it.
func (s *Session) Prefill(id Identity, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
	s.userID = userID
	s.locked = true
}

func (s *Session) Identity() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.locked
}

func (s *Session) SetIdentity(first, last, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	if s.locked {
		return ErrIdentityLocked
	}
	s.identity.FirstName, s.identity.LastName, s.identity.Phone = first, last, phone
	s.state = StateEditing
	return nil
}

// Set records one answer. Keys must belong to the schema or be a currently
// visible conditional field. An empty value clears the answer. File fields
// accept only the empty value.
func (s *Session) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	_, inSchema := s.fieldLocked(key)
	if !inSchema && !s.visible[key] {
		return ErrUnknownField
	}
	if cf, _, ok := conditionalByKey(key); ok && cf.File {
		// file fields are written by Upload; Set may only clear them
		if value != "" {
			return ErrUploadOnly
		}
		delete(s.inflight, key)
		delete(s.uploadErr, key)
	}

	prev := s.values[key]
	if value == "" {
		delete(s.values, key)
	} else {
		s.values[key] = value
	}
	s.refreshVisibleLocked()
	if key == s.dateKey && prev != value {
		s.revalidateTimesLocked()
	}
	s.state = StateEditing
	return nil
}

func (s *Session) Value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *Session) Values() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Visible lists the conditional fields currently revealed, in declaration order.
func (s *Session) Visible() []ConditionalField {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ConditionalField
	for _, r := range reveals {
		for _, f := range r.fields {
			if s.visible[f.Key] {
				out = append(out, f)
			}
		}
	}
	return out
}

// Slots returns the selectable times of a time field for the current pickup
// date. A generated rule without a chosen date reports ErrPickupDateRequired.
// A field without rules returns nil: any HH:MM is accepted.
func (s *Session) Slots(key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fieldLocked(key)
	if !ok || f.Kind != domain.KindTime {
		return nil, ErrUnknownField
	}
	return s.slotsLocked(f)
}

// SelectableDates lists selectable ISO dates of a date field in [from, to].
func (s *Session) SelectableDates(key string, from, to time.Time, full func(iso string) bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fieldLocked(key)
	if !ok || f.Kind != domain.KindDate {
		return nil, ErrUnknownField
	}
	return rules.SelectableDates(from, to, s.now(), f.Rules.DateRule(), s.category.MinLeadDays, full), nil
}

// Busy reports whether an upload or a submission is outstanding.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting || len(s.inflight) > 0
}

// Validate checks the whole session and surfaces the first failure.
func (s *Session) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

// Submit validates and hands the session to sub. On failure the session keeps
// every answer so the customer can retry.
func (s *Session) Submit(ctx context.Context, sub Submitter) (domain.Order, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return domain.Order{}, err
	}
	if len(s.inflight) > 0 {
		s.mu.Unlock()
		return domain.Order{}, ErrUploadInFlight
	}
	if err := s.validateLocked(); err != nil {
		s.mu.Unlock()
		return domain.Order{}, err
	}
	snap := s.snapshotLocked()
	s.submitting = true
	s.mu.Unlock()

	order, err := sub.Submit(ctx, snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	s.lastErr = err
	if err != nil {
		if domain.IsValidation(err) {
			s.state = StateInvalid
		}
		return domain.Order{}, err
	}
	s.state = StateSubmitted
	return order, nil
}

// Reset discards every answer. Completed uploads are left where they are.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]string{}
	s.visible = map[string]bool{}
	s.inflight = map[string]int{}
	s.uploadErr = map[string]error{}
	if !s.locked {
		s.identity = Identity{}
	}
	s.lastErr = nil
	s.state = StateEmpty
}

func (s *Session) editableLocked() error {
	if s.state == StateSubmitted {
		return ErrAlreadySubmitted
	}
	if s.submitting {
		return ErrBusy
	}
	return nil
}

func (s *Session) fieldLocked(key string) (domain.CategoryField, bool) {
	for _, f := range s.fields {
		if f.FieldKey == key {
			return f, true
		}
	}
	return domain.CategoryField{}, false
}

func (s *Session) refreshVisibleLocked() {
	for _, r := range reveals {
		show := Affirmative(s.values[r.trigger])
		for _, f := range r.fields {
			if show {
				s.visible[f.Key] = true
				continue
			}
			if s.visible[f.Key] {
				delete(s.visible, f.Key)
			}
			delete(s.values, f.Key)
			delete(s.inflight, f.Key)
			delete(s.uploadErr, f.Key)
		}
	}
}

func (s *Session) pickupDateLocked() (time.Time, bool) {
	if s.dateKey == "" {
		return time.Time{}, false
	}
	v := strings.TrimSpace(s.values[s.dateKey])
	if v == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(time.DateOnly, v)
	return d, err == nil
}

func (s *Session) slotsLocked(f domain.CategoryField) ([]string, error) {
	rule := f.Rules.TimeRule()
	if rule == nil {
		return nil, nil
	}
	if !rule.Generative() {
		return rules.AvailableSlots(time.Time{}, rule), nil
	}
	d, ok := s.pickupDateLocked()
	if !ok {
		return nil, ErrPickupDateRequired
	}
	return rules.AvailableSlots(d, rule), nil
}

// revalidateTimesLocked clears chosen times that the new pickup date no longer offers.
func (s *Session) revalidateTimesLocked() {
	for _, f := range s.fields {
		if f.Kind != domain.KindTime {
			continue
		}
		v, ok := s.values[f.FieldKey]
		if !ok || f.Rules.TimeRule() == nil {
			continue
		}
		slots, err := s.slotsLocked(f)
		if err != nil || !rules.Contains(slots, v) {
			delete(s.values, f.FieldKey)
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	vals := make(map[string]string, len(s.values))
	for _, f := range s.fields {
		if v := strings.TrimSpace(s.values[f.FieldKey]); v != "" {
			vals[f.FieldKey] = v
		}
	}
	for k := range s.visible {
		if v := strings.TrimSpace(s.values[k]); v != "" {
			vals[k] = v
		}
	}
	return Snapshot{
		CategoryID: s.category.ID,
		UserID:     s.userID,
		Values:     vals,
		Identity: Identity{
			FirstName: strings.TrimSpace(s.identity.FirstName),
			LastName:  strings.TrimSpace(s.identity.LastName),
			Phone:     strings.TrimSpace(s.identity.Phone),
			Email:     strings.TrimSpace(s.identity.Email),
		},
	}
}
