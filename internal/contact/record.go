package contact

import (
	"encoding/json"
	"slices"
	"time"
)

// Record is one contact: a required name, any number of phones and emails,
// and an optional birthday. A Record is not safe for concurrent use.
type Record struct {
	name     Name
	phones   []Phone
	emails   []Email
	birthday *Birthday
}

// Option configures a Record at construction.
type Option func(*Record)

// WithPhone adds an initial phone number.
func WithPhone(p Phone) Option {
	return func(r *Record) { r.phones = append(r.phones, p) }
}

// WithEmail adds an initial email address.
func WithEmail(e Email) Option {
	return func(r *Record) { r.emails = append(r.emails, e) }
}

// WithBirthday sets the initial birthday.
func WithBirthday(b Birthday) Option {
	return func(r *Record) { r.birthday = &b }
}

// NewRecord creates a Record for name with the given options applied.
func NewRecord(name Name, opts ...Option) *Record {
	r := &Record{name: name}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the contact's name.
func (r *Record) Name() Name { return r.name }

// Phones returns a copy of the phone numbers in order.
func (r *Record) Phones() []Phone { return slices.Clone(r.phones) }

// Emails returns a copy of the email addresses in order.
func (r *Record) Emails() []Email { return slices.Clone(r.emails) }

// Birthday returns the birthday and whether one is set.
func (r *Record) Birthday() (Birthday, bool) {
	if r.birthday == nil {
		return Birthday{}, false
	}
	return *r.birthday, true
}

// AddPhone appends p. Duplicates are kept.
func (r *Record) AddPhone(p Phone) { r.phones = append(r.phones, p) }

// RemovePhone removes the first phone equal to p.
// Returns a *NotFoundError if the record has no such phone.
func (r *Record) RemovePhone(p Phone) error {
	i := slices.Index(r.phones, p)
	if i < 0 {
		return &NotFoundError{Field: "phone", Value: p.Value()}
	}
	r.phones = slices.Delete(r.phones, i, i+1)
	return nil
}

// EditPhone replaces the first phone equal to old with replacement.
// It does nothing if old is absent.
func (r *Record) EditPhone(old, replacement Phone) {
	if i := slices.Index(r.phones, old); i >= 0 {
		r.phones[i] = replacement
	}
}

// AddEmail appends e. Duplicates are kept.
func (r *Record) AddEmail(e Email) { r.emails = append(r.emails, e) }

// RemoveEmail removes the first email equal to e.
// Returns a *NotFoundError if the record has no such email.
func (r *Record) RemoveEmail(e Email) error {
	i := slices.Index(r.emails, e)
	if i < 0 {
		return &NotFoundError{Field: "email", Value: e.Value()}
	}
	r.emails = slices.Delete(r.emails, i, i+1)
	return nil
}

// EditEmail replaces the first email equal to old with replacement.
// It does nothing if old is absent.
func (r *Record) EditEmail(old, replacement Email) {
	if i := slices.Index(r.emails, old); i >= 0 {
		r.emails[i] = replacement
	}
}

// SetBirthday sets or replaces the birthday.
func (r *Record) SetBirthday(b Birthday) { r.birthday = &b }

// ClearBirthday removes the birthday.
func (r *Record) ClearBirthday() { r.birthday = nil }

// DaysToBirthday returns the number of days from today until the next
// birthday, 0 when it is today. The bool is false when no birthday is set.
func (r *Record) DaysToBirthday() (int, bool) {
	return r.DaysToBirthdayFrom(now())
}

// DaysToBirthdayFrom is DaysToBirthday measured from the calendar date of today.
// A Feb 29 birthday falls on Feb 28 in years without a leap day.
func (r *Record) DaysToBirthdayFrom(today time.Time) (int, bool) {
	if r.birthday == nil {
		return 0, false
	}
	start := dateOf(today)
	bd := r.birthday.Value()

	next := anniversary(start.Year(), bd.Month(), bd.Day())
	if next.Before(start) {
		next = anniversary(start.Year()+1, bd.Month(), bd.Day())
	}
	// Both dates are UTC midnights, so the difference is a whole number of days.
	return int(next.Sub(start).Hours() / 24), true
}

// anniversary returns month/day in year, clamping Feb 29 to Feb 28 when
// year has no leap day.
func anniversary(year int, month time.Month, day int) time.Time {
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// recordJSON is the stored shape of a Record.
type recordJSON struct {
	Name     Name      `json:"name"`
	Phones   []Phone   `json:"phones"`
	Emails   []Email   `json:"emails"`
	Birthday *Birthday `json:"birthday,omitempty"`
}

// MarshalJSON encodes the record with all of its fields.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Name:     r.name,
		Phones:   nonNil(r.phones),
		Emails:   nonNil(r.emails),
		Birthday: r.birthday,
	})
}

// UnmarshalJSON restores a record as stored, without re-validating its fields.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.name = raw.Name
	r.phones = raw.Phones
	r.emails = raw.Emails
	r.birthday = raw.Birthday
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
