// Package contact implements the validated contact record model: typed
// fields (name, phone, email, birthday) and the Record that aggregates them.
package contact

import (
	"encoding/json"
	"regexp"
	"time"
)

// now is the clock used for birthday validation and countdowns.
// Tests replace it to pin "today".
var now = time.Now

// Field is a single validated value. Set runs the variant's validation rule
// and leaves the stored value untouched when the rule rejects v.
type Field[T any] interface {
	Value() T
	Set(v T) error
	String() string
}

// Compile-time checks: every variant satisfies Field.
var (
	_ Field[string]    = (*Name)(nil)
	_ Field[string]    = (*Phone)(nil)
	_ Field[string]    = (*Email)(nil)
	_ Field[time.Time] = (*Birthday)(nil)
)

// Name is a contact's display name. Any string is accepted.
type Name struct {
	value string
}

// NewName returns a Name holding v.
func NewName(v string) (Name, error) {
	var n Name
	if err := n.Set(v); err != nil {
		return Name{}, err
	}
	return n, nil
}

// Value returns the name.
func (n Name) Value() string { return n.value }

// String returns the name.
func (n Name) String() string { return n.value }

// Set replaces the name. It never fails.
func (n *Name) Set(v string) error {
	n.value = v
	return nil
}

// phonePattern matches exactly ten ASCII digits.
var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Phone is a ten-digit phone number with no separators or country prefix.
type Phone struct {
	value string
}

// NewPhone returns a Phone holding v, or a *ValidationError if v is not ten digits.
func NewPhone(v string) (Phone, error) {
	var p Phone
	if err := p.Set(v); err != nil {
		return Phone{}, err
	}
	return p, nil
}

// Value returns the digits.
func (p Phone) Value() string { return p.value }

// String returns the digits.
func (p Phone) String() string { return p.value }

// Set replaces the number if v is exactly ten digits.
func (p *Phone) Set(v string) error {
	if !phonePattern.MatchString(v) {
		return &ValidationError{Field: "phone", Value: v, Reason: "must be exactly 10 digits"}
	}
	p.value = v
	return nil
}

// Email is an email address. The format is not checked.
type Email struct {
	value string
}

// NewEmail returns an Email holding v. Any string is accepted.
func NewEmail(v string) (Email, error) {
	var e Email
	if err := e.Set(v); err != nil {
		return Email{}, err
	}
	return e, nil
}

// Value returns the address.
func (e Email) Value() string { return e.value }

// String returns the address.
func (e Email) String() string { return e.value }

// Set replaces the address. It never fails.
func (e *Email) Set(v string) error {
	e.value = v
	return nil
}

// Birthday is a calendar date that is not in the future.
type Birthday struct {
	value time.Time
}

// NewBirthday returns a Birthday for v, or a *ValidationError if v is later
// than the current moment.
func NewBirthday(v time.Time) (Birthday, error) {
	var b Birthday
	if err := b.Set(v); err != nil {
		return Birthday{}, err
	}
	return b, nil
}

// Value returns the birthday as midnight UTC of its calendar date.
func (b Birthday) Value() time.Time { return b.value }

// String formats the birthday as YYYY-MM-DD.
func (b Birthday) String() string { return b.value.Format(time.DateOnly) }

// Equal reports whether both birthdays fall on the same date.
func (b Birthday) Equal(other Birthday) bool { return b.value.Equal(other.value) }

// Set replaces the birthday. The check is against the clock at call time,
// so a birthday accepted once stays acceptable forever.
func (b *Birthday) Set(v time.Time) error {
	if v.After(now()) {
		return &ValidationError{Field: "birthday", Value: v.Format(time.DateOnly), Reason: "cannot be in the future"}
	}
	b.value = dateOf(v)
	return nil
}

// ParseBirthday parses a YYYY-MM-DD date in the clock's location and
// validates it as a Birthday, so today's local date is never in the future.
func ParseBirthday(s string) (Birthday, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, now().Location())
	if err != nil {
		return Birthday{}, &ValidationError{Field: "birthday", Value: s, Reason: "want YYYY-MM-DD"}
	}
	return NewBirthday(t)
}

// dateOf truncates t to midnight UTC of its own calendar date.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Stored values are trusted: decoding never re-runs validation.

func (n Name) MarshalJSON() ([]byte, error)      { return json.Marshal(n.value) }
func (n *Name) UnmarshalJSON(data []byte) error  { return json.Unmarshal(data, &n.value) }
func (p Phone) MarshalJSON() ([]byte, error)     { return json.Marshal(p.value) }
func (p *Phone) UnmarshalJSON(data []byte) error { return json.Unmarshal(data, &p.value) }
func (e Email) MarshalJSON() ([]byte, error)     { return json.Marshal(e.value) }
func (e *Email) UnmarshalJSON(data []byte) error { return json.Unmarshal(data, &e.value) }

func (b Birthday) MarshalJSON() ([]byte, error) { return json.Marshal(b.String()) }

func (b *Birthday) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	b.value = t
	return nil
}
