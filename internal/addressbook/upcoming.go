package addressbook

import (
	"cmp"
	"slices"
	"time"

	"github.com/smileynet/contacts/internal/contact"
)

// Upcoming is a record whose next birthday falls within a report window.
type Upcoming struct {
	Record *contact.Record
	Days   int
}

// UpcomingBirthdays returns records whose next birthday is at most window
// days after today, soonest first. Ties keep insertion order.
func (b *AddressBook) UpcomingBirthdays(today time.Time, window int) []Upcoming {
	var out []Upcoming
	for _, key := range b.keys {
		r := b.records[key]
		days, ok := r.DaysToBirthdayFrom(today)
		if !ok || days > window {
			continue
		}
		out = append(out, Upcoming{Record: r, Days: days})
	}
	slices.SortStableFunc(out, func(a, b Upcoming) int { return cmp.Compare(a.Days, b.Days) })
	return out
}
