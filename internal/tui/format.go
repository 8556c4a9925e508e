package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/smileynet/contacts/internal/contact"
)

// FormatRecord renders a record as an indented multi-line card. Days to the
// next birthday are counted from today.
func FormatRecord(r *contact.Record, today time.Time) string {
	var b strings.Builder
	b.WriteString(r.Name().String())

	if phones := r.Phones(); len(phones) > 0 {
		b.WriteString("\n  phones: " + joinStrings(phones))
	}
	if emails := r.Emails(); len(emails) > 0 {
		b.WriteString("\n  emails: " + joinStrings(emails))
	}
	if bd, ok := r.Birthday(); ok {
		days, _ := r.DaysToBirthdayFrom(today)
		fmt.Fprintf(&b, "\n  birthday: %s (%s)", bd, DaysLabel(days))
	}
	return b.String()
}

// DaysLabel describes a birthday countdown: "today", "tomorrow" or "in N days".
func DaysLabel(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

func joinStrings[T fmt.Stringer](items []T) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, ", ")
}
