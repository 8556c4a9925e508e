package tui

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/smileynet/contacts/internal/addressbook"
	"github.com/smileynet/contacts/internal/contact"
)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// testToday is the reference date used by display tests.
var testToday = time.Date(2026, time.June, 15, 9, 0, 0, 0, time.UTC)

// sampleBook returns an in-memory book with three contacts.
func sampleBook(t *testing.T) *addressbook.AddressBook {
	t.Helper()
	b, err := addressbook.Open(filepath.Join(t.TempDir(), "book.json"))
	if err != nil {
		t.Fatal(err)
	}

	add := func(name, phone, email, birthday string) {
		n, _ := contact.NewName(name)
		r := contact.NewRecord(n)
		if phone != "" {
			p, err := contact.NewPhone(phone)
			if err != nil {
				t.Fatal(err)
			}
			r.AddPhone(p)
		}
		if email != "" {
			e, _ := contact.NewEmail(email)
			r.AddEmail(e)
		}
		if birthday != "" {
			bd, err := contact.ParseBirthday(birthday)
			if err != nil {
				t.Fatal(err)
			}
			r.SetBirthday(bd)
		}
		b.AddRecord(r)
	}
	add("John Doe", "0991234567", "john@gmail.com", "1990-06-16")
	add("Jane Smith", "0501234567", "jane@gmail.com", "")
	add("Bob Stone", "", "", "")
	return b
}

// numberedBook returns a book holding n contacts named "Contact 01" onward.
func numberedBook(t *testing.T, n int) *addressbook.AddressBook {
	t.Helper()
	b, err := addressbook.Open(filepath.Join(t.TempDir(), "book.json"))
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= n; i++ {
		name, _ := contact.NewName(fmt.Sprintf("Contact %02d", i))
		b.AddRecord(contact.NewRecord(name))
	}
	return b
}
