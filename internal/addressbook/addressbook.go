// Package addressbook implements a file-backed, searchable collection of
// contact records keyed by name.
//
// An AddressBook is not safe for concurrent use, and two books bound to the
// same file overwrite each other on Dump (last writer wins).
package addressbook

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/state"
)

// Sentinel errors for caller-checkable conditions.
var (
	ErrNotFound    = errors.New("addressbook: record not found")
	ErrPersistence = errors.New("addressbook: persistence failed")
)

// PersistenceError reports a failed Load or Dump. The in-memory book is left
// as it was before the call.
type PersistenceError struct {
	Op   string // "load", "dump" or "reset"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("addressbook: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both ErrPersistence and the underlying cause.
func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// AddressBook maps contact names to records, remembering insertion order.
// Changes live in memory until Dump is called.
type AddressBook struct {
	store        *state.FileStore
	keys         []string
	records      map[string]*contact.Record
	lastRecordID int
}

// Open creates an AddressBook bound to path and loads it. A missing file
// yields an empty book; an unreadable or corrupt one returns a *PersistenceError.
func Open(path string) (*AddressBook, error) {
	b := &AddressBook{
		store:   state.NewFileStore(path),
		records: make(map[string]*contact.Record),
	}
	if err := b.Load(); err != nil {
		return nil, err
	}
	return b, nil
}

// Path returns the file the book is bound to.
func (b *AddressBook) Path() string { return b.store.Path() }

// Len returns the number of records.
func (b *AddressBook) Len() int { return len(b.keys) }

// LastRecordID returns the persisted record identifier counter.
func (b *AddressBook) LastRecordID() int { return b.lastRecordID }

// Keys returns the record keys in insertion order.
func (b *AddressBook) Keys() []string { return slices.Clone(b.keys) }

// AddRecord stores r under its name. A record already stored under that name
// is replaced and keeps its original position.
func (b *AddressBook) AddRecord(r *contact.Record) {
	key := r.Name().Value()
	if _, exists := b.records[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.records[key] = r
}

// Get returns the record stored under name.
func (b *AddressBook) Get(name string) (*contact.Record, bool) {
	r, ok := b.records[name]
	return r, ok
}

// Remove deletes the record stored under name.
func (b *AddressBook) Remove(name string) error {
	if _, ok := b.records[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(b.records, name)
	b.keys = slices.DeleteFunc(b.keys, func(k string) bool { return k == name })
	return nil
}

// Search returns, in insertion order, the keys of records whose name contains
// query (ignoring case), which hold a phone exactly equal to query, or whose
// emails contain query (ignoring case). No match yields an empty slice.
func (b *AddressBook) Search(query string) []string {
	lower := strings.ToLower(query)
	result := []string{}
	for _, key := range b.keys {
		if matches(b.records[key], query, lower) {
			result = append(result, key)
		}
	}
	return result
}

func matches(r *contact.Record, query, lower string) bool {
	if strings.Contains(strings.ToLower(r.Name().Value()), lower) {
		return true
	}
	for _, p := range r.Phones() {
		if p.Value() == query {
			return true
		}
	}
	for _, e := range r.Emails() {
		if strings.Contains(strings.ToLower(e.Value()), lower) {
			return true
		}
	}
	return false
}

// Batches yields the records in insertion order, size at a time. The final
// batch may be shorter; size <= 0 is treated as 1. The records are captured
// when Batches is called, and the sequence can be ranged over repeatedly.
func (b *AddressBook) Batches(size int) iter.Seq[[]*contact.Record] {
	if size <= 0 {
		size = 1
	}
	records := b.snapshot()
	return func(yield func([]*contact.Record) bool) {
		for batch := range slices.Chunk(records, size) {
			if !yield(batch) {
				return
			}
		}
	}
}

func (b *AddressBook) snapshot() []*contact.Record {
	out := make([]*contact.Record, len(b.keys))
	for i, key := range b.keys {
		out[i] = b.records[key]
	}
	return out
}

// Dump writes every record and the identifier counter to the bound file,
// replacing its previous contents.
func (b *AddressBook) Dump() error {
	snap := state.Snapshot{
		Entries:      make([]state.Entry, len(b.keys)),
		LastRecordID: b.lastRecordID,
	}
	for i, key := range b.keys {
		snap.Entries[i] = state.Entry{Key: key, Record: b.records[key]}
	}
	if err := b.store.Save(snap); err != nil {
		return &PersistenceError{Op: "dump", Path: b.Path(), Err: err}
	}
	return nil
}

// Load replaces the in-memory book with the bound file's contents. A missing
// file resets the book to empty with a zero counter.
func (b *AddressBook) Load() error {
	snap, found, err := b.store.Load()
	if err != nil {
		return &PersistenceError{Op: "load", Path: b.Path(), Err: err}
	}
	if !found {
		b.keys = nil
		b.records = make(map[string]*contact.Record)
		b.lastRecordID = 0
		return nil
	}

	keys := make([]string, 0, len(snap.Entries))
	records := make(map[string]*contact.Record, len(snap.Entries))
	for _, e := range snap.Entries {
		if _, dup := records[e.Key]; !dup {
			keys = append(keys, e.Key)
		}
		records[e.Key] = e.Record
	}
	b.keys = keys
	b.records = records
	b.lastRecordID = snap.LastRecordID
	return nil
}

// Reset deletes the bound file and empties the book. The counter returns to 0.
func (b *AddressBook) Reset() error {
	if err := b.store.Remove(); err != nil {
		return &PersistenceError{Op: "reset", Path: b.Path(), Err: err}
	}
	b.keys = nil
	b.records = make(map[string]*contact.Record)
	b.lastRecordID = 0
	return nil
}
