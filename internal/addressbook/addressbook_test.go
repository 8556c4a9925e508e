package addressbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/state"
)

func newRecord(t testing.TB, name string, phones []string, emails []string) *contact.Record {
	t.Helper()
	n, err := contact.NewName(name)
	if err != nil {
		t.Fatal(err)
	}
	r := contact.NewRecord(n)
	for _, s := range phones {
		p, err := contact.NewPhone(s)
		if err != nil {
			t.Fatalf("NewPhone(%q) error = %v", s, err)
		}
		r.AddPhone(p)
	}
	for _, s := range emails {
		e, err := contact.NewEmail(s)
		if err != nil {
			t.Fatal(err)
		}
		r.AddEmail(e)
	}
	return r
}

func openEmpty(t *testing.T) *AddressBook {
	t.Helper()
	b, err := Open(filepath.Join(t.TempDir(), "book.json"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return b
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	// Given a path with no file
	path := filepath.Join(t.TempDir(), "book.json")

	// When the book is opened
	b, err := Open(path)

	// Then it is empty with a zero counter
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("Len() = %d, want 0", b.Len())
	}
	if b.LastRecordID() != 0 {
		t.Errorf("LastRecordID() = %d, want 0", b.LastRecordID())
	}
	if b.Path() != path {
		t.Errorf("Path() = %q, want %q", b.Path(), path)
	}
}

func TestOpen_CorruptFile(t *testing.T) {
	// Given a file with garbage content
	path := filepath.Join(t.TempDir(), "book.json")
	if err := os.WriteFile(path, []byte("\x80\x04garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	// When the book is opened
	_, err := Open(path)

	// Then a persistence error distinguishable from absence is returned
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("Open() error = %v, want *PersistenceError", err)
	}
	if perr.Op != "load" {
		t.Errorf("Op = %q, want %q", perr.Op, "load")
	}
	if !errors.Is(err, ErrPersistence) || !errors.Is(err, state.ErrCorrupt) {
		t.Errorf("error = %v, want ErrPersistence and state.ErrCorrupt", err)
	}
}

func TestAddRecord_OverwritesInPlace(t *testing.T) {
	// Given a book with two records
	b := openEmpty(t)
	b.AddRecord(newRecord(t, "John Doe", []string{"0991234567"}, nil))
	b.AddRecord(newRecord(t, "Jane Smith", nil, nil))

	// When a record with an existing name is added
	replacement := newRecord(t, "John Doe", []string{"0505555555"}, nil)
	b.AddRecord(replacement)

	// Then it replaces the old one without merging and keeps its position
	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}
	if got := b.Keys(); !slices.Equal(got, []string{"John Doe", "Jane Smith"}) {
		t.Errorf("Keys() = %v", got)
	}
	r, ok := b.Get("John Doe")
	if !ok || r != replacement {
		t.Fatalf("Get() = %v, %v; want replacement", r, ok)
	}
	if phones := r.Phones(); len(phones) != 1 || phones[0].Value() != "0505555555" {
		t.Errorf("phones = %v, want [0505555555]", phones)
	}
}

func TestRemove(t *testing.T) {
	b := openEmpty(t)
	b.AddRecord(newRecord(t, "A", nil, nil))
	b.AddRecord(newRecord(t, "B", nil, nil))

	if err := b.Remove("A"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if got := b.Keys(); !slices.Equal(got, []string{"B"}) {
		t.Errorf("Keys() = %v, want [B]", got)
	}
	if err := b.Remove("A"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(absent) error = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	b := openEmpty(t)
	b.AddRecord(newRecord(t, "John Doe", []string{"0991234567"}, []string{"john@gmail.com"}))
	b.AddRecord(newRecord(t, "Jane Smith", []string{"0501234567"}, []string{"jane@gmail.com"}))

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "partial lowercase name", query: "john", want: []string{"John Doe"}},
		{name: "uppercase name", query: "SMITH", want: []string{"Jane Smith"}},
		{name: "exact phone", query: "0501234567", want: []string{"Jane Smith"}},
		{name: "partial phone does not match", query: "099123", want: []string{}},
		{name: "email case varied", query: "JOHN@GMAIL.COM", want: []string{"John Doe"}},
		{name: "email domain matches both in order", query: "@gmail", want: []string{"John Doe", "Jane Smith"}},
		{name: "no match", query: "zzz", want: []string{}},
		{name: "empty query matches every name", query: "", want: []string{"John Doe", "Jane Smith"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.Search(tt.query)
			if got == nil {
				t.Fatal("Search() returned nil, want non-nil slice")
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestBatches(t *testing.T) {
	// Given five records
	b := openEmpty(t)
	for i := 1; i <= 5; i++ {
		b.AddRecord(newRecord(t, fmt.Sprintf("c%d", i), nil, nil))
	}

	// When iterating in batches of two
	var sizes []int
	var names []string
	for batch := range b.Batches(2) {
		sizes = append(sizes, len(batch))
		for _, r := range batch {
			names = append(names, r.Name().Value())
		}
	}

	// Then batches are [2 2 1] covering every record once in order
	if !slices.Equal(sizes, []int{2, 2, 1}) {
		t.Errorf("batch sizes = %v, want [2 2 1]", sizes)
	}
	if !slices.Equal(names, []string{"c1", "c2", "c3", "c4", "c5"}) {
		t.Errorf("names = %v", names)
	}
}

func TestBatches_DefaultSizeAndRestart(t *testing.T) {
	b := openEmpty(t)
	b.AddRecord(newRecord(t, "A", nil, nil))
	b.AddRecord(newRecord(t, "B", nil, nil))

	seq := b.Batches(0)

	for pass := 0; pass < 2; pass++ {
		count := 0
		for batch := range seq {
			if len(batch) != 1 {
				t.Errorf("pass %d: batch len = %d, want 1", pass, len(batch))
			}
			count++
		}
		if count != 2 {
			t.Errorf("pass %d: %d batches, want 2", pass, count)
		}
	}
}

func TestBatches_SnapshotAtCallTime(t *testing.T) {
	// Given a sequence taken from a one-record book
	b := openEmpty(t)
	b.AddRecord(newRecord(t, "A", nil, nil))
	seq := b.Batches(10)

	// When a record is added afterwards
	b.AddRecord(newRecord(t, "B", nil, nil))

	// Then the sequence still covers only the original record
	for batch := range seq {
		if len(batch) != 1 {
			t.Errorf("batch len = %d, want 1", len(batch))
		}
	}
}

func TestBatches_EarlyBreak(t *testing.T) {
	b := openEmpty(t)
	for i := 0; i < 4; i++ {
		b.AddRecord(newRecord(t, fmt.Sprintf("c%d", i), nil, nil))
	}

	seen := 0
	for range b.Batches(1) {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("seen = %d, want 2", seen)
	}
}

func TestDumpLoad_RoundTrip(t *testing.T) {
	// Given a book with records holding every field
	path := filepath.Join(t.TempDir(), "book.json")
	b, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	john := newRecord(t, "John Doe", []string{"0991234567", "0505555555"}, []string{"john@gmail.com"})
	bd, err := contact.NewBirthday(time.Date(1990, time.May, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	john.SetBirthday(bd)
	b.AddRecord(john)
	b.AddRecord(newRecord(t, "Jane Smith", []string{"0501234567"}, []string{"updated@gmail.com"}))

	// When it is dumped and reopened in a fresh instance
	if err := b.Dump(); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// Then keys and field values match
	if !slices.Equal(reopened.Keys(), b.Keys()) {
		t.Fatalf("Keys() = %v, want %v", reopened.Keys(), b.Keys())
	}
	for _, key := range b.Keys() {
		want, _ := b.Get(key)
		got, _ := reopened.Get(key)
		assertRecordEqual(t, got, want)
	}
}

func TestDumpLoad_RoundTripProperty(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(rt *rapid.T) {
		path := filepath.Join(dir, "prop.json")
		b, err := Open(path)
		if err != nil {
			rt.Fatal(err)
		}
		for _, k := range b.Keys() {
			_ = b.Remove(k)
		}

		n := rapid.IntRange(0, 6).Draw(rt, "n")
		for i := 0; i < n; i++ {
			name := rapid.StringMatching(`[A-Za-z ]{1,12}`).Draw(rt, fmt.Sprintf("name-%d", i))
			phones := rapid.SliceOfN(rapid.StringMatching(`[0-9]{10}`), 0, 3).Draw(rt, fmt.Sprintf("phones-%d", i))
			emails := rapid.SliceOfN(rapid.String(), 0, 3).Draw(rt, fmt.Sprintf("emails-%d", i))
			b.AddRecord(newRecord(t, name, phones, emails))
		}
		if err := b.Dump(); err != nil {
			rt.Fatalf("Dump() error = %v", err)
		}

		reopened, err := Open(path)
		if err != nil {
			rt.Fatalf("Open() error = %v", err)
		}
		if !slices.Equal(reopened.Keys(), b.Keys()) {
			rt.Fatalf("Keys() = %v, want %v", reopened.Keys(), b.Keys())
		}
		for _, key := range b.Keys() {
			want, _ := b.Get(key)
			got, _ := reopened.Get(key)
			if !slices.Equal(got.Phones(), want.Phones()) || !slices.Equal(got.Emails(), want.Emails()) {
				rt.Fatalf("record %q differs after round trip", key)
			}
		}
	})
}

func assertRecordEqual(t *testing.T, got, want *contact.Record) {
	t.Helper()
	if got == nil {
		t.Fatalf("missing record %q", want.Name().Value())
	}
	if got.Name() != want.Name() {
		t.Errorf("Name = %v, want %v", got.Name(), want.Name())
	}
	if !slices.Equal(got.Phones(), want.Phones()) {
		t.Errorf("Phones = %v, want %v", got.Phones(), want.Phones())
	}
	if !slices.Equal(got.Emails(), want.Emails()) {
		t.Errorf("Emails = %v, want %v", got.Emails(), want.Emails())
	}
	gb, gok := got.Birthday()
	wb, wok := want.Birthday()
	if gok != wok || (gok && !gb.Equal(wb)) {
		t.Errorf("Birthday = %v (%v), want %v (%v)", gb, gok, wb, wok)
	}
}

func TestLoad_DiscardsUnsavedChanges(t *testing.T) {
	// Given a dumped book with one record
	path := filepath.Join(t.TempDir(), "book.json")
	b, _ := Open(path)
	b.AddRecord(newRecord(t, "A", nil, nil))
	if err := b.Dump(); err != nil {
		t.Fatal(err)
	}

	// When another record is added but not dumped, then Load is called
	b.AddRecord(newRecord(t, "B", nil, nil))
	if err := b.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Then only the persisted record remains
	if got := b.Keys(); !slices.Equal(got, []string{"A"}) {
		t.Errorf("Keys() = %v, want [A]", got)
	}
}

func TestLoad_FailureKeepsMemoryState(t *testing.T) {
	// Given a book with an in-memory record
	path := filepath.Join(t.TempDir(), "book.json")
	b, _ := Open(path)
	b.AddRecord(newRecord(t, "A", nil, nil))

	// When the file is corrupted and Load is called
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := b.Load()

	// Then Load fails and memory is untouched
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("Load() error = %v, want ErrPersistence", err)
	}
	if got := b.Keys(); !slices.Equal(got, []string{"A"}) {
		t.Errorf("Keys() = %v, want [A]", got)
	}
}

func TestDump_Failure(t *testing.T) {
	// Given an opened book whose directory is then replaced by a regular file
	dir := filepath.Join(t.TempDir(), "sub")
	b, err := Open(filepath.Join(dir, "book.json"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := os.WriteFile(dir, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	b.AddRecord(newRecord(t, "A", nil, nil))

	// When Dump is called
	err = b.Dump()

	// Then a dump PersistenceError is returned and the record is still in memory
	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Op != "dump" {
		t.Fatalf("Dump() error = %v, want dump *PersistenceError", err)
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
}

func TestLoad_PreservesCounter(t *testing.T) {
	// Given a file written with a non-zero counter
	path := filepath.Join(t.TempDir(), "book.json")
	if err := state.NewFileStore(path).Save(state.Snapshot{LastRecordID: 42}); err != nil {
		t.Fatal(err)
	}

	// When the book is opened and dumped again
	b, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Dump(); err != nil {
		t.Fatal(err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	// Then the counter survives untouched
	if reopened.LastRecordID() != 42 {
		t.Errorf("LastRecordID() = %d, want 42", reopened.LastRecordID())
	}
}

func TestReset(t *testing.T) {
	// Given a dumped book with one record
	b := openEmpty(t)
	b.AddRecord(newRecord(t, "John", []string{"0991234567"}, nil))
	if err := b.Dump(); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	// When the book is reset twice
	if err := b.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if err := b.Reset(); err != nil {
		t.Fatalf("second Reset() error = %v", err)
	}

	// Then memory is empty and the file is gone
	if b.Len() != 0 || b.LastRecordID() != 0 {
		t.Errorf("after Reset: Len = %d, LastRecordID = %d, want 0, 0", b.Len(), b.LastRecordID())
	}
	if _, err := os.Stat(b.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Stat(%s) error = %v, want not-exist", b.Path(), err)
	}
}
