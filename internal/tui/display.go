// Package tui renders an address book either as plain text pages or as an
// interactive Bubble Tea browser.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// Display renders the contents of an address book.
type Display interface {
	Run(ctx context.Context, book Book) error
}

// DisplayOptions configures display creation.
type DisplayOptions struct {
	Writer     io.Writer // Output destination (default: os.Stdout).
	ForcePlain bool      // Force plain text even if TTY.
	BatchSize  int       // Records per page in plain output.
	Today      time.Time // Reference date for birthday countdowns (default: now).
}

// NewDisplay returns a TUI browser when the writer is a TTY, or a plain text
// display otherwise. ForcePlain overrides TTY detection.
func NewDisplay(opts DisplayOptions) Display {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Today.IsZero() {
		opts.Today = time.Now()
	}

	if opts.ForcePlain || !IsTTY(opts.Writer) {
		return &PlainDisplay{w: opts.Writer, batchSize: opts.BatchSize, today: opts.Today}
	}

	return &TUIDisplay{w: opts.Writer, today: opts.Today}
}

// NewPlainDisplay returns a PlainDisplay writing to w.
func NewPlainDisplay(w io.Writer, batchSize int, today time.Time) *PlainDisplay {
	return &PlainDisplay{w: w, batchSize: batchSize, today: today}
}

// IsTTY reports whether w is connected to a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PlainDisplay prints records as text, one page per batch.
type PlainDisplay struct {
	w         io.Writer
	batchSize int
	today     time.Time
}

// Run prints every record, separating pages with a "-- page N --" header
// when batches hold more than one record. It stops early if ctx is cancelled.
func (d *PlainDisplay) Run(ctx context.Context, book Book) error {
	page := 0
	for batch := range book.Batches(d.batchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		page++
		if d.batchSize > 1 {
			_, _ = fmt.Fprintf(d.w, "-- page %d --\n", page)
		}
		for _, r := range batch {
			_, _ = fmt.Fprintln(d.w, FormatRecord(r, d.today))
		}
	}
	if page == 0 {
		_, _ = fmt.Fprintln(d.w, "No contacts yet")
	}
	return nil
}

// TUIDisplay runs the interactive contact browser.
// Falls back to PlainDisplay if the TUI program fails to start.
type TUIDisplay struct {
	w     io.Writer
	today time.Time
}

// Run starts the Bubble Tea program and blocks until the user quits.
func (d *TUIDisplay) Run(ctx context.Context, book Book) error {
	p := tea.NewProgram(NewModel(book, d.today),
		tea.WithOutput(d.w),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		plain := &PlainDisplay{w: d.w, batchSize: 1, today: d.today}
		return plain.Run(ctx, book)
	}
	return nil
}
