package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"

	"github.com/smileynet/contacts"
	"github.com/smileynet/contacts/internal/addressbook"
	"github.com/smileynet/contacts/internal/config"
	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const projectConfig = ".contacts/config.yaml"

// Globals holds flags shared by every command.
type Globals struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`
	Book    string           `help:"Address book file (overrides config and CONTACTS_BOOK)." short:"b" placeholder:"PATH"`
}

// CLI is the top-level command structure for contacts.
type CLI struct {
	Globals

	Init      InitCmd      `cmd:"" help:"Write a default project config to .contacts/config.yaml."`
	Add       AddCmd       `cmd:"" help:"Add a contact, replacing one with the same name."`
	Show      ShowCmd      `cmd:"" help:"Show one contact."`
	Remove    RemoveCmd    `cmd:"" help:"Remove a contact."`
	Phone     PhoneCmd     `cmd:"" help:"Manage a contact's phone numbers."`
	Email     EmailCmd     `cmd:"" help:"Manage a contact's email addresses."`
	Birthday  BirthdayCmd  `cmd:"" help:"Set or clear a contact's birthday."`
	Search    SearchCmd    `cmd:"" help:"Find contacts by name, phone or email."`
	List      ListCmd      `cmd:"" help:"Print every contact, page by page."`
	Birthdays BirthdaysCmd `cmd:"" help:"List birthdays coming up soon."`
	Browse    BrowseCmd    `cmd:"" help:"Open the interactive contact browser."`
	Reset     ResetCmd     `cmd:"" help:"Delete the address book file."`
}

// InitCmd writes the embedded default config.
type InitCmd struct {
	Force bool `help:"Overwrite an existing config file."`
}

// AddCmd adds a new contact.
type AddCmd struct {
	Name     string   `arg:"" help:"Contact name."`
	Phone    []string `help:"Phone number (10 digits). Repeatable." short:"p"`
	Email    []string `help:"Email address. Repeatable." short:"e"`
	Birthday string   `help:"Birthday as YYYY-MM-DD." placeholder:"DATE"`
}

// ShowCmd prints one contact.
type ShowCmd struct {
	Name string `arg:"" help:"Contact name."`
}

// RemoveCmd deletes one contact.
type RemoveCmd struct {
	Name string `arg:"" help:"Contact name."`
}

// PhoneCmd groups the phone subcommands.
type PhoneCmd struct {
	Add    PhoneAddCmd    `cmd:"" help:"Add a phone number."`
	Remove PhoneRemoveCmd `cmd:"" help:"Remove a phone number."`
	Edit   PhoneEditCmd   `cmd:"" help:"Replace a phone number."`
}

// PhoneAddCmd appends a phone number.
type PhoneAddCmd struct {
	Name   string `arg:"" help:"Contact name."`
	Number string `arg:"" help:"Phone number (10 digits)."`
}

// PhoneRemoveCmd removes a phone number.
type PhoneRemoveCmd struct {
	Name   string `arg:"" help:"Contact name."`
	Number string `arg:"" help:"Phone number to remove."`
}

// PhoneEditCmd replaces a phone number in place.
type PhoneEditCmd struct {
	Name string `arg:"" help:"Contact name."`
	Old  string `arg:"" help:"Current phone number."`
	New  string `arg:"" help:"Replacement phone number."`
}

// EmailCmd groups the email subcommands.
type EmailCmd struct {
	Add    EmailAddCmd    `cmd:"" help:"Add an email address."`
	Remove EmailRemoveCmd `cmd:"" help:"Remove an email address."`
	Edit   EmailEditCmd   `cmd:"" help:"Replace an email address."`
}

// EmailAddCmd appends an email address.
type EmailAddCmd struct {
	Name    string `arg:"" help:"Contact name."`
	Address string `arg:"" help:"Email address."`
}

// EmailRemoveCmd removes an email address.
type EmailRemoveCmd struct {
	Name    string `arg:"" help:"Contact name."`
	Address string `arg:"" help:"Email address to remove."`
}

// EmailEditCmd replaces an email address in place.
type EmailEditCmd struct {
	Name string `arg:"" help:"Contact name."`
	Old  string `arg:"" help:"Current email address."`
	New  string `arg:"" help:"Replacement email address."`
}

// BirthdayCmd groups the birthday subcommands.
type BirthdayCmd struct {
	Set   BirthdaySetCmd   `cmd:"" help:"Set the birthday."`
	Clear BirthdayClearCmd `cmd:"" help:"Clear the birthday."`
}

// BirthdaySetCmd sets a birthday.
type BirthdaySetCmd struct {
	Name string `arg:"" help:"Contact name."`
	Date string `arg:"" help:"Birthday as YYYY-MM-DD."`
}

// BirthdayClearCmd clears a birthday.
type BirthdayClearCmd struct {
	Name string `arg:"" help:"Contact name."`
}

// SearchCmd prints the names of matching contacts.
type SearchCmd struct {
	Query string `arg:"" help:"Name or email fragment, or a full phone number."`
}

// ListCmd prints every contact in batches.
type ListCmd struct {
	Batch *int `help:"Records per page (default: display.batch_size)." placeholder:"N"`
}

// BirthdaysCmd reports upcoming birthdays.
type BirthdaysCmd struct {
	Within *int `help:"Days ahead to include (default: birthdays.window_days)." placeholder:"DAYS"`
}

// BrowseCmd opens the TUI browser.
type BrowseCmd struct {
	Plain bool `help:"Force plain text output even if stdout is a TTY."`
}

// ResetCmd deletes the address book file.
type ResetCmd struct {
	Yes bool `help:"Confirm deletion." short:"y"`
}

var errNotConfirmed = errors.New("refusing to delete the address book without --yes")

// loadConfig loads layered config from user and project paths with env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadLayered(
		os.ExpandEnv("$HOME/.config/contacts/config.yaml"),
		projectConfig,
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open loads config, applies the --book override and opens the address book.
func (g *Globals) open() (*config.Config, *addressbook.AddressBook, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if g.Book != "" {
		cfg.Book.Path = g.Book
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	book, err := addressbook.Open(cfg.Book.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, book, nil
}

// mutate opens the book, applies fn and prints its message to stdout.
// fn is responsible for calling Dump.
func (g *Globals) mutate(cmd string, fn func(io.Writer, *addressbook.AddressBook) error) error {
	_, book, err := g.open()
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	if err := fn(os.Stdout, book); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

// lookup returns the record stored under name or an addressbook.ErrNotFound error.
func lookup(book *addressbook.AddressBook, name string) (*contact.Record, error) {
	r, ok := book.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", addressbook.ErrNotFound, name)
	}
	return r, nil
}

// held returns the value in values whose text is v. Stored values are matched
// as they are, so entries loaded from disk that no longer pass validation can
// still be removed or replaced.
func held[T interface{ Value() string }](values []T, v string) (T, bool) {
	for _, x := range values {
		if x.Value() == v {
			return x, true
		}
	}
	var zero T
	return zero, false
}

// Run executes the init command. A config.yaml under
// ~/.config/contacts/templates replaces the built-in template.
func (c *InitCmd) Run() error {
	templates := contacts.OverlayFS(os.ExpandEnv("$HOME/.config/contacts/templates"), contacts.Templates)
	return c.run(os.Stdout, projectConfig, templates)
}

func (c *InitCmd) run(w io.Writer, path string, templates fs.FS) error {
	if !c.Force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("init: %s already exists (use --force to overwrite)", path)
		}
	}
	data, err := fs.ReadFile(templates, "config.yaml")
	if err != nil {
		return fmt.Errorf("init: reading template: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Wrote %s\n", path)
	return nil
}

// Run executes the add command.
func (c *AddCmd) Run(g *Globals) error {
	return g.mutate("add", c.run)
}

func (c *AddCmd) run(w io.Writer, book *addressbook.AddressBook) error {
	r, err := c.record()
	if err != nil {
		return err
	}
	if _, exists := book.Get(c.Name); exists {
		_, _ = fmt.Fprintf(w, "warning: replacing existing contact %q\n", c.Name)
	}
	book.AddRecord(r)
	if err := book.Dump(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Added %s\n", c.Name)
	return nil
}

// record validates every flag before building the record, so a bad value
// leaves the book untouched.
func (c *AddCmd) record() (*contact.Record, error) {
	name, err := contact.NewName(c.Name)
	if err != nil {
		return nil, err
	}
	var opts []contact.Option
	for _, s := range c.Phone {
		p, err := contact.NewPhone(s)
		if err != nil {
			return nil, err
		}
		opts = append(opts, contact.WithPhone(p))
	}
	for _, s := range c.Email {
		e, err := contact.NewEmail(s)
		if err != nil {
			return nil, err
		}
		opts = append(opts, contact.WithEmail(e))
	}
	if c.Birthday != "" {
		bd, err := contact.ParseBirthday(c.Birthday)
		if err != nil {
			return nil, err
		}
		opts = append(opts, contact.WithBirthday(bd))
	}
	return contact.NewRecord(name, opts...), nil
}

// Run executes the show command.
func (c *ShowCmd) Run(g *Globals) error {
	_, book, err := g.open()
	if err != nil {
		return fmt.Errorf("show: %w", err)
	}
	if err := c.run(os.Stdout, book, time.Now()); err != nil {
		return fmt.Errorf("show: %w", err)
	}
	return nil
}

func (c *ShowCmd) run(w io.Writer, book *addressbook.AddressBook, today time.Time) error {
	r, err := lookup(book, c.Name)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, tui.FormatRecord(r, today))
	return nil
}

// Run executes the remove command.
func (c *RemoveCmd) Run(g *Globals) error {
	return g.mutate("remove", c.run)
}

func (c *RemoveCmd) run(w io.Writer, book *addressbook.AddressBook) error {
	if err := book.Remove(c.Name); err != nil {
		return err
	}
	if err := book.Dump(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Removed %s\n", c.Name)
	return nil
}

// Run executes the phone add command.
func (c *PhoneAddCmd) Run(g *Globals) error {
	return g.mutate("phone add", c.run)
}

func (c *PhoneAddCmd) run(w io.Writer, book *addressbook.AddressBook) error {
	r, err := lookup(book, c.Name)
	if err != nil {
		return err
	}
	p, err := contact.NewPhone(c.Number)
	if err != nil {
		return err
	}
	r.AddPhone(p)
	if err := book.Dump(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Added phone %s to %s\n", p, c.Name)
	return nil
}

// Run executes the phone remove command.
func (c *PhoneRemoveCmd) Run(g *Globals) error {
	return g.mutate("phone remove", c.run)
}

func (c *PhoneRemoveCmd) run(w io.Writer, book *addressbook.AddressBook) error {
	r, err := lookup(book, c.Name)
	if err != nil {
		return err
	}
	p, ok := held(r.Phones(), c.Number)
	if !ok {
		return &contact.NotFoundError{Field: "phone", Value: c.Number}
	}
	if err := r.RemovePhone(p); err != nil {
		return err
	}
	if err := book.Dump(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Removed phone %s from %s\n", p, c.Name)
	return nil
}

// Run executes the phone edit command.
func (c *PhoneEditCmd) Run(g *Globals) error {
	return g.mutate("phone edit", c.run)
}

func (c *PhoneEditCmd) run(w io.Writer, book *addressbook.AddressBook) error {
	r, err := lookup(book, c.Name)
	if err != nil {
		return err
	}
	replacement, err := contact.NewPhone(c.New)
	if err != nil {
		return err
	}
	old, ok := held(r.Phones(), c.Old)
	if !ok {
		_, _ = fmt.Fprintf(w, "warning: %s has no phone %s, nothing changed\n", c.Name, c.Old)
		return nil
	}
	r.EditPhone(old, replacement)
	if err := book.Dump(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Changed phone %s to %s for %s\n", old, replacement, c.Name)
	return nil
}

// Run executes the email add command.
func (c *EmailAddCmd) Run(g *Globals) error {
	return g.mutate("email add", c.run)
}

func (c *EmailAddCmd) run(w io.Writer, book *addressbook.AddressBook) error {
	r, err := lookup(book, c.Name)
	if err != nil {
		return err
	}
	e, err := contact.NewEmail(c.Address)
	if err != nil {
		return err
	}
	r.AddEmail(e)
	if err := book.Dump(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Added email %s to %s\n", e, c.Name)
	return nil
}

// Run executes the email remove command.
func (c *EmailRemoveCmd) Run(g *Globals) error {
	return g.mutate("email remove", c.run)
}

func (c *EmailRemoveCmd) run(w io.Writer, book *addressbook.AddressBook) error {
	r, err := lookup(book, c.Name)
	if err != nil {
		return err
	}
	e, ok := held(r.Emails(), c.Address)
	if !ok {
		return &contact.NotFoundError{Field: "email", Value: c.Address}
	}
	if err := r.RemoveEmail(e); err != nil {
		return err
	}
	if err := book.Dump(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Removed email %s from %s\n", e, c.Name)
	return nil
}

// Run executes the email edit command.
func (c *EmailEditCmd) Run(g *Globals) error {
	return g.mutate("email edit", c.run)
}

func (c *EmailEditCmd) run(w io.Writer, book *addressbook.AddressBook) error {
	r, err := lookup(book, c.Name)
	if err != nil {
		return err
	}
	replacement, err := contact.NewEmail(c.New)
	if err != nil {
		return err
	}
	old, ok := held(r.Emails(), c.Old)
	if !ok {
		_, _ = fmt.Fprintf(w, "warning: %s has no email %s, nothing changed\n", c.Name, c.Old)
		return nil
	}
	r.EditEmail(old, replacement)
	if err := book.Dump(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Changed email %s to %s for %s\n", old, replacement, c.Name)
	return nil
}

// Run executes the birthday set command.
func (c *BirthdaySetCmd) Run(g *Globals) error {
	return g.mutate("birthday set", c.run)
}

func (c *BirthdaySetCmd) run(w io.Writer, book *addressbook.AddressBook) error {
	r, err := lookup(book, c.Name)
	if err != nil {
		return err
	}
	bd, err := contact.ParseBirthday(c.Date)
	if err != nil {
		return err
	}
	r.SetBirthday(bd)
	if err := book.Dump(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Set birthday of %s to %s\n", c.Name, bd)
	return nil
}

// Run executes the birthday clear command.
func (c *BirthdayClearCmd) Run(g *Globals) error {
	return g.mutate("birthday clear", c.run)
}

func (c *BirthdayClearCmd) run(w io.Writer, book *addressbook.AddressBook) error {
	r, err := lookup(book, c.Name)
	if err != nil {
		return err
	}
	r.ClearBirthday()
	if err := book.Dump(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Cleared birthday of %s\n", c.Name)
	return nil
}

// Run executes the search command.
func (c *SearchCmd) Run(g *Globals) error {
	_, book, err := g.open()
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	c.run(os.Stdout, book)
	return nil
}

func (c *SearchCmd) run(w io.Writer, book *addressbook.AddressBook) {
	keys := book.Search(c.Query)
	if len(keys) == 0 {
		_, _ = fmt.Fprintf(w, "No results found for %q\n", c.Query)
		return
	}
	for _, k := range keys {
		_, _ = fmt.Fprintln(w, k)
	}
}

// Run executes the list command.
func (c *ListCmd) Run(g *Globals) error {
	cfg, book, err := g.open()
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	size := cfg.Display.BatchSize
	if c.Batch != nil {
		size = *c.Batch
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := c.run(ctx, os.Stdout, book, size, time.Now()); err != nil {
		return fmt.Errorf("list: %w", err)
	}
	return nil
}

func (c *ListCmd) run(ctx context.Context, w io.Writer, book tui.Book, size int, today time.Time) error {
	if size < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", size)
	}
	return tui.NewPlainDisplay(w, size, today).Run(ctx, book)
}

// Run executes the birthdays command.
func (c *BirthdaysCmd) Run(g *Globals) error {
	cfg, book, err := g.open()
	if err != nil {
		return fmt.Errorf("birthdays: %w", err)
	}
	window := cfg.Birthdays.WindowDays
	if c.Within != nil {
		window = *c.Within
	}
	if err := c.run(os.Stdout, book, window, time.Now()); err != nil {
		return fmt.Errorf("birthdays: %w", err)
	}
	return nil
}

func (c *BirthdaysCmd) run(w io.Writer, book *addressbook.AddressBook, window int, today time.Time) error {
	if window < 0 {
		return fmt.Errorf("window must be non-negative, got %d", window)
	}
	upcoming := book.UpcomingBirthdays(today, window)
	if len(upcoming) == 0 {
		_, _ = fmt.Fprintf(w, "No birthdays in the next %d days\n", window)
		return nil
	}
	for _, u := range upcoming {
		_, _ = fmt.Fprintf(w, "%s: %s\n", u.Record.Name(), tui.DaysLabel(u.Days))
	}
	return nil
}

// Run executes the browse command.
func (c *BrowseCmd) Run(g *Globals) error {
	cfg, book, err := g.open()
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	display := tui.NewDisplay(tui.DisplayOptions{
		Writer:     os.Stdout,
		ForcePlain: c.Plain || cfg.Display.Plain,
		BatchSize:  cfg.Display.BatchSize,
	})
	if err := display.Run(ctx, book); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}

// Run executes the reset command.
func (c *ResetCmd) Run(g *Globals) error {
	return g.mutate("reset", c.run)
}

func (c *ResetCmd) run(w io.Writer, book *addressbook.AddressBook) error {
	if !c.Yes {
		return errNotConfirmed
	}
	n := book.Len()
	if err := book.Reset(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Deleted %s (%d contacts)\n", book.Path(), n)
	return nil
}

// Exit codes.
const (
	exitSuccess = 0
	exitUsage   = 1
	exitSetup   = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	// Bad input or a missing contact: the user can fix the command line.
	if errors.Is(err, contact.ErrValidation) ||
		errors.Is(err, contact.ErrNotFound) ||
		errors.Is(err, addressbook.ErrNotFound) ||
		errors.Is(err, errNotConfirmed) {
		return exitUsage
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("contacts"),
		kong.Description("Keep names, phone numbers, emails and birthdays in one file."),
		kong.UsageOnError(),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
