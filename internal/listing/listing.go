// Package listing builds the admin view of submitted testimonials.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/maymar/testimonials/internal/testimonial"
)

const (
	MsgLoadFailed = "Failed to load testimonials"

	// dateLayout mirrors the en-IN medium date with short time, e.g. "15 Oct 2026, 3:04 pm".
	dateLayout = "2 Jan 2006, 3:04 pm"
)

// View is one of Loading, Failed or Loaded. Loading is what a page shows
// before Load returns; Load itself never produces it.
type View interface {
	isView()
}

type Loading struct{}

type Failed struct {
	Message string
}

type Loaded struct {
	Items []Item
}

func (Loading) isView() {}
func (Failed) isView()  {}
func (Loaded) isView()  {}

func (l Loaded) Empty() bool { return len(l.Items) == 0 }

func (l Loaded) Total() int { return len(l.Items) }

type Item struct {
	Number    int
	Label     string
	VideoURL  string
	Submitted string
}

type Lister struct {
	Store    testimonial.Store
	Location *time.Location
}

// Load fetches every row newest first. Any store failure yields Failed; the
// rows are never partially shown.
func (l *Lister) Load(ctx context.Context) View {
	if l.Store == nil {
		slog.Error("listing: no metadata store configured")
		return Failed{Message: MsgLoadFailed}
	}

	rows, err := l.Store.ListNewestFirst(ctx)
	if err != nil {
		slog.Error("listing: failed to load testimonials", "error", err)
		return Failed{Message: MsgLoadFailed}
	}
	return Loaded{Items: Items(rows, l.Location)}
}

// Items labels rows so the newest carries the highest number and the oldest
// is "Testimonial #1".
func Items(rows []testimonial.Testimonial, loc *time.Location) []Item {
	sorted := make([]testimonial.Testimonial, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	items := make([]Item, len(sorted))
	for i, row := range sorted {
		n := len(sorted) - i
		items[i] = Item{
			Number:    n,
			Label:     fmt.Sprintf("Testimonial #%d", n),
			VideoURL:  row.VideoURL,
			Submitted: FormatTime(row.CreatedAt, loc),
		}
	}
	return items
}

func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

// LoadLocation resolves a display timezone, falling back to UTC when the name
// is unknown to the host.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("listing: unknown display timezone, using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}
