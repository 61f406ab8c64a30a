package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"library-search/library"
)

// SearchController is what the search panel needs from the root controller.
type SearchController interface {
	Search(ctx context.Context, query, location string) error
	DeleteHistory(ctx context.Context, id int64) error
	ClearHistory(ctx context.Context) error
}

// SearchPanel holds the query draft and the history sublist toggle. The
// draft reaches the controller only on Submit.
type SearchPanel struct {
	ctrl SearchController

	Text            string
	Location        string
	HistoryExpanded bool
}

// NewSearchPanel returns a panel whose location selector starts at
// defaultLocation (AllLocations when that is not a campus).
func NewSearchPanel(ctrl SearchController, defaultLocation string) *SearchPanel {
	p := &SearchPanel{ctrl: ctrl}
	_ = p.SetLocation(defaultLocation)
	return p
}

// SetLocation selects a campus or, for "" / "all" / 全部, no filter.
func (p *SearchPanel) SetLocation(loc string) error {
	loc = strings.TrimSpace(loc)
	switch {
	case loc == "" || strings.EqualFold(loc, "all") || loc == allLabel:
		p.Location = library.AllLocations
	case library.IsCampus(loc):
		p.Location = loc
	default:
		return fmt.Errorf("%w: %q", library.ErrInvalidCampus, loc)
	}
	return nil
}

// Submit hands the current draft to the controller.
func (p *SearchPanel) Submit(ctx context.Context) error {
	return p.ctrl.Search(ctx, p.Text, p.Location)
}

// ToggleHistory expands or collapses the history sublist.
func (p *SearchPanel) ToggleHistory() { p.HistoryExpanded = !p.HistoryExpanded }

// DeleteEntry asks the controller to delete one history entry. The list
// shown on the next Render comes from the controller, so it changes only
// once the backend has confirmed.
func (p *SearchPanel) DeleteEntry(ctx context.Context, id int64) error {
	return p.ctrl.DeleteHistory(ctx, id)
}

// ClearEntries asks the controller to clear all history.
func (p *SearchPanel) ClearEntries(ctx context.Context) error {
	return p.ctrl.ClearHistory(ctx)
}

const allLabel = "全部"

// LocationOptions lists the selector values in display order.
func LocationOptions() []string {
	return append([]string{allLabel}, library.Campuses...)
}

func locationLabel(loc string) string {
	if loc == library.AllLocations {
		return allLabel
	}
	return loc
}

// Render writes the panel: the draft, the location options and, when
// expanded, the history sublist.
func (p *SearchPanel) Render(w io.Writer, history []library.HistoryEntry) {
	var b strings.Builder
	fmt.Fprintf(&b, "Query:    %s\n", p.Text)

	opts := LocationOptions()
	for i, o := range opts {
		if o == locationLabel(p.Location) {
			opts[i] = "[" + o + "]"
		}
	}
	fmt.Fprintf(&b, "Location: %s\n", strings.Join(opts, " "))

	if !p.HistoryExpanded {
		fmt.Fprintf(&b, "History:  %d entr%s (collapsed)", len(history), plural(len(history), "y", "ies"))
	} else if len(history) == 0 {
		b.WriteString("History:  " + mutedStyle.Render("no search history yet"))
	} else {
		b.WriteString("History:\n")
		for _, e := range history {
			fmt.Fprintf(&b, "  #%-4d %s", e.ID, e.Query)
			if e.Location != "" {
				fmt.Fprintf(&b, " @%s", e.Location)
			}
			b.WriteString("\n")
		}
	}
	fmt.Fprintln(w, panelStyle.Render(strings.TrimRight(b.String(), "\n")))
}

// RenderResults writes the result area for a controller snapshot: loading
// indicator, error banner, empty hint, or one card per record.
func RenderResults(w io.Writer, s library.State) {
	switch {
	case s.Loading:
		fmt.Fprintln(w, mutedStyle.Render("searching..."))
		return
	case s.Err != nil:
		fmt.Fprintln(w, errorStyle.Render("Error: "+s.Err.Error()))
		return
	case len(s.Results) == 0:
		if s.Searched {
			fmt.Fprintf(w, "No books found matching '%s'.\n", s.Query)
		} else {
			fmt.Fprintln(w, mutedStyle.Render("请输入书名进行搜索"))
		}
		return
	}

	fmt.Fprintf(w, "Found %d result%s for '%s'", len(s.Results), plural(len(s.Results), "", "s"), s.Query)
	if s.Location != library.AllLocations {
		fmt.Fprintf(w, " at %s", s.Location)
	}
	fmt.Fprintln(w, ":")
	for _, rec := range s.Results {
		fmt.Fprintln(w, RenderCard(rec))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
