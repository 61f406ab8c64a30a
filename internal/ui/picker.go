package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/koki-develop/go-fzf"

	"library-search/library"
)

// ErrNoHistory is returned by PickHistory for an empty list.
var ErrNoHistory = errors.New("no search history")

// PickHistory opens a fuzzy finder over entries. It returns nil when the
// user cancels.
func PickHistory(entries []library.HistoryEntry) (*library.HistoryEntry, error) {
	if len(entries) == 0 {
		return nil, ErrNoHistory
	}

	f, err := fzf.New(
		fzf.WithPrompt("History > "),
		fzf.WithInputPosition(fzf.InputPositionTop),
		fzf.WithLimit(1),
	)
	if err != nil {
		return nil, err
	}

	idxs, err := f.Find(
		entries,
		func(i int) string { return historyLine(entries[i]) },
		fzf.WithPreviewWindow(func(i, w, h int) string {
			if i < 0 || i >= len(entries) {
				return ""
			}
			return historyPreview(entries[i])
		}),
	)
	if err != nil {
		return nil, err
	}
	if len(idxs) == 0 {
		return nil, nil
	}
	return &entries[idxs[0]], nil
}

func historyLine(e library.HistoryEntry) string {
	return fmt.Sprintf("%s  %-6s  %s", FormatTime(e.SearchTime), locationLabel(e.Location), e.Query)
}

func historyPreview(e library.HistoryEntry) string {
	var b strings.Builder
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "Query:    %s\n", e.Query)
	fmt.Fprintf(&b, "Location: %s\n", locationLabel(e.Location))
	fmt.Fprintf(&b, "Searched: %s\n", FormatTime(e.SearchTime))
	fmt.Fprintf(&b, "Entry:    #%d\n", e.ID)
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	b.WriteString("Enter re-runs this search.")
	return b.String()
}
