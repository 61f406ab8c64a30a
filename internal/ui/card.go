package ui

import (
	"fmt"
	"strings"

	"library-search/library"
)

// HoldingLine is one rendered holding row plus its availability class.
type HoldingLine struct {
	library.Holding
	Availability library.Availability
}

// CardHoldings derives the holding rows a card displays. It never returns
// an empty slice.
func CardHoldings(rec library.SearchResult) []HoldingLine {
	holdings := rec.DisplayHoldings()
	lines := make([]HoldingLine, len(holdings))
	for i, h := range holdings {
		lines[i] = HoldingLine{Holding: h, Availability: library.ClassifyStatus(h.Status)}
	}
	return lines
}

// RenderCard renders one catalog record.
func RenderCard(rec library.SearchResult) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(orUnknown(rec.Title)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Author:    %s\n", orUnknown(rec.Author))
	fmt.Fprintf(&b, "Publisher: %s %s\n", orUnknown(rec.Publisher), rec.Year)

	for _, h := range CardHoldings(rec) {
		fmt.Fprintf(&b, "  %-18s %-16s %s\n",
			h.CallNumber,
			h.Location,
			StatusStyle(h.Status).Render(h.Status))
	}

	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return library.UnknownField
	}
	return s
}
