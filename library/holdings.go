package library

import "strings"

// UnknownField is shown for any holding field the backend did not supply.
const UnknownField = "未知"

const (
	statusAvailableToken = "可借"
	statusLoanedToken    = "借出"
)

// Availability classifies a holding status for display.
type Availability int

const (
	AvailabilityUnknown Availability = iota
	AvailabilityAvailable
	AvailabilityLoaned
)

func (a Availability) String() string {
	switch a {
	case AvailabilityAvailable:
		return "available"
	case AvailabilityLoaned:
		return "loaned"
	default:
		return "unknown"
	}
}

// ClassifyStatus maps free-text status to an Availability by substring match.
// The available token is checked first.
func ClassifyStatus(status string) Availability {
	switch {
	case strings.Contains(status, statusAvailableToken):
		return AvailabilityAvailable
	case strings.Contains(status, statusLoanedToken):
		return AvailabilityLoaned
	default:
		return AvailabilityUnknown
	}
}

// hasDirectHolding reports whether the record uses the flat single-copy format.
func (r SearchResult) hasDirectHolding() bool {
	return r.CallNumber != "" || r.Location != "" || r.Status != ""
}

// DisplayHoldings returns the canonical, never-empty holdings list:
// the flat fields as exactly one holding when any is set, else Holdings
// verbatim, else a single placeholder.
func (r SearchResult) DisplayHoldings() []Holding {
	switch {
	case r.hasDirectHolding():
		return []Holding{{
			CallNumber: orUnknown(r.CallNumber),
			Location:   orUnknown(r.Location),
			Status:     orUnknown(r.Status),
		}}
	case len(r.Holdings) > 0:
		out := make([]Holding, len(r.Holdings))
		copy(out, r.Holdings)
		return out
	default:
		return []Holding{{CallNumber: UnknownField, Location: UnknownField, Status: UnknownField}}
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return UnknownField
	}
	return s
}
