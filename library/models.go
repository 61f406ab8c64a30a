package library

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Campuses is the closed set of library sites, used both as the user's
// preference and as the search location filter.
var Campuses = []string{"鼓楼", "仙林", "浦口", "苏州"}

// AllLocations is the location filter value meaning "no filter".
const AllLocations = ""

// IsCampus reports whether name is one of Campuses.
func IsCampus(name string) bool {
	for _, c := range Campuses {
		if c == name {
			return true
		}
	}
	return false
}

// User is the profile attached to an authenticated session. Campus is empty
// when the user never picked one.
type User struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Campus   string `json:"campus,omitempty"`
}

// Holding is one physical copy of a catalog title.
type Holding struct {
	CallNumber string `json:"callNumber"`
	Location   string `json:"location"`
	Status     string `json:"status"`
}

// SearchResult is one catalog record as returned by the search endpoint.
// Older backends put a single copy in the flat CallNumber/Location/Status
// fields; newer ones send Holdings. Use DisplayHoldings to read them.
type SearchResult struct {
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Publisher string    `json:"publisher"`
	Year      string    `json:"year"`
	Holdings  []Holding `json:"holdings,omitempty"`

	CallNumber string `json:"callNumber,omitempty"`
	Location   string `json:"location,omitempty"`
	Status     string `json:"status,omitempty"`
}

// UnmarshalJSON accepts year as either a JSON string or number.
func (r *SearchResult) UnmarshalJSON(data []byte) error {
	type plain SearchResult
	aux := struct {
		*plain
		Year json.RawMessage `json:"year"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Year = ""
	if len(aux.Year) == 0 || string(aux.Year) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(aux.Year, &s); err == nil {
		r.Year = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(aux.Year, &n); err != nil {
		return fmt.Errorf("year: %w", err)
	}
	r.Year = n.String()
	return nil
}

// HistoryEntry is one persisted search.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	Query      string    `json:"query"`
	Location   string    `json:"location,omitempty"`
	SearchTime Timestamp `json:"search_time"`
}

// Statistics are the aggregate usage counters shown on the admin dashboard.
type Statistics struct {
	UserCount   int64 `json:"user_count"`
	AccessCount int64 `json:"access_count"`
	SearchCount int64 `json:"search_count"`
}

// AccountRecord is one row of the admin user roster.
type AccountRecord struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Campus    string    `json:"campus,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
}

// Timestamp decodes the backend's time formats: RFC 3339 or SQLite's
// "YYYY-MM-DD HH:MM:SS" (UTC).
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses s using the layouts the backend is known to emit.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
