package library

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSearchResultYearFormats(t *testing.T) {
	cases := map[string]string{
		`{"title":"a","year":"2016"}`: "2016",
		`{"title":"a","year":2016}`:   "2016",
		`{"title":"a","year":null}`:   "",
		`{"title":"a"}`:               "",
	}
	for body, want := range cases {
		var r SearchResult
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			t.Fatalf("unmarshal %s: %v", body, err)
		}
		if r.Year != want {
			t.Errorf("%s: year = %q, want %q", body, r.Year, want)
		}
		if r.Title != "a" {
			t.Errorf("%s: title lost", body)
		}
	}
}

func TestSearchResultFlatFields(t *testing.T) {
	body := `{"title":"t","callNumber":"TP1","location":"鼓楼","status":"可借"}`
	var r SearchResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.CallNumber != "TP1" || r.Location != "鼓楼" || r.Status != "可借" {
		t.Fatalf("flat fields not decoded: %+v", r)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-03-05T14:30:00Z",
		"2024-03-05 14:30:00",
		"2024-03-05T14:30:00",
	} {
		ts, err := ParseTimestamp(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if !ts.Equal(want) {
			t.Errorf("parse %q = %v, want %v", s, ts.Time, want)
		}
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error for garbage input")
	}
}

func TestHistoryEntryDecodesSQLiteTime(t *testing.T) {
	body := `{"id":7,"query":"Python","location":"仙林","search_time":"2024-03-05 14:30:00"}`
	var e HistoryEntry
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.ID != 7 || e.Query != "Python" || e.Location != "仙林" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.SearchTime.Year() != 2024 || e.SearchTime.Hour() != 14 {
		t.Fatalf("search_time = %v", e.SearchTime.Time)
	}
}

func TestIsCampus(t *testing.T) {
	for _, c := range Campuses {
		if !IsCampus(c) {
			t.Errorf("IsCampus(%q) = false", c)
		}
	}
	for _, c := range []string{"", "全部", "南京"} {
		if IsCampus(c) {
			t.Errorf("IsCampus(%q) = true", c)
		}
	}
}
