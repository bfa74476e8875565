package titan007

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFetchTrendWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/odds/77" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"handicap":{"early":"0.5","late":"0.75"},"goal":{"early":"2.5","late":"2.5"},"corner":{"early":"","late":"1"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, 0)
	w, err := c.FetchTrendWindow(context.Background(), "77", false)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Handicap.Early.Decimal.Equal(decimal.RequireFromString("-0.5")) || !w.Handicap.Late.Decimal.Equal(decimal.RequireFromString("-0.75")) {
		t.Errorf("handicap = %v/%v", w.Handicap.Early, w.Handicap.Late)
	}
	if !w.Handicap.Moved() || w.Goal.Moved() || w.Corner.Moved() {
		t.Errorf("moved flags wrong: %+v", w)
	}

	swapped, _ := c.FetchTrendWindow(context.Background(), "77", true)
	if !swapped.Handicap.Late.Decimal.Equal(decimal.RequireFromString("0.75")) {
		t.Errorf("swapped handicap = %v", swapped.Handicap.Late)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		valid bool
	}{
		{"0.5", "0.5", true},
		{"0.5/1", "0.75", true},
		{"2/2.5", "2.25", true},
		{"-0/0.5", "-0.25", true},
		{" 1 ", "1", true},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		got := parse(tt.in)
		if got.Valid != tt.valid {
			t.Errorf("parse(%q).Valid = %v, want %v", tt.in, got.Valid, tt.valid)
			continue
		}
		if tt.valid && !got.Decimal.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("parse(%q) = %s, want %s", tt.in, got.Decimal, tt.want)
		}
	}
}

func TestFetchTrendWindow_SplitLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"handicap":{"early":"0.5/1","late":"1"},"goal":{"early":"2.5/3","late":"2.5"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, 0)
	w, err := c.FetchTrendWindow(context.Background(), "5", false)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Handicap.Early.Valid || !w.Handicap.Early.Decimal.Equal(decimal.RequireFromString("-0.75")) {
		t.Errorf("handicap early = %v", w.Handicap.Early)
	}
	if !w.Goal.Early.Valid || !w.Goal.Early.Decimal.Equal(decimal.RequireFromString("2.75")) {
		t.Errorf("goal early = %v", w.Goal.Early)
	}
	if !w.Handicap.Moved() || !w.Goal.Moved() {
		t.Errorf("split-line movement not detected: %+v", w)
	}
}

func TestFetchSchedule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("date") != "2026-10-14" {
			t.Errorf("date = %s", r.URL.Query().Get("date"))
		}
		_, _ = w.Write([]byte(`[{"id":"9","time":"2026-10-14T19:00:00Z","home":{"id":"h","name":"曼城","short":"曼城"},"away":{"id":"a","name":"利物浦","short":"利物"},"state":"0"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, 0)
	got, err := c.FetchSchedule(context.Background(), time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "9" || got[0].Away.Short != "利物" {
		t.Fatalf("got %+v", got)
	}
}
