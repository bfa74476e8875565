package fotmob

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchFinalScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("matchId") {
		case "1":
			_, _ = w.Write([]byte(`{"header":{"status":{"finished":true,"scoreStr":"2 - 1","halfs":{"firstHalfScore":"1 - 1"}}},
				"content":{"stats":{"Periods":{"All":{"stats":[{"stats":[{"key":"corners","stats":[7,"3"]}]}]}}}}}`))
		default:
			_, _ = w.Write([]byte(`{"header":{"status":{"finished":false}}}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, 0)
	s, err := c.FetchFinalScore(context.Background(), "1", false)
	if err != nil {
		t.Fatal(err)
	}
	if s.HomeScore != 2 || s.AwayScore != 1 || s.HomeScoreHalf != 1 || s.HomeCorner != 7 || s.AwayCorner != 3 {
		t.Errorf("score = %+v", s)
	}

	s, _ = c.FetchFinalScore(context.Background(), "1", true)
	if s.HomeScore != 1 || s.AwayScore != 2 || s.HomeCorner != 3 {
		t.Errorf("swapped score = %+v", s)
	}

	if _, err := c.FetchFinalScore(context.Background(), "2", false); !errors.Is(err, ErrNotFinished) {
		t.Errorf("err = %v, want ErrNotFinished", err)
	}
}

func TestFetchMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"leagues":[{"matches":[{"id":4021,"home":{"id":10,"name":"Flamengo","shortName":"FLA"},
			"away":{"id":11,"name":"Palmeiras","shortName":"PAL"},"status":{"utcTime":"2026-10-14T22:00:00Z","started":true}}]}]}`))
	}))
	defer srv.Close()

	got, err := New(srv.URL, time.Second, 0).FetchMatches(context.Background(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "4021" || got[0].Home.ID != "10" || got[0].State != "started" {
		t.Fatalf("got %+v", got)
	}
}
