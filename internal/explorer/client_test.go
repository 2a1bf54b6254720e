package explorer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestFetchDecodesStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("fen"); got != "somefen" {
			t.Errorf("fen query = %q, want somefen", got)
		}
		w.Write([]byte(`{"white":10,"draws":5,"black":3,"moves":[{"uci":"e2e4","san":"e4","white":7,"draws":2,"black":1}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	stats, err := c.Fetch(context.Background(), "somefen")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if stats.White != 10 || stats.Draws != 5 || stats.Black != 3 {
		t.Errorf("totals = %d/%d/%d, want 10/5/3", stats.White, stats.Draws, stats.Black)
	}
	if len(stats.Moves) != 1 || stats.Moves[0].UCI != "e2e4" {
		t.Errorf("moves = %+v, want one e2e4 entry", stats.Moves)
	}
}

func TestFetchSupersededIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fen") == "slow" {
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}
		w.Write([]byte(`{"white":1,"draws":0,"black":0}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	var wg sync.WaitGroup
	var slowErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, slowErr = c.Fetch(context.Background(), "slow")
	}()

	// Let the slow request get in flight, then supersede it.
	time.Sleep(50 * time.Millisecond)
	if _, err := c.Fetch(context.Background(), "fast"); err != nil {
		t.Fatalf("fast Fetch: %v", err)
	}
	close(release)
	wg.Wait()

	if !errors.Is(slowErr, ErrSuperseded) {
		t.Errorf("slow fetch err = %v, want ErrSuperseded", slowErr)
	}
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Fetch(context.Background(), "fen"); err == nil {
		t.Error("Fetch should surface a non-200 status")
	}
}
