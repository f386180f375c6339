package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"
)

func newTestGateway(t *testing.T, handler http.Handler) *GoogleGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gw, err := NewGoogleGateway(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("init gateway: %v", err)
	}
	return gw
}

func TestGoogleGetBusyIntervals(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "freeBusy") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"calendars": map[string]any{
				"+911234567890": map[string]any{
					"busy": []map[string]string{
						{"start": "2025-06-02T04:00:00Z", "end": "2025-06-02T05:00:00Z"},
					},
				},
			},
		})
	}))

	busy, err := gw.GetBusyIntervals(context.Background(), "+911234567890",
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("get busy: %v", err)
	}
	if len(busy) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(busy))
	}
	if !busy[0].Start.Equal(time.Date(2025, 6, 2, 4, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %s", busy[0].Start)
	}
}

func TestGoogleGetBusyIntervalsServerError(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusServiceUnavailable)
	}))

	_, err := gw.GetBusyIntervals(context.Background(), "key", time.Now(), time.Now().Add(time.Hour))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGoogleCreateEvent(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.Contains(r.URL.Path, "/events") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["summary"] != "Court booking - Asha" {
			t.Errorf("unexpected summary %v", body["summary"])
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "evt-123"})
	}))

	id, err := gw.CreateEvent(context.Background(), Event{
		ResourceKey: "+911234567890",
		Summary:     "Court booking - Asha",
		Description: "Created via AI receptionist",
		Start:       time.Date(2025, 6, 2, 3, 30, 0, 0, time.UTC),
		End:         time.Date(2025, 6, 2, 4, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if id != "evt-123" {
		t.Fatalf("expected evt-123, got %s", id)
	}
}

func TestGoogleDeleteEvent(t *testing.T) {
	var deleted bool
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deleted = true
			w.WriteHeader(http.StatusNoContent)
			return
		}
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))

	if err := gw.DeleteEvent(context.Background(), "+911234567890", "evt-123"); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	if !deleted {
		t.Fatal("expected DELETE request")
	}
}
