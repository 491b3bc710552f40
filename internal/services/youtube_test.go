package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/livesync/internal/shared"
)

func newTestYouTubeService(t *testing.T, handler http.Handler) (*YouTubeService, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	exec := NewExecutor(ExecutorOpts{
		Tokens: &stubTokens{token: "tok"},
		Logger: shared.NewLogger(io.Discard),
		Sleep: func(ctx context.Context, d time.Duration) error {
			return nil
		},
	})

	yt := NewYouTubeService(YouTubeServiceOpts{
		BaseURL:  srv.URL,
		Client:   srv.Client(),
		Executor: exec,
		Logger:   shared.NewLogger(io.Discard),
	})

	return yt, srv
}

func TestYouTubeService_DiscoverLive(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer token header, got %q", got)
		}

		q := r.URL.Query()
		if q.Get("eventType") != "live" || q.Get("type") != "video" {
			t.Errorf("expected live video search, got %v", q)
		}
		if q.Get("channelId") != "UCnews" {
			t.Errorf("expected channelId UCnews, got %s", q.Get("channelId"))
		}

		fmt.Fprint(w, `{
			"items": [
				{"id": {"videoId": "v1"}, "snippet": {"title": "Morning Show", "channelTitle": "News"}},
				{"id": {}, "snippet": {"title": "not a video"}},
				{"id": {"videoId": "v2"}, "snippet": {"title": "Evening Show", "channelTitle": "News"}}
			]
		}`)
	})

	yt, _ := newTestYouTubeService(t, handler)

	items, err := yt.DiscoverLive(context.Background(), "UCnews")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 live items, got %d", len(items))
	}
	if items[0].VideoID != "v1" || items[1].VideoID != "v2" {
		t.Errorf("unexpected items: %+v", items)
	}
	if items[0].ChannelID != "UCnews" {
		t.Errorf("expected channel id carried through, got %s", items[0].ChannelID)
	}
	if items[0].Title != "Morning Show" {
		t.Errorf("expected title 'Morning Show', got %s", items[0].Title)
	}
	if items[0].DiscoveredAt.IsZero() {
		t.Error("expected discovery timestamp to be set")
	}
}

func TestYouTubeService_ListMembers(t *testing.T) {
	t.Run("Paginates To Exhaustion", func(t *testing.T) {
		page := 0
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlistItems" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}

			page++
			switch r.URL.Query().Get("pageToken") {
			case "":
				fmt.Fprint(w, `{
					"nextPageToken": "page2",
					"items": [
						{"id": "m1", "contentDetails": {"videoId": "v1"}},
						{"id": "m2", "contentDetails": {"videoId": "v2"}}
					]
				}`)
			case "page2":
				fmt.Fprint(w, `{
					"items": [{"id": "m3", "contentDetails": {"videoId": "v3"}}]
				}`)
			default:
				t.Errorf("unexpected page token %s", r.URL.Query().Get("pageToken"))
			}
		})

		yt, _ := newTestYouTubeService(t, handler)

		members, err := yt.ListMembers(context.Background(), "PLtest")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if page != 2 {
			t.Errorf("expected 2 page fetches, got %d", page)
		}
		if len(members) != 3 {
			t.Fatalf("expected 3 members, got %d", len(members))
		}

		want := []MemberItem{
			{ID: "m1", VideoID: "v1"},
			{ID: "m2", VideoID: "v2"},
			{ID: "m3", VideoID: "v3"},
		}
		for i, m := range members {
			if m != want[i] {
				t.Errorf("member %d: expected %+v, got %+v", i, want[i], m)
			}
		}
	})

	t.Run("Propagates API Error", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error": {"code": 404, "message": "The playlist identified with the request cannot be found."}}`)
		})

		yt, _ := newTestYouTubeService(t, handler)

		_, err := yt.ListMembers(context.Background(), "PLmissing")
		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			t.Fatalf("expected RequestError, got %v", err)
		}
		if reqErr.Status != 404 {
			t.Errorf("expected status 404, got %d", reqErr.Status)
		}
		if reqErr.Message == "" {
			t.Error("expected upstream message to be carried")
		}
	})
}

func TestYouTubeService_AddMember(t *testing.T) {
	var captured map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		fmt.Fprint(w, `{"id": "m9"}`)
	})

	yt, _ := newTestYouTubeService(t, handler)

	if err := yt.AddMember(context.Background(), "PLtest", "v9"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	snippet, ok := captured["snippet"].(map[string]any)
	if !ok {
		t.Fatalf("expected snippet in body, got %v", captured)
	}
	if snippet["playlistId"] != "PLtest" {
		t.Errorf("expected playlistId PLtest, got %v", snippet["playlistId"])
	}
	resource, ok := snippet["resourceId"].(map[string]any)
	if !ok || resource["videoId"] != "v9" {
		t.Errorf("expected resourceId with videoId v9, got %v", snippet["resourceId"])
	}
}

func TestYouTubeService_RemoveMember(t *testing.T) {
	t.Run("Sends Delete With Handle", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				t.Errorf("expected DELETE, got %s", r.Method)
			}
			if got := r.URL.Query().Get("id"); got != "m1" {
				t.Errorf("expected membership handle m1, got %s", got)
			}
			w.WriteHeader(http.StatusNoContent)
		})

		yt, _ := newTestYouTubeService(t, handler)

		if err := yt.RemoveMember(context.Background(), "m1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("Carries Rejection Status", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error": {"code": 403, "message": "forbidden"}}`)
		})

		yt, _ := newTestYouTubeService(t, handler)

		err := yt.RemoveMember(context.Background(), "m1")
		var reqErr *RequestError
		if !errors.As(err, &reqErr) || reqErr.Status != 403 {
			t.Errorf("expected 403 RequestError, got %v", err)
		}
	})
}
