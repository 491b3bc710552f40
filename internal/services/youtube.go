// YouTube Data API v3 [Source] implementation
//
// Response types based on https://developers.google.com/youtube/v3/docs
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/livesync/internal/shared"
)

const (
	defaultYTBaseURL    = "https://www.googleapis.com/youtube/v3"
	defaultDiscoveryCap = 10
	membersPageSize     = 50
)

// searchItem is one result from the search endpoint.
type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
	} `json:"snippet"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

// playlistItem is one playlist entry; the top-level id is the membership
// handle required for deletion.
type playlistItem struct {
	ID             string `json:"id"`
	ContentDetails struct {
		VideoID string `json:"videoId"`
	} `json:"contentDetails"`
}

type playlistItemsResponse struct {
	NextPageToken string         `json:"nextPageToken"`
	Items         []playlistItem `json:"items"`
}

// apiError is the YouTube Data API error envelope.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// YouTubeService implements the Source interface against the YouTube Data API.
// Every request runs through the resilient [Executor].
type YouTubeService struct {
	baseURL      string
	httpClient   *http.Client
	exec         *Executor
	logger       *log.Logger
	discoveryCap int
	now          func() time.Time
}

// YouTubeServiceOpts contains configuration options for creating a YouTubeService.
type YouTubeServiceOpts struct {
	BaseURL      string // Overridable for tests
	Client       *http.Client
	Executor     *Executor
	Logger       *log.Logger
	DiscoveryCap int
}

// NewYouTubeService creates a new YouTube Data API service instance.
func NewYouTubeService(opts YouTubeServiceOpts) *YouTubeService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultYTBaseURL
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.DiscoveryCap <= 0 {
		opts.DiscoveryCap = defaultDiscoveryCap
	}

	return &YouTubeService{
		baseURL:      opts.BaseURL,
		httpClient:   opts.Client,
		exec:         opts.Executor,
		logger:       opts.Logger,
		discoveryCap: opts.DiscoveryCap,
		now:          time.Now,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// doRequest performs one authenticated HTTP request against the API.
//
// Non-2xx responses become a [RequestError] carrying the status so the
// executor can classify them; transport failures are returned as-is.
func (y *YouTubeService) doRequest(ctx context.Context, token, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp apiError
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			return &RequestError{Status: resp.StatusCode, Message: errResp.Error.Message}
		}
		return &RequestError{Status: resp.StatusCode}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// DiscoverLive returns the broadcasts currently live on the channel.
//
// Calls GET /search with eventType=live; a single page capped at the
// configured discovery size.
func (y *YouTubeService) DiscoverLive(ctx context.Context, channelID string) ([]LiveItem, error) {
	endpoint := fmt.Sprintf("/search?part=snippet&channelId=%s&eventType=live&type=video&maxResults=%d",
		url.QueryEscape(channelID), y.discoveryCap)

	var response searchResponse
	err := y.exec.Do(ctx, "discover_live", func(ctx context.Context, token string) error {
		return y.doRequest(ctx, token, http.MethodGet, endpoint, nil, &response)
	})
	if err != nil {
		return nil, err
	}

	items := make([]LiveItem, 0, len(response.Items))
	for _, it := range response.Items {
		if it.ID.VideoID == "" {
			continue
		}
		items = append(items, LiveItem{
			VideoID:      it.ID.VideoID,
			ChannelID:    channelID,
			ChannelLabel: it.Snippet.ChannelTitle,
			Title:        it.Snippet.Title,
			DiscoveredAt: y.now(),
		})
	}

	return items, nil
}

// ListMembers returns every entry of the playlist.
//
// Calls GET /playlistItems, following nextPageToken until absent and
// concatenating pages in server-returned order.
func (y *YouTubeService) ListMembers(ctx context.Context, playlistID string) ([]MemberItem, error) {
	var members []MemberItem
	pageToken := ""

	for {
		endpoint := fmt.Sprintf("/playlistItems?part=contentDetails&playlistId=%s&maxResults=%d",
			url.QueryEscape(playlistID), membersPageSize)
		if pageToken != "" {
			endpoint += "&pageToken=" + url.QueryEscape(pageToken)
		}

		var page playlistItemsResponse
		err := y.exec.Do(ctx, "list_members", func(ctx context.Context, token string) error {
			return y.doRequest(ctx, token, http.MethodGet, endpoint, nil, &page)
		})
		if err != nil {
			return nil, err
		}

		for _, it := range page.Items {
			members = append(members, MemberItem{
				ID:      it.ID,
				VideoID: it.ContentDetails.VideoID,
			})
		}

		if page.NextPageToken == "" {
			return members, nil
		}
		pageToken = page.NextPageToken
	}
}

// AddMember inserts a video at the end of the playlist.
//
// Calls POST /playlistItems.
func (y *YouTubeService) AddMember(ctx context.Context, playlistID, videoID string) error {
	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": playlistID,
			"resourceId": map[string]string{
				"kind":    "youtube#video",
				"videoId": videoID,
			},
		},
	}

	return y.exec.Do(ctx, "add_member", func(ctx context.Context, token string) error {
		return y.doRequest(ctx, token, http.MethodPost, "/playlistItems?part=snippet", body, nil)
	})
}

// RemoveMember deletes a playlist entry by its membership handle.
//
// Calls DELETE /playlistItems.
func (y *YouTubeService) RemoveMember(ctx context.Context, memberID string) error {
	endpoint := "/playlistItems?id=" + url.QueryEscape(memberID)

	return y.exec.Do(ctx, "remove_member", func(ctx context.Context, token string) error {
		return y.doRequest(ctx, token, http.MethodDelete, endpoint, nil, nil)
	})
}
