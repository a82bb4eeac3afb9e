package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"transcriber-bot/models"
)

// PublicFeed implements Feed against the platform's public JSON listings,
// fetched without authentication.
type PublicFeed struct {
	http      *http.Client
	base      string
	userAgent string
}

// NewPublicFeed builds an anonymous feed client.
func NewPublicFeed(userAgent string, opts ...func(*PublicFeed)) *PublicFeed {
	f := &PublicFeed{
		http:      &http.Client{Timeout: 30 * time.Second},
		base:      "https://www.reddit.com",
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithFeedBaseURL points the feed client at a different root.
func WithFeedBaseURL(base string) func(*PublicFeed) {
	return func(f *PublicFeed) { f.base = strings.TrimRight(base, "/") }
}

// get fetches one anonymous listing. A 404 maps to ErrNotFound; any other
// error status is a failure the caller must surface, never a result.
func (f *PublicFeed) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("GET %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

func (f *PublicFeed) UserExists(ctx context.Context, username string) (bool, error) {
	var l listing
	err := f.get(ctx, "/u/"+url.PathEscape(username)+".json", &l)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (f *PublicFeed) UserComments(ctx context.Context, username, before string) ([]models.Comment, error) {
	path := "/user/" + url.PathEscape(username) + ".json"
	if before != "" {
		path += "?before=" + url.QueryEscape(before)
	}
	var l listing
	if err := f.get(ctx, path, &l); err != nil {
		return nil, err
	}
	var comments []models.Comment
	for _, raw := range l.Data.Children {
		var t thing
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		if t.Kind != models.KindComment {
			continue
		}
		var c models.Comment
		if err := json.Unmarshal(t.Data, &c); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func (f *PublicFeed) New(ctx context.Context, subreddit string) ([]models.FeedItem, error) {
	var feed struct {
		Kind string `json:"kind"`
		Data struct {
			Children []models.FeedItem `json:"children"`
		} `json:"data"`
	}
	if err := f.get(ctx, "/r/"+url.PathEscape(subreddit)+"/new.json", &feed); err != nil {
		return nil, err
	}
	if !strings.EqualFold(feed.Kind, "listing") {
		return nil, fmt.Errorf("subreddit %s: invalid payload kind %q", subreddit, feed.Kind)
	}
	return feed.Data.Children, nil
}
