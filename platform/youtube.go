package platform

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CaptionSource answers whether a media link already carries captions, in
// which case there is nothing left to transcribe.
type CaptionSource interface {
	HasCaptions(ctx context.Context, link string) (bool, error)
}

// YouTube implements CaptionSource over YouTube's public timedtext listing,
// fetched anonymously like the other public endpoints.
type YouTube struct {
	http      *http.Client
	base      string
	userAgent string
}

// NewYouTube builds an anonymous caption checker.
func NewYouTube(userAgent string, opts ...func(*YouTube)) *YouTube {
	y := &YouTube{
		http:      &http.Client{Timeout: 30 * time.Second},
		base:      "https://video.google.com",
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// WithYouTubeBaseURL points the caption checker at a different root.
func WithYouTubeBaseURL(base string) func(*YouTube) {
	return func(y *YouTube) { y.base = strings.TrimRight(base, "/") }
}

// HasCaptions reports whether link is a YouTube video with at least one
// caption track. Links that aren't YouTube at all report false without a
// request.
func (y *YouTube) HasCaptions(ctx context.Context, link string) (bool, error) {
	id := youtubeVideoID(link)
	if id == "" {
		return false, nil
	}

	path := "/timedtext?type=list&v=" + url.QueryEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.base+path, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", y.userAgent)

	resp, err := y.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	var list struct {
		Tracks []struct {
			LangCode string `xml:"lang_code,attr"`
		} `xml:"track"`
	}
	if err := xml.NewDecoder(resp.Body).Decode(&list); err != nil {
		return false, fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return len(list.Tracks) > 0, nil
}

// youtubeVideoID extracts the video id from the usual link shapes: watch
// URLs, youtu.be shortlinks, and embeds. Empty for anything else.
func youtubeVideoID(link string) string {
	if !strings.Contains(link, "youtu") {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.Trim(u.Path, "/")

	switch {
	case host == "youtu.be":
		if path == "" || strings.Contains(path, "/") {
			return ""
		}
		return path
	case strings.HasSuffix(host, "youtube.com"):
		if id := u.Query().Get("v"); id != "" {
			return id
		}
		if rest, ok := strings.CutPrefix(path, "embed/"); ok && !strings.Contains(rest, "/") {
			return rest
		}
	}
	return ""
}
