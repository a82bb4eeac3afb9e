package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"transcriber-bot/models"
)

// Reddit implements Client against reddit's OAuth JSON API.
type Reddit struct {
	http      *http.Client
	base      string
	token     string
	userAgent string
}

// NewReddit builds a client for the given OAuth bearer token. The base URL is
// overridable for tests.
func NewReddit(token, userAgent string, opts ...func(*Reddit)) *Reddit {
	r := &Reddit{
		http:      &http.Client{Timeout: 30 * time.Second},
		base:      "https://oauth.reddit.com",
		token:     token,
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(base string) func(*Reddit) {
	return func(r *Reddit) { r.base = strings.TrimRight(base, "/") }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(c *http.Client) func(*Reddit) {
	return func(r *Reddit) { r.http = c }
}

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []json.RawMessage `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func (r *Reddit) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, r.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", r.userAgent)
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

func (r *Reddit) Me(ctx context.Context) (string, error) {
	var me struct {
		Name string `json:"name"`
	}
	if err := r.do(ctx, http.MethodGet, "/api/v1/me", nil, &me); err != nil {
		return "", err
	}
	return me.Name, nil
}

// info fetches a single object by fullname via /api/info.
func (r *Reddit) info(ctx context.Context, fullname string, data any) error {
	var l listing
	if err := r.do(ctx, http.MethodGet, "/api/info.json?id="+url.QueryEscape(fullname), nil, &l); err != nil {
		return err
	}
	if len(l.Data.Children) == 0 {
		return fmt.Errorf("info %s: %w", fullname, ErrNotFound)
	}
	var t thing
	if err := json.Unmarshal(l.Data.Children[0], &t); err != nil {
		return err
	}
	return json.Unmarshal(t.Data, data)
}

func (r *Reddit) Comment(ctx context.Context, id string) (models.Comment, error) {
	var c models.Comment
	err := r.info(ctx, Fullname(models.KindComment, id), &c)
	return c, err
}

func (r *Reddit) Post(ctx context.Context, id string) (models.Post, error) {
	var p models.Post
	err := r.info(ctx, Fullname(models.KindPost, id), &p)
	return p, err
}

func (r *Reddit) TopLevelComments(ctx context.Context, postID string) ([]models.Comment, error) {
	// /comments/{id}.json returns two listings: the post, then its replies.
	var payload []listing
	if err := r.do(ctx, http.MethodGet, "/comments/"+url.PathEscape(postID)+".json", nil, &payload); err != nil {
		return nil, err
	}
	if len(payload) < 2 {
		return nil, nil
	}
	var comments []models.Comment
	for _, raw := range payload[1].Data.Children {
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

func (r *Reddit) Reply(ctx context.Context, parentFullname, body string) (models.Comment, error) {
	form := url.Values{
		"api_type": {"json"},
		"thing_id": {parentFullname},
		"text":     {body},
	}
	var resp struct {
		JSON struct {
			Data struct {
				Things []thing `json:"things"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := r.do(ctx, http.MethodPost, "/api/comment", form, &resp); err != nil {
		return models.Comment{}, err
	}
	var c models.Comment
	if len(resp.JSON.Data.Things) > 0 {
		if err := json.Unmarshal(resp.JSON.Data.Things[0].Data, &c); err != nil {
			return models.Comment{}, err
		}
	}
	return c, nil
}

func (r *Reddit) SendMessage(ctx context.Context, to, subject, body string) error {
	form := url.Values{
		"api_type": {"json"},
		"to":       {to},
		"subject":  {subject},
		"text":     {body},
	}
	return r.do(ctx, http.MethodPost, "/api/compose", form, nil)
}

func (r *Reddit) FlairChoices(ctx context.Context, postID string) ([]models.FlairChoice, error) {
	form := url.Values{"link": {Fullname(models.KindPost, postID)}}
	var resp struct {
		Choices []models.FlairChoice `json:"choices"`
	}
	if err := r.do(ctx, http.MethodPost, "/api/flairselector", form, &resp); err != nil {
		return nil, err
	}
	return resp.Choices, nil
}

func (r *Reddit) SelectFlair(ctx context.Context, postID, templateID string) error {
	form := url.Values{
		"api_type":          {"json"},
		"link":              {Fullname(models.KindPost, postID)},
		"flair_template_id": {templateID},
	}
	return r.do(ctx, http.MethodPost, "/api/selectflair", form, nil)
}

func (r *Reddit) Submit(ctx context.Context, subreddit, title, link string) (models.Post, error) {
	form := url.Values{
		"api_type": {"json"},
		"sr":       {subreddit},
		"kind":     {"link"},
		"title":    {title},
		"url":      {link},
	}
	var resp struct {
		JSON struct {
			Data models.Post `json:"data"`
		} `json:"json"`
	}
	if err := r.do(ctx, http.MethodPost, "/api/submit", form, &resp); err != nil {
		return models.Post{}, err
	}
	return resp.JSON.Data, nil
}

func (r *Reddit) UnreadInbox(ctx context.Context) ([]models.InboxItem, error) {
	var l listing
	if err := r.do(ctx, http.MethodGet, "/message/unread.json", nil, &l); err != nil {
		return nil, err
	}
	var items []models.InboxItem
	for _, raw := range l.Data.Children {
		var t thing
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		var item models.InboxItem
		if err := json.Unmarshal(t.Data, &item); err != nil {
			return nil, err
		}
		item.Kind = t.Kind
		items = append(items, item)
	}
	return items, nil
}

func (r *Reddit) MarkRead(ctx context.Context, fullname string) error {
	form := url.Values{"id": {fullname}}
	return r.do(ctx, http.MethodPost, "/api/read_message", form, nil)
}
