package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"transcriber-bot/admin"
	"transcriber-bot/database"
	"transcriber-bot/models"
	"transcriber-bot/notify"
	"transcriber-bot/queue"
	"transcriber-bot/utils"
)

// fakeClient is an in-memory platform.Client with canned objects and recorded
// writes.
type fakeClient struct {
	me       string
	comments map[string]models.Comment
	posts    map[string]models.Post
	topLevel map[string][]models.Comment
	flairs   map[string][]models.FlairChoice
	inbox    []models.InboxItem

	replies       []fakeReply
	sentMessages  []fakeMessage
	selectedFlair []fakeFlairSelection
	submitted     []fakeSubmission
	markedRead    []string
}

type fakeReply struct {
	Parent string
	Body   string
}

type fakeMessage struct {
	To      string
	Subject string
	Body    string
}

type fakeFlairSelection struct {
	PostID     string
	TemplateID string
}

type fakeSubmission struct {
	Subreddit string
	Title     string
	Link      string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		me:       "transcribersofreddit",
		comments: make(map[string]models.Comment),
		posts:    make(map[string]models.Post),
		topLevel: make(map[string][]models.Comment),
		flairs:   make(map[string][]models.FlairChoice),
	}
}

func (c *fakeClient) Me(ctx context.Context) (string, error) {
	return c.me, nil
}

func (c *fakeClient) Comment(ctx context.Context, id string) (models.Comment, error) {
	comment, ok := c.comments[id]
	if !ok {
		return models.Comment{}, fmt.Errorf("no such comment %q", id)
	}
	return comment, nil
}

func (c *fakeClient) Post(ctx context.Context, id string) (models.Post, error) {
	post, ok := c.posts[id]
	if !ok {
		return models.Post{}, fmt.Errorf("no such post %q", id)
	}
	return post, nil
}

func (c *fakeClient) TopLevelComments(ctx context.Context, postID string) ([]models.Comment, error) {
	return c.topLevel[postID], nil
}

func (c *fakeClient) Reply(ctx context.Context, parentFullname, body string) (models.Comment, error) {
	c.replies = append(c.replies, fakeReply{Parent: parentFullname, Body: body})
	return models.Comment{ID: fmt.Sprintf("reply%d", len(c.replies))}, nil
}

func (c *fakeClient) SendMessage(ctx context.Context, to, subject, body string) error {
	c.sentMessages = append(c.sentMessages, fakeMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (c *fakeClient) FlairChoices(ctx context.Context, postID string) ([]models.FlairChoice, error) {
	return c.flairs[postID], nil
}

func (c *fakeClient) SelectFlair(ctx context.Context, postID, templateID string) error {
	c.selectedFlair = append(c.selectedFlair, fakeFlairSelection{PostID: postID, TemplateID: templateID})
	return nil
}

func (c *fakeClient) Submit(ctx context.Context, subreddit, title, link string) (models.Post, error) {
	c.submitted = append(c.submitted, fakeSubmission{Subreddit: subreddit, Title: title, Link: link})
	return models.Post{ID: fmt.Sprintf("submitted%d", len(c.submitted))}, nil
}

func (c *fakeClient) UnreadInbox(ctx context.Context) ([]models.InboxItem, error) {
	return c.inbox, nil
}

func (c *fakeClient) MarkRead(ctx context.Context, fullname string) error {
	c.markedRead = append(c.markedRead, fullname)
	return nil
}

// fakeFeed is an in-memory platform.Feed. userComments is keyed by the before
// cursor; the first page lives under "".
type fakeFeed struct {
	users        map[string]bool
	userComments map[string][]models.Comment
	listings     map[string][]models.FeedItem
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		users:        make(map[string]bool),
		userComments: make(map[string][]models.Comment),
		listings:     make(map[string][]models.FeedItem),
	}
}

func (f *fakeFeed) UserExists(ctx context.Context, username string) (bool, error) {
	return f.users[username], nil
}

func (f *fakeFeed) UserComments(ctx context.Context, username, before string) ([]models.Comment, error) {
	return f.userComments[before], nil
}

func (f *fakeFeed) New(ctx context.Context, subreddit string) ([]models.FeedItem, error) {
	return f.listings[subreddit], nil
}

// fakeCaptions reports captions for the listed links and fails with err when
// set.
type fakeCaptions struct {
	captioned map[string]bool
	err       error
}

func (c *fakeCaptions) HasCaptions(ctx context.Context, link string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.captioned[link], nil
}

// fixture is a fully wired Services over fakes. Dispatched tasks are recorded
// by the memory queue, never executed; a test that wants a downstream effect
// invokes the handler itself.
type fixture struct {
	svc      *Services
	client   *fakeClient
	feed     *fakeFeed
	captions *fakeCaptions
	store    *database.Store
	notifier *notify.Memory
	queue    *queue.MemoryQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("bot.name", "transcribersofreddit")
	viper.Set("bot.identities", []string{"transcribersofreddit", "tor_archivist"})
	viper.Set("bot.subreddit", "TranscribersOfReddit")

	store, err := database.Open(filepath.Join(t.TempDir(), "tor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		client:   newFakeClient(),
		feed:     newFakeFeed(),
		captions: &fakeCaptions{captioned: make(map[string]bool)},
		store:    store,
		notifier: &notify.Memory{},
		queue:    queue.NewMemoryQueue(),
	}
	f.svc = &Services{
		Client:   f.client,
		Feed:     f.feed,
		Captions: f.captions,
		Store:    store,
		Notify:   f.notifier,
		Queue:    f.queue,
		Auth: utils.NewAuthFromPolicy(utils.PolicyConfig{
			Moderators: []string{"itsthejoker"},
			Allowed: map[string][]string{
				"ping":      {"anyone"},
				"blacklist": {"moderators"},
			},
		}),
		Admin: admin.NewRegistry(),
		Log:   zap.NewNop(),
	}
	return f
}

// addComment registers a comment and its enclosing post with the fake client
// and returns the comment id.
func (f *fixture) addComment(comment models.Comment, post models.Post) string {
	f.client.comments[comment.ID] = comment
	f.client.posts[post.ID] = post
	return comment.ID
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
