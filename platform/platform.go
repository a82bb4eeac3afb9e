// Package platform wraps the discussion platform's remote API. Everything in
// here may block on the network and may fail with transport errors, which the
// enclosing unit of work surfaces to the job substrate.
package platform

import (
	"context"
	"errors"

	"transcriber-bot/models"
)

// ErrNotFound is returned when the platform reports that the requested
// object does not exist.
var ErrNotFound = errors.New("platform: not found")

// Fullname builds the platform's typed identifier for an object, e.g.
// Fullname(models.KindComment, "abc123") -> "t1_abc123".
func Fullname(kind, id string) string {
	return kind + "_" + id
}

// Client is the authenticated surface of the platform consumed by the bot.
type Client interface {
	// Me returns the username the session is authenticated as.
	Me(ctx context.Context) (string, error)

	Comment(ctx context.Context, id string) (models.Comment, error)
	Post(ctx context.Context, id string) (models.Post, error)

	// TopLevelComments returns the direct replies to a post.
	TopLevelComments(ctx context.Context, postID string) ([]models.Comment, error)

	// Reply posts body as a reply to the object named by parentFullname
	// (a post, comment, or message) and returns the created comment.
	Reply(ctx context.Context, parentFullname, body string) (models.Comment, error)

	// SendMessage sends a private message to a user.
	SendMessage(ctx context.Context, to, subject, body string) error

	FlairChoices(ctx context.Context, postID string) ([]models.FlairChoice, error)
	SelectFlair(ctx context.Context, postID, templateID string) error

	// Submit creates a new link post in the given subreddit.
	Submit(ctx context.Context, subreddit, title, link string) (models.Post, error)

	UnreadInbox(ctx context.Context) ([]models.InboxItem, error)
	MarkRead(ctx context.Context, fullname string) error
}

// Feed is the anonymous, unauthenticated surface: public JSON listings that
// do not count against the authenticated session's rate limits.
type Feed interface {
	// UserExists reports whether a username resolves on the platform.
	UserExists(ctx context.Context, username string) (bool, error)

	// UserComments returns one page of a user's recent comment history,
	// older than the comment id given in before (empty for the first page).
	UserComments(ctx context.Context, username, before string) ([]models.Comment, error)

	// New returns the /new listing of a subreddit.
	New(ctx context.Context, subreddit string) ([]models.FeedItem, error)
}
