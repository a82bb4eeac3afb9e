package classify

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"transcriber-bot/models"
	"transcriber-bot/platform"
)

const (
	// historyPages is how many pages of a user's recent history are
	// checked before giving up on finding their transcription.
	historyPages = 4

	// historyPageDelay spaces out the anonymous history requests so we
	// stay friendly to the platform's unauthenticated rate limits.
	historyPageDelay = 3 * time.Second
)

// FindTranscriptionCommentID searches for proof that author finished a
// transcription of post. It checks the post's top-level replies first; if the
// comment was removed from there (spam filters do that), it falls back to
// paging through the author's recent comment history, since removal only
// unlinks a comment from the obvious places. Returns the comment id, or ""
// when no proof is found.
func FindTranscriptionCommentID(ctx context.Context, client platform.Client, feed platform.Feed, author string, post models.Post, log *zap.Logger) (string, error) {
	id, err := findFromTopComments(ctx, client, author, post, log)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	return findFromPostHistory(ctx, feed, author, post, log)
}

func findFromTopComments(ctx context.Context, client platform.Client, author string, post models.Post, log *zap.Logger) (string, error) {
	comments, err := client.TopLevelComments(ctx, post.ID)
	if err != nil {
		return "", err
	}
	for _, comment := range comments {
		if !strings.EqualFold(comment.Author, author) {
			continue
		}
		if !IsTranscriptionBody(comment.Body) {
			continue
		}
		log.Debug("found transcription proof in top-level comments",
			zap.String("author", author), zap.String("post", post.ID))
		return comment.ID, nil
	}
	return "", nil
}

func findFromPostHistory(ctx context.Context, feed platform.Feed, author string, post models.Post, log *zap.Logger) (string, error) {
	postFullname := platform.Fullname(models.KindPost, post.ID)
	before := ""

	for page := 0; page < historyPages; page++ {
		log.Debug("checking post history for transcription proof",
			zap.String("author", author), zap.Int("page", page+1))

		comments, err := feed.UserComments(ctx, author, before)
		if err != nil {
			return "", err
		}
		if len(comments) == 0 {
			return "", nil
		}

		for _, comment := range comments {
			before = platform.Fullname(models.KindComment, comment.ID)
			if !IsTranscriptionBody(comment.Body) {
				continue
			}
			if comment.PostID != postFullname {
				// Not the transcription we're evaluating right now.
				continue
			}
			log.Debug("found transcription proof in post history",
				zap.String("author", author), zap.String("post", post.ID))
			return comment.ID, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(historyPageDelay):
		}
	}
	return "", nil
}
