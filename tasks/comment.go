package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"transcriber-bot/classify"
	"transcriber-bot/config"
	"transcriber-bot/models"
	"transcriber-bot/scanner"
)

var (
	acceptPattern   = regexp.MustCompile(`\bi accept\b`)
	claimPattern    = regexp.MustCompile(`\bclaim\b`)
	donePattern     = regexp.MustCompile(`\b(?:done|deno)\b`)
	overridePattern = regexp.MustCompile(`(?:^|\W)!override\b`)
)

// ProcessComment routes one comment reply to the workflow transition its
// conversational context calls for.
func (s *Services) ProcessComment(ctx context.Context, raw json.RawMessage) error {
	var args CommentArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	comment, err := s.Client.Comment(ctx, args.CommentID)
	if err != nil {
		return err
	}

	// Never react to our own comments.
	if config.IsOurBot(comment.Author) {
		return nil
	}

	post, err := s.Client.Post(ctx, stripKind(comment.PostID))
	if err != nil {
		return err
	}

	// We only manage threads our own bots created; anything else is
	// discarded before any processing, the intervention scan included.
	if !config.IsOurBot(post.Author) {
		s.Log.Debug("ignoring comment on a post we don't own",
			zap.String("comment", comment.ID), zap.String("post_author", post.Author))
		return nil
	}

	// Intervention scan runs for every comment we process, whatever the
	// routing outcome; it only ever adds a notification.
	if phrases := scanner.Scan(comment.Body); len(phrases) > 0 {
		text := fmt.Sprintf(
			":rotating_light::rotating_light: Mod Intervention Needed :rotating_light::rotating_light:\n\n"+
				"Detected use of %s <%s>", scanner.FormatPhrases(phrases), post.Shortlink())
		if err := s.Queue.Dispatch(ctx, TaskNotifyMods, NotifyArgs{Channel: "#general", Text: text}); err != nil {
			s.Log.Error("failed to dispatch intervention alert", zap.Error(err))
		}
	}

	parentBody, err := s.parentBody(ctx, comment)
	if err != nil {
		return err
	}

	body := strings.ToLower(comment.Body)

	switch classify.Classify(parentBody, post.Flair, false) {
	case classify.CodeOfConduct:
		if acceptPattern.MatchString(body) {
			if err := s.Queue.Dispatch(ctx, TaskAcceptCoC, AcceptArgs{Username: comment.Author}); err != nil {
				return err
			}
			return s.Queue.Dispatch(ctx, TaskClaimPost, ClaimArgs{
				CommentID:  comment.ID,
				Verify:     false,
				FirstClaim: true,
			})
		}
		return s.unhandled(ctx, comment)

	case classify.Claimable:
		if claimPattern.MatchString(body) {
			return s.Queue.Dispatch(ctx, TaskClaimPost, ClaimArgs{CommentID: comment.ID, Verify: true})
		}
		return s.unhandled(ctx, comment)

	case classify.Claimed:
		if donePattern.MatchString(body) {
			return s.Queue.Dispatch(ctx, TaskVerifyPostComplete, CommentArgs{CommentID: comment.ID})
		}
		if overridePattern.MatchString(body) {
			// Recognized but intentionally inert: no transition is
			// defined for !override yet, and it must not fall through
			// to the unhandled escalation.
			s.Log.Info("ignoring !override", zap.String("comment", comment.ID))
			return nil
		}
		return s.unhandled(ctx, comment)
	}

	// Unmatched: completed, meta, or anything else. Deliberately silent.
	return nil
}

// parentBody returns the body of the comment's immediate parent, or "" when
// the parent is the post itself.
func (s *Services) parentBody(ctx context.Context, comment models.Comment) (string, error) {
	if !strings.HasPrefix(comment.ParentID, models.KindComment+"_") {
		return "", nil
	}
	parent, err := s.Client.Comment(ctx, stripKind(comment.ParentID))
	if err != nil {
		return "", err
	}
	return parent.Body, nil
}

func (s *Services) unhandled(ctx context.Context, comment models.Comment) error {
	return s.Queue.Dispatch(ctx, TaskUnhandledComment, UnhandledArgs{
		CommentID: comment.ID,
		Body:      comment.Body,
	})
}
