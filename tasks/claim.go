package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"transcriber-bot/classify"
	"transcriber-bot/config"
	"transcriber-bot/database"
	"transcriber-bot/models"
	"transcriber-bot/platform"
	"transcriber-bot/reply"
)

type ClaimArgs struct {
	CommentID string `json:"comment_id"`

	// Verify requires the author to have accepted the code of conduct
	// first. The accept flow skips it because the set-add and the claim
	// are dispatched together.
	Verify bool `json:"verify"`

	// FirstClaim marks the author's very first claim.
	FirstClaim bool `json:"first_claim"`
}

// ClaimPost assigns a post to the commenting volunteer: flair goes from
// Unclaimed to In Progress and a confirmation is posted under their comment.
func (s *Services) ClaimPost(ctx context.Context, raw json.RawMessage) error {
	var args ClaimArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	comment, err := s.Client.Comment(ctx, args.CommentID)
	if err != nil {
		return err
	}

	if args.Verify {
		accepted, err := s.Store.IsMember(ctx, database.SetAcceptedCoC, comment.Author)
		if err != nil {
			return err
		}
		if !accepted {
			return fmt.Errorf("%w: unable to claim a post without first accepting the code of conduct", ErrInvalidState)
		}
	}

	post, err := s.Client.Post(ctx, stripKind(comment.PostID))
	if err != nil {
		return err
	}

	parentBody, err := s.parentBody(ctx, comment)
	if err != nil {
		return err
	}

	// Re-validate claim eligibility with the override flag so that a
	// claim through the code-of-conduct prompt doesn't loop back into
	// the CoC branch.
	switch classify.Classify(parentBody, post.Flair, true) {
	case classify.Claimable:
		// Good to go.
	case classify.Claimed:
		_, err := reply.PostChained(ctx, s.Client,
			platform.Fullname(models.KindComment, comment.ID),
			reply.Responses["already_claimed"])
		return err
	default:
		return fmt.Errorf("%w: unable to claim a post that is not claimable (%s)", ErrInvalidState, post.Shortlink())
	}

	if err := s.Queue.Dispatch(ctx, TaskUpdatePostFlair, FlairArgs{
		PostID: post.ID,
		Flair:  models.FlairInProgress,
	}); err != nil {
		return err
	}

	if args.FirstClaim {
		s.Log.Info("first claim", zap.String("author", comment.Author))
	}
	_, err = reply.PostChained(ctx, s.Client,
		platform.Fullname(models.KindComment, comment.ID),
		reply.Responses["claim_success"])
	return err
}

// VerifyPostComplete checks for proof that the volunteer actually finished
// the transcription before the post gets marked complete.
func (s *Services) VerifyPostComplete(ctx context.Context, raw json.RawMessage) error {
	var args CommentArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	comment, err := s.Client.Comment(ctx, args.CommentID)
	if err != nil {
		return err
	}

	post, err := s.Client.Post(ctx, stripKind(comment.PostID))
	if err != nil {
		return err
	}

	if !config.IsOurBot(post.Author) {
		return fmt.Errorf("%w: unable to mark post as done if it's not a transcribable post (%s)", ErrInvalidState, post.Shortlink())
	}

	accepted, err := s.Store.IsMember(ctx, database.SetAcceptedCoC, comment.Author)
	if err != nil {
		return err
	}
	if !accepted {
		return fmt.Errorf("%w: unable to complete a post without first accepting the code of conduct", ErrInvalidState)
	}

	parentBody, err := s.parentBody(ctx, comment)
	if err != nil {
		return err
	}
	if classify.Classify(parentBody, post.Flair, true) != classify.Claimed {
		return fmt.Errorf("%w: unable to complete a post that is not in progress (%s)", ErrInvalidState, post.Shortlink())
	}

	// Our post links to the post the volunteer transcribed; the proof
	// lives over there, not in our own thread.
	otherID := postIDFromURL(post.URL)
	if otherID == "" {
		return fmt.Errorf("%w: no linked post found on %s", ErrInvalidState, post.Shortlink())
	}
	otherPost, err := s.Client.Post(ctx, otherID)
	if err != nil {
		return err
	}

	transcriptionID, err := classify.FindTranscriptionCommentID(ctx, s.Client, s.Feed, comment.Author, otherPost, s.Log)
	if err != nil {
		return err
	}

	if transcriptionID != "" {
		return s.Queue.Dispatch(ctx, TaskMarkPostComplete, CommentArgs{CommentID: comment.ID})
	}

	_, err = reply.PostChained(ctx, s.Client,
		platform.Fullname(models.KindComment, comment.ID),
		reply.Responses["no_transcript_found"])
	return err
}

// MarkPostComplete finishes the workflow: bump the volunteer's count and set
// the Completed flair. Kept as its own task so a moderator can dispatch it
// manually when overriding the verification.
func (s *Services) MarkPostComplete(ctx context.Context, raw json.RawMessage) error {
	var args CommentArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	comment, err := s.Client.Comment(ctx, args.CommentID)
	if err != nil {
		return err
	}

	if err := s.Queue.Dispatch(ctx, TaskBumpTranscriptions, BumpArgs{
		Username: comment.Author,
		By:       1,
	}); err != nil {
		return err
	}
	return s.Queue.Dispatch(ctx, TaskUpdatePostFlair, FlairArgs{
		PostID: stripKind(comment.PostID),
		Flair:  models.FlairCompleted,
	})
}

var postURLPattern = regexp.MustCompile(`(?:comments|redd\.it)/([A-Za-z0-9]+)`)

// postIDFromURL pulls the post id out of a platform post URL, either the
// /comments/<id>/ form or the redd.it/<id> shortlink. Empty when the URL
// doesn't point at a post.
func postIDFromURL(url string) string {
	m := postURLPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
