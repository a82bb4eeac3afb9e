package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcriber-bot/models"
)

const cocPrompt = "Please read our Code of Conduct, then respond with `I accept`."

// torPost returns a post in the bot's subreddit owned by the bot, in the
// given flair state.
func torPost(flair string) models.Post {
	return models.Post{
		ID:        "torpost",
		Author:    "transcribersofreddit",
		Flair:     flair,
		Subreddit: "TranscribersOfReddit",
		URL:       "https://www.reddit.com/r/pics/comments/srcpost/some_title/",
	}
}

func TestProcessCommentAcceptsCodeOfConduct(t *testing.T) {
	f := newFixture(t)
	f.client.comments["cocprompt"] = models.Comment{
		ID:     "cocprompt",
		Author: "transcribersofreddit",
		Body:   cocPrompt,
		PostID: "t3_torpost",
	}
	f.addComment(models.Comment{
		ID:       "c1",
		Author:   "volunteer",
		Body:     "I accept the consequences of my actions.",
		ParentID: "t1_cocprompt",
		PostID:   "t3_torpost",
	}, torPost(models.FlairUnclaimed))

	err := f.svc.ProcessComment(context.Background(), mustJSON(t, CommentArgs{CommentID: "c1"}))
	require.NoError(t, err)

	assert.Equal(t, []string{TaskAcceptCoC, TaskClaimPost}, f.queue.TaskNames())

	var accept AcceptArgs
	require.True(t, f.queue.ArgsFor(TaskAcceptCoC, &accept))
	assert.Equal(t, "volunteer", accept.Username)

	var claim ClaimArgs
	require.True(t, f.queue.ArgsFor(TaskClaimPost, &claim))
	assert.Equal(t, "c1", claim.CommentID)
	assert.False(t, claim.Verify)
	assert.True(t, claim.FirstClaim)
}

func TestProcessCommentClaim(t *testing.T) {
	f := newFixture(t)
	f.addComment(models.Comment{
		ID:       "c1",
		Author:   "volunteer",
		Body:     "I claim this land in the name of France!",
		ParentID: "t3_torpost",
		PostID:   "t3_torpost",
	}, torPost(models.FlairUnclaimed))

	err := f.svc.ProcessComment(context.Background(), mustJSON(t, CommentArgs{CommentID: "c1"}))
	require.NoError(t, err)

	assert.Equal(t, []string{TaskClaimPost}, f.queue.TaskNames())

	var claim ClaimArgs
	require.True(t, f.queue.ArgsFor(TaskClaimPost, &claim))
	assert.Equal(t, "c1", claim.CommentID)
	assert.True(t, claim.Verify)
	assert.False(t, claim.FirstClaim)
}

func TestProcessCommentUnrecognizedIsEscalatedOnce(t *testing.T) {
	f := newFixture(t)
	f.addComment(models.Comment{
		ID:       "c1",
		Author:   "volunteer",
		Body:     "Nah, go screw yourself.",
		ParentID: "t3_torpost",
		PostID:   "t3_torpost",
	}, torPost(models.FlairUnclaimed))

	err := f.svc.ProcessComment(context.Background(), mustJSON(t, CommentArgs{CommentID: "c1"}))
	require.NoError(t, err)

	assert.Equal(t, []string{TaskUnhandledComment}, f.queue.TaskNames())

	var args UnhandledArgs
	require.True(t, f.queue.ArgsFor(TaskUnhandledComment, &args))
	assert.Equal(t, "c1", args.CommentID)
	assert.Equal(t, "Nah, go screw yourself.", args.Body)
}

func TestProcessCommentDone(t *testing.T) {
	f := newFixture(t)
	f.addComment(models.Comment{
		ID:       "c1",
		Author:   "volunteer",
		Body:     "Done! That was a tough one.",
		ParentID: "t3_torpost",
		PostID:   "t3_torpost",
	}, torPost(models.FlairInProgress))

	err := f.svc.ProcessComment(context.Background(), mustJSON(t, CommentArgs{CommentID: "c1"}))
	require.NoError(t, err)

	assert.Equal(t, []string{TaskVerifyPostComplete}, f.queue.TaskNames())
}

func TestProcessCommentDoneTypo(t *testing.T) {
	f := newFixture(t)
	f.addComment(models.Comment{
		ID:       "c1",
		Author:   "volunteer",
		Body:     "deno",
		ParentID: "t3_torpost",
		PostID:   "t3_torpost",
	}, torPost(models.FlairInProgress))

	err := f.svc.ProcessComment(context.Background(), mustJSON(t, CommentArgs{CommentID: "c1"}))
	require.NoError(t, err)

	assert.Equal(t, []string{TaskVerifyPostComplete}, f.queue.TaskNames())
}

func TestProcessCommentOverrideIsInert(t *testing.T) {
	f := newFixture(t)
	f.addComment(models.Comment{
		ID:       "c1",
		Author:   "volunteer",
		Body:     "!override",
		ParentID: "t3_torpost",
		PostID:   "t3_torpost",
	}, torPost(models.FlairInProgress))

	err := f.svc.ProcessComment(context.Background(), mustJSON(t, CommentArgs{CommentID: "c1"}))
	require.NoError(t, err)

	// Recognized but without a transition: nothing runs, nothing escalates.
	assert.Empty(t, f.queue.TaskNames())
}

func TestProcessCommentIgnoresOwnComments(t *testing.T) {
	f := newFixture(t)
	f.addComment(models.Comment{
		ID:       "c1",
		Author:   "transcribersofreddit",
		Body:     "claim",
		ParentID: "t3_torpost",
		PostID:   "t3_torpost",
	}, torPost(models.FlairUnclaimed))

	err := f.svc.ProcessComment(context.Background(), mustJSON(t, CommentArgs{CommentID: "c1"}))
	require.NoError(t, err)
	assert.Empty(t, f.queue.TaskNames())
}

func TestProcessCommentIgnoresForeignPosts(t *testing.T) {
	f := newFixture(t)
	f.addComment(models.Comment{
		ID:       "c1",
		Author:   "volunteer",
		Body:     "claim",
		ParentID: "t3_otherpost",
		PostID:   "t3_otherpost",
	}, models.Post{
		ID:     "otherpost",
		Author: "somestranger",
		Flair:  models.FlairUnclaimed,
	})

	err := f.svc.ProcessComment(context.Background(), mustJSON(t, CommentArgs{CommentID: "c1"}))
	require.NoError(t, err)
	assert.Empty(t, f.queue.TaskNames())
}

func TestProcessCommentSilentOnCompleted(t *testing.T) {
	f := newFixture(t)
	f.addComment(models.Comment{
		ID:       "c1",
		Author:   "volunteer",
		Body:     "thanks, great work everyone",
		ParentID: "t3_torpost",
		PostID:   "t3_torpost",
	}, torPost(models.FlairCompleted))

	err := f.svc.ProcessComment(context.Background(), mustJSON(t, CommentArgs{CommentID: "c1"}))
	require.NoError(t, err)
	assert.Empty(t, f.queue.TaskNames())
}

func TestProcessCommentScansForIntervention(t *testing.T) {
	f := newFixture(t)
	f.addComment(models.Comment{
		ID:       "c1",
		Author:   "volunteer",
		Body:     "unclaim this, bad bot",
		ParentID: "t3_torpost",
		PostID:   "t3_torpost",
	}, torPost(models.FlairInProgress))

	err := f.svc.ProcessComment(context.Background(), mustJSON(t, CommentArgs{CommentID: "c1"}))
	require.NoError(t, err)

	// The scan fires the alert and routing still runs to its own outcome.
	assert.Equal(t, []string{TaskNotifyMods, TaskUnhandledComment}, f.queue.TaskNames())

	var alert NotifyArgs
	require.True(t, f.queue.ArgsFor(TaskNotifyMods, &alert))
	assert.Equal(t, "#general", alert.Channel)
	assert.Contains(t, alert.Text, "Mod Intervention Needed")
	assert.Contains(t, alert.Text, `"unclaim", "bad bot"`)
	assert.Contains(t, alert.Text, "https://redd.it/torpost")
}
