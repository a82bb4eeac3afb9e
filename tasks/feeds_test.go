package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcriber-bot/database"
	"transcriber-bot/models"
)

func feedItem(post models.Post) models.FeedItem {
	return models.FeedItem{Kind: models.KindPost, Data: post}
}

func TestCheckNewFeeds(t *testing.T) {
	f := newFixture(t)
	viper.Set("bot.monitored", []string{"pics", "gifs"})

	err := f.svc.CheckNewFeeds(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{TaskCheckNewFeed, TaskCheckNewFeed}, f.queue.TaskNames())
}

func TestCheckNewFeedFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viper.Set("filters.minScore", 5)

	// One eligible post among every flavor of ineligible one.
	_, err := f.store.AddToSet(ctx, database.SetPostIDs, "seen")
	require.NoError(t, err)

	f.feed.listings["pics"] = []models.FeedItem{
		feedItem(models.Post{ID: "selfpost", Author: "a", IsSelf: true, Score: 10}),
		feedItem(models.Post{ID: "locked", Author: "a", Locked: true, Score: 10}),
		feedItem(models.Post{ID: "archived", Author: "a", Archived: true, Score: 10}),
		feedItem(models.Post{ID: "deleted", Author: "", Score: 10}),
		feedItem(models.Post{ID: "lowscore", Author: "a", Score: 2}),
		feedItem(models.Post{ID: "seen", Author: "a", Score: 10}),
		{Kind: models.KindComment, Data: models.Post{ID: "notapost"}},
		feedItem(models.Post{
			ID:        "fresh",
			Author:    "a",
			Score:     10,
			Title:     "A cat",
			Subreddit: "pics",
			Permalink: "/r/pics/comments/fresh/a_cat/",
			Domain:    "i.imgur.com",
			URL:       "https://i.imgur.com/cat.jpg",
		}),
	}

	err = f.svc.CheckNewFeed(ctx, mustJSON(t, FeedArgs{Subreddit: "pics"}))
	require.NoError(t, err)

	assert.Equal(t, []string{TaskPostToTor}, f.queue.TaskNames())

	var args PostToTorArgs
	require.True(t, f.queue.ArgsFor(TaskPostToTor, &args))
	assert.Equal(t, "pics", args.Sub)
	assert.Equal(t, "A cat", args.Title)
	assert.Equal(t, "https://www.reddit.com/r/pics/comments/fresh/a_cat/", args.Link)
	assert.Equal(t, "fresh", args.PostID)
	assert.Equal(t, "https://i.imgur.com/cat.jpg", args.MediaLink)
}

func TestCheckNewFeedDomainWhitelist(t *testing.T) {
	f := newFixture(t)
	viper.Set("filters.domains", []string{"i.imgur.com"})

	f.feed.listings["pics"] = []models.FeedItem{
		feedItem(models.Post{ID: "offsite", Author: "a", Score: 10, Domain: "example.com"}),
		feedItem(models.Post{ID: "onsite", Author: "a", Score: 10, Domain: "I.IMGUR.COM"}),
	}

	err := f.svc.CheckNewFeed(context.Background(), mustJSON(t, FeedArgs{Subreddit: "pics"}))
	require.NoError(t, err)

	var args PostToTorArgs
	require.True(t, f.queue.ArgsFor(TaskPostToTor, &args))
	assert.Equal(t, "onsite", args.PostID)
	assert.Equal(t, []string{TaskPostToTor}, f.queue.TaskNames())
}

func TestMonitorOwnNewFeed(t *testing.T) {
	f := newFixture(t)
	f.feed.listings["TranscribersOfReddit"] = []models.FeedItem{
		feedItem(models.Post{ID: "ours", Author: "transcribersofreddit"}),
		feedItem(models.Post{ID: "flaired", Author: "someuser", Flair: models.FlairMeta}),
		feedItem(models.Post{ID: "stray", Author: "someuser"}),
	}

	err := f.svc.MonitorOwnNewFeed(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{TaskUpdatePostFlair}, f.queue.TaskNames())

	var args FlairArgs
	require.True(t, f.queue.ArgsFor(TaskUpdatePostFlair, &args))
	assert.Equal(t, "stray", args.PostID)
	assert.Equal(t, models.FlairMeta, args.Flair)
}

func TestPostToTor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viper.Set("templates.image.domains", []string{"i.imgur.com"})
	viper.Set("templates.image.formatting", "*Image Transcription:*")
	viper.Set("templates.footer", "^^I'm&#32;a&#32;human&#32;volunteer&#32;content&#32;transcriber!")

	err := f.svc.PostToTor(ctx, mustJSON(t, PostToTorArgs{
		Sub:       "pics",
		Title:     "A cat",
		Link:      "https://www.reddit.com/r/pics/comments/fresh/a_cat/",
		Domain:    "i.imgur.com",
		PostID:    "fresh",
		MediaLink: "https://i.imgur.com/cat.jpg",
	}))
	require.NoError(t, err)

	require.Len(t, f.client.submitted, 1)
	assert.Equal(t, "TranscribersOfReddit", f.client.submitted[0].Subreddit)
	assert.Equal(t, `pics | Image | "A cat"`, f.client.submitted[0].Title)
	assert.Equal(t, "https://www.reddit.com/r/pics/comments/fresh/a_cat/", f.client.submitted[0].Link)

	// The new post gets flaired Unclaimed.
	var flair FlairArgs
	require.True(t, f.queue.ArgsFor(TaskUpdatePostFlair, &flair))
	assert.Equal(t, "submitted1", flair.PostID)
	assert.Equal(t, models.FlairUnclaimed, flair.Flair)

	// The source is tracked so the feed checker skips it next round.
	seen, err := f.store.IsMember(ctx, database.SetPostIDs, "fresh")
	require.NoError(t, err)
	assert.True(t, seen)
	posted, err := f.store.Counter(ctx, database.CounterTotalPosted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), posted)

	// The intro comment lands on the new post with the formatting guide.
	require.Len(t, f.client.replies, 1)
	assert.Equal(t, "t3_submitted1", f.client.replies[0].Parent)
	assert.Contains(t, f.client.replies[0].Body, "Post type: image.")
	assert.Contains(t, f.client.replies[0].Body, "*Image Transcription:*")
	assert.Contains(t, f.client.replies[0].Body, "human&#32;volunteer")
}

func TestPostToTorSkipsCaptionedVideo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.captions.captioned["https://www.youtube.com/watch?v=abc123"] = true

	err := f.svc.PostToTor(ctx, mustJSON(t, PostToTorArgs{
		Sub:       "videos",
		Title:     "A talk",
		Link:      "https://www.reddit.com/r/videos/comments/fresh/a_talk/",
		Domain:    "youtube.com",
		PostID:    "fresh",
		MediaLink: "https://www.youtube.com/watch?v=abc123",
	}))
	require.NoError(t, err)

	// Nothing is cross-posted, but the source is recorded and counted so
	// the feed checker never offers it again.
	assert.Empty(t, f.client.submitted)
	assert.Empty(t, f.client.replies)
	assert.Empty(t, f.queue.TaskNames())

	seen, err := f.store.IsMember(ctx, database.SetPostIDs, "fresh")
	require.NoError(t, err)
	assert.True(t, seen)
	posted, err := f.store.Counter(ctx, database.CounterTotalPosted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), posted)
	fresh, err := f.store.Counter(ctx, database.CounterTotalNew)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh)
}

func TestPostToTorCaptionCheckFailureFailsTheTask(t *testing.T) {
	f := newFixture(t)
	f.captions.err = errors.New("metadata fetch failed")

	err := f.svc.PostToTor(context.Background(), mustJSON(t, PostToTorArgs{
		Sub:       "videos",
		Title:     "A talk",
		Domain:    "youtube.com",
		PostID:    "fresh",
		MediaLink: "https://www.youtube.com/watch?v=abc123",
	}))
	require.Error(t, err)
	assert.Empty(t, f.client.submitted)
}

func TestPostToTorSkipsMissingMedia(t *testing.T) {
	f := newFixture(t)

	err := f.svc.PostToTor(context.Background(), mustJSON(t, PostToTorArgs{
		Sub:    "pics",
		Title:  "A cat",
		Domain: "i.imgur.com",
		PostID: "fresh",
	}))
	require.NoError(t, err)

	assert.Empty(t, f.client.submitted)
	assert.Empty(t, f.queue.TaskNames())
}

func TestShortenTitle(t *testing.T) {
	assert.Equal(t, "A cat", shortenTitle("A cat", 250))
	assert.Equal(t, "A spaced title", shortenTitle("A  spaced\ttitle", 250))

	// Long titles are cut at a word boundary and marked.
	long := strings.Repeat("word ", 60)
	short := shortenTitle(long, 50)
	assert.LessOrEqual(t, len(short), 50)
	assert.Equal(t, strings.Repeat("word ", 8)+"word...", short)

	// A single giant token still gets cut.
	assert.LessOrEqual(t, len(shortenTitle(strings.Repeat("a", 300), 50)), 50)
}

func TestContentTemplate(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("templates.image.domains", []string{"i.imgur.com"})
	viper.Set("templates.image.formatting", "image fmt")
	viper.Set("templates.other.formatting", "other fmt")

	postType, formatting := contentTemplate("i.imgur.com")
	assert.Equal(t, "image", postType)
	assert.Equal(t, "image fmt", formatting)

	postType, formatting = contentTemplate("example.com")
	assert.Equal(t, "other", postType)
	assert.Equal(t, "other fmt", formatting)
}

func TestDomainAllowed(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	// Empty whitelist allows everything.
	assert.True(t, domainAllowed("example.com"))

	viper.Set("filters.domains", []string{"i.imgur.com"})
	assert.True(t, domainAllowed("i.imgur.com"))
	assert.True(t, domainAllowed("I.Imgur.Com"))
	assert.False(t, domainAllowed("example.com"))
}
