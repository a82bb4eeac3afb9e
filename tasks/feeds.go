package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"transcriber-bot/config"
	"transcriber-bot/database"
	"transcriber-bot/models"
	"transcriber-bot/platform"
	"transcriber-bot/reply"
)

type (
	FeedArgs struct {
		Subreddit string `json:"subreddit"`
	}

	PostToTorArgs struct {
		Sub       string `json:"sub"`
		Title     string `json:"title"`
		Link      string `json:"link"`
		Domain    string `json:"domain"`
		PostID    string `json:"post_id"`
		MediaLink string `json:"media_link,omitempty"`
	}
)

// CheckNewFeeds fans out one feed check per monitored community.
func (s *Services) CheckNewFeeds(ctx context.Context, _ json.RawMessage) error {
	for _, sub := range config.MonitoredSubreddits() {
		if err := s.Queue.Dispatch(ctx, TaskCheckNewFeed, FeedArgs{Subreddit: sub}); err != nil {
			return err
		}
	}
	return nil
}

// CheckNewFeed scans one subreddit's /new listing for content in need of
// transcription and queues a cross-post for each eligible item.
func (s *Services) CheckNewFeed(ctx context.Context, raw json.RawMessage) error {
	var args FeedArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	items, err := s.Feed.New(ctx, args.Subreddit)
	if err != nil {
		return err
	}

	crossPosts := 0
	for _, item := range items {
		if item.Kind != models.KindPost {
			s.Log.Warn("unsupported kind in /new feed", zap.String("kind", item.Kind))
			continue
		}
		post := item.Data

		eligible, err := s.feedPostEligible(ctx, post)
		if err != nil {
			return err
		}
		if !eligible {
			continue
		}

		if err := s.Queue.Dispatch(ctx, TaskPostToTor, PostToTorArgs{
			Sub:       post.Subreddit,
			Title:     post.Title,
			Link:      "https://www.reddit.com" + post.Permalink,
			Domain:    post.Domain,
			PostID:    post.ID,
			MediaLink: post.URL,
		}); err != nil {
			return err
		}
		crossPosts++
	}

	s.Log.Info("feed checked", zap.String("subreddit", args.Subreddit), zap.Int("found", crossPosts))
	return nil
}

func (s *Services) feedPostEligible(ctx context.Context, post models.Post) (bool, error) {
	switch {
	case post.IsSelf:
		// Self-posts don't need to be transcribed.
		return false, nil
	case post.Locked || post.Archived:
		// No way to comment with a transcription on a read-only post.
		return false, nil
	case post.Author == "":
		// Author gone means deleted.
		return false, nil
	case post.Score < viper.GetInt("filters.minScore"):
		return false, nil
	}

	seen, err := s.Store.IsMember(ctx, database.SetPostIDs, post.ID)
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}

	return domainAllowed(post.Domain), nil
}

// domainAllowed applies the domain whitelist; an empty whitelist allows all.
func domainAllowed(domain string) bool {
	allowed := viper.GetStringSlice("filters.domains")
	if len(allowed) == 0 {
		return true
	}
	for _, d := range allowed {
		if strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}

// MonitorOwnNewFeed keeps the bot's own community tidy: posts by anyone but
// our bots get the META flair so volunteers don't pick them up as work.
func (s *Services) MonitorOwnNewFeed(ctx context.Context, _ json.RawMessage) error {
	items, err := s.Feed.New(ctx, config.Subreddit())
	if err != nil {
		return err
	}

	for _, item := range items {
		if item.Kind != models.KindPost {
			s.Log.Warn("unsupported kind in own /new feed", zap.String("kind", item.Kind))
			continue
		}
		post := item.Data
		if config.IsOurBot(post.Author) || post.Flair != "" {
			continue
		}
		if err := s.Queue.Dispatch(ctx, TaskUpdatePostFlair, FlairArgs{
			PostID: post.ID,
			Flair:  models.FlairMeta,
		}); err != nil {
			return err
		}
	}
	return nil
}

// PostToTor cross-posts a piece of content into the bot's community, flairs
// it Unclaimed, records it, and leaves the intro comment for volunteers.
func (s *Services) PostToTor(ctx context.Context, raw json.RawMessage) error {
	var args PostToTorArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	if args.MediaLink == "" {
		s.Log.Warn("post with no media link",
			zap.String("sub", args.Sub), zap.String("title", args.Title))
		return nil
	}

	// Videos that already carry captions don't need a volunteer. They are
	// still recorded and counted so the feed checker never offers them again.
	captioned, err := s.Captions.HasCaptions(ctx, args.MediaLink)
	if err != nil {
		return err
	}
	if captioned {
		s.Log.Info("found captions, skipping", zap.String("media_link", args.MediaLink))
		if _, err := s.Store.AddToSet(ctx, database.SetPostIDs, args.PostID); err != nil {
			return err
		}
		if _, err := s.Store.Increment(ctx, database.CounterTotalPosted, 1); err != nil {
			return err
		}
		_, err = s.Store.Increment(ctx, database.CounterTotalNew, 1)
		return err
	}

	postType, formatting := contentTemplate(args.Domain)
	title := shortenTitle(args.Title, 250)

	submission, err := s.Client.Submit(ctx, config.Subreddit(),
		fmt.Sprintf("%s | %s | %q", args.Sub, titleCase(postType), title), args.Link)
	if err != nil {
		return err
	}

	if err := s.Queue.Dispatch(ctx, TaskUpdatePostFlair, FlairArgs{
		PostID: submission.ID,
		Flair:  models.FlairUnclaimed,
	}); err != nil {
		return err
	}

	// Track the source post so the feed checker skips it next time.
	if _, err := s.Store.AddToSet(ctx, database.SetPostIDs, args.PostID); err != nil {
		return err
	}
	if _, err := s.Store.Increment(ctx, database.CounterTotalPosted, 1); err != nil {
		return err
	}
	if _, err := s.Store.Increment(ctx, database.CounterTotalNew, 1); err != nil {
		return err
	}

	intro := fmt.Sprintf(reply.Responses["intro_comment"],
		postType,
		formatting,
		viper.GetString("templates.footer"),
		reply.MessageLink("/r/"+config.Subreddit(), "General Questions", ""))
	_, err = reply.PostChained(ctx, s.Client,
		platform.Fullname(models.KindPost, submission.ID), intro)
	return err
}

// contentTemplate resolves the media type and formatting template for a
// domain from the configured per-type domain lists.
func contentTemplate(domain string) (postType, formatting string) {
	for _, t := range []string{"image", "audio", "video"} {
		for _, d := range viper.GetStringSlice("templates." + t + ".domains") {
			if strings.EqualFold(d, domain) {
				return t, viper.GetString("templates." + t + ".formatting")
			}
		}
	}
	return "other", viper.GetString("templates.other.formatting")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// shortenTitle collapses whitespace and trims the title to width at a word
// boundary, marking the cut with an ellipsis.
func shortenTitle(title string, width int) string {
	words := strings.Fields(title)
	out := strings.Join(words, " ")
	if len(out) <= width {
		return out
	}
	const ellipsis = "..."
	cut := width - len(ellipsis)
	if i := strings.LastIndexByte(out[:cut+1], ' '); i > 0 {
		cut = i
	}
	return strings.TrimRight(out[:cut], " ") + ellipsis
}
