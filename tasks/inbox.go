package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"transcriber-bot/models"
	"transcriber-bot/platform"
	"transcriber-bot/reply"
)

// Argument shapes for the inbox-adjacent tasks.
type (
	CommentArgs struct {
		CommentID string `json:"comment_id"`
	}

	AdminCommandArgs struct {
		Author    string `json:"author"`
		Subject   string `json:"subject"`
		Body      string `json:"body"`
		MessageID string `json:"message_id"`
	}

	NotifyArgs struct {
		Channel string `json:"channel"`
		Text    string `json:"text"`
	}
)

// CheckInbox walks all unread items in the bot's inbox and routes each to the
// right queue. This transfers work from the platform's inbox to our own task
// system, cutting down on API calls from the rest of the workers.
func (s *Services) CheckInbox(ctx context.Context, _ json.RawMessage) error {
	items, err := s.Client.UnreadInbox(ctx)
	if err != nil {
		return err
	}

	// Oldest first, so conversations are handled in order.
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]

		switch item.Kind {
		case models.KindComment:
			if strings.Contains(strings.ToLower(item.Subject), "username mention") {
				s.Log.Info("username mention", zap.String("author", item.Author))
				if err := s.Queue.Dispatch(ctx, TaskSendBotMessage, BotMessageArgs{
					To:      item.Author,
					Subject: "Username Call",
					Body:    reply.FormatBotResponse(reply.Responses["mention"]),
				}); err != nil {
					return err
				}
			} else {
				if err := s.Queue.Dispatch(ctx, TaskProcessComment, CommentArgs{CommentID: item.ID}); err != nil {
					return err
				}
			}

		case models.KindMessage:
			if err := s.routeMessage(ctx, item); err != nil {
				return err
			}

		default:
			// There shouldn't be any other kinds than comments and
			// messages, but on the off-chance there is, leave a trace.
			s.Log.Warn("unknown inbox item kind", zap.String("kind", item.Kind))
			if err := s.Queue.Dispatch(ctx, TaskNotifyMods, NotifyArgs{
				Channel: "#botstuffs",
				Text:    fmt.Sprintf("Unhandled, unknown inbox item kind: %q", item.Kind),
			}); err != nil {
				return err
			}
		}

		if err := s.Client.MarkRead(ctx, platform.Fullname(item.Kind, item.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Services) routeMessage(ctx context.Context, item models.InboxItem) error {
	// Very rarely we get a message from the platform admins themselves, in
	// which case there is no author. Those never reach the command
	// dispatcher, whatever the subject says.
	if item.Author == "" {
		s.Log.Info("received message from the admins", zap.String("subject", item.Subject))
		return s.Queue.Dispatch(ctx, TaskNotifyMods, NotifyArgs{
			Channel: "#general",
			Text: fmt.Sprintf("*Incoming message without an author*\n\n"+
				"**Subject:** %s\n\n%s", item.Subject, item.Body),
		})
	}

	if strings.HasPrefix(item.Subject, "!") {
		return s.Queue.Dispatch(ctx, TaskProcessAdminCommand, AdminCommandArgs{
			Author:    item.Author,
			Subject:   item.Subject,
			Body:      item.Body,
			MessageID: item.ID,
		})
	}

	s.Log.Info("unhandled message",
		zap.String("author", item.Author), zap.String("subject", item.Subject))
	return s.Queue.Dispatch(ctx, TaskNotifyMods, NotifyArgs{
		Channel: "#general",
		Text: fmt.Sprintf("Unhandled message by [/u/%s](https://reddit.com/user/%s)\n\n"+
			"**Subject:** %s\n\n%s", item.Author, item.Author, item.Subject, item.Body),
	})
}

// NotifyMods forwards a message to the moderation channel.
func (s *Services) NotifyMods(ctx context.Context, raw json.RawMessage) error {
	var args NotifyArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}
	return s.Notify.PostMessage(ctx, args.Channel, args.Text)
}
