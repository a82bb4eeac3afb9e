package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"transcriber-bot/admin"
	"transcriber-bot/config"
	"transcriber-bot/database"
	"transcriber-bot/models"
	"transcriber-bot/platform"
	"transcriber-bot/reply"
)

type (
	BotMessageArgs struct {
		Body      string `json:"body"`
		MessageID string `json:"message_id,omitempty"`
		To        string `json:"to,omitempty"`
		Subject   string `json:"subject,omitempty"`
	}

	AcceptArgs struct {
		Username string `json:"username"`
	}

	UnhandledArgs struct {
		CommentID string `json:"comment_id"`
		Body      string `json:"body"`
	}

	BumpArgs struct {
		Username string `json:"username"`
		By       int64  `json:"by"`
	}
)

// SendBotMessage sends a message as the official bot account: either a reply
// to an existing message (MessageID) or a fresh message to a user (To plus
// Subject). Exactly one of the two targets must be given.
func (s *Services) SendBotMessage(ctx context.Context, raw json.RawMessage) error {
	var args BotMessageArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	sender, err := s.Client.Me(ctx)
	if err != nil {
		return err
	}
	if !strings.EqualFold(sender, config.BotName()) {
		return fmt.Errorf("%w: attempting to send message as %s instead of the official bot", ErrInvalidUser, sender)
	}

	switch {
	case args.MessageID != "":
		_, err := s.Client.Reply(ctx, platform.Fullname(models.KindMessage, args.MessageID), args.Body)
		return err
	case args.To != "":
		subject := args.Subject
		if subject == "" {
			subject = "Just bot things..."
		}
		return s.Client.SendMessage(ctx, args.To, subject, args.Body)
	default:
		return fmt.Errorf("send_bot_message needs either a message_id or a to")
	}
}

// ProcessAdminCommand runs one admin command invocation and replies to the
// invoking message with the handler's output.
func (s *Services) ProcessAdminCommand(ctx context.Context, raw json.RawMessage) error {
	var args AdminCommandArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	response, handled, err := admin.Dispatch(ctx, s.Admin, s.Notify, args.Author, args.Subject, args.Body, s.adminServices())
	if err != nil {
		return err
	}
	if !handled {
		return nil
	}

	return s.Queue.Dispatch(ctx, TaskSendBotMessage, BotMessageArgs{
		Body:      reply.FormatBotResponse(response),
		MessageID: args.MessageID,
	})
}

// AcceptCodeOfConduct records a volunteer's acceptance and tells the mods.
// The set-add is atomic, so a doubled-up accept reply records once.
func (s *Services) AcceptCodeOfConduct(ctx context.Context, raw json.RawMessage) error {
	var args AcceptArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	if _, err := s.Store.AddToSet(ctx, database.SetAcceptedCoC, args.Username); err != nil {
		return err
	}

	return s.Queue.Dispatch(ctx, TaskNotifyMods, NotifyArgs{
		Channel: "#general",
		Text: fmt.Sprintf("<https://www.reddit.com/u/%s|/u/%s> has just accepted the CoC!",
			args.Username, args.Username),
	})
}

// UnhandledComment escalates a reply the router had no transition for.
func (s *Services) UnhandledComment(ctx context.Context, raw json.RawMessage) error {
	var args UnhandledArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	return s.Notify.PostMessage(ctx, "#general", fmt.Sprintf(
		"**Unhandled comment reply** (https://redd.it/%s)\n\n%s",
		args.CommentID, args.Body))
}

// BumpUserTranscriptions credits completed transcriptions to a volunteer.
func (s *Services) BumpUserTranscriptions(ctx context.Context, raw json.RawMessage) error {
	var args BumpArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	_, err := s.Store.Increment(ctx, "transcriptions:"+args.Username, args.By)
	return err
}
