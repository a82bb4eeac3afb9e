// Package tasks holds the bot's units of work: inbox triage, the comment
// router and its workflow transitions, admin command execution, and the feed
// checkers. Each task runs as an independent unit dispatched through the job
// substrate; a returned error marks the unit failed and leaves retry or drop
// to the substrate's policy.
package tasks

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"transcriber-bot/admin"
	"transcriber-bot/database"
	"transcriber-bot/notify"
	"transcriber-bot/platform"
	"transcriber-bot/queue"
	"transcriber-bot/utils"
)

var (
	// ErrInvalidState marks a precondition violation: wrong post
	// ownership, terms not accepted, or a post not in the expected
	// status. Recoverable at the unit-of-work level.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidUser marks an identity mismatch: the authenticated
	// account is not the bot the task expects to act as. A configuration
	// error, never silently retried into a different outcome.
	ErrInvalidUser = errors.New("invalid user")
)

// Task names, as dispatched through the queue.
const (
	TaskCheckInbox          = "check_inbox"
	TaskProcessComment      = "process_comment"
	TaskProcessAdminCommand = "process_admin_command"
	TaskSendBotMessage      = "send_bot_message"
	TaskNotifyMods          = "notify_mods"
	TaskUpdatePostFlair     = "update_post_flair"
	TaskClaimPost           = "claim_post"
	TaskVerifyPostComplete  = "verify_post_complete"
	TaskMarkPostComplete    = "mark_post_complete"
	TaskAcceptCoC           = "accept_code_of_conduct"
	TaskUnhandledComment    = "unhandled_comment"
	TaskBumpTranscriptions  = "bump_user_transcriptions"
	TaskCheckNewFeeds       = "check_new_feeds"
	TaskCheckNewFeed        = "check_new_feed"
	TaskMonitorOwnFeed      = "monitor_own_new_feed"
	TaskPostToTor           = "post_to_tor"
)

// Queue groups. Tasks that must act as the bot's own account run in the mod
// group; everything else is fair game for any worker.
const (
	GroupMod    = "mod"
	GroupAnyone = "anyone"
)

// Services carries the connected collaborators every task handler uses.
type Services struct {
	Client   platform.Client
	Feed     platform.Feed
	Captions platform.CaptionSource
	Store    *database.Store
	Notify   notify.Notifier
	Queue    queue.Queue
	Auth     *utils.Auth
	Admin    *admin.Registry
	Log      *zap.Logger
}

// adminServices is the view of Services handed to admin command handlers.
func (s *Services) adminServices() *admin.Services {
	return &admin.Services{
		Store: s.Store,
		Feed:  s.Feed,
		Auth:  s.Auth,
		Log:   s.Log,
	}
}

// Register binds every task to its handler and queue group. The mapping is
// closed here; a dispatch for any other name dies at the worker.
func (s *Services) Register(reg *queue.Registry) {
	reg.Register(TaskCheckInbox, GroupMod, s.CheckInbox)
	reg.Register(TaskProcessComment, GroupMod, s.ProcessComment)
	reg.Register(TaskProcessAdminCommand, GroupMod, s.ProcessAdminCommand)
	reg.Register(TaskSendBotMessage, GroupMod, s.SendBotMessage)
	reg.Register(TaskUpdatePostFlair, GroupMod, s.UpdatePostFlair)
	reg.Register(TaskClaimPost, GroupMod, s.ClaimPost)
	reg.Register(TaskVerifyPostComplete, GroupMod, s.VerifyPostComplete)
	reg.Register(TaskMarkPostComplete, GroupMod, s.MarkPostComplete)
	reg.Register(TaskPostToTor, GroupMod, s.PostToTor)

	reg.Register(TaskNotifyMods, GroupAnyone, s.NotifyMods)
	reg.Register(TaskAcceptCoC, GroupAnyone, s.AcceptCodeOfConduct)
	reg.Register(TaskUnhandledComment, GroupAnyone, s.UnhandledComment)
	reg.Register(TaskBumpTranscriptions, GroupAnyone, s.BumpUserTranscriptions)
	reg.Register(TaskCheckNewFeeds, GroupAnyone, s.CheckNewFeeds)
	reg.Register(TaskCheckNewFeed, GroupAnyone, s.CheckNewFeed)
	reg.Register(TaskMonitorOwnFeed, GroupAnyone, s.MonitorOwnNewFeed)
}

// stripKind removes the type prefix from a fullname, e.g. "t3_abc" -> "abc".
func stripKind(fullname string) string {
	if i := strings.IndexByte(fullname, '_'); i >= 0 {
		return fullname[i+1:]
	}
	return fullname
}
