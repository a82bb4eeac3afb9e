// Package admin implements the moderator command system: commands arrive as
// private messages whose subject starts with "!", and each resolves to a
// registered handler returning the text to send back to the invoker.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"transcriber-bot/database"
	"transcriber-bot/notify"
	"transcriber-bot/platform"
	"transcriber-bot/utils"
)

// ErrUndefinedOperation is raised for command names with no registered
// handler. It is a configuration error and is never retried into a
// different outcome.
var ErrUndefinedOperation = errors.New("undefined operation")

// Services carries the connected resources a command handler may need.
type Services struct {
	Store *database.Store
	Feed  platform.Feed
	Auth  *utils.Auth
	Log   *zap.Logger
}

// HandlerFunc executes one admin command. The returned string is sent back
// to the invoking author verbatim (plus the standard footer).
type HandlerFunc func(ctx context.Context, author, arg string, svc *Services) (string, error)

// Registry is the closed mapping from command name to handler. It is built
// once at startup; there is no runtime registration.
type Registry struct {
	handlers map[string]HandlerFunc
}

// NewRegistry returns the registry of built-in commands.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]HandlerFunc{
		"ping":      ping,
		"noop":      noop,
		"blacklist": processBlacklist,

		// On the back burner; do nothing for now.
		"update": noop,
		"reload": noop,
	}}
}

// Has reports whether a command name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[strings.ToLower(name)]
	return ok
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the handler for a command name, or the default handler
// that raises ErrUndefinedOperation.
func (r *Registry) Resolve(name string) HandlerFunc {
	if h, ok := r.handlers[strings.ToLower(name)]; ok {
		return h
	}
	return undefinedOperation
}

// Dispatch runs one admin command invocation end to end: derive the command
// from the subject, check the authorization policy, resolve and execute the
// handler. When the policy denies the author, the moderation channel is
// notified and handled is false: no handler runs and no reply is owed.
func Dispatch(ctx context.Context, reg *Registry, notifier notify.Notifier, author, subject, body string, svc *Services) (response string, handled bool, err error) {
	command := strings.TrimPrefix(strings.ToLower(subject), "!")

	if !svc.Auth.Allows(command).ByUser(author) {
		svc.Log.Warn("admin command denied",
			zap.String("author", author), zap.String("command", command))
		text := fmt.Sprintf(
			":rotating_light::rotating_light: DENIED! :rotating_light::rotating_light:\n\n"+
				"%s tried to `%s` but was not permitted to do so", author, command)
		if nerr := notifier.PostMessage(ctx, "#general", text); nerr != nil {
			svc.Log.Error("failed to notify mods of denial", zap.Error(nerr))
		}
		return "", false, nil
	}

	svc.Log.Info("admin command invoked",
		zap.String("author", author), zap.String("command", command))

	response, err = reg.Resolve(command)(ctx, author, body, svc)
	if err != nil {
		return "", false, fmt.Errorf("command %q: %w", command, err)
	}
	return response, true, nil
}

func undefinedOperation(ctx context.Context, author, arg string, svc *Services) (string, error) {
	return "", ErrUndefinedOperation
}

// noop exists for commands that are intended to do nothing yet.
func noop(ctx context.Context, author, arg string, svc *Services) (string, error) {
	return "Nothing to be done.", nil
}

// ping is the alive checker for the bot.
func ping(ctx context.Context, author, arg string, svc *Services) (string, error) {
	return "Pong!", nil
}
