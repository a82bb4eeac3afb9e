package admin

import (
	"context"
	"fmt"
	"strings"

	"transcriber-bot/database"
)

// processBlacklist shadow-bans users, as far as the bots are concerned. The
// argument is newline-separated candidate usernames. Moderators and unknown
// usernames are rejected; everyone else is added to the blacklist set with a
// single insert-if-absent, so two concurrent invocations racing on the same
// name produce exactly one success.
func processBlacklist(ctx context.Context, author, arg string, svc *Services) (string, error) {
	type failure struct {
		user   string
		reason string
	}
	var failed []failure
	var succeeded []string

	for _, user := range strings.Split(arg, "\n") {
		user = strings.TrimSpace(user)
		if user == "" {
			continue
		}

		if svc.Auth.IsModerator(user) {
			failed = append(failed, failure{user, "is a moderator"})
			continue
		}

		exists, err := svc.Feed.UserExists(ctx, user)
		if err != nil {
			return "", fmt.Errorf("checking %q: %w", user, err)
		}
		if !exists {
			failed = append(failed, failure{user, "is not a valid username"})
			continue
		}

		wasNew, err := svc.Store.AddToSet(ctx, database.SetBlacklist, user)
		if err != nil {
			return "", fmt.Errorf("blacklisting %q: %w", user, err)
		}
		if !wasNew {
			failed = append(failed, failure{user, "is already blacklisted"})
			continue
		}
		succeeded = append(succeeded, user)
	}

	out := fmt.Sprintf("Blacklist: %d failed, %d succeeded\n", len(failed), len(succeeded))
	for _, f := range failed {
		out += fmt.Sprintf("\n- **%s** %s", f.user, f.reason)
	}
	return out, nil
}
