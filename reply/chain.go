package reply

import (
	"context"

	"transcriber-bot/models"
	"transcriber-bot/platform"
)

// redditMaxLength is the platform's comment length ceiling, with a margin of
// error held back (10k characters minus 100 for safety).
const redditMaxLength = 9900

// MaxPageLength is the usable page budget once the footer that is appended
// to every page is accounted for. Always at least 1.
func MaxPageLength() int {
	max := redditMaxLength - len(FormatBotResponse(""))
	if max < 1 {
		return 1
	}
	return max
}

// PostChained posts body as a chain of footered pages, the first as a reply
// to targetFullname and each following page as a reply to the previous one.
// The chain is strictly linear; siblings are never fanned out. Returns the
// fullname of the last comment posted, so callers can continue the thread.
func PostChained(ctx context.Context, client platform.Client, targetFullname, body string) (string, error) {
	last := targetFullname

	for _, page := range Wrap(body, MaxPageLength()) {
		comment, err := client.Reply(ctx, last, FormatBotResponse(page))
		if err != nil {
			return last, err
		}
		last = platform.Fullname(models.KindComment, comment.ID)
	}
	return last, nil
}
