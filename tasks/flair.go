package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"transcriber-bot/platform"
)

type FlairArgs struct {
	PostID string `json:"post_id"`
	Flair  string `json:"flair"`
}

// UpdatePostFlair sets a post's flair to the pre-existing template matching
// the requested label, compared case-insensitively. A label with no
// configured template fails with a not-found condition; flair names are
// fixed vocabulary, so an unknown one is a real problem.
func (s *Services) UpdatePostFlair(ctx context.Context, raw json.RawMessage) error {
	var args FlairArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	choices, err := s.Client.FlairChoices(ctx, args.PostID)
	if err != nil {
		return err
	}

	for _, choice := range choices {
		if strings.EqualFold(choice.Text, args.Flair) {
			return s.Client.SelectFlair(ctx, args.PostID, choice.TemplateID)
		}
	}

	return fmt.Errorf("unknown flair %q for post %s: %w", args.Flair, args.PostID, platform.ErrNotFound)
}
