package bot

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"transcriber-bot/tasks"
)

// startScheduler sets up the periodic dispatches: the inbox check moves work
// from the platform's inbox onto our queues, and the feed checks find new
// content to cross-post.
func (b *Bot) startScheduler(ctx context.Context) error {
	b.cron = cron.New()

	schedule := map[string]string{
		tasks.TaskCheckInbox:     viper.GetString("schedule.inbox"),
		tasks.TaskCheckNewFeeds:  viper.GetString("schedule.feeds"),
		tasks.TaskMonitorOwnFeed: viper.GetString("schedule.feeds"),
	}

	for name, spec := range schedule {
		task := name
		_, err := b.cron.AddFunc(spec, func() {
			if err := b.Services.Queue.Dispatch(ctx, task, nil); err != nil {
				b.Log.Error("failed to dispatch scheduled task",
					zap.String("task", task), zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("could not schedule %q: %w", name, err)
		}
		b.Log.Info("task scheduled", zap.String("task", name), zap.String("spec", spec))
	}

	b.cron.Start()
	return nil
}

// stopScheduler stops the cron jobs.
func (b *Bot) stopScheduler() {
	if b.cron != nil {
		b.cron.Stop()
		b.Log.Info("scheduler stopped")
	}
}
