package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"transcriber-bot/admin"
	"transcriber-bot/config"
	"transcriber-bot/database"
	"transcriber-bot/notify"
	"transcriber-bot/platform"
	"transcriber-bot/queue"
	"transcriber-bot/reply"
	"transcriber-bot/tasks"
	"transcriber-bot/utils"
)

// Bot encapsulates the bot's state: the connected collaborators, the task
// registry, and the running workers.
type Bot struct {
	Services *tasks.Services
	Registry *queue.Registry
	Log      *zap.Logger

	store    *database.Store
	notifier *notify.Discord
	queue    queue.Queue
	workers  []queue.Subscription
	cron     *cron.Cron
	cancel   context.CancelFunc
}

// NewBot creates and initializes a new Bot instance from configuration.
func NewBot(log *zap.Logger) (*Bot, error) {
	config.LoadConfig()

	token := viper.GetString("REDDIT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("no reddit token provided")
	}
	discordToken := viper.GetString("DISCORD_TOKEN")

	userAgent := fmt.Sprintf("go:org.grafeas.tor:v%s (by the mods of /r/%s)",
		reply.Version, config.Subreddit())

	store, err := database.Open(viper.GetString("database.path"))
	if err != nil {
		return nil, err
	}

	notifier, err := notify.NewDiscord(discordToken, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	q, err := queue.NewNATSQueue(queue.Config{
		URL:  viper.GetString("nats.url"),
		Name: "transcriber-bot",
	}, log)
	if err != nil {
		notifier.Close()
		store.Close()
		return nil, err
	}

	auth, err := utils.NewAuth()
	if err != nil {
		q.Close()
		notifier.Close()
		store.Close()
		return nil, err
	}

	adminReg := admin.NewRegistry()
	// The command mapping is closed; configuration granting a command the
	// registry doesn't know is a wiring mistake we want at startup.
	for name := range authPolicyCommands() {
		if !adminReg.Has(name) {
			log.Warn("config allows a command with no registered handler",
				zap.String("command", name))
		}
	}

	services := &tasks.Services{
		Client:   platform.NewReddit(token, userAgent),
		Feed:     platform.NewPublicFeed(userAgent),
		Captions: platform.NewYouTube(userAgent),
		Store:    store,
		Notify:   notifier,
		Queue:    q,
		Auth:     auth,
		Admin:    adminReg,
		Log:      log,
	}

	registry := queue.NewRegistry()
	services.Register(registry)

	return &Bot{
		Services: services,
		Registry: registry,
		Log:      log,
		store:    store,
		notifier: notifier,
		queue:    q,
	}, nil
}

func authPolicyCommands() map[string][]string {
	return viper.GetStringMapStringSlice("commands.allowed")
}

// Start launches one worker per queue group and the cron schedule.
func (b *Bot) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	for _, group := range b.Registry.Groups() {
		w, err := b.queue.Worker(ctx, group, b.Registry)
		if err != nil {
			cancel()
			return fmt.Errorf("starting worker group %q: %w", group, err)
		}
		b.workers = append(b.workers, w)
		b.Log.Info("worker group started", zap.String("group", group))
	}

	if err := b.startScheduler(ctx); err != nil {
		cancel()
		return err
	}

	b.Log.Info("bot is now running")
	return nil
}

// Stop gracefully shuts everything down.
func (b *Bot) Stop() {
	b.stopScheduler()
	if b.cancel != nil {
		b.cancel()
	}
	for _, w := range b.workers {
		_ = w.Unsubscribe()
	}
	_ = b.queue.Close()
	_ = b.notifier.Close()
	_ = b.store.Close()
	b.Log.Info("bot stopped gracefully")
}

// Run is the main entry point for the bot application.
func Run(log *zap.Logger) {
	bot, err := NewBot(log)
	if err != nil {
		log.Fatal("error initializing bot", zap.Error(err))
	}

	if err := bot.Start(); err != nil {
		log.Fatal("error starting bot", zap.Error(err))
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
}
