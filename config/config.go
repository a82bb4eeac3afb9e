package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from multiple sources:
// 1. .env file (environment variables, e.g. NATS_URL, DISCORD_TOKEN)
// 2. config.yaml (base configuration: bot identities, subreddit, channels)
// 3. config/commands.json (admin command authorization, merged in)
// Environment variables override same-named settings from the files.
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, skipping.")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("No base config file (config.yaml) found, using environment variables and merged configs only.")
		} else {
			panic(fmt.Errorf("fatal error reading base config file: %w", err))
		}
	}

	// Merge the admin command authorization mapping.
	viper.SetConfigName("commands")
	viper.SetConfigType("json")
	viper.AddConfigPath("./config")

	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("No command config file (config/commands.json) found, skipping merge.")
		} else {
			panic(fmt.Errorf("fatal error merging command config file: %w", err))
		}
	}

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("bot.name", "transcribersofreddit")
	viper.SetDefault("bot.subreddit", "TranscribersOfReddit")
	viper.SetDefault("bot.identities", []string{"transcribersofreddit", "tor_archivist"})
	viper.SetDefault("bot.modChannel", "#general")
	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("database.path", "./data/tor.db")
	viper.SetDefault("schedule.inbox", "@every 90s")
	viper.SetDefault("schedule.feeds", "@every 30s")
}

// BotName returns the username the bot is expected to act as.
func BotName() string {
	return viper.GetString("bot.name")
}

// BotIdentities returns every username recognized as one of our own bots.
func BotIdentities() []string {
	return viper.GetStringSlice("bot.identities")
}

// Subreddit returns the name of the subreddit the bot manages.
func Subreddit() string {
	return viper.GetString("bot.subreddit")
}

// MonitoredSubreddits returns the subreddits whose /new feeds are checked for
// content in need of transcription.
func MonitoredSubreddits() []string {
	return viper.GetStringSlice("bot.monitored")
}

// IsOurBot reports whether username is one of the bot's own identities.
func IsOurBot(username string) bool {
	for _, name := range BotIdentities() {
		if strings.EqualFold(name, username) {
			return true
		}
	}
	return false
}
