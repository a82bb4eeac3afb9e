package main

import (
	"go.uber.org/zap"

	"transcriber-bot/bot"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	bot.Run(log)
}
