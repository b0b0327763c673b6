package main

import (
	"github.com/supportchat-dev/supportchat-go-backend/internal/analyze"
	"github.com/supportchat-dev/supportchat-go-backend/internal/config"
	"github.com/supportchat-dev/supportchat-go-backend/internal/database"
	"github.com/supportchat-dev/supportchat-go-backend/internal/event"
	"github.com/supportchat-dev/supportchat-go-backend/internal/logger"
	"github.com/supportchat-dev/supportchat-go-backend/internal/server"
	"github.com/supportchat-dev/supportchat-go-backend/internal/suggest"
)

func main() {
	conf, err := config.ReadConfig()
	if err != nil {
		logger.FatalF("Error occured while reading config %v", err)
		return
	}
	loggerCallback := logger.Init()
	logger.Debug("Application initializing...")
	cleaner := event.NewCleaner()
	cleaner.Init(loggerCallback)

	if !conf.UseMemoryStore {
		if err := database.ConnectDatabase(); err != nil {
			logger.FatalF("Error occured while initializing database, details: %v", err)
			return
		}
	}
	database.InitStores()

	suggestions := suggest.NewBroadcaster(suggest.SuggestionsFeed, suggest.NewRegistry())
	quickAnswers := suggest.NewBroadcaster(suggest.QuickAnswersFeed, suggest.NewRegistry())

	srv := server.New(
		server.OptionsFromConfig(conf),
		suggestions,
		quickAnswers,
		database.GetRatingStore(),
		database.GetConversationStore(),
		analyze.NewAnalyzer(),
	)
	srv.Start()
}
