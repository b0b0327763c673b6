package database

import (
	c "github.com/supportchat-dev/supportchat-go-backend/internal/config"
	"github.com/supportchat-dev/supportchat-go-backend/internal/logger"
)

var ratingStore RatingStore
var conversationStore ConversationStore

// InitStores selects the store backend. The Mongo store requires
// ConnectDatabase to have run; the memory store is self-contained.
func InitStores() {
	config, _ := c.GetConfig()
	if config.UseMemoryStore {
		logger.Warn("Using in-memory store, data will not survive a restart")
		store := NewMemoryStore()
		ratingStore = store
		conversationStore = store
		return
	}
	store := NewDatabaseStore()
	ratingStore = store
	conversationStore = store
}

func GetRatingStore() RatingStore {
	return ratingStore
}

func GetConversationStore() ConversationStore {
	return conversationStore
}
