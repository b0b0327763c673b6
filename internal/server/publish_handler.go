package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportchat-dev/supportchat-go-backend/internal/logger"
	"github.com/supportchat-dev/supportchat-go-backend/internal/suggest"
)

type publishResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ReceivedCount int    `json:"receivedCount"`
}

func (s *Server) handleSuggestionsPublish(c *gin.Context) {
	s.publishFeed(c, s.suggestions, "Suggestions received and broadcasted successfully")
}

func (s *Server) handleQuickAnswersPublish(c *gin.Context) {
	s.publishFeed(c, s.quickAnswers, "Quick answers received and broadcasted successfully")
}

// publishFeed validates an inbound payload and hands it to the broadcaster.
// Validation failures drop the publish entirely, there is no partial
// broadcast. Once validation passes the publish always reports success,
// individual delivery failures are resolved inside the broadcaster.
func (s *Server) publishFeed(c *gin.Context, b *suggest.Broadcaster, successMessage string) {
	feed := b.Feed()

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payload: body must be a JSON object"})
		return
	}

	payload, err := feed.DecodePayload(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := feed.ValidateItems(payload.Items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if feed.Scoped && payload.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payload: sessionId is required"})
		return
	}

	logger.DebugF("[%s] %s publish with %d item(s)", feed.SessionKey(payload.SessionID), feed.Name, len(payload.Items))
	b.Publish(feed.SessionKey(payload.SessionID), payload)

	c.JSON(http.StatusOK, publishResponse{
		Success:       true,
		Message:       successMessage,
		ReceivedCount: len(payload.Items),
	})
}
