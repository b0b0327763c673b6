package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportchat-dev/supportchat-go-backend/internal/database"
	"github.com/supportchat-dev/supportchat-go-backend/internal/logger"
)

type chatRequest struct {
	SessionID string                 `json:"sessionId"`
	ChatInput string                 `json:"chatInput"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// handleChat forwards one user turn to the workflow engine and relays its
// reply. The engine is a black box, its response is passed through
// untouched. Both sides of the turn are appended to the session transcript
// on a best-effort basis.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" || req.ChatInput == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId and chatInput are required"})
		return
	}

	if err := s.conversations.AppendMessage(&database.ChatMessage{
		SessionID: req.SessionID,
		Type:      "human",
		Content:   req.ChatInput,
	}); err != nil {
		logger.WarnF("[%s] Fail to record user message, details: %v", req.SessionID, err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	upstream, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, s.opts.WebhookURL, bytes.NewReader(body))
	if err != nil {
		logger.ErrorF("[%s] Fail to build webhook request, details: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	upstream.Header.Set("Content-Type", "application/json")
	upstream.Header.Set("Authorization", "Bearer "+s.opts.WebhookToken)

	resp, err := s.webhookClient.Do(upstream)
	if err != nil {
		logger.ErrorF("[%s] Fail to call webhook, details: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.WarnF("[%s] Fail to close webhook response body, details: %v", req.SessionID, err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.ErrorF("[%s] Webhook returned status %d", req.SessionID, resp.StatusCode)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.ErrorF("[%s] Fail to read webhook response, details: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if reply := extractReplyText(data); reply != "" {
		if err := s.conversations.AppendMessage(&database.ChatMessage{
			SessionID: req.SessionID,
			Type:      "ai",
			Content:   reply,
		}); err != nil {
			logger.WarnF("[%s] Fail to record assistant message, details: %v", req.SessionID, err)
		}
	}

	c.Data(http.StatusOK, "application/json", data)
}

// extractReplyText pulls the assistant text out of the engine's response
// for transcript storage. The engine returns either {"output": "..."} or an
// array of such objects.
func extractReplyText(data []byte) string {
	var single struct {
		Output string `json:"output"`
	}
	if err := json.Unmarshal(data, &single); err == nil && single.Output != "" {
		return single.Output
	}

	var many []struct {
		Output string `json:"output"`
	}
	if err := json.Unmarshal(data, &many); err == nil && len(many) > 0 {
		return many[0].Output
	}
	return ""
}
