package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/supportchat-dev/supportchat-go-backend/internal/database"
	"github.com/supportchat-dev/supportchat-go-backend/internal/logger"
)

type conversationCreateRequest struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Title     string `json:"title"`
}

func (s *Server) handleConversationList(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		userID = s.userIDFromHeader(c)
	}
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit < 0 {
		limit = 50
	}

	conversations, err := s.conversations.ListConversations(userID, limit)
	if err != nil {
		logger.ErrorF("Fail to list conversations, details: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (s *Server) handleConversationCreate(c *gin.Context) {
	var req conversationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId and userId are required"})
		return
	}
	if req.UserID == "" {
		req.UserID = s.userIDFromHeader(c)
	}
	if req.SessionID == "" || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId and userId are required"})
		return
	}
	if req.Title == "" {
		req.Title = "New conversation"
	}

	conversation := &database.Conversation{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Title:     req.Title,
	}
	if err := s.conversations.CreateConversation(conversation); err != nil {
		if errors.Is(err, database.ErrDuplicateSession) {
			c.JSON(http.StatusConflict, gin.H{"error": "Conversation already exists for this session"})
			return
		}
		logger.ErrorF("Fail to create conversation, details: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"conversation": conversation})
}

func (s *Server) handleConversationGet(c *gin.Context) {
	conversation, err := s.conversations.GetConversation(c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrIDEmpty) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		logger.ErrorF("Fail to load conversation, details: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conversation})
}

func (s *Server) handleConversationRename(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	conversation, err := s.conversations.RenameConversation(c.Param("id"), req.Title)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrIDEmpty) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		logger.ErrorF("Fail to rename conversation, details: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conversation})
}

// handleConversationDelete deactivates instead of removing. Transcripts stay
// available for the rating analysis path.
func (s *Server) handleConversationDelete(c *gin.Context) {
	if err := s.conversations.DeactivateConversation(c.Param("id")); err != nil {
		if errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrIDEmpty) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		logger.ErrorF("Fail to deactivate conversation, details: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleConversationMessages(c *gin.Context) {
	conversation, err := s.conversations.GetConversation(c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrIDEmpty) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		logger.ErrorF("Fail to load conversation, details: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	messages, err := s.conversations.ListMessages(conversation.SessionID)
	if err != nil {
		logger.ErrorF("Fail to list messages, details: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessionId": conversation.SessionID, "messages": messages})
}
