package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/supportchat-dev/supportchat-go-backend/internal/auth"
	"github.com/supportchat-dev/supportchat-go-backend/internal/database"
	"github.com/supportchat-dev/supportchat-go-backend/internal/logger"
)

type ratingRequest struct {
	SessionID      string `json:"sessionId"`
	MessageID      string `json:"messageId"`
	UserID         string `json:"userId"`
	Rating         string `json:"rating"`
	FeedbackText   string `json:"feedbackText"`
	MessageContent string `json:"messageContent"`
	UserQuestion   string `json:"userQuestion"`
}

func (s *Server) handleRatingSubmit(c *gin.Context) {
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId, messageId, userId, and rating are required"})
		return
	}

	if req.UserID == "" {
		req.UserID = s.userIDFromHeader(c)
	}
	if req.SessionID == "" || req.MessageID == "" || req.UserID == "" || req.Rating == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId, messageId, userId, and rating are required"})
		return
	}
	if req.Rating != database.RatingPositive && req.Rating != database.RatingNegative {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be 'positive' or 'negative'"})
		return
	}

	rating := &database.Rating{
		SessionID:      req.SessionID,
		MessageID:      req.MessageID,
		UserID:         req.UserID,
		Rating:         req.Rating,
		FeedbackText:   req.FeedbackText,
		MessageContent: req.MessageContent,
		UserQuestion:   req.UserQuestion,
	}
	if err := s.ratings.SaveRating(rating); err != nil {
		logger.ErrorF("Fail to save rating, details: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "rating": rating})
}

func (s *Server) handleRatingList(c *gin.Context) {
	sessionID := c.Query("sessionId")
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit < 0 {
		limit = 50
	}

	ratings, err := s.ratings.ListRatings(sessionID, limit)
	if err != nil {
		logger.ErrorF("Fail to list ratings, details: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ratings": ratings})
}

func (s *Server) handleRatingStats(c *gin.Context) {
	stats, err := s.ratings.RatingStats()
	if err != nil {
		logger.ErrorF("Fail to compute rating stats, details: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleRatingAnalyze(c *gin.Context) {
	ratings, err := s.ratings.ListRatings("", 0)
	if err != nil {
		logger.ErrorF("Fail to load ratings for analysis, details: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	report, err := s.analyzer.AnalyzeRatings(c.Request.Context(), ratings)
	if err != nil {
		logger.ErrorF("Fail to analyze ratings, details: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze ratings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": report, "analyzedCount": len(ratings)})
}

// userIDFromHeader resolves the caller's user id from the bearer token when
// the request body omits it. Decode only, no verification.
func (s *Server) userIDFromHeader(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	claims, err := auth.FromAuthorizationHeader(header)
	if err != nil {
		logger.DebugF("Fail to decode bearer token, details: %v", err)
		return ""
	}
	return claims.UserID
}
