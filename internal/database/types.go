package database

import (
	"errors"
	"time"
)

const (
	RatingCollectionName       = "response_ratings"
	ConversationCollectionName = "conversations"
	ChatMessageCollectionName  = "chat_messages"
)

const (
	RatingPositive = "positive"
	RatingNegative = "negative"
)

var (
	ErrNotFound         = errors.New("document does not exist")
	ErrDuplicateSession = errors.New("conversation with this sessionId already exists")
	ErrIDEmpty          = errors.New("id is empty")
)

// Rating is one thumbs-up/down verdict on a single assistant message,
// unique per (session, message, user). A repeated submission overwrites the
// previous verdict.
type Rating struct {
	SessionID      string    `bson:"session_id" json:"sessionId"`
	MessageID      string    `bson:"message_id" json:"messageId"`
	UserID         string    `bson:"user_id" json:"userId"`
	Rating         string    `bson:"rating" json:"rating"`
	FeedbackText   string    `bson:"feedback_text,omitempty" json:"feedbackText,omitempty"`
	MessageContent string    `bson:"message_content,omitempty" json:"messageContent,omitempty"`
	UserQuestion   string    `bson:"user_question,omitempty" json:"userQuestion,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
}

type DayCount struct {
	Date     string `bson:"date" json:"date"`
	Positive int    `bson:"positive" json:"positive"`
	Negative int    `bson:"negative" json:"negative"`
}

type RatingStats struct {
	TotalRatings              int        `json:"totalRatings"`
	PositiveRatings           int        `json:"positiveRatings"`
	NegativeRatings           int        `json:"negativeRatings"`
	SatisfactionRate          int        `json:"satisfactionRate"`
	TotalConversations        int        `json:"totalConversations"`
	AvgRatingsPerConversation float64    `json:"avgRatingsPerConversation"`
	RatingsByDay              []DayCount `json:"ratingsByDay"`
	RecentRatings             []Rating   `json:"recentRatings"`
}

type Conversation struct {
	ID           string    `bson:"_id" json:"id"`
	SessionID    string    `bson:"session_id" json:"sessionId"`
	UserID       string    `bson:"user_id" json:"userId"`
	Title        string    `bson:"title" json:"title"`
	IsActive     bool      `bson:"is_active" json:"isActive"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
	MessageCount int64     `bson:"-" json:"messageCount"`
}

// ChatMessage is one transcript entry for a session. Type is "human" or
// "ai", mirroring the workflow engine's history format.
type ChatMessage struct {
	SessionID string    `bson:"session_id" json:"-"`
	Type      string    `bson:"type" json:"type"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"timestamp"`
}

type RatingStore interface {
	SaveRating(rating *Rating) error
	ListRatings(sessionID string, limit int64) ([]Rating, error)
	RatingStats() (*RatingStats, error)
}

type ConversationStore interface {
	CreateConversation(conversation *Conversation) error
	ListConversations(userID string, limit int64) ([]Conversation, error)
	GetConversation(id string) (*Conversation, error)
	RenameConversation(id string, title string) (*Conversation, error)
	DeactivateConversation(id string) error
	AppendMessage(message *ChatMessage) error
	ListMessages(sessionID string) ([]ChatMessage, error)
}

// SatisfactionRate is the share of positive ratings in percent, rounded to
// the nearest integer.
func SatisfactionRate(positive, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(positive)/float64(total)*100 + 0.5)
}

// AvgPerConversation rounds ratings-per-conversation to one decimal.
func AvgPerConversation(total, conversations int) float64 {
	if conversations == 0 {
		return 0
	}
	return float64(int(float64(total)/float64(conversations)*10+0.5)) / 10
}
