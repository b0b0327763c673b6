package database

import (
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore backs ratings, conversations and transcripts with in-process
// maps. It is the test fixture and the standalone-run fallback behind the
// same interfaces as the Mongo store.
type MemoryStore struct {
	mu            sync.RWMutex
	ratings       map[string]*Rating // key: session|message|user
	conversations map[string]*Conversation // key: conversation id
	messages      map[string][]ChatMessage // key: session id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ratings:       make(map[string]*Rating),
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]ChatMessage),
	}
}

func ratingKey(sessionID, messageID, userID string) string {
	return sessionID + "|" + messageID + "|" + userID
}

func (ms *MemoryStore) SaveRating(rating *Rating) error {
	if rating.SessionID == "" || rating.MessageID == "" || rating.UserID == "" {
		return ErrIDEmpty
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	key := ratingKey(rating.SessionID, rating.MessageID, rating.UserID)
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = time.Now().UTC()
	}
	stored := *rating
	ms.ratings[key] = &stored
	return nil
}

func (ms *MemoryStore) ListRatings(sessionID string, limit int64) ([]Rating, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	results := make([]Rating, 0)
	for _, rating := range ms.ratings {
		if sessionID != "" && rating.SessionID != sessionID {
			continue
		}
		results = append(results, *rating)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if limit > 0 && int64(len(results)) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (ms *MemoryStore) RatingStats() (*RatingStats, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	stats := &RatingStats{
		RatingsByDay:  []DayCount{},
		RecentRatings: []Rating{},
	}
	sessions := make(map[string]struct{})
	byDay := make(map[string]*DayCount)
	cutoff := time.Now().UTC().AddDate(0, 0, -7)

	for _, rating := range ms.ratings {
		stats.TotalRatings++
		sessions[rating.SessionID] = struct{}{}
		switch rating.Rating {
		case RatingPositive:
			stats.PositiveRatings++
		case RatingNegative:
			stats.NegativeRatings++
		}
		if rating.CreatedAt.After(cutoff) {
			day := rating.CreatedAt.UTC().Format("2006-01-02")
			count, ok := byDay[day]
			if !ok {
				count = &DayCount{Date: day}
				byDay[day] = count
			}
			if rating.Rating == RatingPositive {
				count.Positive++
			} else if rating.Rating == RatingNegative {
				count.Negative++
			}
		}
		stats.RecentRatings = append(stats.RecentRatings, *rating)
	}

	for _, count := range byDay {
		stats.RatingsByDay = append(stats.RatingsByDay, *count)
	}
	sort.Slice(stats.RatingsByDay, func(i, j int) bool {
		return stats.RatingsByDay[i].Date > stats.RatingsByDay[j].Date
	})
	sort.Slice(stats.RecentRatings, func(i, j int) bool {
		return stats.RecentRatings[i].CreatedAt.After(stats.RecentRatings[j].CreatedAt)
	})
	if len(stats.RecentRatings) > 50 {
		stats.RecentRatings = stats.RecentRatings[:50]
	}

	stats.TotalConversations = len(sessions)
	stats.SatisfactionRate = SatisfactionRate(stats.PositiveRatings, stats.TotalRatings)
	stats.AvgRatingsPerConversation = AvgPerConversation(stats.TotalRatings, stats.TotalConversations)
	return stats, nil
}

func (ms *MemoryStore) CreateConversation(conversation *Conversation) error {
	if conversation.SessionID == "" {
		return ErrIDEmpty
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, existing := range ms.conversations {
		if existing.SessionID == conversation.SessionID {
			return ErrDuplicateSession
		}
	}

	if conversation.ID == "" {
		conversation.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	conversation.IsActive = true
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	stored := *conversation
	ms.conversations[conversation.ID] = &stored
	return nil
}

func (ms *MemoryStore) ListConversations(userID string, limit int64) ([]Conversation, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	results := make([]Conversation, 0)
	for _, conversation := range ms.conversations {
		if conversation.UserID != userID || !conversation.IsActive {
			continue
		}
		copied := *conversation
		copied.MessageCount = int64(len(ms.messages[conversation.SessionID]))
		results = append(results, copied)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].UpdatedAt.Equal(results[j].UpdatedAt) {
			return strings.Compare(results[i].ID, results[j].ID) < 0
		}
		return results[i].UpdatedAt.After(results[j].UpdatedAt)
	})
	if limit > 0 && int64(len(results)) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (ms *MemoryStore) GetConversation(id string) (*Conversation, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	conversation, ok := ms.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *conversation
	return &copied, nil
}

func (ms *MemoryStore) RenameConversation(id string, title string) (*Conversation, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	conversation, ok := ms.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	conversation.Title = title
	conversation.UpdatedAt = time.Now().UTC()
	copied := *conversation
	return &copied, nil
}

func (ms *MemoryStore) DeactivateConversation(id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	conversation, ok := ms.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conversation.IsActive = false
	conversation.UpdatedAt = time.Now().UTC()
	return nil
}

func (ms *MemoryStore) AppendMessage(message *ChatMessage) error {
	if message.SessionID == "" {
		return ErrIDEmpty
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	ms.messages[message.SessionID] = append(ms.messages[message.SessionID], *message)
	return nil
}

func (ms *MemoryStore) ListMessages(sessionID string) ([]ChatMessage, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	stored := ms.messages[sessionID]
	results := make([]ChatMessage, len(stored))
	copy(results, stored)
	return results, nil
}
