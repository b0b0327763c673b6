package database

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/supportchat-dev/supportchat-go-backend/internal/logger"
)

type DBStore struct {
	client            *mongo.Client
	db                *mongo.Database
	conversationCache *expirable.LRU[string, *Conversation]
}

var DbStore *DBStore

func NewDatabaseStore() *DBStore {
	if DbStore == nil {
		DbStore = &DBStore{
			client:            Client,
			db:                Database,
			conversationCache: expirable.NewLRU[string, *Conversation](256, nil, time.Hour),
		}
	}
	return DbStore
}

func (ds *DBStore) SaveRating(rating *Rating) error {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if rating.SessionID == "" || rating.MessageID == "" || rating.UserID == "" {
		return ErrIDEmpty
	}
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = time.Now().UTC()
	}

	filter := bson.D{
		{Key: "session_id", Value: rating.SessionID},
		{Key: "message_id", Value: rating.MessageID},
		{Key: "user_id", Value: rating.UserID},
	}
	opts := options.Replace().SetUpsert(true)

	result, err := Ratings.ReplaceOne(ctx, filter, rating, opts)
	if err != nil {
		return HandleErr(err)
	}

	logger.InfoF("Rating saved: session_id=%s, message_id=%s, matched=%d, modified=%d, upserted=%v",
		rating.SessionID,
		rating.MessageID,
		result.MatchedCount,
		result.ModifiedCount,
		result.UpsertedID != nil,
	)

	return nil
}

func (ds *DBStore) ListRatings(sessionID string, limit int64) ([]Rating, error) {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	filter := bson.D{}
	if sessionID != "" {
		filter = bson.D{{Key: "session_id", Value: sessionID}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	startTime := time.Now()
	cursor, err := Ratings.Find(ctx, filter, opts)
	logger.DebugF("rating query cost: %v", time.Since(startTime))
	if err != nil {
		return nil, HandleErr(err)
	}

	ratings := make([]Rating, 0)
	if err := cursor.All(ctx, &ratings); err != nil {
		return nil, HandleErr(err)
	}
	return ratings, nil
}

func (ds *DBStore) RatingStats() (*RatingStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	stats := &RatingStats{
		RatingsByDay:  []DayCount{},
		RecentRatings: []Rating{},
	}

	total, err := Ratings.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, HandleErr(err)
	}
	positive, err := Ratings.CountDocuments(ctx, bson.D{{Key: "rating", Value: RatingPositive}})
	if err != nil {
		return nil, HandleErr(err)
	}
	negative, err := Ratings.CountDocuments(ctx, bson.D{{Key: "rating", Value: RatingNegative}})
	if err != nil {
		return nil, HandleErr(err)
	}
	sessions, err := Ratings.Distinct(ctx, "session_id", bson.D{})
	if err != nil {
		return nil, HandleErr(err)
	}

	stats.TotalRatings = int(total)
	stats.PositiveRatings = int(positive)
	stats.NegativeRatings = int(negative)
	stats.TotalConversations = len(sessions)
	stats.SatisfactionRate = SatisfactionRate(stats.PositiveRatings, stats.TotalRatings)
	stats.AvgRatingsPerConversation = AvgPerConversation(stats.TotalRatings, stats.TotalConversations)

	cutoff := time.Now().UTC().AddDate(0, 0, -7)
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "created_at", Value: bson.D{{Key: "$gte", Value: cutoff}}}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{{Key: "format", Value: "%Y-%m-%d"}, {Key: "date", Value: "$created_at"}}}}},
			{Key: "positive", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{bson.D{{Key: "$eq", Value: bson.A{"$rating", RatingPositive}}}, 1, 0}}}}}},
			{Key: "negative", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{bson.D{{Key: "$eq", Value: bson.A{"$rating", RatingNegative}}}, 1, 0}}}}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
	}

	cursor, err := Ratings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, HandleErr(err)
	}
	var grouped []struct {
		Date     string `bson:"_id"`
		Positive int    `bson:"positive"`
		Negative int    `bson:"negative"`
	}
	if err := cursor.All(ctx, &grouped); err != nil {
		return nil, HandleErr(err)
	}
	for _, group := range grouped {
		stats.RatingsByDay = append(stats.RatingsByDay, DayCount{
			Date:     group.Date,
			Positive: group.Positive,
			Negative: group.Negative,
		})
	}

	recent, err := ds.ListRatings("", 50)
	if err != nil {
		return nil, err
	}
	stats.RecentRatings = recent

	return stats, nil
}

func (ds *DBStore) CreateConversation(conversation *Conversation) error {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if conversation.SessionID == "" {
		return ErrIDEmpty
	}
	if conversation.ID == "" {
		conversation.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	conversation.IsActive = true
	conversation.CreatedAt = now
	conversation.UpdatedAt = now

	_, err := Conversations.InsertOne(ctx, conversation)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSession
		}
		return HandleErr(err)
	}

	logger.InfoF("Conversation created: id=%s, session_id=%s", conversation.ID, conversation.SessionID)
	return nil
}

func (ds *DBStore) ListConversations(userID string, limit int64) ([]Conversation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	filter := bson.D{{Key: "user_id", Value: userID}, {Key: "is_active", Value: true}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	startTime := time.Now()
	cursor, err := Conversations.Find(ctx, filter, opts)
	logger.DebugF("conversation query cost: %v", time.Since(startTime))
	if err != nil {
		return nil, HandleErr(err)
	}

	conversations := make([]Conversation, 0)
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, HandleErr(err)
	}

	for i := range conversations {
		count, err := ChatMessages.CountDocuments(ctx, bson.D{{Key: "session_id", Value: conversations[i].SessionID}})
		if err != nil {
			return nil, HandleErr(err)
		}
		conversations[i].MessageCount = count
	}
	return conversations, nil
}

func (ds *DBStore) GetConversation(id string) (*Conversation, error) {
	if conversation, ok := ds.conversationCache.Get(id); ok {
		return conversation, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if id == "" {
		return nil, ErrIDEmpty
	}

	filter := bson.D{{Key: "_id", Value: id}}
	var conversation Conversation

	startTime := time.Now()
	err := Conversations.FindOne(ctx, filter).Decode(&conversation)
	logger.DebugF("conversation query cost: %v", time.Since(startTime))
	if err != nil {
		return nil, HandleErr(err)
	}

	ds.conversationCache.Add(id, &conversation)
	return &conversation, nil
}

func (ds *DBStore) RenameConversation(id string, title string) (*Conversation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if id == "" {
		return nil, ErrIDEmpty
	}
	ds.conversationCache.Remove(id)

	filter := bson.D{{Key: "_id", Value: id}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "title", Value: title}, {Key: "updated_at", Value: time.Now().UTC()}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var conversation Conversation
	err := Conversations.FindOneAndUpdate(ctx, filter, update, opts).Decode(&conversation)
	if err != nil {
		return nil, HandleErr(err)
	}
	return &conversation, nil
}

func (ds *DBStore) DeactivateConversation(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if id == "" {
		return ErrIDEmpty
	}
	ds.conversationCache.Remove(id)

	filter := bson.D{{Key: "_id", Value: id}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "is_active", Value: false}, {Key: "updated_at", Value: time.Now().UTC()}}}}

	result, err := Conversations.UpdateOne(ctx, filter, update)
	if err != nil {
		return HandleErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	logger.InfoF("Conversation deactivated: id=%s", id)
	return nil
}

func (ds *DBStore) AppendMessage(message *ChatMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	if message.SessionID == "" {
		return ErrIDEmpty
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	_, err := ChatMessages.InsertOne(ctx, message)
	if err != nil {
		return HandleErr(err)
	}
	return nil
}

func (ds *DBStore) ListMessages(sessionID string) ([]ChatMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
	defer cancel()

	filter := bson.D{{Key: "session_id", Value: sessionID}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := ChatMessages.Find(ctx, filter, opts)
	if err != nil {
		return nil, HandleErr(err)
	}

	messages := make([]ChatMessage, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, HandleErr(err)
	}
	return messages, nil
}
