package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/supportchat-dev/supportchat-go-backend/internal/database"
)

func createConversation(t *testing.T, srv *Server, sessionID, userID string) database.Conversation {
	t.Helper()
	w := performJSON(srv, http.MethodPost, "/api/conversations",
		`{"sessionId": "`+sessionID+`", "userId": "`+userID+`", "title": "Support chat"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Conversation database.Conversation `json:"conversation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Conversation
}

func TestConversationCreate(t *testing.T) {
	srv, _ := newTestServer(Options{})

	conversation := createConversation(t, srv, "session-1", "user-1")
	require.NotEmpty(t, conversation.ID)
	require.Equal(t, "session-1", conversation.SessionID)
	require.Equal(t, "Support chat", conversation.Title)
	require.True(t, conversation.IsActive)
}

func TestConversationCreateDuplicateSession(t *testing.T) {
	srv, _ := newTestServer(Options{})
	createConversation(t, srv, "session-1", "user-1")

	w := performJSON(srv, http.MethodPost, "/api/conversations",
		`{"sessionId": "session-1", "userId": "user-1"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "already exists")
}

func TestConversationCreateValidation(t *testing.T) {
	srv, _ := newTestServer(Options{})

	w := performJSON(srv, http.MethodPost, "/api/conversations", `{"userId": "user-1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "sessionId and userId are required")
}

func TestConversationCreateDefaultTitle(t *testing.T) {
	srv, _ := newTestServer(Options{})

	w := performJSON(srv, http.MethodPost, "/api/conversations",
		`{"sessionId": "session-1", "userId": "user-1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "New conversation")
}

func TestConversationListByUser(t *testing.T) {
	srv, _ := newTestServer(Options{})
	createConversation(t, srv, "session-1", "user-1")
	createConversation(t, srv, "session-2", "user-1")
	createConversation(t, srv, "session-3", "user-2")

	w := performJSON(srv, http.MethodGet, "/api/conversations?userId=user-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Conversations []database.Conversation `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Conversations, 2)
}

func TestConversationListRequiresUserID(t *testing.T) {
	srv, _ := newTestServer(Options{})

	w := performJSON(srv, http.MethodGet, "/api/conversations", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "userId is required")
}

func TestConversationGetNotFound(t *testing.T) {
	srv, _ := newTestServer(Options{})

	w := performJSON(srv, http.MethodGet, "/api/conversations/missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Conversation not found")
}

func TestConversationRename(t *testing.T) {
	srv, _ := newTestServer(Options{})
	conversation := createConversation(t, srv, "session-1", "user-1")

	w := performJSON(srv, http.MethodPatch, "/api/conversations/"+conversation.ID,
		`{"title": "Billing question"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Conversation database.Conversation `json:"conversation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Billing question", resp.Conversation.Title)
}

func TestConversationRenameRequiresTitle(t *testing.T) {
	srv, _ := newTestServer(Options{})
	conversation := createConversation(t, srv, "session-1", "user-1")

	w := performJSON(srv, http.MethodPatch, "/api/conversations/"+conversation.ID, `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "title is required")
}

func TestConversationDeleteHidesFromListing(t *testing.T) {
	srv, _ := newTestServer(Options{})
	conversation := createConversation(t, srv, "session-1", "user-1")

	w := performJSON(srv, http.MethodDelete, "/api/conversations/"+conversation.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"success":true`)

	w = performJSON(srv, http.MethodGet, "/api/conversations?userId=user-1", "")
	var resp struct {
		Conversations []database.Conversation `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Empty(t, resp.Conversations)
}

func TestConversationMessages(t *testing.T) {
	srv, store := newTestServer(Options{})
	conversation := createConversation(t, srv, "session-1", "user-1")

	require.NoError(t, store.AppendMessage(&database.ChatMessage{
		SessionID: "session-1", Type: "human", Content: "Where is my order?",
	}))
	require.NoError(t, store.AppendMessage(&database.ChatMessage{
		SessionID: "session-1", Type: "ai", Content: "It ships tomorrow.",
	}))

	w := performJSON(srv, http.MethodGet, "/api/conversations/"+conversation.ID+"/messages", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		SessionID string                 `json:"sessionId"`
		Messages  []database.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "session-1", resp.SessionID)
	require.Len(t, resp.Messages, 2)
	require.Equal(t, "human", resp.Messages[0].Type)
	require.Equal(t, "ai", resp.Messages[1].Type)
}
