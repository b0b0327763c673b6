package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/supportchat-dev/supportchat-go-backend/internal/suggest"
)

// openStream serves one event-stream request whose lifetime is bound to the
// returned cancel func. The recorder must not be read until cancel has been
// called and done is closed.
func openStream(srv *Server, target string) (*httptest.ResponseRecorder, context.CancelFunc, chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		srv.Engine().ServeHTTP(w, req)
		close(done)
	}()
	return w, cancel, done
}

func TestSuggestionsStreamRequiresSessionID(t *testing.T) {
	srv, _ := newTestServer(Options{})
	w := performJSON(srv, http.MethodGet, "/api/suggestions", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "sessionId query parameter is required", w.Body.String())
	require.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestStreamAckOnlyForFreshSession(t *testing.T) {
	srv, _ := newTestServer(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/suggestions?sessionId=session-1", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	require.Contains(t, body, `"type":"connected"`)
	require.NotContains(t, body, `"suggestions"`)
}

func TestStreamReplaysLatestBeforeAck(t *testing.T) {
	srv, _ := newTestServer(Options{})
	srv.suggestions.Publish("session-1", suggest.Payload{
		SessionID: "session-1",
		Items:     []suggest.Item{{ID: "a", Text: "Need a refund?", Type: suggest.ItemTypeQuestion}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/suggestions?sessionId=session-1", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	body := w.Body.String()
	replayAt := strings.Index(body, `"suggestions"`)
	ackAt := strings.Index(body, `"type":"connected"`)
	require.GreaterOrEqual(t, replayAt, 0)
	require.GreaterOrEqual(t, ackAt, 0)
	require.Less(t, replayAt, ackAt)
	require.Contains(t, body, `"id":"a"`)
}

func TestStreamDoesNotReplayOtherSessions(t *testing.T) {
	srv, _ := newTestServer(Options{})
	srv.suggestions.Publish("session-1", suggest.Payload{
		SessionID: "session-1",
		Items:     []suggest.Item{{ID: "secret", Text: "Only for session-1", Type: suggest.ItemTypeSuggestion}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/suggestions?sessionId=session-2", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	require.NotContains(t, w.Body.String(), "secret")
	require.Contains(t, w.Body.String(), `"type":"connected"`)
}

func TestStreamDeliversPublishesAndUnregistersOnClose(t *testing.T) {
	srv, _ := newTestServer(Options{})
	registry := srv.suggestions.Registry()

	w, cancel, done := openStream(srv, "/api/suggestions?sessionId=session-1")
	require.Eventually(t, func() bool {
		return registry.SubscriberCount("session-1") == 1
	}, time.Second, 5*time.Millisecond)

	srv.suggestions.Publish("session-1", suggest.Payload{
		SessionID: "session-1",
		Items:     []suggest.Item{{ID: "live-1", Text: "Track my order", Type: suggest.ItemTypeAction}},
	})

	// Give the writer loop a moment to drain the client buffer.
	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	require.Contains(t, body, `"id":"live-1"`)

	require.Equal(t, 0, registry.SubscriberCount("session-1"))
	// The latest payload outlives the subscription for replay on reconnect.
	_, ok := registry.Latest("session-1")
	require.True(t, ok)
	require.Equal(t, 1, registry.SessionCount())
}

func TestStreamEntryRemovedWhenNothingStored(t *testing.T) {
	srv, _ := newTestServer(Options{})
	registry := srv.suggestions.Registry()

	_, cancel, done := openStream(srv, "/api/suggestions?sessionId=session-1")
	require.Eventually(t, func() bool {
		return registry.SubscriberCount("session-1") == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	require.Equal(t, 0, registry.SessionCount())
}

func TestQuickAnswersStreamNeedsNoSessionID(t *testing.T) {
	srv, _ := newTestServer(Options{})
	srv.quickAnswers.Publish(suggest.GlobalSession, suggest.Payload{
		Items: []suggest.Item{{ID: "qa-1", Text: "Shipping takes 3 days", Type: suggest.ItemTypeAnswer}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/quickanswer", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, `"quickAnswers"`)
	require.Contains(t, body, `"id":"qa-1"`)
	require.NotContains(t, body, suggest.GlobalSession)
	require.Contains(t, body, `"type":"connected"`)
}
