package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/supportchat-dev/supportchat-go-backend/internal/logger"
	"github.com/supportchat-dev/supportchat-go-backend/internal/suggest"
)

var errClientStalled = errors.New("client buffer full or connection gone")

// sseClient is the suggest.Subscriber behind one open event stream. Send
// never blocks: when the buffer is full the connection is considered dead
// and the broadcaster prunes it.
type sseClient struct {
	ch chan []byte
}

func newSSEClient(buffer int) *sseClient {
	return &sseClient{ch: make(chan []byte, buffer)}
}

func (cl *sseClient) Send(data []byte) error {
	select {
	case cl.ch <- data:
		return nil
	default:
		return errClientStalled
	}
}

func (s *Server) handleSuggestionsStream(c *gin.Context) {
	s.streamFeed(c, s.suggestions)
}

func (s *Server) handleQuickAnswersStream(c *gin.Context) {
	s.streamFeed(c, s.quickAnswers)
}

// streamFeed runs one subscription from open to close. On open the client
// is registered, the latest stored payload is replayed when present, then
// the connection ack is written. After that the connection only waits: for
// broadcast pushes, heartbeat ticks, or transport cancellation.
//
// A transport that dies without a cancellation signal leaves the handle
// registered until the next publish (or heartbeat-driven exit) prunes it.
func (s *Server) streamFeed(c *gin.Context, b *suggest.Broadcaster) {
	feed := b.Feed()

	sessionID := c.Query("sessionId")
	if feed.Scoped && sessionID == "" {
		c.String(http.StatusBadRequest, "sessionId query parameter is required")
		return
	}
	key := feed.SessionKey(sessionID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	registry := b.Registry()
	client := newSSEClient(s.opts.ClientBuffer)
	registry.AddSubscriber(key, client)
	defer registry.RemoveSubscriber(key, client)

	logger.DebugF("[%s] %s stream opened", key, feed.Name)

	if latest, ok := registry.Latest(key); ok {
		data, err := feed.EncodePayload(latest)
		if err != nil {
			logger.ErrorF("[%s] Fail to encode replay payload, details: %v", key, err)
		} else if err := writeEvent(c.Writer, data); err != nil {
			return
		}
	}
	if err := writeEvent(c.Writer, suggest.ConnectedEvent(time.Now())); err != nil {
		return
	}
	c.Writer.Flush()

	ticker := time.NewTicker(s.opts.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case data := <-client.ch:
			if err := writeEvent(c.Writer, data); err != nil {
				logger.WarnF("[%s] Fail to write %s event, details: %v", key, feed.Name, err)
				return
			}
			c.Writer.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(c.Writer, ": heartbeat\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			logger.DebugF("[%s] %s stream closed", key, feed.Name)
			return
		}
	}
}

func writeEvent(w io.Writer, data []byte) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
