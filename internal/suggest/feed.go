package suggest

import (
	"encoding/json"
	"fmt"
	"time"
)

// GlobalSession is the implicit session key for feeds that are not
// session-scoped. The global feed is the scoped design with this constant
// key.
const GlobalSession = "__global__"

// Feed describes one instantiation of the broadcast pattern. The two live
// instantiations differ only in the wire field carrying the item list and
// in whether sessions are client-scoped.
type Feed struct {
	Name     string
	ItemsKey string
	ItemNoun string
	Scoped   bool
}

var (
	SuggestionsFeed = Feed{
		Name:     "suggestions",
		ItemsKey: "suggestions",
		ItemNoun: "suggestion",
		Scoped:   true,
	}
	QuickAnswersFeed = Feed{
		Name:     "quickanswers",
		ItemsKey: "quickAnswers",
		ItemNoun: "quick answer",
		Scoped:   false,
	}
)

// SessionKey maps a client-supplied session id onto the registry key.
func (f Feed) SessionKey(sessionID string) string {
	if f.Scoped {
		return sessionID
	}
	return GlobalSession
}

// DecodePayload parses a publish body. The item list must be present and be
// an array; an empty array is valid.
func (f Feed) DecodePayload(body []byte) (Payload, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Payload{}, fmt.Errorf("Invalid payload: body must be a JSON object")
	}

	itemsRaw, ok := raw[f.ItemsKey]
	if !ok || string(itemsRaw) == "null" {
		return Payload{}, fmt.Errorf("Invalid payload: %s array is required", f.ItemsKey)
	}

	var items []Item
	if err := json.Unmarshal(itemsRaw, &items); err != nil {
		return Payload{}, fmt.Errorf("Invalid payload: %s array is required", f.ItemsKey)
	}

	p := Payload{Items: items}
	if v, ok := raw["sessionId"]; ok {
		_ = json.Unmarshal(v, &p.SessionID)
	}
	if v, ok := raw["userId"]; ok {
		_ = json.Unmarshal(v, &p.UserID)
	}
	if v, ok := raw["timestamp"]; ok {
		_ = json.Unmarshal(v, &p.Timestamp)
	}
	return p, nil
}

// ValidateItems checks the per-item shape. The type value itself is not
// checked against the known enumeration.
func (f Feed) ValidateItems(items []Item) error {
	for _, item := range items {
		if item.ID == "" || item.Text == "" || item.Type == "" {
			return fmt.Errorf("Invalid %s: id, text, and type are required", f.ItemNoun)
		}
	}
	return nil
}

// EncodePayload serializes a payload to the wire event body.
func (f Feed) EncodePayload(p Payload) ([]byte, error) {
	items := p.Items
	if items == nil {
		items = []Item{}
	}
	doc := map[string]interface{}{
		f.ItemsKey: items,
	}
	if p.SessionID != "" && p.SessionID != GlobalSession {
		doc["sessionId"] = p.SessionID
	}
	if p.UserID != "" {
		doc["userId"] = p.UserID
	}
	if p.Timestamp != "" {
		doc["timestamp"] = p.Timestamp
	}
	return json.Marshal(doc)
}

// ConnectedEvent is the acknowledgement body written to every new
// subscriber after the replay step.
func ConnectedEvent(now time.Time) []byte {
	data, _ := json.Marshal(map[string]string{
		"type":      "connected",
		"timestamp": now.UTC().Format(time.RFC3339),
	})
	return data
}
