package suggest

// ItemType classifies a suggestion for rendering. Unrecognized values are
// passed through untouched, the widget falls back to a default style.
type ItemType string

const (
	ItemTypeQuestion     ItemType = "question"
	ItemTypeAnswer       ItemType = "answer"
	ItemTypeConfirmation ItemType = "confirmation"
	ItemTypeNegation     ItemType = "negation"
	ItemTypeSuggestion   ItemType = "suggestion"
	ItemTypeAction       ItemType = "action"
	ItemTypeHelp         ItemType = "help"
)

// Item is one suggestion entry. Immutable once published, superseded
// wholesale by the next publish for the same session.
type Item struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Type     ItemType               `json:"type"`
	Category string                 `json:"category,omitempty"`
	Priority int                    `json:"priority,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Payload is the unit of storage and broadcast. Item order is significant
// and preserved verbatim.
type Payload struct {
	Items     []Item
	SessionID string
	UserID    string
	Timestamp string
}
