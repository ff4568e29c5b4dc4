package discord

import "time"

// correlationFieldName labels the seeded field carrying the per-alert
// correlation identifier. It is part of every embed's cost.
const correlationFieldName = "Alert ID"

// EmbedField is one name/value row inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter matches Discord's embed footer object.
type EmbedFooter struct {
	Text string `json:"text"`
}

// Embed is one size-bounded record on the wire. Embeds are built by the
// packer and must not be mutated after commit: chars is the frozen cost
// the batcher budgets against.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Timestamp   string       `json:"timestamp"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`

	chars int
}

// Chars is the embed's total character cost: title + description + footer
// + every field name and value, correlation field included.
func (e *Embed) Chars() int { return e.chars }

// CorrelationID returns the seeded per-alert identifier.
func (e *Embed) CorrelationID() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0].Value
}

func newEmbed(level Level, alertID string, at time.Time) *Embed {
	e := &Embed{
		Color:     level.color(),
		Timestamp: at.UTC().Format(time.RFC3339),
		Fields:    []EmbedField{{Name: correlationFieldName, Value: alertID, Inline: true}},
	}
	e.chars = len(correlationFieldName) + len(alertID)
	return e
}

// payload is the webhook request body.
type payload struct {
	Content string   `json:"content,omitempty"`
	Embeds  []*Embed `json:"embeds"`
}
