// Package notify fans matched threads out to the chat transports and
// records what was delivered.
package notify

// EmbedField is one name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Embed is the rich-message block the primary transport renders.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// Message is one outbound post: plain content, embeds, or both.
type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

const (
	colorAlert  = 0xE74C3C
	colorRoster = 0x3498DB
	colorAdmin  = 0xF1C40F
)
