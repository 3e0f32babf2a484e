package notify

import (
	"fmt"
	"strings"
)

// Hit is one matched target in one field of one thread. FromStatic
// marks a match in the always-present static field; otherwise the match
// came from the closed-thread field.
type Hit struct {
	Feed       string
	Category   string
	Kind       string
	Value      string
	OwnerID    string
	ThreadURL  string
	Title      string
	Author     string
	FromStatic bool
	ThreadOpen bool
}

func hitLabel(h Hit) string {
	if h.Kind == "admin" {
		return fmt.Sprintf("Admin `%s`", h.Value)
	}
	return fmt.Sprintf("ID `%s`", h.Value)
}

// ChannelAlert builds the shared channel post for one thread. The content
// line mentions every owner so they are pinged regardless of preferences.
func ChannelAlert(hits []Hit) Message {
	if len(hits) == 0 {
		return Message{}
	}
	first := hits[0]

	mentioned := make(map[string]bool)
	var mentions []string
	var lines []string
	for _, h := range hits {
		if !mentioned[h.OwnerID] {
			mentioned[h.OwnerID] = true
			mentions = append(mentions, fmt.Sprintf("<@%s>", h.OwnerID))
		}
		lines = append(lines, fmt.Sprintf("%s (<@%s>)", hitLabel(h), h.OwnerID))
	}

	embed := Embed{
		Title:       first.Title,
		URL:         first.ThreadURL,
		Description: strings.Join(lines, "\n"),
		Color:       colorAlert,
	}
	if first.Author != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Author", Value: first.Author, Inline: true})
	}
	embed.Fields = append(embed.Fields, EmbedField{Name: "Section", Value: strings.ToUpper(first.Category), Inline: true})
	if !first.ThreadOpen {
		embed.Fields = append(embed.Fields, EmbedField{Name: "State", Value: "closed or edited", Inline: true})
	}

	return Message{
		Content: strings.Join(mentions, " "),
		Embeds:  []Embed{embed},
	}
}

// DirectAlert builds one consolidated DM for everything a single owner
// matched in one thread.
func DirectAlert(hits []Hit) Message {
	if len(hits) == 0 {
		return Message{}
	}
	first := hits[0]

	var lines []string
	for _, h := range hits {
		line := hitLabel(h)
		if h.FromStatic {
			line += " (static field)"
		}
		lines = append(lines, line)
	}

	embed := Embed{
		Title:       first.Title,
		URL:         first.ThreadURL,
		Description: "Matched in a complaint thread:\n" + strings.Join(lines, "\n"),
		Color:       colorAlert,
	}
	if first.Author != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Author", Value: first.Author, Inline: true})
	}
	embed.Fields = append(embed.Fields, EmbedField{Name: "Section", Value: strings.ToUpper(first.Category), Inline: true})

	return Message{Embeds: []Embed{embed}}
}

// DirectAlertText is the plain-text rendition for the secondary transport.
func DirectAlertText(hits []Hit) string {
	if len(hits) == 0 {
		return ""
	}
	first := hits[0]

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", first.Title, first.ThreadURL)
	for _, h := range hits {
		if h.Kind == "admin" {
			fmt.Fprintf(&b, "Admin %s matched\n", h.Value)
		} else {
			fmt.Fprintf(&b, "ID %s matched\n", h.Value)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RequestSubmitted builds the admin-channel post for a new registration request.
func RequestSubmitted(requestID, kind, value, requesterID, category string) Message {
	return Message{
		Embeds: []Embed{{
			Title:       "New registration request",
			Description: fmt.Sprintf("<@%s> requests %s `%s` in %s", requesterID, kind, value, strings.ToUpper(category)),
			Color:       colorAdmin,
			Fields: []EmbedField{
				{Name: "Request", Value: requestID, Inline: true},
			},
		}},
	}
}

// RequestOutcome is the private notice sent to the requester once their
// request is decided.
func RequestOutcome(requestID, kind, value, status string) Message {
	return Message{
		Embeds: []Embed{{
			Title:       "Your request was " + status,
			Description: fmt.Sprintf("%s `%s` (request %s)", kind, value, requestID),
			Color:       colorAdmin,
		}},
	}
}

// RequestResolved builds the admin-channel post for an approved or denied request.
func RequestResolved(requestID, kind, value, requesterID, status, resolvedBy string) Message {
	return Message{
		Embeds: []Embed{{
			Title:       "Request " + status,
			Description: fmt.Sprintf("%s `%s` for <@%s>", kind, value, requesterID),
			Color:       colorAdmin,
			Fields: []EmbedField{
				{Name: "Request", Value: requestID, Inline: true},
				{Name: "Resolved by", Value: resolvedBy, Inline: true},
			},
		}},
	}
}
