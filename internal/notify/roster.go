package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"forumwatch/internal/model"
)

const rosterChunkLimit = 1024

// TargetLister yields every registered watch target.
type TargetLister interface {
	All(ctx context.Context) ([]model.WatchTarget, error)
}

// Roster periodically republishes the full watch list to its own channel
// so the current state is always visible without asking the bot.
type Roster struct {
	targets TargetLister
	sink    ChannelPoster
	logger  *zap.Logger
}

func NewRoster(targets TargetLister, sink ChannelPoster, logger *zap.Logger) *Roster {
	return &Roster{targets: targets, sink: sink, logger: logger}
}

// Publish posts the current roster, split into chunks small enough for
// one embed description each.
func (r *Roster) Publish(ctx context.Context) error {
	targets, err := r.targets.All(ctx)
	if err != nil {
		return fmt.Errorf("load targets: %w", err)
	}

	var lines []string
	for _, t := range targets {
		lines = append(lines, fmt.Sprintf("[%s/%s] `%s` <@%s>", strings.ToUpper(string(t.Category)), t.Kind, t.Value, t.OwnerID))
	}
	if len(lines) == 0 {
		lines = []string{"No targets registered."}
	}

	for i, chunk := range chunkLines(lines, rosterChunkLimit) {
		title := "Watched targets"
		if i > 0 {
			title = fmt.Sprintf("Watched targets (cont. %d)", i+1)
		}
		msg := Message{Embeds: []Embed{{
			Title:       title,
			Description: chunk,
			Color:       colorRoster,
		}}}
		if err := r.sink.Post(ctx, msg); err != nil {
			return fmt.Errorf("post roster chunk %d: %w", i+1, err)
		}
	}

	r.logger.Debug("Roster published", zap.Int("targets", len(targets)))
	return nil
}

// chunkLines joins lines into chunks of at most limit characters, never
// splitting a line.
func chunkLines(lines []string, limit int) []string {
	var chunks []string
	var cur strings.Builder
	for _, line := range lines {
		add := len(line)
		if cur.Len() > 0 {
			add++
		}
		if cur.Len() > 0 && cur.Len()+add > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
