package notify

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"forumwatch/internal/metrics"
	"forumwatch/internal/model"
	"forumwatch/pkg/circuitbreaker"
)

// ChannelPoster posts to the shared alert channel.
type ChannelPoster interface {
	Post(ctx context.Context, m Message) error
}

// DirectSender delivers a private message to one user.
type DirectSender interface {
	SendDM(ctx context.Context, userID string, m Message) error
}

// SecondarySender delivers plain text to a linked chat.
type SecondarySender interface {
	SendText(ctx context.Context, chatID, text string) error
}

// PreferenceSource yields a user's notification preferences.
type PreferenceSource interface {
	Get(ctx context.Context, userID string) (model.Preference, error)
}

// LinkSource resolves a user to their secondary-transport chat.
type LinkSource interface {
	ChatID(ctx context.Context, userID string) (string, error)
}

// DeliveryLedger records each notification that went out.
type DeliveryLedger interface {
	RecordDelivery(ctx context.Context, threadURL, targetValue, userID, transport string) error
}

// DedupGuard blocks double delivery across overlapping passes.
type DedupGuard interface {
	AcquireOnce(ctx context.Context, scope, key string) bool
}

// Router fans one thread's hits out to the transports. Channel posts
// always go out; direct and secondary deliveries honor preferences.
type Router struct {
	channel   ChannelPoster
	direct    DirectSender
	secondary SecondarySender
	prefs     PreferenceSource
	links     LinkSource
	ledger    DeliveryLedger
	dedup     DedupGuard
	logger    *zap.Logger

	channelCB   *circuitbreaker.CircuitBreaker
	directCB    *circuitbreaker.CircuitBreaker
	secondaryCB *circuitbreaker.CircuitBreaker
}

func NewRouter(
	channel ChannelPoster,
	direct DirectSender,
	secondary SecondarySender,
	prefs PreferenceSource,
	links LinkSource,
	ledger DeliveryLedger,
	dedup DedupGuard,
	logger *zap.Logger,
) *Router {
	return &Router{
		channel:     channel,
		direct:      direct,
		secondary:   secondary,
		prefs:       prefs,
		links:       links,
		ledger:      ledger,
		dedup:       dedup,
		logger:      logger,
		channelCB:   circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
		directCB:    circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
		secondaryCB: circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
	}
}

// Dispatch delivers everything matched in one thread. Transport failures
// are logged and swallowed; a thread is never retried because a sink was
// down.
func (r *Router) Dispatch(ctx context.Context, hits []Hit) {
	if len(hits) == 0 {
		return
	}
	threadURL := hits[0].ThreadURL

	r.postChannel(ctx, threadURL, hits)

	for _, owner := range ownersOf(hits) {
		r.deliverToOwner(ctx, threadURL, owner, hitsFor(hits, owner))
	}
}

func (r *Router) postChannel(ctx context.Context, threadURL string, hits []Hit) {
	if r.channel == nil {
		return
	}
	if !r.dedup.AcquireOnce(ctx, "channel", threadURL) {
		return
	}

	msg := ChannelAlert(hits)
	err := r.channelCB.Execute(func() error {
		return r.channel.Post(ctx, msg)
	})
	if err != nil {
		metrics.NotificationFailures.WithLabelValues("channel").Inc()
		r.logger.Warn("Channel post failed",
			zap.String("thread", threadURL),
			zap.Error(err),
		)
		return
	}
	metrics.NotificationsSent.WithLabelValues("channel").Inc()
}

func (r *Router) deliverToOwner(ctx context.Context, threadURL, owner string, hits []Hit) {
	pref, err := r.prefs.Get(ctx, owner)
	if err != nil {
		r.logger.Warn("Preference lookup failed, using defaults",
			zap.String("user", owner),
			zap.Error(err),
		)
		pref = model.DefaultPreference(owner)
	}

	// Every hit comes from exactly one field: the always-present static
	// field or the closed-thread field. Each has its own switch.
	var wanted []Hit
	for _, h := range hits {
		if h.FromStatic && !pref.NotifyStaticField {
			continue
		}
		if !h.FromStatic && !pref.NotifyClosedThreads {
			continue
		}
		wanted = append(wanted, h)
	}
	if len(wanted) == 0 {
		return
	}

	if !r.dedup.AcquireOnce(ctx, "direct", threadURL+"|"+owner) {
		return
	}

	if r.direct != nil {
		msg := DirectAlert(wanted)
		err := r.directCB.Execute(func() error {
			return r.direct.SendDM(ctx, owner, msg)
		})
		if err != nil {
			metrics.NotificationFailures.WithLabelValues("direct").Inc()
			r.logger.Warn("Direct message failed",
				zap.String("user", owner),
				zap.String("thread", threadURL),
				zap.Error(err),
			)
		} else {
			metrics.NotificationsSent.WithLabelValues("direct").Inc()
			r.recordAll(ctx, threadURL, owner, wanted, "direct")
		}
	}

	r.deliverSecondary(ctx, threadURL, owner, wanted)
}

func (r *Router) deliverSecondary(ctx context.Context, threadURL, owner string, hits []Hit) {
	if r.secondary == nil {
		return
	}
	chatID, err := r.links.ChatID(ctx, owner)
	if err != nil {
		r.logger.Warn("Chat link lookup failed", zap.String("user", owner), zap.Error(err))
		return
	}
	if chatID == "" {
		return
	}

	text := DirectAlertText(hits)
	err = r.secondaryCB.Execute(func() error {
		return r.secondary.SendText(ctx, chatID, text)
	})
	if err != nil {
		metrics.NotificationFailures.WithLabelValues("telegram").Inc()
		r.logger.Warn("Secondary delivery failed",
			zap.String("user", owner),
			zap.String("thread", threadURL),
			zap.Error(err),
		)
		return
	}
	metrics.NotificationsSent.WithLabelValues("telegram").Inc()
	r.recordAll(ctx, threadURL, owner, hits, "telegram")
}

func (r *Router) recordAll(ctx context.Context, threadURL, owner string, hits []Hit, transport string) {
	for _, h := range hits {
		if err := r.ledger.RecordDelivery(ctx, threadURL, h.Value, owner, transport); err != nil {
			r.logger.Error("Failed to record delivery",
				zap.String("thread", threadURL),
				zap.String("user", owner),
				zap.String("transport", transport),
				zap.Error(err),
			)
		}
	}
}

func ownersOf(hits []Hit) []string {
	set := make(map[string]bool)
	for _, h := range hits {
		set[h.OwnerID] = true
	}
	owners := make([]string, 0, len(set))
	for o := range set {
		owners = append(owners, o)
	}
	sort.Strings(owners)
	return owners
}

func hitsFor(hits []Hit, owner string) []Hit {
	var out []Hit
	for _, h := range hits {
		if h.OwnerID == owner {
			out = append(out, h)
		}
	}
	return out
}
