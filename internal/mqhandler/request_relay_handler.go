package mqhandler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"forumwatch/internal/mq"
	"forumwatch/internal/notify"
)

// RequestRelayHandler turns request-workflow events into admin-channel
// posts. Delivery is best effort: a failed post is logged and the event
// acked, never requeued into a retry storm against a dead webhook.
type RequestRelayHandler struct {
	admin  notify.ChannelPoster
	direct notify.DirectSender
	logger *zap.Logger
}

func NewRequestRelayHandler(admin notify.ChannelPoster, direct notify.DirectSender, logger *zap.Logger) *RequestRelayHandler {
	return &RequestRelayHandler{
		admin:  admin,
		direct: direct,
		logger: logger,
	}
}

func (h *RequestRelayHandler) HandleRequestSubmitted(ctx context.Context, raw json.RawMessage) error {
	var p mq.RequestSubmittedEvent
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal request submitted event", zap.Error(err))
		return err
	}

	msg := notify.RequestSubmitted(p.RequestID, p.Kind, p.Value, p.RequesterID, p.Category)
	if err := h.admin.Post(ctx, msg); err != nil {
		h.logger.Error("Failed to post request submitted notice",
			zap.String("request_id", p.RequestID),
			zap.Error(err),
		)
		return nil
	}

	h.logger.Info("Request submitted notice posted",
		zap.String("request_id", p.RequestID),
		zap.String("requester", p.RequesterID),
	)
	return nil
}

func (h *RequestRelayHandler) HandleRequestResolved(ctx context.Context, raw json.RawMessage) error {
	var p mq.RequestResolvedEvent
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal request resolved event", zap.Error(err))
		return err
	}

	msg := notify.RequestResolved(p.RequestID, p.Kind, p.Value, p.RequesterID, p.Status, p.ResolvedBy)
	if err := h.admin.Post(ctx, msg); err != nil {
		h.logger.Error("Failed to post request resolved notice",
			zap.String("request_id", p.RequestID),
			zap.Error(err),
		)
	}

	if h.direct != nil {
		dm := notify.RequestOutcome(p.RequestID, p.Kind, p.Value, p.Status)
		if err := h.direct.SendDM(ctx, p.RequesterID, dm); err != nil {
			h.logger.Error("Failed to DM request outcome",
				zap.String("request_id", p.RequestID),
				zap.String("requester", p.RequesterID),
				zap.Error(err),
			)
		}
	}

	h.logger.Info("Request resolved notice posted",
		zap.String("request_id", p.RequestID),
		zap.String("status", p.Status),
	)
	return nil
}
