package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"forumwatch/internal/mq"
	"forumwatch/internal/notify"
)

type stubChannel struct {
	posts []notify.Message
	err   error
}

func (s *stubChannel) Post(_ context.Context, m notify.Message) error {
	if s.err != nil {
		return s.err
	}
	s.posts = append(s.posts, m)
	return nil
}

type stubDirect struct {
	sent map[string][]notify.Message
}

func (s *stubDirect) SendDM(_ context.Context, userID string, m notify.Message) error {
	if s.sent == nil {
		s.sent = make(map[string][]notify.Message)
	}
	s.sent[userID] = append(s.sent[userID], m)
	return nil
}

func TestHandleRequestSubmittedPostsToAdminChannel(t *testing.T) {
	ch := &stubChannel{}
	h := NewRequestRelayHandler(ch, nil, zap.NewNop())

	raw, err := json.Marshal(mq.RequestSubmittedEvent{
		RequestID: "abcd1234", Kind: "player", Value: "777",
		RequesterID: "userA", Category: "de",
	})
	require.NoError(t, err)

	require.NoError(t, h.HandleRequestSubmitted(context.Background(), raw))
	require.Len(t, ch.posts, 1)
	assert.Contains(t, ch.posts[0].Embeds[0].Description, "userA")
	assert.Contains(t, ch.posts[0].Embeds[0].Description, "777")
}

func TestHandleRequestResolvedNotifiesRequester(t *testing.T) {
	ch := &stubChannel{}
	dm := &stubDirect{}
	h := NewRequestRelayHandler(ch, dm, zap.NewNop())

	raw, err := json.Marshal(mq.RequestResolvedEvent{
		RequestID: "abcd1234", Kind: "player", Value: "777",
		RequesterID: "userA", Category: "de",
		Status: "approved", ResolvedBy: "admin1",
	})
	require.NoError(t, err)

	require.NoError(t, h.HandleRequestResolved(context.Background(), raw))
	require.Len(t, ch.posts, 1)
	require.Len(t, dm.sent["userA"], 1)
	assert.Contains(t, dm.sent["userA"][0].Embeds[0].Title, "approved")
}

func TestHandlerAcksOnSinkFailure(t *testing.T) {
	h := NewRequestRelayHandler(&stubChannel{err: errors.New("webhook down")}, nil, zap.NewNop())

	raw, err := json.Marshal(mq.RequestSubmittedEvent{RequestID: "abcd1234"})
	require.NoError(t, err)

	assert.NoError(t, h.HandleRequestSubmitted(context.Background(), raw),
		"sink failures must not requeue the event")
}

func TestHandlerRejectsMalformedPayload(t *testing.T) {
	h := NewRequestRelayHandler(&stubChannel{}, nil, zap.NewNop())
	assert.Error(t, h.HandleRequestSubmitted(context.Background(), []byte("{not json")))
}
