package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"forumwatch/internal/model"
)

type fakeChannel struct {
	posts []Message
	err   error
}

func (f *fakeChannel) Post(_ context.Context, m Message) error {
	if f.err != nil {
		return f.err
	}
	f.posts = append(f.posts, m)
	return nil
}

type fakeDirect struct {
	sent map[string][]Message
	err  error
}

func newFakeDirect() *fakeDirect {
	return &fakeDirect{sent: make(map[string][]Message)}
}

func (f *fakeDirect) SendDM(_ context.Context, userID string, m Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent[userID] = append(f.sent[userID], m)
	return nil
}

type fakeSecondary struct {
	sent map[string][]string
}

func newFakeSecondary() *fakeSecondary {
	return &fakeSecondary{sent: make(map[string][]string)}
}

func (f *fakeSecondary) SendText(_ context.Context, chatID, text string) error {
	f.sent[chatID] = append(f.sent[chatID], text)
	return nil
}

type fakePrefs struct {
	prefs map[string]model.Preference
}

func (f *fakePrefs) Get(_ context.Context, userID string) (model.Preference, error) {
	if p, ok := f.prefs[userID]; ok {
		return p, nil
	}
	return model.DefaultPreference(userID), nil
}

type fakeLinks struct {
	chats map[string]string
}

func (f *fakeLinks) ChatID(_ context.Context, userID string) (string, error) {
	return f.chats[userID], nil
}

type fakeDeliveries struct {
	rows [][4]string
}

func (f *fakeDeliveries) RecordDelivery(_ context.Context, threadURL, targetValue, userID, transport string) error {
	f.rows = append(f.rows, [4]string{threadURL, targetValue, userID, transport})
	return nil
}

type fakeDedup struct {
	taken map[string]bool
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{taken: make(map[string]bool)}
}

func (f *fakeDedup) AcquireOnce(_ context.Context, scope, key string) bool {
	k := scope + ":" + key
	if f.taken[k] {
		return false
	}
	f.taken[k] = true
	return true
}

func sampleHits() []Hit {
	return []Hit{
		{
			Kind: "player", Value: "12345", OwnerID: "u1",
			ThreadURL: "https://forum.example/threads/x.1/",
			Title:     "Beschwerde", Category: "de", FromStatic: true, ThreadOpen: true,
		},
		{
			Kind: "player", Value: "67890", OwnerID: "u1",
			ThreadURL: "https://forum.example/threads/x.1/",
			Title:     "Beschwerde", Category: "de", FromStatic: true, ThreadOpen: true,
		},
		{
			Kind: "admin", Value: "DarkLord", OwnerID: "u2",
			ThreadURL: "https://forum.example/threads/x.1/",
			Title:     "Beschwerde", Category: "de", FromStatic: true, ThreadOpen: true,
		},
	}
}

func newTestRouter(ch *fakeChannel, dm *fakeDirect, sec *fakeSecondary, prefs *fakePrefs, links *fakeLinks, led *fakeDeliveries, ded *fakeDedup) *Router {
	return NewRouter(ch, dm, sec, prefs, links, led, ded, zap.NewNop())
}

func TestDispatchConsolidatesPerOwner(t *testing.T) {
	ch := &fakeChannel{}
	dm := newFakeDirect()
	led := &fakeDeliveries{}

	r := newTestRouter(ch, dm, nil, &fakePrefs{}, &fakeLinks{}, led, newFakeDedup())
	r.Dispatch(context.Background(), sampleHits())

	require.Len(t, ch.posts, 1, "one channel post per thread")
	assert.Contains(t, ch.posts[0].Content, "<@u1>")
	assert.Contains(t, ch.posts[0].Content, "<@u2>")

	require.Len(t, dm.sent["u1"], 1, "both hits of u1 land in one DM")
	assert.Contains(t, dm.sent["u1"][0].Embeds[0].Description, "12345")
	assert.Contains(t, dm.sent["u1"][0].Embeds[0].Description, "67890")
	require.Len(t, dm.sent["u2"], 1)

	assert.Len(t, led.rows, 3)
}

func TestDispatchChannelBypassesPreferences(t *testing.T) {
	hits := []Hit{{
		Kind: "player", Value: "12345", OwnerID: "u1",
		ThreadURL:  "https://forum.example/threads/x.1",
		ThreadOpen: false, FromStatic: true,
	}}
	prefs := &fakePrefs{prefs: map[string]model.Preference{
		"u1": {UserID: "u1", NotifyStaticField: false, NotifyClosedThreads: false},
	}}

	ch := &fakeChannel{}
	dm := newFakeDirect()
	led := &fakeDeliveries{}

	r := newTestRouter(ch, dm, nil, prefs, &fakeLinks{}, led, newFakeDedup())
	r.Dispatch(context.Background(), hits)

	assert.Len(t, ch.posts, 1, "channel mention goes out regardless of preferences")
	assert.Empty(t, dm.sent, "direct delivery is suppressed")
	assert.Empty(t, led.rows)
}

func TestDispatchHonorsClosedThreadPreference(t *testing.T) {
	hits := []Hit{{
		Kind: "player", Value: "12345", OwnerID: "u1",
		ThreadURL:  "https://forum.example/threads/x.1",
		FromStatic: false, ThreadOpen: false,
	}}
	prefs := &fakePrefs{prefs: map[string]model.Preference{
		"u1": {UserID: "u1", NotifyStaticField: true, NotifyClosedThreads: false},
	}}

	dm := newFakeDirect()
	r := newTestRouter(&fakeChannel{}, dm, nil, prefs, &fakeLinks{}, &fakeDeliveries{}, newFakeDedup())
	r.Dispatch(context.Background(), hits)

	assert.Empty(t, dm.sent)
}

func TestDispatchHonorsStaticFieldPreference(t *testing.T) {
	hits := []Hit{{
		Kind: "player", Value: "12345", OwnerID: "u1",
		ThreadURL:  "https://forum.example/threads/x.1/",
		FromStatic: true, ThreadOpen: true,
	}}
	prefs := &fakePrefs{prefs: map[string]model.Preference{
		"u1": {UserID: "u1", NotifyStaticField: false, NotifyClosedThreads: true},
	}}

	dm := newFakeDirect()
	r := newTestRouter(&fakeChannel{}, dm, nil, prefs, &fakeLinks{}, &fakeDeliveries{}, newFakeDedup())
	r.Dispatch(context.Background(), hits)

	assert.Empty(t, dm.sent, "static-field hits are suppressed when the pref is off")
}

func TestDispatchClosedFieldDeliveredDespiteStaticPrefOff(t *testing.T) {
	hits := []Hit{{
		Kind: "player", Value: "12345", OwnerID: "u1",
		ThreadURL:  "https://forum.example/threads/x.1",
		FromStatic: false, ThreadOpen: false,
	}}
	prefs := &fakePrefs{prefs: map[string]model.Preference{
		"u1": {UserID: "u1", NotifyStaticField: false, NotifyClosedThreads: true},
	}}

	dm := newFakeDirect()
	r := newTestRouter(&fakeChannel{}, dm, nil, prefs, &fakeLinks{}, &fakeDeliveries{}, newFakeDedup())
	r.Dispatch(context.Background(), hits)

	require.Len(t, dm.sent["u1"], 1, "the closed-field pref alone gates closed-field hits")
}

func TestDispatchSecondaryOnlyForLinkedUsers(t *testing.T) {
	sec := newFakeSecondary()
	links := &fakeLinks{chats: map[string]string{"u1": "chat-1"}}
	led := &fakeDeliveries{}

	r := newTestRouter(&fakeChannel{}, newFakeDirect(), sec, &fakePrefs{}, links, led, newFakeDedup())
	r.Dispatch(context.Background(), sampleHits())

	require.Len(t, sec.sent["chat-1"], 1)
	assert.Contains(t, sec.sent["chat-1"][0], "12345")
	assert.Empty(t, sec.sent["chat-2"], "u2 has no linked chat")

	var telegramRows int
	for _, row := range led.rows {
		if row[3] == "telegram" {
			telegramRows++
		}
	}
	assert.Equal(t, 2, telegramRows, "one audit row per hit of the linked owner")
}

func TestDispatchSinkFailureIsIsolated(t *testing.T) {
	ch := &fakeChannel{err: errors.New("webhook down")}
	dm := newFakeDirect()
	led := &fakeDeliveries{}

	r := newTestRouter(ch, dm, nil, &fakePrefs{}, &fakeLinks{}, led, newFakeDedup())
	r.Dispatch(context.Background(), sampleHits())

	assert.NotEmpty(t, dm.sent, "direct delivery proceeds when the channel sink fails")
}

func TestDispatchDedupBlocksSecondDelivery(t *testing.T) {
	ch := &fakeChannel{}
	dm := newFakeDirect()
	ded := newFakeDedup()

	r := newTestRouter(ch, dm, nil, &fakePrefs{}, &fakeLinks{}, &fakeDeliveries{}, ded)
	r.Dispatch(context.Background(), sampleHits())
	r.Dispatch(context.Background(), sampleHits())

	assert.Len(t, ch.posts, 1)
	assert.Len(t, dm.sent["u1"], 1)
}
