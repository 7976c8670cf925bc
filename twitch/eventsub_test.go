package twitch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twitch-notify-relay/model"
)

type stubSubscriber struct {
	mu       sync.Mutex
	sessions []string
	err      error
}

func (s *stubSubscriber) Subscribe(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sessions = append(s.sessions, sessionID)
	return "sub-" + sessionID, nil
}

func (s *stubSubscriber) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sessions...)
}

type recordingHandler struct {
	events chan model.ModerationEvent
}

func (h *recordingHandler) HandleModeration(_ context.Context, ev model.ModerationEvent) {
	h.events <- ev
}

func welcome(id string) string {
	return fmt.Sprintf(`{"metadata":{"message_type":"session_welcome","message_timestamp":"2024-03-01T12:00:00Z"},
"payload":{"session":{"id":%q,"status":"connected","keepalive_timeout_seconds":10}}}`, id)
}

const banNotification = `{"metadata":{"message_type":"notification","message_timestamp":"2024-03-01T12:00:01Z","subscription_type":"channel.moderate"},
"payload":{"subscription":{"id":"sub-1","type":"channel.moderate","status":"enabled"},
"event":{"broadcaster_user_login":"streamer","moderator_user_login":"mod1","action":"ban","ban":{"user_login":"alice","user_name":"Alice","reason":"spamming"}}}}`

const timeoutNotification = `{"metadata":{"message_type":"notification","message_timestamp":"2024-03-01T12:00:00Z","subscription_type":"channel.moderate"},
"payload":{"subscription":{"id":"sub-1","type":"channel.moderate","status":"enabled"},
"event":{"broadcaster_user_login":"streamer","moderator_user_login":"mod1","action":"timeout","timeout":{"user_login":"bob","reason":"","expires_at":"2024-03-01T12:10:00Z"}}}}`

// closeMarker в сценарии закрывает соединение со стороны сервера.
const closeMarker = "<close>"

// scriptServer отдаёт каждому подключению очередной сценарий сообщений и держит соединение открытым.
func scriptServer(t *testing.T, scripts ...func(baseURL string) []string) *httptest.Server {
	t.Helper()
	var (
		mu   sync.Mutex
		next int
	)
	upgrader := websocket.Upgrader{}

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		mu.Lock()
		i := next
		next++
		mu.Unlock()
		if i >= len(scripts) {
			return
		}

		for _, m := range scripts[i](wsURL(srv)) {
			if m == closeMarker {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestModerationListenerDispatchesBan(t *testing.T) {
	srv := scriptServer(t, func(string) []string {
		return []string{welcome("s1"), banNotification}
	})
	sub := &stubSubscriber{}
	handler := &recordingHandler{events: make(chan model.ModerationEvent, 1)}
	l := NewModerationListener(wsURL(srv), sub, handler)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	select {
	case ev := <-handler.events:
		assert.Equal(t, model.ActionBan, ev.Action)
		assert.Equal(t, "alice", ev.Target)
		assert.Equal(t, "mod1", ev.Moderator)
		assert.Equal(t, "spamming", ev.Reason)
		assert.Equal(t, "streamer", ev.Broadcaster)
	case <-time.After(2 * time.Second):
		t.Fatal("no moderation event received")
	}

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, []string{"s1"}, sub.calls())
}

func TestModerationListenerFollowsReconnect(t *testing.T) {
	srv := scriptServer(t,
		func(base string) []string {
			reconnect := fmt.Sprintf(`{"metadata":{"message_type":"session_reconnect"},"payload":{"session":{"id":"s1","status":"reconnecting","reconnect_url":%q}}}`, base)
			return []string{welcome("s1"), reconnect}
		},
		func(string) []string {
			return []string{welcome("s1"), timeoutNotification}
		},
	)
	sub := &stubSubscriber{}
	handler := &recordingHandler{events: make(chan model.ModerationEvent, 1)}
	l := NewModerationListener(wsURL(srv), sub, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	select {
	case ev := <-handler.events:
		assert.Equal(t, model.ActionTimeout, ev.Action)
		assert.Equal(t, 600, ev.Duration)
		assert.Empty(t, ev.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("no moderation event received after reconnect")
	}

	assert.Len(t, sub.calls(), 1)
}

func TestModerationListenerFailsWhenSubscribeFails(t *testing.T) {
	srv := scriptServer(t, func(string) []string { return []string{welcome("s1")} })
	boom := errors.New("403 forbidden")
	l := NewModerationListener(wsURL(srv), &stubSubscriber{err: boom}, &recordingHandler{})

	err := l.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestModerationListenerStopsOnRevocation(t *testing.T) {
	revocation := `{"metadata":{"message_type":"revocation","subscription_type":"channel.moderate"},"payload":{"subscription":{"id":"sub-1","status":"authorization_revoked"}}}`
	srv := scriptServer(t, func(string) []string { return []string{welcome("s1"), revocation} })
	l := NewModerationListener(wsURL(srv), &stubSubscriber{}, &recordingHandler{})

	err := l.Run(context.Background())
	assert.ErrorIs(t, err, ErrSubscriptionRevoked)
	assert.Contains(t, err.Error(), "authorization_revoked")
}

func TestModerationListenerResubscribesAfterDrop(t *testing.T) {
	srv := scriptServer(t,
		func(string) []string { return []string{welcome("s1"), closeMarker} },
		func(string) []string { return []string{welcome("s2"), banNotification} },
	)
	sub := &stubSubscriber{}
	handler := &recordingHandler{events: make(chan model.ModerationEvent, 1)}
	clock := clockwork.NewFakeClock()
	l := NewModerationListener(wsURL(srv), sub, handler)
	l.clock = clock

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case <-handler.events:
			assert.Equal(t, []string{"s1", "s2"}, sub.calls())
			return
		case <-time.After(10 * time.Millisecond):
			clock.Advance(defaultRetryDelay)
		}
	}
	t.Fatal("no moderation event received after resubscribe")
}

func TestModerationListenerWaitsRetryDelay(t *testing.T) {
	srv := scriptServer(t,
		func(string) []string { return []string{welcome("s1"), closeMarker} },
		func(string) []string { return []string{welcome("s2")} },
	)
	sub := &stubSubscriber{}
	clock := clockwork.NewFakeClock()
	l := NewModerationListener(wsURL(srv), sub, &recordingHandler{})
	l.clock = clock
	l.retryDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{"s1"}, sub.calls())
}

func TestModerationListenerRejectsReconnectWithoutURL(t *testing.T) {
	reconnect := `{"metadata":{"message_type":"session_reconnect"},"payload":{"session":{"id":"s1","status":"reconnecting"}}}`
	srv := scriptServer(t, func(string) []string { return []string{reconnect} })
	l := NewModerationListener(wsURL(srv), &stubSubscriber{}, &recordingHandler{})

	err := l.Run(context.Background())
	require.ErrorIs(t, err, errNoReconnectURL)
	assert.NotContains(t, err.Error(), "<nil>")
}

func TestToModerationEventTimeoutDuration(t *testing.T) {
	sentAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ev, ok := toModerationEvent(moderateEvent{
		ModeratorUserLogin: "mod1",
		Action:             "timeout",
		Timeout:            &moderateTarget{UserLogin: "bob", Reason: "caps", ExpiresAt: sentAt.Add(299600 * time.Millisecond)},
	}, sentAt)

	require.True(t, ok)
	assert.Equal(t, 300, ev.Duration)
	assert.Equal(t, []string{"bob", "300", "caps"}, ev.Args)
	assert.Equal(t, sentAt, ev.OccurredAt)
}

func TestToModerationEventSkipsOtherActions(t *testing.T) {
	_, ok := toModerationEvent(moderateEvent{Action: "slow"}, time.Now())
	assert.False(t, ok)

	_, ok = toModerationEvent(moderateEvent{Action: "ban"}, time.Now())
	assert.False(t, ok)
}
