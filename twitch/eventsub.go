package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"twitch-notify-relay/model"
)

// DefaultEventSubURL — адрес EventSub WebSocket.
const DefaultEventSubURL = "wss://eventsub.wss.twitch.tv/ws"

var (
	// ErrSubscriptionRevoked — Twitch отозвал подписку на ленту модерации.
	ErrSubscriptionRevoked = errors.New("eventsub subscription revoked")
	errNoReconnectURL      = errors.New("session_reconnect without reconnect_url")
)

const (
	welcomeTimeout    = 15 * time.Second
	keepaliveGrace    = 5 * time.Second
	defaultRetryDelay = 5 * time.Second
	messageWelcome    = "session_welcome"
	messageKeepalive  = "session_keepalive"
	messageNotify     = "notification"
	messageReconnect  = "session_reconnect"
	messageRevocation = "revocation"
)

// ModerationHandler принимает действия модераторов.
type ModerationHandler interface {
	HandleModeration(context.Context, model.ModerationEvent)
}

// Subscriber создаёт подписку на ленту модерации для сессии EventSub.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string) (string, error)
}

// ModerationListener читает channel.moderate из EventSub WebSocket.
type ModerationListener struct {
	url        string
	dialer     *websocket.Dialer
	subscriber Subscriber
	handler    ModerationHandler
	retryDelay time.Duration
	clock      clockwork.Clock
}

// NewModerationListener создаёт слушателя. Пустой url означает DefaultEventSubURL.
func NewModerationListener(url string, subscriber Subscriber, handler ModerationHandler) *ModerationListener {
	if url == "" {
		url = DefaultEventSubURL
	}
	return &ModerationListener{
		url:        url,
		dialer:     websocket.DefaultDialer,
		subscriber: subscriber,
		handler:    handler,
		retryDelay: defaultRetryDelay,
		clock:      clockwork.NewRealClock(),
	}
}

type wsMessage struct {
	Metadata struct {
		MessageID        string    `json:"message_id"`
		MessageType      string    `json:"message_type"`
		MessageTimestamp time.Time `json:"message_timestamp"`
		SubscriptionType string    `json:"subscription_type"`
	} `json:"metadata"`
	Payload json.RawMessage `json:"payload"`
}

type sessionPayload struct {
	Session struct {
		ID                      string `json:"id"`
		Status                  string `json:"status"`
		KeepaliveTimeoutSeconds int    `json:"keepalive_timeout_seconds"`
		ReconnectURL            string `json:"reconnect_url"`
	} `json:"session"`
}

type notificationPayload struct {
	Subscription struct {
		ID     string `json:"id"`
		Type   string `json:"type"`
		Status string `json:"status"`
	} `json:"subscription"`
	Event json.RawMessage `json:"event"`
}

type moderateTarget struct {
	UserLogin string    `json:"user_login"`
	UserName  string    `json:"user_name"`
	Reason    string    `json:"reason"`
	ExpiresAt time.Time `json:"expires_at"`
}

type moderateEvent struct {
	BroadcasterUserLogin string          `json:"broadcaster_user_login"`
	ModeratorUserLogin   string          `json:"moderator_user_login"`
	Action               string          `json:"action"`
	Timeout              *moderateTarget `json:"timeout"`
	Ban                  *moderateTarget `json:"ban"`
	Unban                *moderateTarget `json:"unban"`
	Untimeout            *moderateTarget `json:"untimeout"`
	VIP                  *moderateTarget `json:"vip"`
}

type sessionResult struct {
	reconnectURL string
	handoff      *websocket.Conn
	welcomed     bool
	err          error
}

// Run подключается, регистрирует подписку и блокируется до отмены контекста.
// Ошибка первого подключения или подписки возвращается сразу; после этого
// обрыв соединения ведёт к переподключению с новой подпиской.
func (l *ModerationListener) Run(ctx context.Context) error {
	url, subscribe := l.url, true
	var (
		prev        *websocket.Conn
		established bool
	)

	for {
		res := l.session(ctx, url, subscribe, prev)
		prev = res.handoff
		established = established || res.welcomed

		switch {
		case ctx.Err() != nil:
			closeConn(prev)
			return ctx.Err()
		case res.reconnectURL != "":
			slog.Info("eventsub: переподключение по запросу сервера")
			url, subscribe = res.reconnectURL, false
			continue
		case errors.Is(res.err, ErrSubscriptionRevoked):
			return res.err
		case !established:
			return fmt.Errorf("eventsub: %w", res.err)
		}

		slog.Warn("eventsub: соединение потеряно, повтор", slog.Duration("delay", l.retryDelay), slog.Any("err", res.err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.clock.After(l.retryDelay):
		}
		url, subscribe = l.url, true
	}
}

func (l *ModerationListener) session(ctx context.Context, url string, subscribe bool, prev *websocket.Conn) (res sessionResult) {
	defer func() { closeConn(prev) }()

	conn, _, err := l.dialer.DialContext(ctx, url, nil)
	if err != nil {
		res.err = fmt.Errorf("dial: %w", err)
		return res
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	handoff := false
	defer func() {
		stop()
		if !handoff {
			_ = conn.Close()
		}
	}()

	readTimeout := welcomeTimeout
	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			res.err = fmt.Errorf("set read deadline: %w", err)
			return res
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			res.err = fmt.Errorf("read: %w", err)
			return res
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("eventsub: не удалось разобрать сообщение", slog.Any("err", err))
			continue
		}

		switch msg.Metadata.MessageType {
		case messageWelcome:
			var p sessionPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				res.err = fmt.Errorf("decode welcome: %w", err)
				return res
			}
			if p.Session.KeepaliveTimeoutSeconds > 0 {
				readTimeout = time.Duration(p.Session.KeepaliveTimeoutSeconds)*time.Second + keepaliveGrace
			}
			closeConn(prev)
			prev = nil

			if subscribe {
				id, err := l.subscriber.Subscribe(ctx, p.Session.ID)
				if err != nil {
					res.err = fmt.Errorf("subscribe: %w", err)
					return res
				}
				slog.Info("eventsub: подписка на ленту модерации создана", slog.String("subscription_id", id))
			}
			res.welcomed = true
		case messageKeepalive:
		case messageNotify:
			l.dispatch(ctx, msg)
		case messageReconnect:
			var p sessionPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				res.err = fmt.Errorf("decode reconnect: %w", err)
				return res
			}
			if p.Session.ReconnectURL == "" {
				res.err = errNoReconnectURL
				return res
			}
			handoff = true
			res.handoff = conn
			res.reconnectURL = p.Session.ReconnectURL
			return res
		case messageRevocation:
			var p notificationPayload
			_ = json.Unmarshal(msg.Payload, &p)
			res.err = fmt.Errorf("%w: %s", ErrSubscriptionRevoked, p.Subscription.Status)
			return res
		default:
			slog.Debug("eventsub: неизвестный тип сообщения", slog.String("type", msg.Metadata.MessageType))
		}
	}
}

func (l *ModerationListener) dispatch(ctx context.Context, msg wsMessage) {
	if msg.Metadata.SubscriptionType != moderateSubscriptionType {
		return
	}

	var p notificationPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		slog.Warn("eventsub: не удалось разобрать уведомление", slog.Any("err", err))
		return
	}

	var raw moderateEvent
	if err := json.Unmarshal(p.Event, &raw); err != nil {
		slog.Warn("eventsub: не удалось разобрать channel.moderate", slog.Any("err", err))
		return
	}

	ev, ok := toModerationEvent(raw, msg.Metadata.MessageTimestamp)
	if !ok {
		slog.Debug("eventsub: действие модерации пропущено", slog.String("action", raw.Action))
		return
	}
	l.handler.HandleModeration(ctx, ev)
}

func toModerationEvent(raw moderateEvent, sentAt time.Time) (model.ModerationEvent, bool) {
	var args []string

	switch model.ModAction(raw.Action) {
	case model.ActionTimeout:
		if raw.Timeout == nil {
			return model.ModerationEvent{}, false
		}
		args = []string{raw.Timeout.UserLogin, strconv.Itoa(timeoutSeconds(raw.Timeout.ExpiresAt, sentAt)), raw.Timeout.Reason}
	case model.ActionBan:
		if raw.Ban == nil {
			return model.ModerationEvent{}, false
		}
		args = []string{raw.Ban.UserLogin, raw.Ban.Reason}
	case model.ActionUnban:
		if raw.Unban == nil {
			return model.ModerationEvent{}, false
		}
		args = []string{raw.Unban.UserLogin}
	case model.ActionUntimeout:
		if raw.Untimeout == nil {
			return model.ModerationEvent{}, false
		}
		args = []string{raw.Untimeout.UserLogin}
	case model.ActionVIP:
		if raw.VIP == nil {
			return model.ModerationEvent{}, false
		}
		args = []string{raw.VIP.UserLogin}
	default:
		return model.ModerationEvent{}, false
	}

	ev, ok := model.NewModerationEvent(raw.Action, raw.ModeratorUserLogin, args)
	if !ok {
		return model.ModerationEvent{}, false
	}
	ev.Broadcaster = raw.BroadcasterUserLogin
	ev.OccurredAt = sentAt
	return ev, true
}

func timeoutSeconds(expiresAt, sentAt time.Time) int {
	if expiresAt.IsZero() || sentAt.IsZero() {
		return 0
	}
	seconds := math.Round(expiresAt.Sub(sentAt).Seconds())
	if seconds < 0 {
		return 0
	}
	return int(seconds)
}

func closeConn(conn *websocket.Conn) {
	if conn != nil {
		_ = conn.Close()
	}
}
