package twitch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	twitchirc "github.com/gempir/go-twitch-irc/v4"

	"twitch-notify-relay/config"
	"twitch-notify-relay/model"
	"twitch-notify-relay/tokens"
)

// ChatHandler принимает события чата, преобразованные в доменные модели.
type ChatHandler interface {
	HandleChatEvent(context.Context, model.ChatEvent)
}

// Client оборачивает go-twitch-irc и настраивает обработчики.
type Client struct {
	client   *twitchirc.Client
	handler  ChatHandler
	channels []string
	baseCtx  context.Context
}

// NewClient инициализирует IRC-клиент и регистрирует колбэки.
func NewClient(cfg config.TwitchConfig, username, accessToken string, handler ChatHandler) *Client {
	client := twitchirc.NewClient(username, ircToken(accessToken))

	c := &Client{
		client:   client,
		handler:  handler,
		channels: cfg.Channels,
	}

	client.OnPrivateMessage(func(m twitchirc.PrivateMessage) {
		c.handler.HandleChatEvent(c.context(), fromPrivateMessage(m))
	})

	client.OnUserNoticeMessage(func(m twitchirc.UserNoticeMessage) {
		if ev, ok := fromUserNotice(m); ok {
			c.handler.HandleChatEvent(c.context(), ev)
		}
	})

	client.OnConnect(func() {
		slog.Info("twitch: подключено, подписка на каналы", slog.Any("channels", cfg.Channels))
		for _, ch := range cfg.Channels {
			if ch == "" {
				continue
			}
			client.Join(ch)
		}
	})

	client.OnReconnectMessage(func(message twitchirc.ReconnectMessage) {
		slog.Info("twitch: сервер запросил RECONNECT", slog.String("raw", message.Raw))
	})

	return c
}

// Action отправляет сообщение от третьего лица (/me) в канал.
func (c *Client) Action(channel, text string) error {
	channel = normalizeChannel(channel)
	if channel == "" {
		return errors.New("twitch: action: empty channel")
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("twitch: action: empty text")
	}
	c.client.Say(channel, "/me "+text)
	return nil
}

// UpdateToken подходит как tokens.RefreshFunc: новый токен используется при следующем переподключении.
func (c *Client) UpdateToken(_ context.Context, creds tokens.Credentials) error {
	c.client.SetIRCToken(ircToken(creds.AccessToken))
	return nil
}

// Run подключает клиента и блокируется до отмены контекста или ошибки.
func (c *Client) Run(ctx context.Context) error {
	c.baseCtx = ctx
	errCh := make(chan error, 1)

	go func() {
		errCh <- c.client.Connect()
	}()

	select {
	case <-ctx.Done():
		if err := c.client.Disconnect(); err != nil {
			slog.Debug("twitch: disconnect", slog.Any("err", err))
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("twitch irc: %w", err)
		}
		return nil
	}
}

var hostPattern = regexp.MustCompile(`^(\w+) is now (auto )?hosting you(?: for(?: up to)? (\d+) viewers)?`)

func fromPrivateMessage(m twitchirc.PrivateMessage) model.ChatEvent {
	channel := normalizeChannel(m.Channel)

	if strings.EqualFold(m.User.Name, "jtv") {
		if match := hostPattern.FindStringSubmatch(m.Message); match != nil {
			viewers, _ := strconv.Atoi(match[3])
			return model.Host{
				Channel: channel,
				Host:    model.User{Login: strings.ToLower(match[1]), DisplayName: match[1]},
				Viewers: viewers,
				Auto:    match[2] != "",
			}
		}
	}

	user := model.User{Login: m.User.Name, DisplayName: m.User.DisplayName}
	if m.Bits > 0 {
		return model.Cheer{Channel: channel, User: user, Bits: m.Bits, Text: m.Message}
	}

	sentAt := m.Time
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}
	return model.ChatMessage{Channel: channel, User: user, Text: m.Message, SentAt: sentAt}
}

func fromUserNotice(m twitchirc.UserNoticeMessage) (model.ChatEvent, bool) {
	channel := normalizeChannel(m.Channel)
	user := model.User{Login: m.User.Name, DisplayName: m.User.DisplayName}
	params := m.MsgParams

	switch m.MsgID {
	case "sub":
		return model.NewSub{Channel: channel, User: user}, true
	case "resub":
		return model.Resub{Channel: channel, User: user, Months: intParam(params, "msg-param-cumulative-months")}, true
	case "subgift", "anonsubgift":
		return model.SubGift{
			Channel: channel,
			Gifter:  user,
			Recipient: model.User{
				Login:       params["msg-param-recipient-user-name"],
				DisplayName: params["msg-param-recipient-display-name"],
			},
		}, true
	case "submysterygift", "anonsubmysterygift":
		return model.CommunityGift{Channel: channel, Gifter: user, Count: intParam(params, "msg-param-mass-gift-count")}, true
	case "raid":
		return model.Host{
			Channel: channel,
			Host:    model.User{Login: params["msg-param-login"], DisplayName: params["msg-param-displayName"]},
			Viewers: intParam(params, "msg-param-viewerCount"),
		}, true
	default:
		return nil, false
	}
}

func intParam(params map[string]string, key string) int {
	n, _ := strconv.Atoi(params[key])
	return n
}

func ircToken(accessToken string) string {
	if strings.HasPrefix(accessToken, "oauth:") {
		return accessToken
	}
	return "oauth:" + accessToken
}

func normalizeChannel(ch string) string {
	return strings.TrimPrefix(strings.TrimSpace(ch), "#")
}

func (c *Client) context() context.Context {
	if c.baseCtx != nil {
		return c.baseCtx
	}
	return context.Background()
}
