package twitch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nicklaw5/helix/v2"
)

// ErrUserNotFound — Helix не вернул пользователя.
var ErrUserNotFound = errors.New("twitch user not found")

const moderateSubscriptionType = "channel.moderate"

// helixAPI — подмножество helix.Client, используемое ретранслятором.
type helixAPI interface {
	GetUsers(params *helix.UsersParams) (*helix.UsersResponse, error)
	CreateEventSubSubscription(payload *helix.EventSubSubscription) (*helix.EventSubSubscriptionsResponse, error)
}

// Helix оборачивает клиент Helix API.
type Helix struct {
	api helixAPI
}

// NewHelix создаёт клиент Helix. httpClient должен подставлять пользовательский токен
// (например, oauth2.NewClient поверх tokens.RefreshingSource).
func NewHelix(clientID, accessToken string, httpClient *http.Client) (*Helix, error) {
	opts := &helix.Options{
		ClientID:        clientID,
		UserAccessToken: accessToken,
	}
	if httpClient != nil {
		opts.HTTPClient = httpClient
	}

	client, err := helix.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("helix: new client: %w", err)
	}
	return &Helix{api: client}, nil
}

// Identity — идентификатор и логин пользователя Twitch.
type Identity struct {
	ID    string
	Login string
}

// LookupUser находит пользователя по логину.
func (h *Helix) LookupUser(ctx context.Context, login string) (Identity, error) {
	login = normalizeChannel(strings.ToLower(login))
	if login == "" {
		return Identity{}, errors.New("helix: lookup user: empty login")
	}
	return h.users(ctx, &helix.UsersParams{Logins: []string{login}})
}

// CurrentUser возвращает владельца пользовательского токена.
func (h *Helix) CurrentUser(ctx context.Context) (Identity, error) {
	return h.users(ctx, &helix.UsersParams{})
}

func (h *Helix) users(ctx context.Context, params *helix.UsersParams) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}

	resp, err := h.api.GetUsers(params)
	if err != nil {
		return Identity{}, fmt.Errorf("helix: get users: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return Identity{}, fmt.Errorf("helix: get users: status %d: %s", resp.StatusCode, resp.ErrorMessage)
	}
	if len(resp.Data.Users) == 0 {
		return Identity{}, fmt.Errorf("helix: get users %v: %w", params.Logins, ErrUserNotFound)
	}

	u := resp.Data.Users[0]
	return Identity{ID: u.ID, Login: u.Login}, nil
}

// ModerationSubscription регистрирует подписку channel.moderate для сессии EventSub.
type ModerationSubscription struct {
	helix         *Helix
	broadcasterID string
	moderatorID   string
}

// NewModerationSubscription возвращает регистратор подписки для канала broadcasterID от имени moderatorID.
func (h *Helix) NewModerationSubscription(broadcasterID, moderatorID string) *ModerationSubscription {
	return &ModerationSubscription{helix: h, broadcasterID: broadcasterID, moderatorID: moderatorID}
}

// Subscribe создаёт подписку с websocket-транспортом и возвращает её идентификатор.
func (s *ModerationSubscription) Subscribe(ctx context.Context, sessionID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resp, err := s.helix.api.CreateEventSubSubscription(&helix.EventSubSubscription{
		Type:    moderateSubscriptionType,
		Version: "2",
		Condition: helix.EventSubCondition{
			BroadcasterUserID: s.broadcasterID,
			ModeratorUserID:   s.moderatorID,
		},
		Transport: helix.EventSubTransport{
			Method:    "websocket",
			SessionID: sessionID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("helix: create subscription: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("helix: create subscription: status %d: %s", resp.StatusCode, resp.ErrorMessage)
	}
	if len(resp.Data.EventSubSubscriptions) == 0 {
		return "", errors.New("helix: create subscription: empty response")
	}

	return resp.Data.EventSubSubscriptions[0].ID, nil
}
