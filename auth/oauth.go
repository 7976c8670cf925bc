package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/twitch"

	"twitch-notify-relay/tokens"
)

// DefaultRedirectURL совпадает с адресом, зарегистрированным в консоли разработчика Twitch.
const DefaultRedirectURL = "http://localhost:3000"

// Scopes — права пользовательского токена бота: чат и лента channel.moderate v2.
var Scopes = []string{
	"chat:read",
	"chat:edit",
	"moderator:read:banned_users",
	"moderator:read:blocked_terms",
	"moderator:read:chat_messages",
	"moderator:read:chat_settings",
	"moderator:read:moderators",
	"moderator:read:unban_requests",
	"moderator:read:vips",
	"moderator:read:warnings",
}

// NewOAuthConfig собирает oauth2.Config для Twitch.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if strings.TrimSpace(redirectURL) == "" {
		redirectURL = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     strings.TrimSpace(clientID),
		ClientSecret: strings.TrimSpace(clientSecret),
		Endpoint:     twitch.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
	}
}

// AuthorizeURL возвращает ссылку, по которой владелец бота выдаёт права.
func AuthorizeURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.SetAuthURLParam("force_verify", "true"))
}

// Exchange обменивает код авторизации на учётные данные.
func Exchange(ctx context.Context, conf *oauth2.Config, code string) (tokens.Credentials, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return tokens.Credentials{}, errors.New("twitch oauth: empty authorization code")
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return tokens.Credentials{}, fmt.Errorf("twitch oauth: exchange code: %w", err)
	}
	if tok.RefreshToken == "" {
		return tokens.Credentials{}, errors.New("twitch oauth: response has no refresh token")
	}

	return tokens.FromOAuth2(tok), nil
}
