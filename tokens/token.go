package tokens

import (
	"errors"
	"time"

	"golang.org/x/oauth2"
)

var (
	// ErrMalformed — файл токенов не удалось разобрать.
	ErrMalformed = errors.New("malformed token file")
	// ErrPersist — обновлённые учётные данные не удалось сохранить.
	ErrPersist = errors.New("persist refreshed credentials")
)

// Credentials описывает пользовательский OAuth токен Twitch.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	// Expiry равен nil, если срок действия неизвестен.
	Expiry *time.Time
}

// Store описывает хранилище учётных данных.
type Store interface {
	Load() (Credentials, error)
	Save(Credentials) error
}

// OAuth2Token переводит учётные данные в токен oauth2.
func (c Credentials) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
	if c.Expiry != nil {
		tok.Expiry = *c.Expiry
	}
	return tok
}

// FromOAuth2 строит учётные данные из токена oauth2; нулевой Expiry становится nil.
func FromOAuth2(tok *oauth2.Token) Credentials {
	creds := Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		creds.Expiry = &expiry
	}
	return creds
}
