package tokens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"
)

// RefreshFunc вызывается при каждой ротации токена.
type RefreshFunc func(ctx context.Context, creds Credentials) error

// RefreshingSource оборачивает источник токенов oauth2 и уведомляет подписчиков о ротации.
// Первый подписчик обычно сохраняет токен в Store; его ошибка фатальна.
type RefreshingSource struct {
	base oauth2.TokenSource

	mu        sync.Mutex
	current   Credentials
	listeners []RefreshFunc
}

// NewRefreshingSource создаёт источник, который считает текущими переданные учётные данные.
func NewRefreshingSource(base oauth2.TokenSource, current Credentials, listeners ...RefreshFunc) *RefreshingSource {
	return &RefreshingSource{
		base:      base,
		current:   current,
		listeners: listeners,
	}
}

// NewTwitchSource собирает RefreshingSource поверх oauth2.Config: ротация сохраняется в store.
func NewTwitchSource(ctx context.Context, conf *oauth2.Config, store Store, current Credentials) *RefreshingSource {
	tok := current.OAuth2Token()
	base := oauth2.ReuseTokenSource(tok, conf.TokenSource(ctx, tok))
	return NewRefreshingSource(base, current, func(_ context.Context, creds Credentials) error {
		return store.Save(creds)
	})
}

// OnRefresh добавляет подписчика на ротацию и возвращает учётные данные,
// актуальные на момент подписки. Ротации до подписки подписчик не получает.
func (s *RefreshingSource) OnRefresh(fn RefreshFunc) Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
	return s.current
}

// Token реализует oauth2.TokenSource.
func (s *RefreshingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == s.current.AccessToken {
		return tok, nil
	}

	creds := FromOAuth2(tok)
	for i, fn := range s.listeners {
		if err := fn(context.Background(), creds); err != nil {
			if i == 0 {
				return nil, fmt.Errorf("%w: %w", ErrPersist, err)
			}
			slog.Warn("twitch: подписчик на ротацию токена вернул ошибку", slog.Any("err", err))
		}
	}
	s.current = creds

	expiry := "unknown"
	if creds.Expiry != nil {
		expiry = creds.Expiry.Format(time.RFC3339)
	}
	slog.Info("twitch: токен обновлён", slog.String("expires_at", expiry))

	return tok, nil
}

// Refresher периодически запрашивает токен, чтобы ротация происходила до истечения срока.
type Refresher struct {
	source   oauth2.TokenSource
	interval time.Duration
	clock    clockwork.Clock
	observe  func(err error)
}

// NewRefresher создаёт Refresher. observe вызывается после каждой попытки, может быть nil.
func NewRefresher(source oauth2.TokenSource, interval time.Duration, clock clockwork.Clock, observe func(error)) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Refresher{source: source, interval: interval, clock: clock, observe: observe}
}

// Run блокируется до отмены контекста. Возвращает ошибку только если не удалось сохранить токен.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if err := r.refreshOnce(); err != nil {
				return err
			}
		}
	}
}

func (r *Refresher) refreshOnce() error {
	_, err := r.source.Token()
	if r.observe != nil {
		r.observe(err)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPersist) {
		return err
	}
	slog.Warn("twitch: не удалось обновить токен, повтор на следующем тике", slog.Any("err", err))
	return nil
}
