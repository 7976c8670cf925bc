package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Runner — долгоживущий компонент, блокирующийся до отмены контекста или ошибки.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc адаптирует функцию к Runner.
type RunnerFunc func(ctx context.Context) error

// Run реализует Runner.
func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }

type part struct {
	name   string
	runner Runner
}

// Service управляет жизненным циклом клиентов Twitch, ленты модерации и обновления токенов.
type Service struct {
	parts []part
}

// New создаёт пустой Service.
func New() *Service {
	return &Service{}
}

// Add регистрирует компонент под именем name.
func (s *Service) Add(name string, r Runner) *Service {
	s.parts = append(s.parts, part{name: name, runner: r})
	return s
}

// Run запускает все компоненты и блокируется до отмены контекста или первой ошибки.
// Ошибка любого компонента останавливает остальные.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, p := range s.parts {
		p := p
		g.Go(func() error {
			slog.Info("service: компонент запущен", slog.String("component", p.name))
			err := p.runner.Run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s: %w", p.name, err)
			}
			slog.Info("service: компонент остановлен", slog.String("component", p.name))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
