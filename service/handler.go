package service

import (
	"context"
	"fmt"
	"log/slog"

	"twitch-notify-relay/format"
	"twitch-notify-relay/metrics"
	"twitch-notify-relay/model"
)

// ChatSender отправляет ответ бота в канал чата.
type ChatSender interface {
	Action(channel, text string) error
}

// LogPoster публикует запись в лог-канале.
type LogPoster interface {
	Post(ctx context.Context, entry model.LogEntry) error
}

// Handler реализует twitch.ChatHandler и twitch.ModerationHandler: форматирует события и отправляет результат в приёмники.
type Handler struct {
	chat       ChatSender
	logChannel LogPoster
	moderation *format.Moderation
	gifts      *GiftLedger
	metrics    *metrics.Metrics
}

// NewHandler собирает Handler. Счётчик подарков принадлежит Handler.
func NewHandler(chat ChatSender, logChannel LogPoster, moderation *format.Moderation, m *metrics.Metrics) *Handler {
	return &Handler{
		chat:       chat,
		logChannel: logChannel,
		moderation: moderation,
		gifts:      NewGiftLedger(),
		metrics:    m,
	}
}

// Gifts возвращает счётчик подарочных подписок.
func (h *Handler) Gifts() *GiftLedger {
	return h.gifts
}

// HandleChatEvent отвечает в исходный канал, если событие этого требует.
func (h *Handler) HandleChatEvent(_ context.Context, ev model.ChatEvent) {
	kind := eventKind(ev)
	h.metrics.EventsTotal.WithLabelValues(kind).Inc()

	text, ok := h.reply(ev)
	h.metrics.OutstandingGifts.Set(float64(h.gifts.Outstanding()))
	if !ok {
		if kind == "subgift" {
			h.metrics.SendsTotal.WithLabelValues(metrics.SinkChat, metrics.ResultSuppressed).Inc()
		}
		return
	}

	channel := ev.ChannelName()
	if err := h.chat.Action(channel, text); err != nil {
		h.metrics.SendsTotal.WithLabelValues(metrics.SinkChat, metrics.ResultError).Inc()
		slog.Error("chat: не удалось отправить ответ", slog.String("channel", channel), slog.String("kind", kind), slog.Any("err", err))
		return
	}

	h.metrics.SendsTotal.WithLabelValues(metrics.SinkChat, metrics.ResultOK).Inc()
	slog.Info("chat: ответ отправлен", slog.String("channel", channel), slog.String("text", text))
}

func (h *Handler) reply(ev model.ChatEvent) (string, bool) {
	switch e := ev.(type) {
	case model.ChatMessage:
		return "", false
	case model.Cheer:
		if e.Bits <= 0 {
			return "", false
		}
		return format.CheerMessage(e.User.Name(), e.Bits), true
	case model.CommunityGift:
		h.gifts.Add(e.Gifter, e.Count)
		return format.CommunityGiftMessage(e.Gifter.Name(), e.Count), true
	case model.SubGift:
		if h.gifts.Consume(e.Gifter) {
			return "", false
		}
		return format.SubGiftMessage(e.Gifter.Name(), e.Recipient.Name()), true
	case model.NewSub:
		return format.NewSubMessage(e.User.Name()), true
	case model.Resub:
		return format.ResubMessage(e.User.Name(), e.Months), true
	case model.Host:
		return format.HostMessage(e.Host.Name(), e.Viewers, e.Auto), true
	default:
		slog.Error("chat: необработанный тип события", slog.String("type", fmt.Sprintf("%T", ev)))
		return "", false
	}
}

// HandleModeration пишет действие в журнал процесса и публикует запись в лог-канал.
func (h *Handler) HandleModeration(ctx context.Context, ev model.ModerationEvent) {
	h.metrics.EventsTotal.WithLabelValues("mod_" + string(ev.Action)).Inc()

	entry, ok := h.moderation.Entry(ev)
	if !ok {
		slog.Debug("moderation: действие пропущено", slog.String("action", string(ev.Action)))
		return
	}
	slog.Info(format.ConsoleLine(ev), slog.String("action", string(ev.Action)))

	if err := h.logChannel.Post(ctx, entry); err != nil {
		h.metrics.SendsTotal.WithLabelValues(metrics.SinkLog, metrics.ResultError).Inc()
		slog.Error("log channel: не удалось опубликовать запись", slog.String("action", string(ev.Action)), slog.Any("err", err))
		return
	}
	h.metrics.SendsTotal.WithLabelValues(metrics.SinkLog, metrics.ResultOK).Inc()
}

func eventKind(ev model.ChatEvent) string {
	switch ev.(type) {
	case model.ChatMessage:
		return "message"
	case model.Cheer:
		return "cheer"
	case model.CommunityGift:
		return "community_gift"
	case model.SubGift:
		return "subgift"
	case model.NewSub:
		return "sub"
	case model.Resub:
		return "resub"
	case model.Host:
		return "host"
	default:
		return "unknown"
	}
}
