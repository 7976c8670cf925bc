package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"twitch-notify-relay/model"
)

// Ограничения Discord на размер embed.
const (
	maxTitleLen      = 256
	maxFieldNameLen  = 256
	maxFieldValueLen = 1024
	maxFields        = 25
)

// session — подмножество discordgo.Session, используемое клиентом.
type session interface {
	Open() error
	Close() error
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Client публикует записи журнала модерации в канал Discord.
type Client struct {
	session   session
	channelID string
}

// Open авторизует бота и проверяет, что канал журнала существует.
// Любая ошибка здесь фатальна для запуска.
func Open(ctx context.Context, token, channelID string) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("discord: empty bot token")
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: new session: %w", err)
	}
	return open(ctx, s, channelID)
}

func open(ctx context.Context, s session, channelID string) (*Client, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, errors.New("discord: empty log channel id")
	}

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("discord: login: %w", err)
	}
	slog.Info("discord: клиент подключен")

	ch, err := s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("discord: fetch log channel %s: %w", channelID, err)
	}
	slog.Info("discord: канал журнала найден", slog.String("channel", ch.Name), slog.String("channel_id", ch.ID))

	return &Client{session: s, channelID: channelID}, nil
}

// Post отправляет запись как embed в канал журнала.
func (c *Client) Post(ctx context.Context, entry model.LogEntry) error {
	if _, err := c.session.ChannelMessageSendEmbed(c.channelID, toEmbed(entry), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}

// Close закрывает websocket-сессию Discord.
func (c *Client) Close() error {
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("discord: close: %w", err)
	}
	return nil
}

func toEmbed(entry model.LogEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: truncate(entry.Title, maxTitleLen),
		Color: int(entry.Color),
	}
	if !entry.Timestamp.IsZero() {
		embed.Timestamp = entry.Timestamp.UTC().Format(time.RFC3339)
	}

	for i, f := range entry.Fields {
		if i == maxFields {
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  truncate(f.Label, maxFieldNameLen),
			Value: truncate(f.Value, maxFieldValueLen),
		})
	}
	return embed
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
