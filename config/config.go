package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Config агрегирует значения конфигурации из переменных окружения.
type Config struct {
	Twitch          TwitchConfig
	Discord         DiscordConfig
	TokensFile      string
	LogTitle        string
	RefreshInterval time.Duration
	MetricsAddr     string
	LogLevel        string
	LogFormat       string
}

// TwitchConfig содержит учётные данные приложения и каналы для Twitch.
type TwitchConfig struct {
	ClientID     string
	ClientSecret string
	BotUsername  string
	Channels     []string
}

// DiscordConfig содержит токен бота и канал для журнала модерации.
type DiscordConfig struct {
	BotToken     string
	LogChannelID string
}

// rawEnv отражает переменные окружения один к одному.
type rawEnv struct {
	TwitchClientID       string        `env:"TWITCH_CLIENT_ID"`
	TwitchClientSecret   string        `env:"TWITCH_CLIENT_SECRET"`
	TwitchBotUsername    string        `env:"TWITCH_BOT_USERNAME"`
	TwitchChannels       string        `env:"TWITCH_CHANNELS"`
	DiscordBotToken      string        `env:"DISCORD_BOT_TOKEN"`
	DiscordLogChannelID  string        `env:"DISCORD_LOG_CHANNEL_ID"`
	TokensFile           string        `env:"TOKENS_FILE" default:"./tokens.json"`
	LogTitle             string        `env:"LOG_TITLE" default:"New Chat Event"`
	TokenRefreshInterval time.Duration `env:"TOKEN_REFRESH_INTERVAL" default:"5m"`
	MetricsAddr          string        `env:"METRICS_ADDR"`
	LogLevel             string        `env:"LOG_LEVEL" default:"info"`
	LogFormat            string        `env:"LOG_FORMAT" default:"text"`
}

// Load читает .env (если есть) и переменные окружения и возвращает валидированную Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	var raw rawEnv
	if err := env.Load(&raw, nil); err != nil {
		return Config{}, fmt.Errorf("config: load env: %w", err)
	}

	cfg := Config{
		Twitch: TwitchConfig{
			ClientID:     strings.TrimSpace(raw.TwitchClientID),
			ClientSecret: strings.TrimSpace(raw.TwitchClientSecret),
			BotUsername:  strings.ToLower(strings.TrimSpace(raw.TwitchBotUsername)),
			Channels:     splitAndTrim(raw.TwitchChannels),
		},
		Discord: DiscordConfig{
			BotToken:     strings.TrimSpace(raw.DiscordBotToken),
			LogChannelID: strings.TrimSpace(raw.DiscordLogChannelID),
		},
		TokensFile:      strings.TrimSpace(raw.TokensFile),
		LogTitle:        strings.TrimSpace(raw.LogTitle),
		RefreshInterval: raw.TokenRefreshInterval,
		MetricsAddr:     strings.TrimSpace(raw.MetricsAddr),
		LogLevel:        raw.LogLevel,
		LogFormat:       raw.LogFormat,
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Twitch.ClientID == "" {
		return fmt.Errorf("требуется TWITCH_CLIENT_ID")
	}
	if c.Twitch.ClientSecret == "" {
		return fmt.Errorf("требуется TWITCH_CLIENT_SECRET")
	}
	if len(c.Twitch.Channels) == 0 {
		return fmt.Errorf("требуется TWITCH_CHANNELS")
	}

	if c.Discord.BotToken == "" {
		return fmt.Errorf("требуется DISCORD_BOT_TOKEN")
	}
	if c.Discord.LogChannelID == "" {
		return fmt.Errorf("требуется DISCORD_LOG_CHANNEL_ID")
	}

	if c.TokensFile == "" {
		return fmt.Errorf("TOKENS_FILE не может быть пустым")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("TOKEN_REFRESH_INTERVAL должен быть больше нуля")
	}

	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), "#")))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
