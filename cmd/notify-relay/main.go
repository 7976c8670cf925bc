package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"

	"twitch-notify-relay/auth"
	"twitch-notify-relay/config"
	"twitch-notify-relay/discord"
	"twitch-notify-relay/format"
	"twitch-notify-relay/logging"
	"twitch-notify-relay/metrics"
	"twitch-notify-relay/service"
	"twitch-notify-relay/tokens"
	"twitch-notify-relay/twitch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init("info", "text")
		fatal("config load failed", err)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := tokens.FileStore{Path: cfg.TokensFile}
	creds, err := store.Load()
	if err != nil {
		fatal("load tokens failed (run twitch-auth first)", err)
	}

	oauthConf := auth.NewOAuthConfig(cfg.Twitch.ClientID, cfg.Twitch.ClientSecret, "")
	src := tokens.NewTwitchSource(ctx, oauthConf, store, creds)

	helixClient, err := twitch.NewHelix(cfg.Twitch.ClientID, creds.AccessToken, oauth2.NewClient(ctx, src))
	if err != nil {
		fatal("helix init failed", err)
	}
	bot, err := helixClient.CurrentUser(ctx)
	if err != nil {
		fatal("resolve bot user failed", err)
	}
	broadcaster, err := helixClient.LookupUser(ctx, cfg.Twitch.Channels[0])
	if err != nil {
		fatal("resolve broadcaster failed", err)
	}

	username := cfg.Twitch.BotUsername
	if username == "" {
		username = bot.Login
	}

	logChannel, err := discord.Open(ctx, cfg.Discord.BotToken, cfg.Discord.LogChannelID)
	if err != nil {
		fatal("discord login failed", err)
	}
	defer func() {
		if err := logChannel.Close(); err != nil {
			slog.Warn("discord close", slog.Any("err", err))
		}
	}()

	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	clock := clockwork.NewRealClock()

	var (
		client  *twitch.Client
		handler *service.Handler
	)
	chat := chatSender(func(channel, text string) error { return client.Action(channel, text) })
	handler = service.NewHandler(chat, logChannel, format.NewModeration(cfg.LogTitle, clock), m)
	client = twitch.NewClient(cfg.Twitch, username, creds.AccessToken, handler)
	// Helix мог уже сменить токен при запуске: клиент получает актуальный.
	if err := client.UpdateToken(ctx, src.OnRefresh(client.UpdateToken)); err != nil {
		fatal("irc token update failed", err)
	}

	listener := twitch.NewModerationListener(
		twitch.DefaultEventSubURL,
		helixClient.NewModerationSubscription(broadcaster.ID, bot.ID),
		handler,
	)
	refresher := tokens.NewRefresher(src, cfg.RefreshInterval, clock, m.ObserveRefresh)

	srv := service.New().
		Add("twitch irc", client).
		Add("eventsub", listener).
		Add("token refresher", refresher)
	if cfg.MetricsAddr != "" {
		srv.Add("metrics", service.RunnerFunc(func(ctx context.Context) error {
			return metrics.Serve(ctx, cfg.MetricsAddr, reg)
		}))
	}

	slog.Info("relay started",
		slog.String("bot", username),
		slog.Any("channels", cfg.Twitch.Channels),
		slog.String("broadcaster_id", broadcaster.ID),
	)

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fatal("service run failed", err)
	}

	slog.Info("shutting down...")
}

// chatSender отвязывает Handler от клиента, который создаётся после него.
type chatSender func(channel, text string) error

func (f chatSender) Action(channel, text string) error { return f(channel, text) }

func fatal(msg string, err error) {
	slog.Error(msg, slog.Any("err", err))
	os.Exit(1)
}
