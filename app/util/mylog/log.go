package mylog

import (
	"context"
	"ecodigest/app/config"
	"log/slog"
	"os"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
)

// TelegramKey marks a record that should also reach the telegram sink.
const TelegramKey = "telegram"

// Preinit logs everything to the console until the config is loaded.
func Preinit() {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})))
}

func Init(cfg *config.Config) error {
	slog.SetDefault(slog.New(NewHandler(cfg.Log)))

	return nil
}

// NewHandler routes records to the console and, when a bot token is set,
// to the telegram chat.
func NewHandler(cfg config.Log) slog.Handler {
	router := slogmulti.Router().Add(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: cfg.Source,
		Level:     ParseLevel(cfg.Level),
	}))

	if cfg.Telegram.Token != "" {
		router = router.Add(
			slogtelegram.Option{
				Level:     slog.LevelDebug,
				Token:     cfg.Telegram.Token,
				Username:  cfg.Telegram.ChatID,
				AddSource: cfg.Source,
			}.NewTelegramHandler(),
			telegramFilter(ParseLevel(cfg.Telegram.Level)),
		)
	}

	return router.Handler()
}

func telegramFilter(minLevel slog.Level) func(context.Context, slog.Record) bool {
	return func(_ context.Context, r slog.Record) bool {
		if r.Level >= minLevel {
			return true
		}

		tagged := false
		r.Attrs(func(attr slog.Attr) bool {
			if attr.Key == TelegramKey && attr.Value.Kind() == slog.KindBool && attr.Value.Bool() {
				tagged = true
				return false
			}

			return true
		})

		return tagged
	}
}

func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
