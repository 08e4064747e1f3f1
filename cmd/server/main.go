package main

import (
	"flag"
	"log"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"subgate/bot"
	"subgate/internal/config"
	"subgate/internal/http-server/api"
	"subgate/internal/registry"
	"subgate/internal/storage"
	"subgate/internal/sweeper"
	"subgate/lib/logger"
	"subgate/lib/sl"
)

const logFileName = "subgate.log"

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	lg.Info("starting subgate",
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		sl.Secret("bot_token", conf.Telegram.ApiKey),
	)

	if conf.Telegram.AdminId == 0 {
		log.Fatal("telegram admin_id is not configured")
	}

	store, err := storage.New(conf, lg)
	if err != nil {
		log.Fatal("storage: ", err)
	}
	gates := registry.New(store, lg)

	tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.AdminId, gates, lg)
	if err != nil {
		log.Fatal("telegram bot: ", err)
	}

	interval := time.Duration(conf.Sweep.IntervalSec) * time.Second
	sweep := sweeper.New(gates, tgBot, interval, lg)
	sweep.Start()
	defer sweep.Stop()

	// Liveness endpoint runs on its own goroutine and never touches the
	// registry.
	if err = api.Start(conf, lg, uuid.NewString()); err != nil {
		log.Fatal("api server: ", err)
	}

	if err = tgBot.Start(); err != nil {
		lg.Error("telegram bot stopped", sl.Err(err))
	}
}
