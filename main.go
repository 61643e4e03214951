package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"report-bot/bot"
	"report-bot/config"
	"report-bot/events"
	"report-bot/handlers"
	"report-bot/lang"
	"report-bot/metrics"
	"report-bot/reports"
	"report-bot/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to config file")
	cleanup := flag.Bool("cleanup", false, "Remove slash commands on shutdown")
	example := flag.String("write-example-config", "", "Write an example config to this path and exit")
	flag.Parse()

	if *example != "" {
		if err := config.SaveConfig(config.Example(), *example); err != nil {
			log.WithError(err).Fatal("Failed to write example config")
		}
		log.Printf("Wrote example config to %s", *example)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}
	setupLogging(cfg.Log)
	if cfg.Discord.Token == "" || cfg.Discord.Token == "YOUR_DISCORD_BOT_TOKEN_HERE" {
		log.Fatal("Set your bot token in config.json → discord.token or REPORTBOT_TOKEN")
	}
	if cfg.Discord.GuildID == "" {
		log.Fatal("Set discord.guild_id in config.json")
	}

	lang.Load(cfg.LangPath)

	bans, err := storage.InitBans(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to open ban database")
	}
	defer bans.Close()

	pub, err := events.New(&cfg.Events)
	if err != nil {
		log.WithError(err).Warn("Event publishing disabled")
		pub = events.Noop{}
	}
	defer pub.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		srv := metrics.Serve(cfg.Metrics.Listen, reg)
		defer srv.Close()
	}

	b, err := bot.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to create bot")
	}

	svc := reports.New(cfg.Discord.GuildID, cfg.Reports, reports.Deps{
		Session:   b.Session,
		Bans:      bans,
		Events:    pub,
		Metrics:   m,
		BotUserID: b.UserID,
		BanGuilds: b.BanGuilds,
	})
	if err := svc.Restore(); err != nil {
		log.WithError(err).Warn("Could not restore scheduled ticket deletions")
	}
	defer svc.Stop()

	handlers.New(cfg, svc).Register(b.Session)

	if err := b.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start bot")
	}
	defer b.Stop()

	b.RegisterCommands(handlers.Commands())

	log.Println("Bot is running. Press Ctrl+C to exit.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	for s := range sig {
		if s == syscall.SIGHUP {
			log.Printf("Reloading messages from %s", cfg.LangPath)
			lang.Reload(cfg.LangPath)
			continue
		}
		break
	}

	log.Println("Shutting down...")
	if *cleanup {
		b.CleanupCommands()
	}
}

func setupLogging(c config.LogConfig) {
	if c.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			DisableColors:    true,
			FullTimestamp:    true,
			TimestampFormat:  "2006-01-02 15:04:05",
			QuoteEmptyFields: true,
		})
	}
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(c.Level)
	if err != nil {
		log.WithError(err).Warnf("Unknown log level %q, using info", c.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
