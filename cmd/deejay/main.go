// cmd/deejay/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/keshon/deejay/internal/command/core"
	"github.com/keshon/deejay/internal/command/music"
	"github.com/keshon/deejay/internal/config"
	"github.com/keshon/deejay/internal/discord"
	"github.com/keshon/deejay/internal/logging"
	"github.com/keshon/deejay/internal/middleware"
	"github.com/keshon/deejay/internal/music/inactivity"
	"github.com/keshon/deejay/internal/music/lavalink"
	"github.com/keshon/deejay/internal/music/lyrics"
	"github.com/keshon/deejay/internal/music/player"
	"github.com/keshon/deejay/internal/music/status"
	"github.com/keshon/deejay/pkg/cmd"
	"github.com/keshon/deejay/pkg/jobmgr"
)

const nodeReadyTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "deejay:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closer, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Info().Msgf("Starting %s bot...", status.BotName)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create Discord session: %w", err)
	}
	me, err := dg.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("fetch bot user: %w", err)
	}
	botID, err := snowflake.Parse(me.ID)
	if err != nil {
		return fmt.Errorf("parse bot user id: %w", err)
	}

	node := lavalink.NewNode(lavalink.Config{
		Host:     cfg.LavaHost,
		Port:     cfg.LavaPort,
		Password: cfg.LavaPass,
		Secure:   cfg.LavaSecure,
		UserID:   botID,
	}, logger)

	jobs := jobmgr.NewManager(nil)
	voice := discord.NewVoice(dg)
	registry := player.NewRegistry(player.Deps{
		Backends: func(guildID snowflake.ID) player.Backend { return node.Player(guildID) },
		Voice:    voice,
		Sink:     discord.NewStatusSink(dg),
		Activity: inactivity.New(jobs, cfg.InactivityTimeout, logger),
		Jobs:     jobs,
		Logger:   logger,
		Options: player.Options{
			Limits:        cfg.Limits(),
			DefaultVolume: cfg.DefaultVolume,
			DeleteDelay:   cfg.StatusDeleteDelay,
		},
	})
	controls := player.NewControls(registry, voice)

	commands := cmd.NewRegistry()
	mws := []cmd.Middleware{middleware.WithGuildOnly()}
	if cfg.StrictVoiceCommands {
		mws = append(mws, middleware.WithSameVoiceChannel(controls))
	}
	mws = append(mws, middleware.WithCommandLogger(logger))

	music.Register(commands, &music.Deps{
		Registry:     registry,
		Voice:        voice,
		Resolver:     lavalink.NewResolver(node.Rest()),
		Lyrics:       lyrics.New(cfg.LyricsURL),
		Provider:     cfg.Provider(),
		DisplayLimit: cfg.QueueDisplayLimit,
	}, mws...)
	core.Register(commands, &core.Deps{
		Commands: commands,
		Sessions: registry.Len,
		Jobs:     jobs.Status,
		Started:  time.Now(),
	}, mws...)

	bot := discord.NewBot(dg, discord.Deps{
		Registry:  registry,
		Controls:  controls,
		Node:      node,
		Commands:  commands,
		Blacklist: cfg.Blacklisted,
		HashDir:   cfg.CommandHashDir,
		Logger:    logger,
	})

	go func() {
		if err := node.Run(ctx, registry); err != nil {
			logger.Error().Err(err).Msg("Lavalink node stopped")
			cancel()
		}
	}()

	wctx, wcancel := context.WithTimeout(ctx, nodeReadyTimeout)
	err = node.WaitReady(wctx)
	wcancel()
	if ctx.Err() != nil {
		logger.Info().Msg("Interrupted before Lavalink was ready")
		return nil
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Lavalink is not ready yet, continuing")
	}

	if err := bot.Run(ctx); err != nil {
		return err
	}
	logger.Info().Msg("Discord bot exited cleanly")
	return nil
}
