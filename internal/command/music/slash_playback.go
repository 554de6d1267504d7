package music

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/deejay/internal/command"
	"github.com/keshon/deejay/internal/music/player"
	"github.com/keshon/deejay/internal/music/state"
)

func definition(name, description string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: name, Description: description, Options: opts}
}

type StopCommand struct{ *Deps }

func (c *StopCommand) Name() string        { return "stop" }
func (c *StopCommand) Description() string { return "Stop playback and clear the queue" }
func (c *StopCommand) Group() string       { return command.GroupPlayback }

func (c *StopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return definition(c.Name(), c.Description())
}

func (c *StopCommand) Run(ctx context.Context, sc *command.SlashInteractionContext) error {
	return c.withSession(sc, func(s *player.Session) (string, error) {
		return "Stopped", s.Stop(ctx)
	})
}

type SkipCommand struct{ *Deps }

func (c *SkipCommand) Name() string        { return "skip" }
func (c *SkipCommand) Description() string { return "Skip the current track or remove queued ones" }
func (c *SkipCommand) Group() string       { return command.GroupPlayback }

func (c *SkipCommand) SlashDefinition() *discordgo.ApplicationCommand {
	one := float64(1)
	return definition(c.Name(), c.Description(),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "position",
			Description: "Queue position to start removing from",
			MinValue:    &one,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "quantity",
			Description: "How many tracks to skip",
			MinValue:    &one,
		},
	)
}

func (c *SkipCommand) Run(ctx context.Context, sc *command.SlashInteractionContext) error {
	opts := command.Options(sc.Event)
	pos := intOption(opts, "position", 0)
	qty := intOption(opts, "quantity", 1)
	return c.withSession(sc, func(s *player.Session) (string, error) {
		res, err := s.Skip(ctx, pos, qty)
		if err != nil {
			return "", err
		}
		return skipText(res.Skipped, pos), nil
	})
}

func skipText(skipped, pos int) string {
	if pos > 0 {
		return fmt.Sprintf("Skipped %d songs from position %d", skipped, pos)
	}
	return fmt.Sprintf("Skipped %d songs", skipped)
}

type PauseCommand struct{ *Deps }

func (c *PauseCommand) Name() string        { return "pause" }
func (c *PauseCommand) Description() string { return "Pause playback" }
func (c *PauseCommand) Group() string       { return command.GroupPlayback }

func (c *PauseCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return definition(c.Name(), c.Description())
}

func (c *PauseCommand) Run(ctx context.Context, sc *command.SlashInteractionContext) error {
	return c.withSession(sc, func(s *player.Session) (string, error) {
		return "Paused", s.Pause(ctx)
	})
}

type ResumeCommand struct{ *Deps }

func (c *ResumeCommand) Name() string        { return "resume" }
func (c *ResumeCommand) Description() string { return "Resume playback" }
func (c *ResumeCommand) Group() string       { return command.GroupPlayback }

func (c *ResumeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return definition(c.Name(), c.Description())
}

func (c *ResumeCommand) Run(ctx context.Context, sc *command.SlashInteractionContext) error {
	return c.withSession(sc, func(s *player.Session) (string, error) {
		return "Resumed", s.Resume(ctx)
	})
}

type VolumeCommand struct{ *Deps }

func (c *VolumeCommand) Name() string        { return "volume" }
func (c *VolumeCommand) Description() string { return "Set the player volume" }
func (c *VolumeCommand) Group() string       { return command.GroupPlayback }

func (c *VolumeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	minV, maxV := float64(state.MinVolume), float64(state.MaxVolume)
	return definition(c.Name(), c.Description(), &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "level",
		Description: fmt.Sprintf("Volume from %d to %d", state.MinVolume, state.MaxVolume),
		Required:    true,
		MinValue:    &minV,
		MaxValue:    maxV,
	})
}

func (c *VolumeCommand) Run(ctx context.Context, sc *command.SlashInteractionContext) error {
	// Out of range levels are clamped by the session.
	level := intOption(command.Options(sc.Event), "level", state.MinVolume)
	return c.withSession(sc, func(s *player.Session) (string, error) {
		v, err := s.SetVolume(ctx, level)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Volume set to %d", v), nil
	})
}

type RepeatCommand struct{ *Deps }

func (c *RepeatCommand) Name() string        { return "repeat" }
func (c *RepeatCommand) Description() string { return "Set the repeat mode" }
func (c *RepeatCommand) Group() string       { return command.GroupPlayback }

func (c *RepeatCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return definition(c.Name(), c.Description(), &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "mode",
		Description: "Repeat mode",
		Required:    true,
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "Off", Value: "off"},
			{Name: "Track", Value: "track"},
			{Name: "Queue", Value: "queue"},
		},
	})
}

func (c *RepeatCommand) Run(ctx context.Context, sc *command.SlashInteractionContext) error {
	mode, err := state.ParseRepeatMode(stringOption(command.Options(sc.Event), "mode"))
	if err != nil {
		return fail(sc, fmt.Errorf("%w: %w", player.ErrInvalidArgument, err))
	}
	return c.withSession(sc, func(s *player.Session) (string, error) {
		if err := s.SetRepeat(ctx, mode); err != nil {
			return "", err
		}
		return fmt.Sprintf("Repeat mode set to %s", mode), nil
	})
}

type ShuffleCommand struct{ *Deps }

func (c *ShuffleCommand) Name() string        { return "shuffle" }
func (c *ShuffleCommand) Description() string { return "Toggle shuffle" }
func (c *ShuffleCommand) Group() string       { return command.GroupPlayback }

func (c *ShuffleCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return definition(c.Name(), c.Description())
}

func (c *ShuffleCommand) Run(ctx context.Context, sc *command.SlashInteractionContext) error {
	return c.withSession(sc, func(s *player.Session) (string, error) {
		on, err := s.ToggleShuffle(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Shuffle set to %t", on), nil
	})
}
