// Package core holds the commands that work without a playback session.
package core

import (
	"time"

	"github.com/keshon/deejay/internal/command"
	"github.com/keshon/deejay/pkg/cmd"
)

// Deps are shared by the core commands.
type Deps struct {
	Commands *cmd.Registry
	Sessions func() int
	// Jobs summarizes the pending background timers.
	Jobs    func() string
	Started time.Time
}

// Register adds every core command to reg.
func Register(reg *cmd.Registry, d *Deps, mws ...cmd.Middleware) {
	for _, c := range []command.DiscordCommand{
		&HelpCommand{d}, &InviteCommand{}, &StatusCommand{d},
	} {
		command.RegisterCommand(reg, c, mws...)
	}
}
