// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How it is registered and
// dispatched is defined by adapters that wrap this.
package cmd

import "context"

// Invocation carries an opaque payload set by the adapter, e.g. the Discord
// session and interaction.
type Invocation struct {
	Data any
}

// Command is the universal contract: identity plus execution. Permissions,
// options and transport-specific registration stay in adapters.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
