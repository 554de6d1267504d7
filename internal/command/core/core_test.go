package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/deejay/pkg/cmd"
	"github.com/keshon/deejay/pkg/jobmgr"
)

func TestBuildHelp(t *testing.T) {
	reg := cmd.NewRegistry()
	Register(reg, &Deps{Commands: reg})

	out := buildHelp(reg.GetAll())
	assert.True(t, strings.HasPrefix(out, "**General**"))
	assert.Contains(t, out, "`/help` - Get a list of available commands")
	assert.Less(t, strings.Index(out, "`/help`"), strings.Index(out, "`/invite`"))
	assert.Less(t, strings.Index(out, "`/invite`"), strings.Index(out, "`/status`"))
}

func TestInviteText(t *testing.T) {
	assert.Equal(t,
		"Invite Link: \nhttps://discord.com/oauth2/authorize?client_id=123&scope=bot&permissions=397556132976",
		inviteText("123"))
}

func TestStatusText(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	jobs := jobmgr.NewManager(nil)
	c := &StatusCommand{&Deps{Started: started, Sessions: func() int { return 2 }, Jobs: jobs.Status}}

	lines := strings.Split(c.text(started.Add(90*time.Minute)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "DJ X is online and ready to play some music!", lines[0])
	assert.Equal(t, "Up since 2026-03-01 12:00 UTC (1h30m0s)", lines[1])
	assert.Equal(t, "Playing in 2 servers", lines[2])
	assert.Equal(t, "No jobs are running.", lines[3])

	require.NoError(t, jobs.StartAfter("idle:42", time.Hour, func(context.Context) error { return nil }))
	defer func() { _ = jobs.Stop("idle:42") }()
	assert.Contains(t, c.text(started), "Running jobs: idle:42")

	bare := &StatusCommand{&Deps{}}
	assert.Equal(t, "DJ X is online and ready to play some music!", bare.text(started))
}
