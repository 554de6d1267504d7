package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named struct {
	name string
	ran  *[]string
}

func (n named) Name() string        { return n.name }
func (n named) Description() string { return "desc " + n.name }
func (n named) Run(context.Context, *Invocation) error {
	*n.ran = append(*n.ran, n.name)
	return nil
}

func tag(label string, trail *[]string) Middleware {
	return func(c Command) Command {
		return Wrap(c, func(ctx context.Context, inv *Invocation) error {
			*trail = append(*trail, label)
			return c.Run(ctx, inv)
		})
	}
}

func TestApplyOrderAndRoot(t *testing.T) {
	var trail []string
	base := named{name: "play", ran: &trail}
	c := Apply(base, tag("inner", &trail), tag("outer", &trail))

	require.NoError(t, c.Run(context.Background(), &Invocation{}))
	assert.Equal(t, []string{"outer", "inner", "play"}, trail)
	assert.Equal(t, "play", c.Name())
	assert.Equal(t, "desc play", c.Description())
	assert.Equal(t, base, Root(c))
}

func TestRegistry(t *testing.T) {
	var trail []string
	r := NewRegistry()
	r.Register(named{name: "skip", ran: &trail})
	r.Register(named{name: "play", ran: &trail})

	assert.Nil(t, r.Get("missing"))
	require.NotNil(t, r.Get("play"))

	all := r.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "play", all[0].Name())
	assert.Equal(t, "skip", all[1].Name())
}
