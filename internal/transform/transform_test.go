package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/xpigraph/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence_Run(t *testing.T) {
	ctx := context.Background()
	double := Step{Name: "double", Fn: func(_ context.Context, _ *Config, tasks []*task.Task) ([]*task.Task, error) {
		var out []*task.Task
		for _, tk := range tasks {
			a, b := tk.Clone(), tk.Clone()
			a.Name += "-a"
			b.Name += "-b"
			out = append(out, a, b)
		}
		return out, nil
	}}
	label := Step{Name: "label", Fn: Each(func(_ context.Context, _ *Config, tk *task.Task) error {
		tk.Label = "l-" + tk.Name
		return nil
	})}

	t.Run("applies steps in order", func(t *testing.T) {
		out, err := Sequence{double, label}.Run(ctx, &Config{}, []*task.Task{{Name: "x"}})

		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "l-x-a", out[0].Label)
		assert.Equal(t, "l-x-b", out[1].Label)
	})

	t.Run("wraps errors with the step name", func(t *testing.T) {
		boom := Step{Name: "boom", Fn: Each(func(context.Context, *Config, *task.Task) error {
			return errors.New("exploded")
		})}

		_, err := Sequence{double, boom}.Run(ctx, &Config{}, []*task.Task{{Name: "x"}})

		require.Error(t, err)
		assert.Equal(t, "transform 'boom': exploded", err.Error())
	})

	t.Run("empty sequence is the identity", func(t *testing.T) {
		in := []*task.Task{{Name: "x"}}

		out, err := Sequence{}.Run(ctx, &Config{}, in)

		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}
