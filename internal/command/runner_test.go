package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dccforge/go_dcc/internal/host"
)

// mapCatalog is a minimal Catalog for tests.
type mapCatalog map[string]Factory

func (c mapCatalog) Find(id string) (Factory, bool) {
	factory, ok := c[id]

	return factory, ok
}

func (c mapCatalog) CommandIDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}

	return ids
}

// fakeCmd is a fully scriptable command for runner tests.
type fakeCmd struct {
	Base

	id       string
	disabled bool
	undoable bool
	schema   []ArgSpec
	resolve  func(c *fakeCmd, args *Arguments) error
	do       func(c *fakeCmd, args *Arguments) (any, error)
	undo     func(c *fakeCmd) error
}

func (c *fakeCmd) ID() string { return c.id }

func (c *fakeCmd) Enabled() bool { return !c.disabled }

func (c *fakeCmd) Undoable() bool { return c.undoable }

func (c *fakeCmd) Schema() []ArgSpec { return c.schema }

func (c *fakeCmd) Resolve(args *Arguments) error {
	if c.resolve == nil {
		return nil
	}

	return c.resolve(c, args)
}

func (c *fakeCmd) Do(_ context.Context, args *Arguments) (any, error) {
	if c.do == nil {
		return nil, nil
	}

	return c.do(c, args)
}

func (c *fakeCmd) Undo(context.Context) error {
	if c.undo == nil {
		return nil
	}

	return c.undo(c)
}

func newTestRunner(t *testing.T, catalog Catalog, opts Options) *Runner {
	t.Helper()
	r, err := NewRunner(host.NewNull("test"), catalog, opts)
	require.NoError(t, err)

	return r
}

func TestRunnerAddRoundTrip(t *testing.T) {
	t.Parallel()

	var journal []int
	catalog := mapCatalog{
		"demo.add": func() Command {
			return &fakeCmd{
				id:       "demo.add",
				undoable: true,
				schema: []ArgSpec{
					{Name: "a", Default: 1},
					{Name: "b", Default: 2},
				},
				do: func(_ *fakeCmd, args *Arguments) (any, error) {
					sum := args.GetInt("a") + args.GetInt("b")
					journal = append(journal, sum)

					return sum, nil
				},
				undo: func(*fakeCmd) error {
					journal = journal[:len(journal)-1]

					return nil
				},
			}
		},
	}
	r := newTestRunner(t, catalog, Options{})
	ctx := context.Background()

	// Defaults only.
	result, err := r.Run(ctx, "demo.add", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result)

	// Overrides.
	result, err = r.Run(ctx, "demo.add", map[string]any{"a": 10, "b": 20})
	require.NoError(t, err)
	assert.Equal(t, 30, result)
	assert.Equal(t, []int{3, 30}, journal)
	assert.Equal(t, 2, r.UndoAvailable())

	// Undo moves the entry to the redo stack.
	require.NoError(t, r.UndoLast(ctx))
	assert.Equal(t, []int{3}, journal)
	assert.Equal(t, 1, r.UndoAvailable())
	assert.Equal(t, 1, r.RedoAvailable())

	// Redo re-executes and moves the entry back.
	result, err = r.RedoLast(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, result)
	assert.Equal(t, []int{3, 30}, journal)
	assert.Equal(t, 2, r.UndoAvailable())
	assert.Equal(t, 0, r.RedoAvailable())
}

func TestRunnerUnknownCommand(t *testing.T) {
	t.Parallel()

	catalog := mapCatalog{
		"demo.known": func() Command { return &fakeCmd{id: "demo.known"} },
	}
	r := newTestRunner(t, catalog, Options{})

	_, err := r.Run(context.Background(), "demo.missing", nil)
	require.Error(t, err)
	var unknown *UnknownCommandError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "demo.missing", unknown.ID)
	assert.Contains(t, err.Error(), "demo.known")
}

func TestRunnerDisabledCommandIsSilentNoOp(t *testing.T) {
	t.Parallel()

	executed := false
	catalog := mapCatalog{
		"demo.off": func() Command {
			return &fakeCmd{
				id:       "demo.off",
				disabled: true,
				undoable: true,
				do: func(*fakeCmd, *Arguments) (any, error) {
					executed = true

					return "never", nil
				},
			}
		},
	}
	r := newTestRunner(t, catalog, Options{})

	result, err := r.Run(context.Background(), "demo.off", nil)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.False(t, executed)
	assert.Equal(t, 0, r.UndoAvailable())
}

func TestRunnerCancelDuringResolveIsSwallowed(t *testing.T) {
	t.Parallel()

	catalog := mapCatalog{
		"demo.cancel": func() Command {
			return &fakeCmd{
				id: "demo.cancel",
				resolve: func(c *fakeCmd, _ *Arguments) error {
					return c.Cancel("user aborted")
				},
				do: func(*fakeCmd, *Arguments) (any, error) {
					t.Fatal("Do must not run after cancel in Resolve")

					return nil, nil
				},
			}
		},
	}
	r := newTestRunner(t, catalog, Options{})

	result, err := r.Run(context.Background(), "demo.cancel", nil)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestRunnerCancelDuringDoPropagates(t *testing.T) {
	t.Parallel()

	catalog := mapCatalog{
		"demo.midCancel": func() Command {
			return &fakeCmd{
				id:       "demo.midCancel",
				undoable: true,
				do: func(c *fakeCmd, _ *Arguments) (any, error) {
					return nil, c.Cancel("mid-flight abort")
				},
			}
		},
	}
	r := newTestRunner(t, catalog, Options{})

	_, err := r.Run(context.Background(), "demo.midCancel", nil)
	require.Error(t, err)
	assert.True(t, IsCancel(err))
	assert.Equal(t, 0, r.UndoAvailable())
}

func TestRunnerWarningGateSkipsExecution(t *testing.T) {
	t.Parallel()

	executed := false
	catalog := mapCatalog{
		"demo.warn": func() Command {
			return &fakeCmd{
				id: "demo.warn",
				resolve: func(c *fakeCmd, _ *Arguments) error {
					c.DisplayWarning("nothing selected")

					return nil
				},
				do: func(*fakeCmd, *Arguments) (any, error) {
					executed = true

					return "never", nil
				},
			}
		},
	}
	r := newTestRunner(t, catalog, Options{})

	result, err := r.Run(context.Background(), "demo.warn", nil)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.False(t, executed)
}

func TestRunnerFinishesStatsOnEveryPath(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var last *fakeCmd
	catalog := mapCatalog{
		"demo.ok": func() Command {
			last = &fakeCmd{
				id: "demo.ok",
				do: func(*fakeCmd, *Arguments) (any, error) {
					return "done", nil
				},
			}

			return last
		},
		"demo.cancel": func() Command {
			last = &fakeCmd{
				id: "demo.cancel",
				do: func(c *fakeCmd, _ *Arguments) (any, error) {
					return nil, c.Cancel("stop")
				},
			}

			return last
		},
		"demo.fail": func() Command {
			last = &fakeCmd{
				id: "demo.fail",
				do: func(*fakeCmd, *Arguments) (any, error) {
					return nil, boom
				},
			}

			return last
		},
	}
	r := newTestRunner(t, catalog, Options{})
	ctx := context.Background()

	_, err := r.Run(ctx, "demo.ok", nil)
	require.NoError(t, err)
	require.NotNil(t, last.Stats())
	assert.True(t, last.Stats().Finished())
	assert.GreaterOrEqual(t, last.Stats().Duration, time.Duration(0))
	assert.Empty(t, last.Stats().Traceback)

	_, err = r.Run(ctx, "demo.cancel", nil)
	require.Error(t, err)
	require.True(t, IsCancel(err))
	require.NotNil(t, last.Stats())
	assert.True(t, last.Stats().Finished())
	// Cancellation is not a failure, no traceback is recorded.
	assert.Empty(t, last.Stats().Traceback)

	_, err = r.Run(ctx, "demo.fail", nil)
	require.ErrorIs(t, err, boom)
	require.NotNil(t, last.Stats())
	assert.True(t, last.Stats().Finished())
	assert.NotEmpty(t, last.Stats().Traceback)
	assert.GreaterOrEqual(t, last.Stats().Duration, time.Duration(0))
}

func TestRunnerStatusFlagBecomesExecutionError(t *testing.T) {
	t.Parallel()

	catalog := mapCatalog{
		"demo.flagged": func() Command {
			return &fakeCmd{
				id:       "demo.flagged",
				undoable: true,
				do: func(c *fakeCmd, _ *Arguments) (any, error) {
					c.Fail("host reported failure")

					return "partial", nil
				},
			}
		},
	}
	r := newTestRunner(t, catalog, Options{})

	result, err := r.Run(context.Background(), "demo.flagged", nil)
	require.Error(t, err)
	assert.Nil(t, result)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "demo.flagged", execErr.CommandID)
	assert.Contains(t, err.Error(), "host reported failure")
	assert.Equal(t, 0, r.UndoAvailable())
}

func TestRunnerDoErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	catalog := mapCatalog{
		"demo.fail": func() Command {
			return &fakeCmd{
				id:       "demo.fail",
				undoable: true,
				do: func(*fakeCmd, *Arguments) (any, error) {
					return nil, boom
				},
			}
		},
	}
	r := newTestRunner(t, catalog, Options{})

	_, err := r.Run(context.Background(), "demo.fail", nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, r.UndoAvailable())
}

func TestRunnerArgumentValidation(t *testing.T) {
	t.Parallel()

	catalog := mapCatalog{
		"demo.strict": func() Command {
			return &fakeCmd{
				id:     "demo.strict",
				schema: []ArgSpec{{Name: "known", Default: ""}},
			}
		},
	}
	r := newTestRunner(t, catalog, Options{})

	_, err := r.Run(context.Background(), "demo.strict", map[string]any{"typo": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown argument "typo"`)
}

func TestRunnerFreshInstancePerRun(t *testing.T) {
	t.Parallel()

	var instances []*fakeCmd
	catalog := mapCatalog{
		"demo.fresh": func() Command {
			c := &fakeCmd{id: "demo.fresh"}
			instances = append(instances, c)

			return c
		},
	}
	r := newTestRunner(t, catalog, Options{})
	ctx := context.Background()

	_, err := r.Run(ctx, "demo.fresh", nil)
	require.NoError(t, err)
	_, err = r.Run(ctx, "demo.fresh", nil)
	require.NoError(t, err)

	require.Len(t, instances, 2)
	assert.NotSame(t, instances[0], instances[1])
}

func TestRunnerUndoLimitEvictsOldest(t *testing.T) {
	t.Parallel()

	var journal []int
	counter := 0
	catalog := mapCatalog{
		"demo.count": func() Command {
			return &fakeCmd{
				id:       "demo.count",
				undoable: true,
				do: func(*fakeCmd, *Arguments) (any, error) {
					counter++
					n := counter
					journal = append(journal, n)

					return n, nil
				},
			}
		},
	}
	r := newTestRunner(t, catalog, Options{UndoLimit: 2})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := r.Run(ctx, "demo.count", nil)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, r.UndoAvailable())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, journal)
}

func TestRunnerHistorySentinels(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, mapCatalog{}, Options{})
	ctx := context.Background()

	assert.ErrorIs(t, r.UndoLast(ctx), ErrNothingToUndo)
	_, err := r.RedoLast(ctx)
	assert.ErrorIs(t, err, ErrNothingToRedo)
}

func TestRunnerUndoFailureKeepsEntry(t *testing.T) {
	t.Parallel()

	undoErr := errors.New("undo failed")
	catalog := mapCatalog{
		"demo.sticky": func() Command {
			return &fakeCmd{
				id:       "demo.sticky",
				undoable: true,
				undo: func(*fakeCmd) error {
					return undoErr
				},
			}
		},
	}
	r := newTestRunner(t, catalog, Options{})
	ctx := context.Background()

	_, err := r.Run(ctx, "demo.sticky", nil)
	require.NoError(t, err)

	require.ErrorIs(t, r.UndoLast(ctx), undoErr)
	// The entry stays on the undo stack for retry.
	assert.Equal(t, 1, r.UndoAvailable())
	assert.Equal(t, 0, r.RedoAvailable())
}

func TestRunnerRedoStackSurvivesNewRuns(t *testing.T) {
	t.Parallel()

	catalog := mapCatalog{
		"demo.nop": func() Command {
			return &fakeCmd{id: "demo.nop", undoable: true}
		},
	}
	r := newTestRunner(t, catalog, Options{})
	ctx := context.Background()

	_, err := r.Run(ctx, "demo.nop", nil)
	require.NoError(t, err)
	require.NoError(t, r.UndoLast(ctx))
	require.Equal(t, 1, r.RedoAvailable())

	// A new run does not clear the redo stack.
	_, err = r.Run(ctx, "demo.nop", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, r.RedoAvailable())
}

func TestRunnerFlushClearsHistory(t *testing.T) {
	t.Parallel()

	catalog := mapCatalog{
		"demo.nop": func() Command {
			return &fakeCmd{id: "demo.nop", undoable: true}
		},
	}
	r := newTestRunner(t, catalog, Options{})
	ctx := context.Background()

	_, err := r.Run(ctx, "demo.nop", nil)
	require.NoError(t, err)
	_, err = r.Run(ctx, "demo.nop", nil)
	require.NoError(t, err)
	require.NoError(t, r.UndoLast(ctx))

	require.NoError(t, r.Flush())
	assert.Equal(t, 0, r.UndoAvailable())
	assert.Equal(t, 0, r.RedoAvailable())
}

func TestRunnerFindCommand(t *testing.T) {
	t.Parallel()

	catalog := mapCatalog{
		"demo.find": func() Command { return &fakeCmd{id: "demo.find"} },
	}
	r := newTestRunner(t, catalog, Options{})

	first := r.FindCommand("demo.find")
	second := r.FindCommand("demo.find")
	require.NotNil(t, first)
	require.NotNil(t, second)
	// Repeated lookups serve the same registration.
	assert.Equal(t, first().ID(), second().ID())

	assert.Nil(t, r.FindCommand("demo.missing"))
}

func TestRunnerCommandHelp(t *testing.T) {
	t.Parallel()

	catalog := mapCatalog{
		"demo.doc": func() Command {
			return &fakeCmd{
				id:     "demo.doc",
				schema: []ArgSpec{{Name: "value", Default: 42}},
			}
		},
	}
	r := newTestRunner(t, catalog, Options{})

	help := r.CommandHelp("demo.doc")
	assert.Contains(t, help, "demo.doc")
	assert.Contains(t, help, "value")
	assert.Contains(t, help, "42")

	assert.Empty(t, r.CommandHelp("demo.missing"))
}

func TestGlobalRunner(t *testing.T) {
	// Not parallel: mutates process-wide state.
	catalog := mapCatalog{
		"demo.global": func() Command {
			return &fakeCmd{
				id: "demo.global",
				do: func(*fakeCmd, *Arguments) (any, error) {
					return "ran", nil
				},
			}
		},
	}

	ResetRunner()
	_, err := Current()
	assert.ErrorIs(t, err, ErrRunnerNotInitialized)
	_, err = Execute(context.Background(), "demo.global", nil)
	assert.ErrorIs(t, err, ErrRunnerNotInitialized)

	r, err := InitRunner(host.NewNull("test"), catalog, Options{})
	require.NoError(t, err)

	current, err := Current()
	require.NoError(t, err)
	assert.Same(t, r, current)

	result, err := Execute(context.Background(), "demo.global", nil)
	require.NoError(t, err)
	assert.Equal(t, "ran", result)

	ResetRunner()
	_, err = Current()
	assert.ErrorIs(t, err, ErrRunnerNotInitialized)
}
