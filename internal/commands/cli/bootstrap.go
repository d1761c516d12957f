package cli

import (
	"context"
	"fmt"

	"github.com/dccforge/go_dcc/internal/command"
	"github.com/dccforge/go_dcc/internal/commands/builtin"
	"github.com/dccforge/go_dcc/internal/config"
	"github.com/dccforge/go_dcc/internal/host"
	"github.com/dccforge/go_dcc/internal/plugins"
	"github.com/dccforge/go_dcc/internal/scene"
)

// environment is the fully wired framework a CLI command operates on:
// host, scene, plugin manager and the initialized runner.
type environment struct {
	host    host.Host
	scene   *scene.Scene
	manager *plugins.Manager
	runner  *command.Runner
}

// bootstrap builds the environment from the loaded configuration: detect
// the host, register the built-in commands, discover external command
// plugins from the configured and environment paths, and install the
// process-wide runner.
func bootstrap(ctx context.Context) (*environment, error) {
	cfg := config.Get()

	h := host.New(cfg.Host.Name)
	scn := scene.New()

	mgr := plugins.NewManager(ctx)
	if err := builtin.Register(mgr, scn); err != nil {
		return nil, fmt.Errorf("registering built-in commands: %w", err)
	}
	mgr.RegisterPaths(cfg.Commands.Paths)
	mgr.RegisterEnvironmentPaths(cfg.Commands.PathsEnv)

	runner, err := command.InitRunner(h, mgr, command.Options{
		UndoLimit: cfg.Commands.UndoLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing command runner: %w", err)
	}

	return &environment{host: h, scene: scn, manager: mgr, runner: runner}, nil
}

// Close releases plugin resources and clears the process-wide runner.
func (e *environment) Close() error {
	command.ResetRunner()

	return e.manager.Close()
}
