package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dccforge/go_dcc/internal/config"
	"github.com/dccforge/go_dcc/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the command service",
		Long:  `Start the TCP command service to execute registered commands remotely.`,
		RunE:  runServe,
	}

	// Add serve command specific flags that can override config.
	cmd.Flags().String("listen-host", "localhost", "Server host")
	cmd.Flags().Int("port", 1712, "Server port")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := config.BindFlags(map[string]*pflag.Flag{
		"server.host": cmd.Flags().Lookup("listen-host"),
		"server.port": cmd.Flags().Lookup("port"),
	}); err != nil {
		return err
	}
	cfg := config.Get()

	env, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		_ = env.Close()
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv, err := server.NewServer(serverAddr, env.runner)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	// Shutdown server on SIGINT or SIGTERM.
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stopChan
		log.Info().Msg("shutting down command service")
		if err := srv.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop server")
		}
	}()

	return srv.Start()
}
