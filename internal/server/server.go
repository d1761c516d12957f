// Package server exposes the command runner over TCP. Each framed message
// is a JSON Request; the reply is a JSON Response carrying a two-character
// status code.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	anetserver "github.com/andrei-cloud/anet/server"
	"github.com/rs/zerolog/log"

	"github.com/dccforge/go_dcc/internal/command"
	"github.com/dccforge/go_dcc/internal/statuscodes"
)

// logAdapter implements anet.Logger using zerolog.
type logAdapter struct{}

func (l logAdapter) Print(v ...any) {
	log.Info().Msg(fmt.Sprint(v...))
}

func (l logAdapter) Printf(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Infof(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Warnf(format string, v ...any) {
	log.Warn().Msgf(format, v...)
}

func (l logAdapter) Errorf(format string, v ...any) {
	log.Error().Msgf(format, v...)
}

// Server wraps the anet TCP server around a command runner.
type Server struct {
	address     string
	srv         *anetserver.Server
	runner      *command.Runner
	activeConns int32
}

// NewServer configures and returns the command service instance.
func NewServer(address string, runner *command.Runner) (*Server, error) {
	cfg := &anetserver.ServerConfig{
		MaxConns:        100,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     0 * time.Second, // disable idle connection closure.
		ShutdownTimeout: 5 * time.Second,
		Logger:          logAdapter{},
	}

	s := &Server{address: address, runner: runner}
	handler := anetserver.HandlerFunc(s.handle)
	srv, err := anetserver.NewServer(address, handler, cfg)
	if err != nil {
		return nil, fmt.Errorf("server setup failed: %w", err)
	}
	s.srv = srv

	return s, nil
}

// Start begins listening for connections.
func (s *Server) Start() error {
	log.Info().Str("address", s.address).Msg("command service started")

	return s.srv.Start()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	return s.srv.Stop()
}

func (s *Server) handle(conn *anetserver.ServerConn, data []byte) ([]byte, error) {
	client := conn.Conn.RemoteAddr().String()
	atomic.AddInt32(&s.activeConns, 1)
	defer atomic.AddInt32(&s.activeConns, -1)

	start := time.Now()

	var req Request
	if err := json.Unmarshal(bytes.TrimSpace(data), &req); err != nil {
		log.Error().
			Str("client_ip", client).
			Err(err).
			Msg("malformed request")

		return encode(failure(statuscodes.InvalidRequest, err))
	}

	log.Info().
		Str("event", "request_received").
		Str("client_ip", client).
		Str("op", req.Op).
		Str("command", req.Command).
		Int("active_connections", int(atomic.LoadInt32(&s.activeConns))).
		Msg("received request")

	resp := s.dispatch(context.Background(), req)

	log.Info().
		Str("event", "request_completed").
		Str("client_ip", client).
		Str("op", req.Op).
		Str("command", req.Command).
		Str("status", resp.Status).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	return encode(resp)
}

// Dispatch routes one request to the runner. Exported through handle for
// the TCP path and called directly by tests.
func (s *Server) dispatch(ctx context.Context, req Request) Response {
	switch req.Op {
	case OpRun:
		result, err := s.runner.Run(ctx, req.Command, req.Args)
		if err != nil {
			return runFailure(err)
		}

		return success(result)

	case OpUndo:
		if err := s.runner.UndoLast(ctx); err != nil {
			if errors.Is(err, command.ErrNothingToUndo) {
				return failure(statuscodes.NothingToUndo, err)
			}

			return failure(statuscodes.ExecFailed, err)
		}

		return success(nil)

	case OpRedo:
		result, err := s.runner.RedoLast(ctx)
		if err != nil {
			if errors.Is(err, command.ErrNothingToRedo) {
				return failure(statuscodes.NothingToRedo, err)
			}

			return failure(statuscodes.ExecFailed, err)
		}

		return success(result)

	case OpFlush:
		if err := s.runner.Flush(); err != nil {
			return failure(statuscodes.Internal, err)
		}

		return success(nil)

	case OpList:
		return success(s.runner.CommandIDs())

	case OpHelp:
		help := s.runner.CommandHelp(req.Command)
		if help == "" {
			return failure(
				statuscodes.UnknownCommand,
				fmt.Errorf("no command found with id %q", req.Command),
			)
		}

		return success(help)

	default:
		return failure(
			statuscodes.InvalidRequest,
			fmt.Errorf("unknown operation %q", req.Op),
		)
	}
}

func runFailure(err error) Response {
	var unknown *command.UnknownCommandError
	if errors.As(err, &unknown) {
		return failure(statuscodes.UnknownCommand, err)
	}

	var contract *command.ContractError
	if errors.As(err, &contract) {
		return failure(statuscodes.InvalidArgs, err)
	}

	return failure(statuscodes.ExecFailed, err)
}

func success(result any) Response {
	return Response{
		Status:      statuscodes.OK.Code,
		Description: statuscodes.OK.Description,
		Result:      result,
	}
}

func failure(code statuscodes.StatusCode, err error) Response {
	return Response{
		Status:      code.Code,
		Description: code.Description,
		Error:       err.Error(),
	}
}

func encode(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}
