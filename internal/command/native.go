package command

import (
	"context"

	"github.com/rs/zerolog/log"
)

// BridgeCommandName is the name the bridge command is installed under in
// native-undo hosts. The host replays this name from its undo queue when
// the user triggers redo through the host UI.
const BridgeCommandName = "goDccBridge"

// execNative runs the execution through the host's native command
// machinery so the host records it on its own undo queue. Undoable
// commands that request chunking are wrapped in an undo chunk; the chunk
// is closed on every path so a failing command never leaves one open.
func (r *Runner) execNative(ctx context.Context, e *execution) (any, error) {
	chunked := e.cmd.Undoable() && e.cmd.UseUndoChunk()
	if chunked {
		if err := r.host.OpenUndoChunk(e.cmd.ID()); err != nil {
			return nil, err
		}
		defer func() {
			if err := r.host.CloseUndoChunk(e.cmd.ID()); err != nil {
				log.Error().
					Str("event", "undo_chunk_close_failed").
					Str("command", e.cmd.ID()).
					Err(err).
					Msg("failed to close undo chunk")
			}
		}()
	}

	if err := r.bridge.Claim(e); err != nil {
		return nil, err
	}
	defer r.bridge.Release()

	result, err := r.host.Invoke(ctx, BridgeCommandName)
	if err != nil {
		return nil, err
	}
	e.result = result

	return result, nil
}

// bridgeHandler is the body of the installed bridge command. On a normal
// invocation it recovers the claimed execution from the bridge slot and
// runs it directly. When the host is replaying its undo queue (a redo
// triggered from the host UI) there is no claimed execution; the handler
// pops the runner's redo stack instead and re-executes that entry, so the
// in-process history and the native queue stay in step without duplicating
// the entry.
func (r *Runner) bridgeHandler(ctx context.Context) (any, error) {
	if r.host.IsRedoReplay() {
		e := r.popRedo()
		if e == nil {
			return nil, ErrNothingToRedo
		}
		result, err := r.execDirect(ctx, e)
		if err != nil {
			return nil, err
		}
		if e.cmd.Undoable() {
			r.pushUndo(e)
		}
		log.Debug().
			Str("event", "native_redo_replay").
			Str("command", e.cmd.ID()).
			Msg("re-executed command from host redo queue")

		return result, nil
	}

	e, err := r.bridge.Current()
	if err != nil {
		return nil, err
	}

	return r.execDirect(ctx, e)
}
