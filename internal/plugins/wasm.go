package plugins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/dccforge/go_dcc/internal/command"
)

// WASMSource discovers command plugins compiled to WebAssembly. Every
// .wasm module under the source path is instantiated with wazero and
// queried for its command metadata; modules missing the required exports
// are warned and skipped.
//
// Required exports: Alloc, Free, CommandID, CommandVersion, Execute.
// Optional exports: Description, Schema, Undoable, Undo. String-returning
// exports use the packed ptr<<32|len convention; Execute receives its
// arguments as JSON in guest memory and returns a JSON envelope
// {"result": ..., "error": ""} the same way.
type WASMSource struct {
	//nolint:containedctx // Context is stored intentionally for reuse across module calls.
	ctx     context.Context
	path    string
	runtime wazero.Runtime
}

// NewWASMSource returns a source for the given .wasm file or directory of
// .wasm files.
func NewWASMSource(ctx context.Context, path string) *WASMSource {
	return &WASMSource{ctx: ctx, path: path}
}

func (s *WASMSource) Name() string { return "wasm:" + s.path }

// Discover instantiates every module under the source path and returns a
// command registration per valid module. A fresh runtime is created per
// discovery so re-discovery picks up replaced files.
func (s *WASMSource) Discover() ([]Registration, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, &LoadError{Path: s.path, Err: err}
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(s.path)
		if err != nil {
			return nil, &LoadError{Path: s.path, Err: err}
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".wasm" {
				continue
			}
			files = append(files, filepath.Join(s.path, entry.Name()))
		}
	} else {
		if filepath.Ext(s.path) != ".wasm" {
			return nil, &LoadError{Path: s.path, Err: errors.New("not a .wasm file")}
		}
		files = []string{s.path}
	}

	rt := wazero.NewRuntime(s.ctx)
	wasi_snapshot_preview1.MustInstantiate(s.ctx, rt)
	if err := s.instantiateEnv(rt); err != nil {
		_ = rt.Close(s.ctx)
		return nil, &LoadError{Path: s.path, Err: err}
	}

	var regs []Registration
	for _, file := range files {
		reg, err := s.loadModule(rt, file)
		if err != nil {
			log.Warn().
				Str("event", "wasm_plugin_skipped").
				Str("file", file).
				Err(err).
				Msg("skipping wasm command plugin")

			continue
		}
		regs = append(regs, reg)
		log.Info().
			Str("event", "wasm_plugin_loaded").
			Str("file", file).
			Str("command", reg.ID).
			Str("version", reg.Version).
			Msg("loaded wasm command plugin")
	}

	if s.runtime != nil {
		if err := s.runtime.Close(s.ctx); err != nil {
			log.Error().Err(err).Msg("failed to close previous wasm runtime")
		}
	}
	s.runtime = rt

	return regs, nil
}

// Close releases the wazero runtime and every instantiated module.
func (s *WASMSource) Close() error {
	if s.runtime == nil {
		return nil
	}

	return s.runtime.Close(s.ctx)
}

// instantiateEnv builds the host module guest plugins import for logging.
func (s *WASMSource) instantiateEnv(rt wazero.Runtime) error {
	_, err := rt.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, ptr, length uint32) {
			data, ok := m.Memory().Read(ptr, length)
			if !ok {
				log.Error().Msg("failed to read memory in log_debug")
				return
			}
			log.Debug().
				Str("event", "plugin_debug").
				Str("debug_msg", string(data)).
				Msg("plugin debug message")
		}).
		Export("log_debug").
		Instantiate(s.ctx)
	if err != nil {
		return fmt.Errorf("failed to instantiate env module: %w", err)
	}

	return nil
}

func (s *WASMSource) loadModule(rt wazero.Runtime, file string) (Registration, error) {
	wasmBytes, err := os.ReadFile(file)
	if err != nil {
		return Registration{}, err
	}

	moduleName := strings.TrimSuffix(filepath.Base(file), ".wasm")
	compiled, err := rt.CompileModule(s.ctx, wasmBytes)
	if err != nil {
		return Registration{}, fmt.Errorf("compile failed: %w", err)
	}

	cfg := wazero.NewModuleConfig().
		WithName(moduleName).
		WithStartFunctions() // Empty list means don't run any start functions.

	module, err := rt.InstantiateModule(s.ctx, compiled, cfg)
	if err != nil {
		return Registration{}, fmt.Errorf("instantiate failed: %w", err)
	}

	inst, err := newWASMInstance(s.ctx, module)
	if err != nil {
		return Registration{}, err
	}

	id, err := inst.callString("CommandID")
	if err != nil || id == "" {
		return Registration{}, fmt.Errorf("reading CommandID: %w", err)
	}
	version, err := inst.callString("CommandVersion")
	if err != nil {
		return Registration{}, fmt.Errorf("reading CommandVersion: %w", err)
	}
	description, _ := inst.callString("Description")

	schema, err := inst.readSchema()
	if err != nil {
		return Registration{}, fmt.Errorf("reading Schema: %w", err)
	}
	undoable := inst.flag("Undoable")
	_, hasUndo := inst.optional["Undo"]

	factory := func() command.Command {
		return &wasmCommand{
			inst:        inst,
			id:          id,
			description: description,
			schema:      schema,
			undoable:    undoable && hasUndo,
		}
	}

	return CommandRegistration(id, version, description, factory), nil
}

// wasmInstance holds one instantiated module and its exported functions.
// Guest calls are serialized per instance.
type wasmInstance struct {
	ctx      context.Context
	module   api.Module
	alloc    api.Function
	free     api.Function
	execute  api.Function
	optional map[string]api.Function
	mu       sync.Mutex
}

func newWASMInstance(ctx context.Context, module api.Module) (*wasmInstance, error) {
	inst := &wasmInstance{
		ctx:      ctx,
		module:   module,
		optional: make(map[string]api.Function),
	}
	for _, name := range []string{"Alloc", "Free", "Execute", "CommandID", "CommandVersion"} {
		if module.ExportedFunction(name) == nil {
			return nil, fmt.Errorf("module does not export %s", name)
		}
	}
	inst.alloc = module.ExportedFunction("Alloc")
	inst.free = module.ExportedFunction("Free")
	inst.execute = module.ExportedFunction("Execute")
	for _, name := range []string{"Description", "Schema", "Undoable", "Undo"} {
		if fn := module.ExportedFunction(name); fn != nil {
			inst.optional[name] = fn
		}
	}

	return inst, nil
}

// callString invokes a no-argument export returning a packed string.
func (inst *wasmInstance) callString(name string) (string, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	fn := inst.module.ExportedFunction(name)
	if fn == nil {
		return "", fmt.Errorf("module does not export %s", name)
	}
	results, err := fn.Call(inst.ctx)
	if err != nil {
		return "", err
	}
	if len(results) < 1 {
		return "", errors.New("export returned no results")
	}
	ptr, length := unpackResult(results[0])
	if length == 0 {
		return "", nil
	}
	data, ok := inst.module.Memory().Read(ptr, length)
	if !ok {
		return "", errors.New("memory read failed: bounds exceeded")
	}

	return string(data), nil
}

// flag invokes a no-argument export returning a boolean as 0/1.
func (inst *wasmInstance) flag(name string) bool {
	fn, ok := inst.optional[name]
	if !ok {
		return false
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	results, err := fn.Call(inst.ctx)
	if err != nil || len(results) < 1 {
		return false
	}

	return results[0] != 0
}

// readSchema decodes the optional Schema export, a JSON array of
// {"name": ..., "default": ...} objects, into argument specs.
func (inst *wasmInstance) readSchema() ([]command.ArgSpec, error) {
	if _, ok := inst.optional["Schema"]; !ok {
		return nil, nil
	}
	raw, err := inst.callString("Schema")
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var decoded []struct {
		Name    string `json:"name"`
		Default any    `json:"default"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("invalid schema JSON: %w", err)
	}
	specs := make([]command.ArgSpec, 0, len(decoded))
	for _, d := range decoded {
		specs = append(specs, command.ArgSpec{Name: d.Name, Default: d.Default})
	}

	return specs, nil
}

// call invokes a packed-argument export with host data and reads back the
// guest response.
func (inst *wasmInstance) call(fn api.Function, input []byte) ([]byte, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	ptr, err := allocAndWrite(inst.ctx, inst.module, inst.alloc, input)
	if err != nil {
		return nil, err
	}

	results, err := fn.Call(inst.ctx, uint64(ptr)<<32|uint64(len(input)))
	if err != nil {
		return nil, fmt.Errorf("plugin execution error: %w", err)
	}
	if len(results) < 1 {
		return nil, errors.New("invalid execution result")
	}

	outPtr, outLen := unpackResult(results[0])
	resp, ok := inst.module.Memory().Read(outPtr, outLen)
	if !ok {
		return nil, errors.New("memory read failed: bounds exceeded")
	}
	out := make([]byte, len(resp))
	copy(out, resp)

	return out, nil
}

// allocAndWrite allocates guest memory via the wasm Alloc export and
// writes data into the guest's linear memory, returning the pointer.
func allocAndWrite(
	ctx context.Context,
	mod api.Module,
	alloc api.Function,
	data []byte,
) (uint32, error) {
	length := uint32(len(data))
	if length == 0 {
		return 0, errors.New("buffer length is zero")
	}

	results, err := alloc.Call(ctx, uint64(length))
	if err != nil {
		return 0, fmt.Errorf("alloc failed: %w", err)
	}
	if len(results) < 1 {
		return 0, errors.New("alloc returned no results")
	}

	ptr := api.DecodeU32(results[0])
	if !mod.Memory().Write(ptr, data) {
		return 0, errors.New("memory write failed: bounds exceeded")
	}

	return ptr, nil
}

// unpackResult splits a packed ptr<<32|len guest result.
func unpackResult(combined uint64) (uint32, uint32) {
	return api.DecodeU32(combined >> 32), api.DecodeU32(combined)
}

// wasmEnvelope is the JSON response Execute and Undo write back.
type wasmEnvelope struct {
	Result any    `json:"result"`
	Error  string `json:"error"`
}

// wasmCommand adapts one guest module to the Command contract. A fresh
// value is produced per execution; the underlying module instance is
// shared and serialized.
type wasmCommand struct {
	command.Base

	inst        *wasmInstance
	id          string
	description string
	schema      []command.ArgSpec
	undoable    bool
}

func (c *wasmCommand) ID() string { return c.id }

func (c *wasmCommand) Description() string { return c.description }

func (c *wasmCommand) Undoable() bool { return c.undoable }

func (c *wasmCommand) Schema() []command.ArgSpec { return c.schema }

func (c *wasmCommand) Do(_ context.Context, args *command.Arguments) (any, error) {
	input, err := json.Marshal(args.Map())
	if err != nil {
		return nil, fmt.Errorf("encoding arguments: %w", err)
	}

	resp, err := c.inst.call(c.inst.execute, input)
	if err != nil {
		return nil, err
	}

	var envelope wasmEnvelope
	if err := json.Unmarshal(resp, &envelope); err != nil {
		return nil, fmt.Errorf("invalid plugin response: %w", err)
	}
	if envelope.Error != "" {
		return nil, &command.ExecutionError{CommandID: c.id, Msg: envelope.Error}
	}

	return envelope.Result, nil
}

func (c *wasmCommand) Undo(context.Context) error {
	undoFn, ok := c.inst.optional["Undo"]
	if !ok {
		return fmt.Errorf("command %q does not support undo", c.id)
	}

	resp, err := c.inst.call(undoFn, []byte("{}"))
	if err != nil {
		return err
	}
	var envelope wasmEnvelope
	if err := json.Unmarshal(resp, &envelope); err != nil {
		return fmt.Errorf("invalid plugin response: %w", err)
	}
	if envelope.Error != "" {
		return &command.ExecutionError{CommandID: c.id, Msg: envelope.Error}
	}

	return nil
}
