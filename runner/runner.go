// Package runner executes WASI command modules with wazero.
package runner

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"
)

const (
	ebadf     = 8          // POSIX EBADF error code
	invalidFD = 0xFFFFFFFF // -1 as uint32
)

// Config describes the guest environment.
type Config struct {
	// Name is argv[0].
	Name   string
	Args   []string
	Env    map[string]string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Mounts maps guest paths to host directories.
	Mounts map[string]string
	// Interpreter selects the wazero interpreter instead of the compiler.
	Interpreter bool
}

// Run instantiates a WASI command module, which runs its _start function.
// The returned code is the guest's exit code. An error is returned only when
// the module could not be run to completion.
func Run(ctx context.Context, wasm []byte, cfg Config) (int, error) {
	rc := wazero.NewRuntimeConfig()
	if cfg.Interpreter {
		rc = wazero.NewRuntimeConfigInterpreter()
	}
	r := wazero.NewRuntimeWithConfig(ctx, rc)
	defer r.Close(ctx)

	if _, err := instantiateWASI(ctx, r); err != nil {
		return 0, fmt.Errorf("instantiate WASI: %w", err)
	}

	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		return 0, fmt.Errorf("compile module: %w", err)
	}
	defer compiled.Close(ctx)

	Logger().Debug("running command",
		zap.String("name", cfg.Name),
		zap.Strings("args", cfg.Args),
		zap.Int("mounts", len(cfg.Mounts)))

	mod, err := r.InstantiateModule(ctx, compiled, moduleConfig(cfg))
	if err != nil {
		var exitErr *sys.ExitError
		if errors.As(err, &exitErr) {
			return int(exitErr.ExitCode()), nil
		}
		return 0, fmt.Errorf("run %s: %w", cfg.Name, err)
	}
	return 0, mod.Close(ctx)
}

func moduleConfig(cfg Config) wazero.ModuleConfig {
	mc := wazero.NewModuleConfig().
		WithName("").
		WithArgs(append([]string{cfg.Name}, cfg.Args...)...).
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader)

	if cfg.Stdin != nil {
		mc = mc.WithStdin(cfg.Stdin)
	}
	if cfg.Stdout != nil {
		mc = mc.WithStdout(cfg.Stdout)
	}
	if cfg.Stderr != nil {
		mc = mc.WithStderr(cfg.Stderr)
	}

	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		mc = mc.WithEnv(k, cfg.Env[k])
	}

	if len(cfg.Mounts) > 0 {
		fsc := wazero.NewFSConfig()
		for guest, host := range cfg.Mounts {
			fsc = fsc.WithDirMount(host, guest)
		}
		mc = mc.WithFSConfig(fsc)
	}
	return mc
}

// instantiateWASI registers wasi_snapshot_preview1 plus the adapter stubs
// expected by modules built through the component model adapter.
func instantiateWASI(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	builder := r.NewHostModuleBuilder(wasi_snapshot_preview1.ModuleName)
	wasi_snapshot_preview1.NewFunctionExporter().ExportFunctions(builder)

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, _ []uint64) {
		}), nil, nil).
		Export("reset_adapter_state")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = ebadf
		}), []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}).
		Export("adapter_close_badfd")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = invalidFD
		}), []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}).
		Export("adapter_open_badfd")

	return builder.Instantiate(ctx)
}
