package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	wasmpack "github.com/wippyai/wasm-pack"
	"github.com/wippyai/wasm-pack/runner"
)

// exitCodeError carries a guest's non-zero exit code out of the command.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func newRunCmd(a *app) *cobra.Command {
	var (
		env         []string
		mapDirs     []string
		interpreter bool
	)

	cmd := &cobra.Command{
		Use:   "run PATH [COMMAND] [-- ARGS...]",
		Short: "Run one of a package's WASI commands",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, guestArgs := args, []string(nil)
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				positional, guestArgs = args[:dash], args[dash:]
			}
			if len(positional) == 0 || len(positional) > 2 {
				return fmt.Errorf("expected PATH and an optional COMMAND, got %d arguments", len(positional))
			}

			pkg, err := a.loader().Load(cmd.Context(), positional[0])
			if err != nil {
				return err
			}
			var name string
			if len(positional) == 2 {
				name = positional[1]
			}
			command, err := selectCommand(pkg, name)
			if err != nil {
				return err
			}

			cfg := runner.Config{
				Name:        command.Name,
				Args:        guestArgs,
				Env:         map[string]string{},
				Stdin:       cmd.InOrStdin(),
				Stdout:      cmd.OutOrStdout(),
				Stderr:      cmd.ErrOrStderr(),
				Mounts:      map[string]string{},
				Interpreter: interpreter,
			}
			for _, kv := range env {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					v = os.Getenv(k)
				}
				cfg.Env[k] = v
			}
			for _, m := range mapDirs {
				guest, host, ok := strings.Cut(m, ":")
				if !ok || guest == "" || host == "" {
					return fmt.Errorf("--mapdir %q: expected GUEST:HOST", m)
				}
				cfg.Mounts[guest] = host
			}

			code, err := runner.Run(cmd.Context(), command.Wasm, cfg)
			if err != nil {
				return err
			}
			if code != 0 {
				return exitCodeError{code: code}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&env, "env", nil, "Guest environment variable KEY=VALUE, or KEY to pass the host value. May be repeated.")
	flags.StringArrayVar(&mapDirs, "mapdir", nil, "Mount host directory HOST at GUEST. May be repeated.")
	flags.BoolVar(&interpreter, "interpreter", false, "Use the interpreter instead of the compiler")
	return cmd
}

// selectCommand finds a command by name. Without a name the package must
// have exactly one command.
func selectCommand(pkg *wasmpack.Package, name string) (wasmpack.Command, error) {
	if name == "" {
		if len(pkg.Commands) == 1 {
			return pkg.Commands[0], nil
		}
		return wasmpack.Command{}, fmt.Errorf("%s has %d commands, pick one of: %s",
			pkg.Metadata, len(pkg.Commands), commandNames(pkg))
	}
	for _, c := range pkg.Commands {
		if c.Name == name {
			return c, nil
		}
	}
	return wasmpack.Command{}, fmt.Errorf("%s has no %q command, pick one of: %s",
		pkg.Metadata, name, commandNames(pkg))
}

func commandNames(pkg *wasmpack.Package) string {
	names := make([]string, len(pkg.Commands))
	for i, c := range pkg.Commands {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
