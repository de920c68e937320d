package loader

import (
	"bytes"

	wasmpack "github.com/wippyai/wasm-pack"
	"github.com/wippyai/wasm-pack/errors"
	"github.com/wippyai/wasm-pack/webc"
)

// extractCommands returns the package's WASI commands in manifest order.
func extractCommands(c *webc.Container, pkgName string) ([]wasmpack.Command, error) {
	names := c.ListCommands()
	commands := make([]wasmpack.Command, 0, len(names))

	for _, name := range names {
		atom, ok := c.AtomNameForCommand(webc.RunnerWASI, name)
		if !ok {
			return nil, errors.New(errors.PhaseExtract, errors.KindUnresolvedCommandAtom).
				Subject(name).
				Detail("unable to determine the atom behind the command").
				Build()
		}

		wasm, err := c.Atom(pkgName, atom)
		if err != nil {
			return nil, errors.NotFound(errors.PhaseExtract, errors.KindMissingAtom, "atom", atom, err)
		}

		commands = append(commands, wasmpack.Command{
			Name: name,
			Wasm: bytes.Clone(wasm),
		})
	}

	return commands, nil
}
