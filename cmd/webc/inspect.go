package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	wasmpack "github.com/wippyai/wasm-pack"
	"github.com/wippyai/wasm-pack/abi"
	"github.com/wippyai/wasm-pack/wai"
)

type packageSummary struct {
	Name        string           `json:"name" yaml:"name"`
	Version     string           `json:"version" yaml:"version"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Commands    []commandSummary `json:"commands" yaml:"commands"`
	Libraries   []librarySummary `json:"libraries" yaml:"libraries"`
}

type commandSummary struct {
	Name string `json:"name" yaml:"name"`
	Size int    `json:"size" yaml:"size"`
}

type librarySummary struct {
	Module  string   `json:"module" yaml:"module"`
	Abi     abi.Kind `json:"abi" yaml:"abi"`
	Size    int      `json:"size" yaml:"size"`
	Exports []string `json:"exports" yaml:"exports"`
	Imports []string `json:"imports" yaml:"imports"`
}

func summarize(pkg *wasmpack.Package) packageSummary {
	s := packageSummary{
		Name:        pkg.Metadata.Name.String(),
		Version:     pkg.Metadata.Version,
		Description: pkg.Metadata.Description,
		Commands:    make([]commandSummary, 0, len(pkg.Commands)),
		Libraries:   make([]librarySummary, 0, len(pkg.Libraries)),
	}
	for _, c := range pkg.Commands {
		s.Commands = append(s.Commands, commandSummary{Name: c.Name, Size: len(c.Wasm)})
	}
	for _, lib := range pkg.Libraries {
		ls := librarySummary{
			Module:  lib.Module.Name,
			Abi:     lib.Module.Abi,
			Size:    len(lib.Module.Wasm),
			Exports: signatures(lib.Exports),
			Imports: make([]string, 0, len(lib.Imports)),
		}
		for _, imp := range lib.Imports {
			ls.Imports = append(ls.Imports, imp.Name)
		}
		s.Libraries = append(s.Libraries, ls)
	}
	return s
}

func signatures(iface *wai.Interface) []string {
	out := make([]string, 0, len(iface.Functions))
	for _, f := range iface.Functions {
		out = append(out, f.Signature())
	}
	return out
}

func newInspectCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "inspect PATH",
		Short: "Print a summary of a package directory, archive or .webc file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := a.loader().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), output, summarize(pkg), a.heuristicABI())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	return cmd
}

func writeSummary(w io.Writer, format string, s packageSummary, heuristic bool) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()

	case "text", "":
		return writeText(w, s, heuristic)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func writeText(w io.Writer, s packageSummary, heuristic bool) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s@%s\n", s.Name, s.Version)
	if s.Description != "" {
		fmt.Fprintf(&b, "  %s\n", s.Description)
	}

	fmt.Fprintf(&b, "\nCommands (%d):\n", len(s.Commands))
	for _, c := range s.Commands {
		fmt.Fprintf(&b, "  %s\t%d bytes\n", c.Name, c.Size)
	}

	fmt.Fprintf(&b, "\nLibraries (%d):\n", len(s.Libraries))
	for _, lib := range s.Libraries {
		fmt.Fprintf(&b, "  %s\t%s\t%d bytes\n", lib.Module, lib.Abi, lib.Size)
		for _, sig := range lib.Exports {
			fmt.Fprintf(&b, "    %s\n", sig)
		}
		if len(lib.Imports) > 0 {
			fmt.Fprintf(&b, "    imports: %s\n", strings.Join(lib.Imports, ", "))
		}
	}

	if heuristic && len(s.Libraries) > 0 {
		b.WriteString("\nNote: WASI detection scans module bytes for \"" + abi.Marker +
			"\" and may report false positives. Use --abi-detection=imports to inspect imports instead.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
