package pack

import (
	"fmt"
	"path"
	"strings"

	"github.com/coreos/go-semver/semver"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"

	wasmpack "github.com/wippyai/wasm-pack"
	"github.com/wippyai/wasm-pack/abi"
)

// DescriptorFile is the package descriptor every source tree must contain.
const DescriptorFile = "wapm.toml"

// Descriptor is the decoded wapm.toml.
type Descriptor struct {
	Package  PackageSection    `toml:"package"`
	Modules  []ModuleSection   `toml:"module"`
	Commands []CommandSection  `toml:"command"`
	FS       map[string]string `toml:"fs"`
}

type PackageSection struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
	License     string `toml:"license"`
	LicenseFile string `toml:"license-file"`
	Readme      string `toml:"readme"`
	Repository  string `toml:"repository"`
	Homepage    string `toml:"homepage"`
	Entrypoint  string `toml:"entrypoint"`
}

type ModuleSection struct {
	Name     string          `toml:"name"`
	Source   string          `toml:"source"`
	Abi      string          `toml:"abi"`
	Bindings *BindingSection `toml:"bindings"`
}

// BindingSection declares either WAI bindings (wai-version) or WIT
// bindings (wit-bindgen).
type BindingSection struct {
	WaiVersion string   `toml:"wai-version"`
	Exports    string   `toml:"exports"`
	Imports    []string `toml:"imports"`
	WitBindgen string   `toml:"wit-bindgen"`
	WitExports string   `toml:"wit-exports"`
}

type CommandSection struct {
	Name     string   `toml:"name"`
	Module   string   `toml:"module"`
	Runner   string   `toml:"runner"`
	MainArgs []string `toml:"main-args"`
}

// ParseDescriptor decodes wapm.toml content. It does not validate.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%s: %w", DescriptorFile, err)
	}
	return &d, nil
}

// IsWai reports whether the bindings are WAI bindings.
func (b *BindingSection) IsWai() bool {
	return b.WaiVersion != ""
}

// ExportsPath returns the exports interface path for either binding flavour.
func (b *BindingSection) ExportsPath() string {
	if b.IsWai() {
		return b.Exports
	}
	if b.WitExports != "" {
		return b.WitExports
	}
	return b.Exports
}

// Validate reports every problem in the descriptor at once.
func (d *Descriptor) Validate() error {
	var errs error

	if _, err := wasmpack.ParsePackageName(d.Package.Name); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("package.name: %w", err))
	}
	if _, err := semver.NewVersion(d.Package.Version); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("package.version %q: %w", d.Package.Version, err))
	}

	modules := make(map[string]bool, len(d.Modules))
	for i, m := range d.Modules {
		where := fmt.Sprintf("module[%d]", i)
		switch {
		case m.Name == "":
			errs = multierr.Append(errs, fmt.Errorf("%s: missing name", where))
		case strings.ContainsAny(m.Name, "/\\"):
			errs = multierr.Append(errs, fmt.Errorf("%s: name %q must not contain path separators", where, m.Name))
		case modules[m.Name]:
			errs = multierr.Append(errs, fmt.Errorf("%s: duplicate module %q", where, m.Name))
		}
		modules[m.Name] = true

		if m.Source == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s: missing source", where))
		}
		if m.Abi != "" {
			var k abi.Kind
			if err := k.UnmarshalText([]byte(m.Abi)); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", where, err))
			}
		}
		if b := m.Bindings; b != nil {
			if b.WaiVersion == "" && b.WitBindgen == "" {
				errs = multierr.Append(errs, fmt.Errorf("%s.bindings: one of wai-version or wit-bindgen is required", where))
			}
			if b.ExportsPath() == "" {
				errs = multierr.Append(errs, fmt.Errorf("%s.bindings: missing exports", where))
			}
			if !b.IsWai() && len(b.Imports) > 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s.bindings: imports require wai-version", where))
			}
		}
	}

	commands := make(map[string]bool, len(d.Commands))
	for i, c := range d.Commands {
		where := fmt.Sprintf("command[%d]", i)
		if c.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s: missing name", where))
		} else if commands[c.Name] {
			errs = multierr.Append(errs, fmt.Errorf("%s: duplicate command %q", where, c.Name))
		}
		commands[c.Name] = true

		if !modules[c.Module] {
			errs = multierr.Append(errs, fmt.Errorf("%s: unknown module %q", where, c.Module))
		}
		if c.Runner != "" && c.Runner != "wasi" && c.Runner != "wasi@unstable_" {
			errs = multierr.Append(errs, fmt.Errorf("%s: unsupported runner %q", where, c.Runner))
		}
	}

	for guest, host := range d.FS {
		if host == "" || path.IsAbs(cleanRel(host)) {
			errs = multierr.Append(errs, fmt.Errorf("fs[%q]: invalid host path %q", guest, host))
		}
	}

	return errs
}

// cleanRel normalizes a descriptor path to the form used as a Files key.
func cleanRel(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	if p == "." {
		return ""
	}
	return p
}
