package pack

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-pack/webc"
)

// Volume names written by Pack.
const (
	MetadataVolume = "metadata"
	AtomVolume     = "atom"
)

// BindingName is the manifest name given to every library binding.
const BindingName = "library-bindings"

// TransformHooks adjust how a package is packed.
type TransformHooks struct {
	// FlatVolumePaths stores every volume file as a single root-level
	// entry named by its full path, as older packers did.
	FlatVolumePaths bool
	// Exclude drops volume files whose path matches any of these globs.
	Exclude []string
	// Manifest may modify the manifest before the container is written.
	Manifest func(m *webc.Manifest) error
}

type packer struct {
	files    Files
	basePath string
	hooks    TransformHooks
	exclude  []glob.Glob
	builder  *webc.Builder
	added    map[string]bool
}

// Pack builds container bytes from a source tree. Files missing from the map
// are read from basePath on disk when basePath is set.
func Pack(files Files, basePath string, hooks *TransformHooks) ([]byte, error) {
	p := &packer{files: files, basePath: basePath, added: map[string]bool{}}
	if hooks != nil {
		p.hooks = *hooks
	}
	for _, pattern := range p.hooks.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		p.exclude = append(p.exclude, g)
	}

	raw, err := p.read(DescriptorFile)
	if err != nil {
		return nil, err
	}
	desc, err := ParseDescriptor(raw)
	if err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", DescriptorFile, err)
	}

	p.builder = webc.NewBuilder(webc.Manifest{Entrypoint: desc.Package.Entrypoint})
	if err := p.build(desc, raw); err != nil {
		return nil, err
	}

	if p.hooks.Manifest != nil {
		if err := p.hooks.Manifest(p.builder.Manifest()); err != nil {
			return nil, fmt.Errorf("manifest hook: %w", err)
		}
	}
	return p.builder.Bytes()
}

func (p *packer) build(desc *Descriptor, rawDescriptor []byte) error {
	m := p.builder.Manifest()
	err := m.SetPackageInfo(webc.PackageInfo{
		Name:        desc.Package.Name,
		Version:     desc.Package.Version,
		Description: desc.Package.Description,
		License:     desc.Package.License,
		Repository:  desc.Package.Repository,
		Homepage:    desc.Package.Homepage,
	})
	if err != nil {
		return err
	}

	for _, mod := range desc.Modules {
		wasm, err := p.read(mod.Source)
		if err != nil {
			return fmt.Errorf("module %q: %w", mod.Name, err)
		}
		if err := p.builder.AddAtom(mod.Name, wasm); err != nil {
			return err
		}
	}

	for _, c := range desc.Commands {
		cmd := webc.Command{Runner: webc.WASICommandRunner}
		ann := webc.WASIAnnotation{Atom: c.Module, MainArgs: c.MainArgs}
		if err := cmd.SetAnnotation(webc.RunnerWASI, ann); err != nil {
			return fmt.Errorf("command %q: %w", c.Name, err)
		}
		m.Commands.Set(c.Name, cmd)
	}

	if err := p.addVolumeFile(MetadataVolume, DescriptorFile, rawDescriptor); err != nil {
		return err
	}
	for _, extra := range []string{desc.Package.Readme, desc.Package.LicenseFile} {
		if extra == "" {
			continue
		}
		if err := p.copyToVolume(MetadataVolume, extra); err != nil {
			return err
		}
	}

	for _, mod := range desc.Modules {
		if mod.Bindings == nil {
			continue
		}
		binding, err := p.binding(mod)
		if err != nil {
			return fmt.Errorf("module %q bindings: %w", mod.Name, err)
		}
		m.Bindings = append(m.Bindings, binding)
	}

	guests := make([]string, 0, len(desc.FS))
	for guest := range desc.FS {
		guests = append(guests, guest)
	}
	sort.Strings(guests)
	for _, guest := range guests {
		if err := p.mapDir(guest, desc.FS[guest]); err != nil {
			return fmt.Errorf("fs[%q]: %w", guest, err)
		}
	}
	return nil
}

func (p *packer) binding(mod ModuleSection) (webc.Binding, error) {
	b := mod.Bindings
	exports := cleanRel(b.ExportsPath())
	if err := p.copyToVolume(MetadataVolume, exports); err != nil {
		return webc.Binding{}, err
	}
	module := webc.AtomsScheme + mod.Name

	if !b.IsWai() {
		return webc.NewBinding(BindingName, b.WitBindgen, &webc.WitBindings{
			ExportsRef: MetadataVolume + "://" + exports,
			ModuleRef:  module,
		})
	}

	wai := &webc.WaiBindings{
		ExportsRef: MetadataVolume + "://" + exports,
		ModuleRef:  module,
	}
	for _, imp := range b.Imports {
		rel := cleanRel(imp)
		if err := p.copyToVolume(MetadataVolume, rel); err != nil {
			return webc.Binding{}, err
		}
		wai.Imports = append(wai.Imports, MetadataVolume+"://"+rel)
	}
	return webc.NewBinding(BindingName, b.WaiVersion, wai)
}

// mapDir copies every file under host into the atom volume at guest.
func (p *packer) mapDir(guest, host string) error {
	host = cleanRel(host)
	guest = strings.Trim(path.Clean("/"+guest), "/")

	prefix := host + "/"
	if host == "" {
		prefix = ""
	}

	_, found := p.files[webc.Dir(host)]
	keys := make([]webc.DirOrFile, 0, len(p.files))
	for k := range p.files {
		if strings.HasPrefix(k.Path, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Path < keys[j].Path })

	for _, k := range keys {
		found = true
		dest := path.Join(guest, strings.TrimPrefix(k.Path, prefix))
		if k.Dir {
			if !p.hooks.FlatVolumePaths {
				if err := p.builder.Volume(AtomVolume).AddDir(dest); err != nil {
					return err
				}
			}
			continue
		}
		if err := p.addVolumeFile(AtomVolume, dest, p.files[k]); err != nil {
			return err
		}
	}

	if found {
		return nil
	}
	if p.basePath == "" {
		return fmt.Errorf("directory %q: %w", host, fs.ErrNotExist)
	}
	return p.mapDiskDir(guest, host)
}

func (p *packer) mapDiskDir(guest, host string) error {
	root := filepath.Join(p.basePath, filepath.FromSlash(host))
	return filepath.WalkDir(root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, full)
		if err != nil {
			return err
		}
		dest := path.Join(guest, filepath.ToSlash(rel))
		if d.IsDir() {
			if rel == "." || p.hooks.FlatVolumePaths {
				return nil
			}
			return p.builder.Volume(AtomVolume).AddDir(dest)
		}
		content, err := os.ReadFile(full)
		if err != nil {
			return err
		}
		return p.addVolumeFile(AtomVolume, dest, content)
	})
}

func (p *packer) copyToVolume(volume, rel string) error {
	content, err := p.read(rel)
	if err != nil {
		return err
	}
	return p.addVolumeFile(volume, cleanRel(rel), content)
}

// addVolumeFile stores a file once. Later additions of the same path are
// ignored, so a file shared by several bindings is copied a single time.
func (p *packer) addVolumeFile(volume, rel string, content []byte) error {
	key := volume + "://" + rel
	if p.added[key] {
		return nil
	}
	p.added[key] = true

	for _, g := range p.exclude {
		if g.Match(rel) {
			Logger().Debug("excluded from volume",
				zap.String("volume", volume),
				zap.String("path", rel))
			return nil
		}
	}

	v := p.builder.Volume(volume)
	if p.hooks.FlatVolumePaths {
		return v.AddFlatFile(rel, content)
	}
	return v.AddFile(rel, content)
}

// read looks a file up in the map, then under basePath.
func (p *packer) read(rel string) ([]byte, error) {
	if content, ok := p.files.Get(rel); ok {
		return content, nil
	}
	if p.basePath == "" {
		return nil, fmt.Errorf("%s: %w", rel, fs.ErrNotExist)
	}
	clean, err := relPath(rel)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(filepath.Join(p.basePath, filepath.FromSlash(clean)))
	if err != nil {
		return nil, err
	}
	return content, nil
}

// Packer adapts Pack and UnpackArchive to the loader.
type Packer struct {
	Hooks *TransformHooks
}

// Pack implements the loader's packer collaborator.
func (p Packer) Pack(files Files, basePath string) ([]byte, error) {
	return Pack(files, basePath, p.Hooks)
}

// UnpackArchive implements the loader's packer collaborator.
func (p Packer) UnpackArchive(data []byte) (Files, error) {
	return UnpackArchive(data)
}
