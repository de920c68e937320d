package loader

import (
	"context"

	"go.uber.org/zap"

	wasmpack "github.com/wippyai/wasm-pack"
	"github.com/wippyai/wasm-pack/abi"
	"github.com/wippyai/wasm-pack/errors"
	"github.com/wippyai/wasm-pack/pack"
	"github.com/wippyai/wasm-pack/wai"
	"github.com/wippyai/wasm-pack/webc"
)

// Packer turns source trees and archives into container bytes.
type Packer interface {
	Pack(files pack.Files, basePath string) ([]byte, error)
	UnpackArchive(data []byte) (pack.Files, error)
}

// InterfaceParser parses interface definition text.
type InterfaceParser func(name, source string) (*wai.Interface, error)

type options struct {
	packer         Packer
	parseInterface InterfaceParser
	classifier     abi.Classifier
	parseOptions   webc.ParseOptions
	legacyFallback bool
	logger         *zap.Logger
}

// Option configures a Loader.
type Option func(*options)

func defaultOptions() options {
	return options{
		packer:         pack.Packer{},
		parseInterface: wai.Parse,
		classifier:     abi.Default(),
		parseOptions:   webc.DefaultParseOptions(),
		legacyFallback: true,
	}
}

// WithPacker sets the collaborator used for directories and archives.
func WithPacker(p Packer) Option {
	return func(o *options) {
		o.packer = p
	}
}

// WithInterfaceParser replaces the WAI parser.
func WithInterfaceParser(fn InterfaceParser) Option {
	return func(o *options) {
		o.parseInterface = fn
	}
}

// WithClassifier sets the ABI classifier. Default is abi.MarkerClassifier.
func WithClassifier(c abi.Classifier) Option {
	return func(o *options) {
		o.classifier = c
	}
}

// WithParseOptions sets the container parse options.
// Default is webc.DefaultParseOptions().
func WithParseOptions(opts webc.ParseOptions) Option {
	return func(o *options) {
		o.parseOptions = opts
	}
}

// WithLegacyPathFallback enables the flat-entry retry when a volume
// lookup fails. Default is true.
func WithLegacyPathFallback(enabled bool) Option {
	return func(o *options) {
		o.legacyFallback = enabled
	}
}

// WithLogger sets the logger. Default is the package Logger().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Loader loads packages. It holds no state between calls and is safe for
// concurrent use.
type Loader struct {
	opts options
	log  *zap.Logger
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}
	return &Loader{opts: o, log: log}
}

// Load loads a package with default options.
func Load(ctx context.Context, path string) (*wasmpack.Package, error) {
	return New().Load(ctx, path)
}

// Load reads a directory, archive or container file and extracts its package.
func (l *Loader) Load(ctx context.Context, path string) (*wasmpack.Package, error) {
	if err := checkContext(ctx, path); err != nil {
		return nil, err
	}
	data, err := l.readInput(path)
	if err != nil {
		return nil, err
	}
	return l.load(ctx, path, data)
}

// LoadBytes extracts a package from container bytes.
func (l *Loader) LoadBytes(ctx context.Context, data []byte) (*wasmpack.Package, error) {
	return l.load(ctx, "<memory>", data)
}

func (l *Loader) load(ctx context.Context, source string, data []byte) (*wasmpack.Package, error) {
	if err := checkContext(ctx, source); err != nil {
		return nil, err
	}

	c, err := webc.Parse(data, l.opts.parseOptions)
	if err != nil {
		return nil, errors.ParseFailed(source, err)
	}
	l.log.Debug("container parsed",
		zap.String("source", source),
		zap.Int("size", len(data)),
		zap.Strings("volumes", c.VolumeNames()))

	pkgName := c.PackageName()
	metadata, err := extractMetadata(pkgName)
	if err != nil {
		return nil, err
	}
	if info, ok, _ := c.Manifest().PackageInfo(); ok {
		metadata.Description = info.Description
	}

	if err := checkContext(ctx, source); err != nil {
		return nil, err
	}
	libraries, err := l.extractLibraries(c, pkgName)
	if err != nil {
		return nil, err
	}

	if err := checkContext(ctx, source); err != nil {
		return nil, err
	}
	commands, err := extractCommands(c, pkgName)
	if err != nil {
		return nil, err
	}

	l.log.Debug("package loaded",
		zap.String("package", pkgName),
		zap.Int("commands", len(commands)),
		zap.Int("libraries", len(libraries)))

	return &wasmpack.Package{
		Metadata:  metadata,
		Libraries: libraries,
		Commands:  commands,
	}, nil
}

func checkContext(ctx context.Context, subject string) error {
	if err := ctx.Err(); err != nil {
		return errors.New(errors.PhaseRead, errors.KindIO).
			Subject(subject).
			Detail("load cancelled").
			Cause(err).
			Build()
	}
	return nil
}
