package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasm-pack/abi"
	"github.com/wippyai/wasm-pack/loader"
	"github.com/wippyai/wasm-pack/pack"
	"github.com/wippyai/wasm-pack/runner"
)

// IOStreams are the command's standard streams.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// Config keys, shared by flags, WEBC_* environment variables and the config file.
const (
	keyLogLevel       = "log-level"
	keyAbiDetection   = "abi-detection"
	keyLegacyFallback = "legacy-fallback"
)

type settings struct {
	LogLevel       string `mapstructure:"log-level"`
	AbiDetection   string `mapstructure:"abi-detection"`
	LegacyFallback bool   `mapstructure:"legacy-fallback"`
}

// app carries state shared by subcommands once the root command has
// resolved its configuration.
type app struct {
	streams    IOStreams
	v          *viper.Viper
	configFile string
	settings   settings
	classifier abi.Classifier
	log        *zap.Logger
}

func newRootCmd(streams IOStreams, args []string) *cobra.Command {
	a := &app{streams: streams, v: viper.New(), log: zap.NewNop()}

	cmd := &cobra.Command{
		Use:           "webc",
		Short:         "Inspect, build and run WEBC packages",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd)
		},
	}
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.ErrOut)
	cmd.SetArgs(args)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (toml, yaml or json)")
	flags.String(keyLogLevel, "warn", "Log level: debug, info, warn or error")
	flags.String(keyAbiDetection, "marker", "WASI detection: marker (byte scan) or imports (module inspection)")
	flags.Bool(keyLegacyFallback, true, "Resolve interface files stored as flat entries by older packers")

	cmd.AddCommand(
		newInspectCmd(a),
		newPackCmd(a),
		newRunCmd(a),
		newBrowseCmd(a),
	)
	return cmd
}

func (a *app) configure(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("WEBC")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", a.configFile, err)
		}
	}
	if err := a.v.Unmarshal(&a.settings); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	level, err := zapcore.ParseLevel(a.settings.LogLevel)
	if err != nil {
		return fmt.Errorf("--%s: %w", keyLogLevel, err)
	}
	a.log = newLogger(a.streams.ErrOut, level)
	loader.SetLogger(a.log.Named("loader"))
	pack.SetLogger(a.log.Named("pack"))
	abi.SetLogger(a.log.Named("abi"))
	runner.SetLogger(a.log.Named("runner"))

	a.classifier, err = abi.ByName(a.settings.AbiDetection)
	if err != nil {
		return fmt.Errorf("--%s: %w", keyAbiDetection, err)
	}
	return nil
}

func newLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}

func (a *app) loader() *loader.Loader {
	return loader.New(
		loader.WithClassifier(a.classifier),
		loader.WithLegacyPathFallback(a.settings.LegacyFallback),
		loader.WithLogger(a.log.Named("loader")),
	)
}

// heuristicABI reports whether WASI detection is the byte-scan heuristic.
func (a *app) heuristicABI() bool {
	_, ok := a.classifier.(abi.MarkerClassifier)
	return ok
}
