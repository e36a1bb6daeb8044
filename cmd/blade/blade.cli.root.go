package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	blade "github.com/itsatony/go-blade"
)

// app holds the state shared by all commands of one invocation
type app struct {
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	v          *viper.Viper
	configFile string
	logger     *zap.Logger
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		v:      viper.New(),
		logger: zap.NewNop(),
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           CLIName,
		Short:         CLIShort,
		Long:          HelpLong,
		Version:       blade.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.initConfig(); err != nil {
				return err
			}
			return a.initLogger()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, FlagConfig, "", HelpFlagConfig)
	flags.StringSliceP(FlagRoot, FlagRootShort, nil, HelpFlagRoot)
	flags.StringSlice(FlagExtension, nil, HelpFlagExt)
	flags.String(FlagEscape, "", HelpFlagEscape)
	flags.Int(FlagMaxDepth, 0, HelpFlagMaxDepth)
	flags.String(FlagDriver, "", HelpFlagDriver)
	flags.String(FlagDSN, "", HelpFlagDSN)
	flags.String(FlagLogLevel, FlagDefaultLogLevel, HelpFlagLogLevel)

	a.bindFlags(flags, map[string]string{
		KeySearchRoots:    FlagRoot,
		KeyExtensions:     FlagExtension,
		KeyEscapeFunction: FlagEscape,
		KeyMaxDepth:       FlagMaxDepth,
		KeyStorageDriver:  FlagDriver,
		KeyStorageDSN:     FlagDSN,
		KeyLogLevel:       FlagLogLevel,
	})

	root.AddCommand(
		a.compileCommand(),
		a.validateCommand(),
		a.tokensCommand(),
		a.versionCommand(),
	)
	return root
}

func (a *app) bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		// only fails for a nil flag
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}
}

// initConfig reads the config file and enables BLADE_* environment variables.
//
// The file is taken from --config, then BLADE_CONFIG_FILE, then .blade.yaml
// in the working directory. A missing default file is not an error.
func (a *app) initConfig() error {
	if a.configFile == "" {
		a.configFile = os.Getenv(EnvConfigFile)
	}
	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
	} else {
		a.v.AddConfigPath(ConfigSearchPath)
		a.v.SetConfigName(ConfigFileName)
		a.v.SetConfigType(ConfigFileType)
	}

	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.configFile != "" || !errors.As(err, &notFound) {
			return newCLIError(ExitCodeConfigError, ErrMsgConfigFailed, err)
		}
	}
	return nil
}

func (a *app) initLogger() error {
	level, err := zapcore.ParseLevel(a.v.GetString(KeyLogLevel))
	if err != nil {
		return newCLIError(ExitCodeUsageError, ErrMsgInvalidLogLevel, err)
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	a.logger = zap.New(zapcore.NewCore(encoder, zapcore.AddSync(a.stderr), level))
	return nil
}

// settings maps the merged configuration onto compiler settings
func (a *app) settings() blade.Settings {
	v := a.v
	s := blade.Settings{
		Tags: blade.TagSettings{
			EscapedOpen:  v.GetString(KeyTagsEscapedOpen),
			EscapedClose: v.GetString(KeyTagsEscapedClose),
			RawOpen:      v.GetString(KeyTagsRawOpen),
			RawClose:     v.GetString(KeyTagsRawClose),
		},
		EscapeFunction: v.GetString(KeyEscapeFunction),
		MaxDepth:       v.GetInt(KeyMaxDepth),
		SearchRoots:    v.GetStringSlice(KeySearchRoots),
		Extensions:     v.GetStringSlice(KeyExtensions),
		Concurrency:    v.GetInt(KeyConcurrency),
	}
	if v.IsSet(KeyCache) || v.IsSet(KeyCacheTTL) {
		s.Cache = &blade.CacheSettings{
			TTL:              v.GetDuration(KeyCacheTTL),
			MaxEntries:       v.GetInt(KeyCacheMaxEntries),
			NegativeCacheTTL: v.GetDuration(KeyCacheNegativeTTL),
		}
	}
	return s
}

// newCompiler builds a compiler from the configuration. The returned cleanup
// closes the compiler and any storage opened through a driver.
func (a *app) newCompiler(extra ...blade.Option) (*blade.Compiler, func(), error) {
	settings := a.settings()
	opts := []blade.Option{blade.WithSettings(settings), blade.WithLogger(a.logger)}

	var driverStorage blade.SourceStorage
	if driver := a.v.GetString(KeyStorageDriver); driver != "" {
		storage, err := blade.OpenStorage(driver, a.v.GetString(KeyStorageDSN))
		if err != nil {
			return nil, nil, newCLIError(ExitCodeConfigError, ErrMsgCompilerFailed, err)
		}
		a.logger.Debug(blade.LogMsgStorageOpened, zap.String(blade.LogFieldDriver, driver))
		driverStorage = storage
		opts = append(opts, blade.WithStorage(storage))
	} else if len(settings.SearchRoots) == 0 {
		opts = append(opts, blade.WithSearchRoots(DefaultSearchRoot))
	}
	opts = append(opts, extra...)

	compiler, err := blade.New(opts...)
	if err != nil {
		if driverStorage != nil {
			_ = driverStorage.Close()
		}
		return nil, nil, newCLIError(ExitCodeConfigError, ErrMsgCompilerFailed, err)
	}

	cleanup := func() {
		_ = compiler.Close()
		if driverStorage != nil {
			_ = driverStorage.Close()
		}
		_ = a.logger.Sync()
	}
	return compiler, cleanup, nil
}
