package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rowcheck"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const unset = "-"

type LogFlags struct {
	Level string
	JSON  bool
}

// Sets the global logger
func (f LogFlags) setup() error {
	level, err := zerolog.ParseLevel(f.Level)
	if err != nil {
		return errors.Wrapf(err, "bad log level %q", f.Level)
	}

	var logger zerolog.Logger
	if f.JSON {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = logger.Level(level).With().Timestamp().Logger()
	return nil
}

type Flags struct {
	Paths  rowcheck.StandardPaths
	Config string
	Log    LogFlags
	// keep everything in the working directory
	Local bool
}

func Run() error {
	return NewRootCommand().Execute()
}

func NewRootCommand() *cobra.Command {
	conf := new(rowcheck.Configuration)
	var f Flags

	com := &cobra.Command{
		Use:   "rowcheck",
		Short: "Validate delimited records",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := f.Log.setup(); err != nil {
				return err
			}

			// 1. bind the paths. Overrides defaults.
			if f.Local {
				f.Paths = rowcheck.PWDStandardPaths()
			}
			rowcheck.BindStandardPaths(&f.Paths)
			// 2. load and validate the configuration
			c, err := rowcheck.LoadSettings(f.Config, &f.Paths)
			if err != nil {
				return err
			}
			*conf = *c
			return nil
		},
	}

	// This set of flags propagates
	fl := com.PersistentFlags()

	stdpaths := &f.Paths
	pathFlags := pflag.NewFlagSet("Standard Paths", pflag.ExitOnError)
	pathFlags.StringVar(&stdpaths.ROWCHECK_APPNAME, "stdpath.app", unset, "App name")
	pathFlags.StringVar(&stdpaths.CONFIG_HOME, "stdpath.config", unset, "Configuration directory")
	pathFlags.StringVar(&stdpaths.STATE_HOME, "stdpath.state", unset, "State directory")
	pathFlags.StringVar(&stdpaths.DATA_HOME, "stdpath.data", unset, "Data directory")
	fl.AddFlagSet(pathFlags)

	cfgFlags := pflag.NewFlagSet("Configuration", pflag.ExitOnError)
	cfgFlags.StringVar(&f.Config, "config", "", "Path to settings file")
	cfgFlags.StringVar(&f.Log.Level, "log-level", "warn", "Log level")
	cfgFlags.BoolVar(&f.Log.JSON, "log-json", false, "Log as JSON lines")
	cfgFlags.BoolVar(&f.Local, "local", false, "Use the working directory for every standard path")
	fl.AddFlagSet(cfgFlags)
	com.MarkFlagsMutuallyExclusive("local", "stdpath.app", "stdpath.config", "stdpath.state", "stdpath.data")

	com.AddCommand(rowcheck.Commands(conf)...)
	com.AddCommand(demoCommand())

	return com
}
