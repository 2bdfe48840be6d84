package rowcheck

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Returned by check when any row did not pass
var ErrInvalidRows = errors.New("invalid rows found")

// Commands take a pointer, the configuration is only loaded once the
// persistent flags are parsed
func Commands(conf *Configuration) []*cobra.Command {
	return []*cobra.Command{
		checkCommand(conf),
		listCommand(),
		reportsCommand(conf),
		pathsCommand(conf),
	}
}

type ValidatorFlags struct {
	Type   string
	Schema string
	Plugin string
}

// Builds the validator named by the flags. The returned function releases it
func (f ValidatorFlags) load() (Validator, string, func(), error) {
	noop := func() {}
	switch {
	case f.Schema != "":
		s, err := LoadSchema(f.Schema)
		return s, "schema:" + f.Schema, noop, err
	case f.Plugin != "":
		v, kill, err := LoadPlugin(f.Plugin)
		return v, "plugin:" + f.Plugin, kill, err
	default:
		v, err := Lookup(f.Type)
		return v, f.Type, noop, err
	}
}

type CheckFlags struct {
	Delimiter string
	Headers   bool
	Flexible  bool
	Store     bool
	Watch     bool
	FailFast  bool
	Quiet     bool
}

// Flags that were set override the settings
func (f CheckFlags) apply(flags *pflag.FlagSet, s Settings) (Settings, error) {
	if flags.Changed("delimiter") {
		s.Delimiter = f.Delimiter
	}
	if flags.Changed("headers") {
		s.Headers = f.Headers
	}
	if flags.Changed("flexible") {
		s.Flexible = f.Flexible
	}
	if flags.Changed("store") {
		s.Store = f.Store
	}
	return s, s.validate()
}

func checkCommand(conf *Configuration) *cobra.Command {
	var (
		vFlags ValidatorFlags
		cFlags CheckFlags
	)

	cmd := &cobra.Command{
		Use:   "check [file]... (-t type | --schema file | --plugin path)",
		Short: "Validate delimited files",
		Example: `
		$ rowcheck check people.csv -t example
		Valid: [true,ann]
		[validation.row.invalid] 1, "bob is not valid", [false,bob]
		$ cat people.csv | rowcheck check --schema people.schema --quiet
		`,
		Long: `
		Reads every row of the given files and validates it against a record type, a schema
		file or a validator plugin. Without files, rows are read from the standard input.
		The command fails when any row did not pass.
		`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cFlags.apply(cmd.Flags(), conf.Settings)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				if cFlags.Watch {
					return errors.New("watch needs at least one file")
				}
				args = []string{STDIN_SOURCE}
			}

			v, name, release, err := vFlags.load()
			if err != nil {
				return err
			}
			defer release()

			c := &checker{
				validator: v,
				name:      name,
				settings:  settings,
				flags:     cFlags,
				home:      conf.Home(),
				out:       cmd.OutOrStdout(),
				stdin:     cmd.InOrStdin(),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if !cFlags.Watch {
				return c.run(ctx, args)
			}
			if err := c.run(ctx, args); err != nil && !errors.Is(err, ErrInvalidRows) {
				return err
			}
			return Watch(ctx, args, DEFAULT_DEBOUNCE, log.Logger, func(changed []string) error {
				return c.run(ctx, changed)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&vFlags.Type, "type", "t", "", "Registered record type")
	flags.StringVar(&vFlags.Schema, "schema", "", "Schema file")
	flags.StringVar(&vFlags.Plugin, "plugin", "", "Validator plugin binary")
	flags.StringVarP(&cFlags.Delimiter, "delimiter", "d", ",", "Field delimiter")
	flags.BoolVar(&cFlags.Headers, "headers", true, "First line holds the column names")
	flags.BoolVar(&cFlags.Flexible, "flexible", false, "Accept rows with a varying number of fields")
	flags.BoolVar(&cFlags.Store, "store", false, "Store a report of the run")
	flags.BoolVarP(&cFlags.Watch, "watch", "w", false, "Check again whenever a file changes")
	flags.BoolVar(&cFlags.FailFast, "fail-fast", false, "Stop on the first invalid row")
	flags.BoolVarP(&cFlags.Quiet, "quiet", "q", false, "Only print invalid rows")

	cmd.MarkFlagsMutuallyExclusive("type", "schema", "plugin")
	cmd.MarkFlagsOneRequired("type", "schema", "plugin")

	return cmd
}

type checker struct {
	validator Validator
	name      string
	settings  Settings
	flags     CheckFlags
	home      string
	out       io.Writer
	stdin     io.Reader
}

func (c *checker) printer() Subscriber {
	return Subscriber{
		Events: []EventType{ROW_EVENT, SOURCE_EVENT},
		Handle: func(e Event) error {
			var err error
			switch {
			case e.Type == SOURCE_EVENT:
				if e.Summary.Err != nil {
					_, err = fmt.Fprintf(c.out, "%s: %v\n", e.Source, e.Summary.Err)
				}
			case e.Err != nil:
				_, err = io.WriteString(c.out, e.Err.Error())
			case !c.flags.Quiet:
				_, err = fmt.Fprintf(c.out, "Valid: %s\n", e.Row)
			}
			return err
		},
	}
}

func (c *checker) run(ctx context.Context, sources []string) error {
	em := NewEmitter()
	em.Subscribe(c.printer())

	var collector *reportCollector
	if c.settings.Store {
		collector = newReportCollector(c.name)
		em.Subscribe(collector.Subscriber())
	}

	e := NewEngine(c.validator, c.settings.Delimiter[0], em, c.settings.Options()...).
		WithFailFast(c.flags.FailFast).
		WithLogger(log.Logger)
	e.stdin = c.stdin

	summaries, runErr := e.Run(ctx, sources)

	if collector != nil {
		repo := newReportRepo(c.home)
		defer repo.Close()
		if err := collector.flush(repo); err != nil {
			return errors.Wrap(err, "failed to store reports")
		}
		log.Info().Str("run", collector.RunID()).Msg("reports stored")
	}

	if runErr != nil && !errors.Is(runErr, ErrStopped) {
		return runErr
	}
	for _, s := range summaries {
		if s.Invalid > 0 || s.Err != nil {
			return ErrInvalidRows
		}
	}
	return nil
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered record types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range Registered() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func reportsCommand(conf *Configuration) *cobra.Command {
	var (
		wipe bool
		run  string
	)

	cmd := &cobra.Command{
		Use:   "reports [--run id] [--clear]",
		Short: "List or clear the stored reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := newReportRepo(conf.Home())
			defer repo.Close()

			if wipe {
				return repo.deleteReports()
			}
			reports, err := repo.getReports(run)
			if err != nil {
				return err
			}
			return printReports(cmd.OutOrStdout(), reports)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&wipe, "clear", false, "Delete every stored report")
	flags.StringVar(&run, "run", "", "Only reports of the given run")
	cmd.MarkFlagsMutuallyExclusive("clear", "run")

	return cmd
}

func printReports(w io.Writer, reports []*Report) error {
	var b strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&b, "%s %s %s %s rows=%d invalid=%d\n",
			r.CreatedAt.Format("2006-01-02T15:04:05"), r.RunID, r.Source, r.Validator, r.Rows, r.Invalid)
		for _, d := range r.Diagnostics {
			fmt.Fprintf(&b, "  %s\n", d.Message)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func pathsCommand(conf *Configuration) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the standard paths in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := conf.Paths()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "app: %s\nconfig: %s\nstate: %s\ndata: %s\nreports: %s\n",
				p.ROWCHECK_APPNAME, p.CONFIG_HOME, p.STATE_HOME, p.DATA_HOME, conf.Reports())
			return err
		},
	}
}
