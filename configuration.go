package rowcheck

import (
	"os"
	"path"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Standard paths to use to store rowcheck related data
// https://specifications.freedesktop.org/basedir-spec/latest/
type StandardPaths struct {
	// Can be used to change the profile
	// Default: "rowcheck"
	ROWCHECK_APPNAME string
	// Path to configuration directory.
	// Default: "$XDG_CONFIG_HOME/$ROWCHECK_APPNAME" or "$HOME/.config/$ROWCHECK_APPNAME" if unset
	CONFIG_HOME string
	// Path to state directory
	// Default: "$XDG_STATE_HOME/$ROWCHECK_APPNAME" or "$HOME/.local/state/$ROWCHECK_APPNAME" if unset
	STATE_HOME string
	// Path to data directory
	// Default: "$XDG_DATA_HOME/$ROWCHECK_APPNAME" or "$HOME/.local/share/$ROWCHECK_APPNAME"
	DATA_HOME string
}

// Keeps everything in the working directory
func PWDStandardPaths() StandardPaths {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	return StandardPaths{"rowcheck", wd, wd, wd}
}

func (s StandardPaths) init() error {
	for _, p := range []string{s.CONFIG_HOME, s.STATE_HOME, s.DATA_HOME} {
		if err := os.MkdirAll(p, 0700); err != nil {
			return errors.Wrapf(err, "failed to create standard path: %s", p)
		}
	}
	return nil
}

type stdpathsBuilder struct {
	stdpaths *StandardPaths
	home     string

	app    string
	config string
	state  string
	data   string
}

func newStdpathsBuilder() *stdpathsBuilder {
	return &stdpathsBuilder{home: os.Getenv("HOME")}
}

func (b *stdpathsBuilder) withStdpaths(stdpaths *StandardPaths) *stdpathsBuilder {
	bcp := *b
	bcp.stdpaths = stdpaths
	return &bcp
}

func (b *stdpathsBuilder) isValid(val string) bool {
	return !slices.Contains([]string{"", "-"}, val)
}

func (b *stdpathsBuilder) bind(val, env, def string) string {
	if b.isValid(val) {
		return val
	}
	if v := os.Getenv(env); b.isValid(v) {
		return v
	}
	return def
}

func (b *stdpathsBuilder) bindToApp(val, env, def string) string {
	v := b.bind(val, env, def)
	if v == val {
		return val
	}
	return path.Join(v, b.app)
}

func (b *stdpathsBuilder) setApp(val string) *stdpathsBuilder {
	b.app = b.bind(val, "ROWCHECK_APPNAME", "rowcheck")
	return b
}

func (b *stdpathsBuilder) setConfig(val string) *stdpathsBuilder {
	b.config = b.bindToApp(val, "XDG_CONFIG_HOME", path.Join(b.home, ".config"))
	return b
}

func (b *stdpathsBuilder) setState(val string) *stdpathsBuilder {
	b.state = b.bindToApp(val, "XDG_STATE_HOME", path.Join(b.home, ".local", "state"))
	return b
}

func (b *stdpathsBuilder) setData(val string) *stdpathsBuilder {
	b.data = b.bindToApp(val, "XDG_DATA_HOME", path.Join(b.home, ".local", "share"))
	return b
}

func (b *stdpathsBuilder) build() *StandardPaths {
	stdpaths := b.stdpaths
	stdpaths.ROWCHECK_APPNAME = b.app
	stdpaths.CONFIG_HOME = b.config
	stdpaths.STATE_HOME = b.state
	stdpaths.DATA_HOME = b.data
	return stdpaths
}

// Overrides empty standard paths
func BindStandardPaths(stdpaths *StandardPaths) *StandardPaths {
	b := newStdpathsBuilder().withStdpaths(stdpaths)
	return b.setApp(stdpaths.ROWCHECK_APPNAME).
		setConfig(stdpaths.CONFIG_HOME).
		setData(stdpaths.DATA_HOME).
		setState(stdpaths.STATE_HOME).
		build()
}

// Reader and run settings. Flags override them
type Settings struct {
	Delimiter        string        `yaml:"delimiter"`
	Headers          bool          `yaml:"headers"`
	Flexible         bool          `yaml:"flexible"`
	TrimLeadingSpace bool          `yaml:"trim_leading_space"`
	LazyQuotes       bool          `yaml:"lazy_quotes"`
	Comment          string        `yaml:"comment"`
	CacheSize        int           `yaml:"cache_size"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	// Persist reports in $DATA_HOME/reports.db
	Store bool `yaml:"store"`
}

func DefaultSettings() Settings {
	return Settings{
		Delimiter: ",",
		Headers:   true,
	}
}

func (s Settings) validate() error {
	if len(s.Delimiter) != 1 {
		return errors.Errorf("delimiter must be a single byte, got %q", s.Delimiter)
	}
	if s.Delimiter[0] >= utf8.RuneSelf {
		return errors.Wrapf(ErrDelimiter, "got %q", s.Delimiter)
	}
	if len(s.Comment) > 1 {
		return errors.Errorf("comment must be a single character, got %q", s.Comment)
	}
	if s.CacheSize < 0 {
		return errors.Errorf("cache size must not be negative, got %d", s.CacheSize)
	}
	return nil
}

// Options for the row sources
func (s Settings) Options() []Option {
	opts := []Option{
		WithHeaders(s.Headers),
		WithFlexible(s.Flexible),
		WithTrimLeadingSpace(s.TrimLeadingSpace),
		WithLazyQuotes(s.LazyQuotes),
		WithCache(s.CacheSize, s.CacheTTL),
	}
	if s.Comment != "" {
		opts = append(opts, WithComment(rune(s.Comment[0])))
	}
	return opts
}

type Configuration struct {
	paths    StandardPaths
	Settings Settings
}

func (c *Configuration) Paths() StandardPaths {
	return c.paths
}

// Returns the location where we store reports
func (c *Configuration) Home() string {
	return c.paths.DATA_HOME
}

func (c *Configuration) Reports() string {
	return path.Join(c.Home(), "reports.db")
}

// Loads the settings file. An empty or "-" path looks for settings.yaml
// in the configuration directory, and falls back to the defaults.
func LoadSettings(fpath string, stdpaths *StandardPaths) (*Configuration, error) {
	if err := stdpaths.init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize standard paths")
	}

	conf := &Configuration{
		paths:    *stdpaths,
		Settings: DefaultSettings(),
	}

	explicit := fpath != "" && fpath != "-"
	if !explicit {
		fpath = path.Join(stdpaths.CONFIG_HOME, "settings.yaml")
	}

	b, err := os.ReadFile(fpath)
	switch {
	case err == nil:
	case os.IsNotExist(err) && !explicit:
		return conf, nil
	default:
		return nil, errors.Wrapf(err, "failed to read settings %s", fpath)
	}

	if err := yaml.Unmarshal(b, &conf.Settings); err != nil {
		return nil, errors.Wrapf(err, "failed to parse settings %s", fpath)
	}
	if err := conf.Settings.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid settings %s", fpath)
	}
	return conf, nil
}
