package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool

	room        string
	server      string
	snapshotDir string
	snapshotDB  string
	columns     int
	pencil      bool

	logger zerolog.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	return nil
}

func (c *Config) validatePlay() error {
	if c.snapshotDir != "" && c.snapshotDB != "" {
		return errors.New("--snapshot-dir and --snapshot-db are mutually exclusive")
	}
	if c.columns < 1 {
		return fmt.Errorf("invalid column count (must be at least 1): %d", c.columns)
	}
	if c.room != "" && !strings.HasPrefix(c.room, "ws://") && !strings.HasPrefix(c.room, "wss://") {
		return fmt.Errorf("room must be a ws:// or wss:// URL: %s", c.room)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: logDate}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// bindFlags lets every flag in fs be set from an ACROSTIC_ environment
// variable; flags given on the command line win.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ACROSTIC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "acrostic",
		Short:         "Acrostic puzzle player with shared rooms.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.logger = newLogger(cfg.verbose)
		},
	}

	pfs := cmd.PersistentFlags()
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: ACROSTIC_VERBOSE)")
	bindFlags(v, pfs)

	cmd.AddCommand(newServeCmd(cfg, v), newPlayCmd(cfg, v), newIndexCmd(cfg), newRoomCmd(cfg, v))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("acrostic v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func newServeCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the room relay server.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: ACROSTIC_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 3030, "port to listen on (env: ACROSTIC_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: ACROSTIC_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: ACROSTIC_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 24*time.Hour, "time before idle rooms are closed (env: ACROSTIC_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: ACROSTIC_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: ACROSTIC_TLS_KEY)")
	bindFlags(v, fs)

	return cmd
}

func newPlayCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <puzzle>",
		Short: "Solve a puzzle in the terminal, optionally in a shared room.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validatePlay(); err != nil {
				return err
			}
			return Play(cmd.Context(), cfg, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.room, "room", "r", "", "room websocket URL to join (env: ACROSTIC_ROOM)")
	fs.StringVar(&cfg.snapshotDir, "snapshot-dir", defaultSnapshotDir(), "directory for saved progress (env: ACROSTIC_SNAPSHOT_DIR)")
	fs.StringVar(&cfg.snapshotDB, "snapshot-db", "", "sqlite database for saved progress, instead of a directory (env: ACROSTIC_SNAPSHOT_DB)")
	fs.IntVar(&cfg.columns, "columns", 40, "quote grid width (env: ACROSTIC_COLUMNS)")
	fs.BoolVar(&cfg.pencil, "pencil", false, "start in pencil mode (env: ACROSTIC_PENCIL)")
	bindFlags(v, fs)

	return cmd
}

func newIndexCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "index [index]",
		Short: "List the puzzles in an index document.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "./puzzles.json"
			if len(args) == 1 {
				src = args[0]
			}
			return ListIndex(cmd.Context(), cfg, src, cmd.OutOrStdout())
		},
	}
}

func newRoomCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Print the URL of a new random room.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), newRoomURL(cfg.server))
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.server, "server", "wss://ws.acrostic.club", "room server base URL (env: ACROSTIC_SERVER)")
	bindFlags(v, cmd.Flags())

	return cmd
}

func newRoomURL(server string) string {
	return strings.TrimSuffix(server, "/") + "/room/" + randomRoomID()
}
