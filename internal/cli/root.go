package cli

import (
	"fmt"
	"strings"
	"time"

	"quiz-arena-service/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is stamped at build time with -ldflags "-X quiz-arena-service/internal/cli.Version=...".
var Version = "dev"

// flags are command-line overrides on top of the YAML config.
type flags struct {
	configPath  string
	port        string
	bind        string
	logLevel    string
	logFormat   string
	redisAddr   string
	postgresURL string
	sqlitePath  string
	contentPath string
	autoAdvance time.Duration
	profile     bool
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	f := &flags{}
	cmd := &cobra.Command{
		Use:           "quiz-arena",
		Short:         "Real-time multiplayer quiz rooms over WebSocket",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&f.configPath, "config", "config/config.yaml", "path to YAML config (env: ARENA_CONFIG)")
	fs.StringVarP(&f.port, "port", "p", "", "port to listen on (env: ARENA_PORT)")
	fs.StringVarP(&f.bind, "bind", "b", "", "address to bind to (env: ARENA_BIND)")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (env: ARENA_LOG_LEVEL)")
	fs.StringVar(&f.logFormat, "log-format", "", "console or json (env: ARENA_LOG_FORMAT)")
	fs.StringVar(&f.redisAddr, "redis-addr", "", "redis address (env: ARENA_REDIS_ADDR)")
	fs.StringVar(&f.postgresURL, "postgres-url", "", "postgres connection url (env: ARENA_POSTGRES_URL)")
	fs.StringVar(&f.sqlitePath, "sqlite-path", "", "sqlite file for player progress (env: ARENA_SQLITE_PATH)")
	fs.StringVar(&f.contentPath, "content-path", "", "YAML topic file or directory (env: ARENA_CONTENT_PATH)")
	fs.DurationVar(&f.autoAdvance, "race-auto-advance", 0, "advance race rounds after this delay, 0 to wait for the host (env: ARENA_RACE_AUTO_ADVANCE)")
	fs.BoolVar(&f.profile, "profile", false, "register net/http/pprof handlers (env: ARENA_PROFILE)")

	fs.VisitAll(func(fl *pflag.Flag) {
		_ = v.BindPFlag(fl.Name, fl)
		_ = v.BindEnv(fl.Name)
		if !fl.Changed && v.IsSet(fl.Name) {
			_ = fs.Set(fl.Name, fmt.Sprintf("%v", v.Get(fl.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.AddCommand(NewStartCmd(f))
	cmd.AddCommand(NewMigrateCmd(f))
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

// load reads the config file and applies every flag that was set, either on
// the command line or through the environment.
func (f *flags) load(fs *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	f.apply(fs, &cfg)
	return cfg, nil
}

func (f *flags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	set := func(name string) bool {
		fl := fs.Lookup(name)
		return fl != nil && fl.Changed
	}
	if set("port") {
		cfg.Server.Port = f.port
	}
	if set("bind") {
		cfg.Server.Bind = f.bind
	}
	if set("profile") {
		cfg.Server.Profile = f.profile
	}
	if set("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if set("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if set("redis-addr") {
		cfg.Redis.Addr = f.redisAddr
	}
	if set("postgres-url") {
		cfg.Postgres.URL = f.postgresURL
	}
	if set("sqlite-path") {
		cfg.SQLite.Path = f.sqlitePath
	}
	if set("content-path") {
		cfg.Content.Path = f.contentPath
	}
	if set("race-auto-advance") {
		cfg.Race.AutoAdvance = f.autoAdvance.String()
	}
}

// NewVersionCmd prints the build version.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "quiz-arena %s\n", Version)
		},
	}
}
