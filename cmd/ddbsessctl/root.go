package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unkn0wn-root/ddbsession/store/dynamo"
)

const version = "0.3.0"

// env is the context every subcommand runs with.
type env struct {
	v   *viper.Viper
	app *app // set in PersistentPreRunE
}

func newRootCmd() *cobra.Command {
	e := &env{v: viper.New()}

	root := &cobra.Command{
		Use:   "ddbsessctl",
		Short: "inspect and edit stored session namespaces",
		Long: fmt.Sprintf(`ddbsessctl (v%s)

Reads and writes session namespaces the same way the ddbsession library does:
writes are partial and conditional, so a concurrent change to the same
attribute makes the command fail instead of overwriting it.`, version),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.initConfig(cmd); err != nil {
				return err
			}
			a, err := newApp(e.v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			e.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if e.app == nil {
				return nil
			}
			return e.app.close(cmd.Context())
		},
	}

	f := root.PersistentFlags()
	f.String("config", "", wrap("config file (yaml, json or toml)"))
	f.String("backend", "dynamodb", wrap("record store: dynamodb or redis"))
	f.String("logger", "none", wrap("log to stderr with: none, zap, logrus or slog"))
	f.String("log-level", "info", wrap("debug, info, warn or error"))
	f.Bool("log-hooks", false, wrap("log lifecycle events (ids are redacted)"))
	f.String("accessed-attr", "_accessed_time", wrap("housekeeping attribute refreshed on every write"))
	f.Bool("touch", true, wrap("refresh the housekeeping attribute on writes"))

	f.String("redis-addr", "localhost:6379", wrap("redis address (backend=redis)"))
	f.String("redis-password", "", wrap("redis password (backend=redis)"))
	f.Int("redis-db", 0, wrap("redis database (backend=redis)"))
	f.String("redis-prefix", "ddbsession", wrap("redis key prefix (backend=redis)"))
	f.String("redis-codec", "msgpack", wrap("redis field codec: msgpack, json, cbor or proto"))
	f.Int("redis-max-value", 1<<20, wrap("refuse to decode redis fields larger than this many bytes; 0 disables"))

	// every DynamoDB option is a string flag; FromMap coerces the value
	for _, name := range dynamo.OptionNames() {
		f.String(flagName(name), "", wrap("dynamodb option "+name))
	}

	root.AddCommand(
		newGetCmd(e),
		newKeysCmd(e),
		newSetCmd(e),
		newDeleteCmd(e),
		newRmCmd(e),
		&cobra.Command{
			Use:   "version",
			Short: "print the version",
			// skip backend setup
			PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
			PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "ddbsessctl v%s\n", version)
			},
		},
	)
	return root
}

func (e *env) initConfig(cmd *cobra.Command) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := e.v
	v.SetEnvPrefix("ddbsess")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", file, err)
		}
	}
	return nil
}

// dynamoOptions merges the config file's "dynamodb" section with explicitly
// set flags/env vars; the latter win.
func dynamoOptions(v *viper.Viper) map[string]any {
	m := make(map[string]any)
	if sub := v.Sub("dynamodb"); sub != nil {
		for k, val := range sub.AllSettings() {
			m[k] = val
		}
	}
	for _, name := range dynamo.OptionNames() {
		if key := flagName(name); v.IsSet(key) {
			m[name] = v.Get(key)
		}
	}
	return m
}

func flagName(option string) string { return strings.ReplaceAll(option, "_", "-") }

const wrapAt = 50

// wrap folds help text at wrapAt columns.
func wrap(text string) string {
	var lines []string
	var cur strings.Builder
	for _, w := range strings.Fields(text) {
		if cur.Len() > 0 && cur.Len()+1+len(w) > wrapAt {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return strings.Join(lines, "\n")
}
