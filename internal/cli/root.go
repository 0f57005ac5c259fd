// Package cli implements plantctl, which runs dashboard views against a
// source file without starting the server.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gyaneshwarpardhi/plantboard/internal/config"
	"github.com/gyaneshwarpardhi/plantboard/internal/dashboard"
	"github.com/gyaneshwarpardhi/plantboard/internal/dataset"
	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
)

// EnvPrefix prefixes environment overrides, e.g. PLANTBOARD_DATA.
const EnvPrefix = "PLANTBOARD"

// Execute runs plantctl with os.Args.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "err", errs.Loggable(err))
		return errs.Wrap(err, "execute root command")
	}
	return nil
}

// NewRootCommand builds the command tree. Each call has its own settings so
// tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "plantctl",
		Short:         "Query the plant dashboard from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel(v.GetString("log-level"))})))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (YAML or TOML); defaults when empty")
	pf.String("data", "", "source CSV (overrides data.path)")
	pf.Bool("pretty", false, "indent JSON output")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	cobra.CheckErr(v.BindPFlags(pf))

	env := &env{v: v}
	root.AddCommand(
		newViewCommand(env),
		newValidateCommand(env),
		newChartCommand(env),
	)
	return root
}

// env resolves settings shared by every subcommand.
type env struct {
	v *viper.Viper
}

func (e *env) config() (*config.Config, error) {
	loader, err := config.NewLoader(e.v.GetString("config"))
	if err != nil {
		return nil, err
	}
	cfg := *loader.Config()
	if data := e.v.GetString("data"); data != "" {
		cfg.Data.Path = data
	}
	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// service loads the dataset once and returns a service over it. Caching is
// off: each invocation computes one view.
func (e *env) service(ctx context.Context) (*dashboard.Service, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	store := dataset.NewStore(cfg)
	if _, _, err := store.Reload(ctx); err != nil {
		return nil, err
	}
	return dashboard.New(store), nil
}

func (e *env) print(w io.Writer, body []byte) error {
	if e.v.GetBool("pretty") {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err != nil {
			return errs.Wrap(err, "indent output")
		}
		body = buf.Bytes()
	}
	if _, err := w.Write(append(body, '\n')); err != nil {
		return errs.Wrap(err, "write output")
	}
	return nil
}

func logLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return l
}
