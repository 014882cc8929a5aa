// Package cli implements authctl, the administrative command line for the
// auth service. Commands run against the same backends as the server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"BizBooksPlatform/pkg/config"
	pkgErrors "BizBooksPlatform/pkg/errors"
	"BizBooksPlatform/pkg/logger"
	"BizBooksPlatform/services/auth-service/internal/app"
)

// Builder creates the application a command runs against.
type Builder func(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.App, error)

func defaultBuilder(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.App, error) {
	return app.New(ctx, cfg, log, app.Options{})
}

type Option func(*root)

// WithBuilder replaces app.New.
func WithBuilder(b Builder) Option {
	return func(r *root) {
		r.build = b
	}
}

// WithLogger replaces the logger built from configuration.
func WithLogger(log logger.Logger) Option {
	return func(r *root) {
		r.log = log
	}
}

type root struct {
	v     *viper.Viper
	build Builder
	log   logger.Logger
}

// NewRootCommand returns the authctl command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	r := &root{v: viper.New(), build: defaultBuilder}
	for _, opt := range opts {
		opt(r)
	}

	cmd := &cobra.Command{
		Use:           "authctl",
		Short:         "Administer the BizBooks auth service",
		Version:       app.ServiceVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "config file (YAML or JSON)")
	cmd.PersistentFlags().StringP("output", "o", "text", "output format (text, json, yaml)")
	_ = r.v.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	_ = r.v.BindPFlag("output", cmd.PersistentFlags().Lookup("output"))
	r.v.SetEnvPrefix("AUTHCTL")
	r.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	r.v.AutomaticEnv()

	cmd.AddCommand(
		r.migrateCmd(),
		r.applyActivationCmd(),
		r.statusCmd(),
		r.purgeCodesCmd(),
	)
	return cmd
}

// withApp loads configuration, builds the app and closes it after fn.
func (r *root) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.LoadConfig(r.v.GetString("config"))
	if err != nil {
		return err
	}

	log := r.log
	if log == nil {
		if log, err = logger.NewLogger(cfg.Environment, cfg.Logger.Level, "authctl"); err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() {
			_ = log.Sync()
		}()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := r.build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			log.Warn("Failed to close connections", logger.Error(closeErr))
		}
	}()

	if err := fn(ctx, a); err != nil {
		return commandError(cmd, err)
	}
	return nil
}

// commandError keeps internal causes out of the terminal, as the HTTP layer does.
func commandError(cmd *cobra.Command, err error) error {
	e := pkgErrors.FromError(err)
	if e.Code == pkgErrors.ErrInternal {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	if e.Details != "" {
		return fmt.Errorf("%s: %s (%s)", cmd.Name(), e.GetUserMessage(), e.Details)
	}
	return fmt.Errorf("%s: %s", cmd.Name(), e.GetUserMessage())
}

func (r *root) print(w io.Writer, text string, v interface{}) error {
	switch format := r.v.GetString("output"); format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case "text", "":
		_, err := fmt.Fprintln(w, text)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
