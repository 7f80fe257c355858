package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/internal/config"
	"github.com/goliatone/go-formkit/internal/logging"
	"github.com/goliatone/go-formkit/internal/tokens"
	"github.com/goliatone/go-formkit/pkg/formdef"
	"github.com/goliatone/go-formkit/pkg/lang"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// cliFingerprint stands in for the user agent of command line sessions.
const cliFingerprint = "formkit-cli"

// errInvalid makes the process exit with status 1 without printing an error;
// the command has already written its report.
var errInvalid = errors.New("invalid")

type app struct {
	configPath string

	cfg    *config.Config
	logger *zap.Logger

	once    sync.Once
	factory *tokens.Factory
	openErr error
}

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintf(os.Stderr, "formkit: %s\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "formkit",
		Short:         "Describe, render and validate HTML forms",
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ./formkit.yaml)")

	rootCmd.AddCommand(
		renderCmd(a),
		validateCmd(a),
		promptCmd(a),
		serveCmd(a),
		tokenCmd(a),
		openapiCmd(a),
	)
	return rootCmd
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

func (a *app) close() error {
	if a.factory != nil {
		if err := a.factory.Close(); err != nil {
			return err
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return nil
}

// tokenFactory opens the configured token backend on first use.
func (a *app) tokenFactory() (*tokens.Factory, error) {
	a.once.Do(func() {
		a.factory, a.openErr = tokens.New(a.cfg, a.logger)
	})
	return a.factory, a.openErr
}

// loadForm builds the definition at path. A token issuer for session is
// attached when a token secret is configured.
func (a *app) loadForm(ctx context.Context, path, session string) (*formdef.Form, error) {
	opts := []formdef.Option{formdef.WithCatalog(lang.Default())}
	if a.cfg.Token.Secret != "" {
		factory, err := a.tokenFactory()
		if err != nil {
			return nil, err
		}
		issuer, err := factory.Issuer(ctx, session, cliFingerprint)
		if err != nil {
			return nil, err
		}
		opts = append(opts, formdef.WithIssuer(issuer))
	}
	return formdef.LoadFile(path, opts...)
}

// readJSON decodes the file at path, or stdin for "-".
func readJSON(path string, out any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
