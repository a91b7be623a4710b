// Package cli implements ebctl, an operator tool for the e-Boekhouden connector.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pesio-ai/be-gl-eboekhouden/internal/accounting"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/client"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/config"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/logger"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/service"
)

// ProviderFactory builds the remote provider from loaded configuration
type ProviderFactory func(cfg *config.Config, log *logger.Logger) (accounting.Provider, error)

type app struct {
	configFile  string
	verbose     bool
	newProvider ProviderFactory
	svc         *service.AccountingService
}

// NewRootCommand builds the ebctl command tree. A nil factory talks to e-Boekhouden.
func NewRootCommand(newProvider ProviderFactory) *cobra.Command {
	if newProvider == nil {
		newProvider = remoteProvider
	}
	a := &app{newProvider: newProvider}

	root := &cobra.Command{
		Use:           "ebctl",
		Short:         "Inspect and feed an e-Boekhouden administration",
		Long:          "ebctl lists relations, ledgers and mutations from e-Boekhouden and pushes invoices built from work order files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "path to config file (default ./config.yaml or /etc/eboekhouden/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log remote calls to stderr")

	root.AddCommand(
		a.relationsCmd(),
		a.ledgersCmd(),
		a.mutationsCmd(),
		a.invoiceCmd(),
	)
	return root
}

// Execute runs ebctl and exits non-zero on failure.
func Execute() {
	root := NewRootCommand(nil)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) init(stderr io.Writer) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configFile != "" {
		cfg, err = config.LoadFile(a.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{
		Level:       level,
		Environment: "development",
		ServiceName: "ebctl",
		Version:     cfg.Service.Version,
		Output:      stderr,
	})

	provider, err := a.newProvider(cfg, log)
	if err != nil {
		return err
	}
	a.svc = service.NewAccountingService(provider, nil, log)
	return nil
}

func remoteProvider(cfg *config.Config, log *logger.Logger) (accounting.Provider, error) {
	return client.NewEboekhoudenClient(
		client.ConfigFromSettings(cfg.Eboekhouden),
		client.WithLogger(log.Logger),
	), nil
}
