package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/entrhq/funcbox/pkg/agent/memory/notes"
	"github.com/entrhq/funcbox/pkg/config"
	"github.com/entrhq/funcbox/pkg/function/service"
	"github.com/entrhq/funcbox/pkg/logging"
)

// Build information, set with -ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

type rootOptions struct {
	configPath string
	logDir     string
	jsonOut    bool

	out    io.Writer
	errOut io.Writer
	logger *logging.Logger
	notes  *notes.Manager
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:   "funcbox",
		Short: "Manage and run sandboxed custom functions",
		Long: `funcbox keeps a library of small JavaScript functions, checks them for
syntax, security and naming problems before storing them, and runs them in
an isolated sandbox with a time budget.

Examples:
  # Store a function described in a YAML file
  funcbox create --file double.yaml

  # Run it
  funcbox run double --arg n=21

  # Serve the library over HTTP
  funcbox serve --port 8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				opts.logger.Close()
			}
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.funcbox/config.yaml)")
	flags.StringVar(&opts.logDir, "log-dir", "", "log directory (default ~/.funcbox/logs)")
	flags.BoolVarP(&opts.jsonOut, "json", "j", false, "print raw JSON responses")

	cmd.AddCommand(
		newListCmd(opts),
		newShowCmd(opts),
		newCreateCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
		newRunCmd(opts),
		newValidateCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newStatsCmd(opts),
		newCapabilitiesCmd(opts),
		newServeCmd(opts),
		newAgentCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

func (o *rootOptions) getLogger() *logging.Logger {
	if o.logger == nil {
		if o.logDir != "" {
			logging.SetLogDirectory(o.logDir)
		}
		// On error NewLogger still returns a stderr logger.
		o.logger, _ = logging.NewLogger("funcbox")
	}
	return o.logger
}

// noteStore is shared by the notes capability and the note tools.
func (o *rootOptions) noteStore() *notes.Manager {
	if o.notes == nil {
		o.notes = notes.NewManager()
	}
	return o.notes
}

// open loads configuration and builds the service it describes.
func (o *rootOptions) open(ctx context.Context) (*service.Service, error) {
	if err := config.Initialize(o.configPath); err != nil {
		return nil, err
	}
	backend, path, err := config.GetStorage().Location()
	if err != nil {
		return nil, err
	}
	persister, err := service.NewPersister(backend, path)
	if err != nil {
		return nil, err
	}
	timeout, maxCallStack := config.GetSandbox().Limits()

	return service.New(ctx, service.Config{
		Persister:    persister,
		Limits:       config.GetValidation().Limits(),
		Timeout:      timeout,
		MaxCallStack: maxCallStack,
		Notes:        o.noteStore(),
		Logger:       o.getLogger(),
	})
}

// withService opens the service for the duration of fn.
func (o *rootOptions) withService(ctx context.Context, fn func(*service.Service) error) error {
	svc, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if opts.jsonOut {
				printJSON(opts.out, map[string]string{"version": Version, "commit": GitCommit, "built": BuildTime})
				return
			}
			printKV(opts.out, titleStyle.Render("funcbox"), [][2]string{
				{"Version", Version},
				{"Git Commit", GitCommit},
				{"Build Time", BuildTime},
			})
		},
	}
}
