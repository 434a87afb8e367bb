package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/funcbox/pkg/api"
	"github.com/entrhq/funcbox/pkg/function/service"
	"github.com/entrhq/funcbox/pkg/function/store"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write a backup of every function",
		Long: `Write a backup of every function to file, as YAML for .yaml/.yml paths and
JSON otherwise. Without a file the JSON backup is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(svc *service.Service) error {
				if len(args) == 0 {
					data, err := store.Marshal(svc.Export().Data.(*store.Document), store.EncodingJSON)
					if err != nil {
						return err
					}
					fmt.Fprintln(opts.out, string(data))
					return nil
				}
				resp := svc.ExportFile(args[0])
				if err := finish(opts, resp); err != nil {
					return err
				}
				if opts.jsonOut {
					printJSON(opts.out, resp)
					return nil
				}
				info := resp.Data.(map[string]any)
				fmt.Fprintln(opts.out, successStyle.Render(fmt.Sprintf("Exported %v functions to %v", info["count"], info["path"])))
				return nil
			})
		},
	}
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace every function with the contents of a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(svc *service.Service) error {
				resp := svc.ImportFile(cmd.Context(), args[0])
				if err := finish(opts, resp); err != nil {
					return err
				}
				if opts.jsonOut {
					printJSON(opts.out, resp)
					return nil
				}
				info := resp.Data.(map[string]any)
				fmt.Fprintln(opts.out, successStyle.Render(fmt.Sprintf("Imported %v functions", info["count"])))
				return nil
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(svc *service.Service) error {
				resp := svc.Stats()
				if opts.jsonOut {
					printJSON(opts.out, resp)
					return nil
				}
				stats := resp.Data.(service.Stats)
				mostUsed := stats.Store.MostUsedFunction
				if mostUsed == "" {
					mostUsed = "-"
				}
				printKV(opts.out, titleStyle.Render("Functions"), [][2]string{
					{"Total", strconv.Itoa(stats.Store.TotalFunctions)},
					{"Total usage", strconv.Itoa(stats.Store.TotalUsage)},
					{"Average usage", strconv.FormatFloat(stats.Store.AverageUsage, 'f', 2, 64)},
					{"Most used", mostUsed},
				})
				return nil
			})
		},
	}
}

func newCapabilitiesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "List the capabilities function bodies may use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(svc *service.Service) error {
				names := svc.Capabilities()
				if opts.jsonOut {
					printJSON(opts.out, service.OK(names))
					return nil
				}
				for _, n := range names {
					fmt.Fprintln(opts.out, string(n))
				}
				return nil
			})
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	cfg := api.DefaultServerConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the function library over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return opts.withService(ctx, func(svc *service.Service) error {
				server := api.NewServer(svc, cfg, Version, opts.getLogger().Named("api"))
				errCh := make(chan error, 1)
				go func() { errCh <- server.Start() }()

				fmt.Fprintln(opts.out, successStyle.Render("Listening on http://"+server.Addr()))
				select {
				case err := <-errCh:
					return err
				case <-ctx.Done():
				}

				fmt.Fprintln(opts.out, labelStyle.Render("Shutting down..."))
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
		},
	}
	cmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "listen address")
	cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	return cmd
}
