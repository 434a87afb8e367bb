package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/entrhq/funcbox/pkg/agent/tools"
	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/service"
	"github.com/entrhq/funcbox/pkg/tools/functions"
	"github.com/entrhq/funcbox/pkg/tools/scratchpad"
)

func agentRegistry(opts *rootOptions, svc *service.Service, createdBy string) *tools.Registry {
	registry := agentRegistry(opts, svc, createdBy)
	for _, t := range scratchpad.All(opts.noteStore()) {
		registry.Register(t)
	}
	return registry
}

func newAgentCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Agent tool integration",
	}
	cmd.AddCommand(newAgentCallCmd(opts), newAgentPromptCmd(opts))
	return cmd
}

func newAgentCallCmd(opts *rootOptions) *cobra.Command {
	var createdBy string
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Run one XML tool call read from stdin",
		Long: `Run one XML tool call read from stdin, for example:

  <tool>
    <server_name>local</server_name>
    <tool_name>run_custom_function</tool_name>
    <arguments><name>double</name><args>{"n": 21}</args></arguments>
  </tool>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read tool call: %w", err)
			}
			return opts.withService(cmd.Context(), func(svc *service.Service) error {
				registry := agentRegistry(opts, svc, createdBy)
				out, metadata, err := registry.Dispatch(cmd.Context(), string(input))
				if err != nil {
					return err
				}
				if opts.jsonOut {
					printJSON(opts.out, map[string]any{"output": out, "metadata": metadata})
					return nil
				}
				fmt.Fprintln(opts.out, out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&createdBy, "created-by", "agent", "author recorded on functions the agent creates")
	return cmd
}

func newAgentPromptCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the tool list and stored functions for a system prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(svc *service.Service) error {
				registry := agentRegistry(opts, svc, "")
				fmt.Fprintln(opts.out, "## Tools")
				fmt.Fprintln(opts.out)
				for _, t := range registry.List() {
					fmt.Fprintf(opts.out, "- **%s**: %s\n", t.Name(), t.Description())
				}

				fns := svc.List(service.ListRequest{}).Data.([]*function.Function)
				sort.SliceStable(fns, func(i, j int) bool {
					return fns[i].Metadata.UsageCount > fns[j].Metadata.UsageCount
				})
				if section := functions.FormatFunctionsList(fns); section != "" {
					fmt.Fprintln(opts.out)
					fmt.Fprintln(opts.out, section)
				}
				return nil
			})
		},
	}
}
