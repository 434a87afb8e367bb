package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/service"
	"github.com/entrhq/funcbox/pkg/tools/functions"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		req   service.ListRequest
		query string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored functions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(svc *service.Service) error {
				var resp *service.Response
				if query != "" {
					resp = svc.Search(query)
				} else {
					resp = svc.List(req)
				}
				if err := finish(opts, resp); err != nil {
					return err
				}
				if opts.jsonOut {
					printJSON(opts.out, resp)
					return nil
				}

				fns := resp.Data.([]*function.Function)
				if len(fns) == 0 {
					fmt.Fprintln(opts.out, labelStyle.Render("No functions found."))
					return nil
				}
				rows := make([][]string, 0, len(fns))
				for _, fn := range fns {
					rows = append(rows, []string{
						functions.Signature(fn),
						strings.Join(fn.Tags, ", "),
						strconv.Itoa(fn.Metadata.Version),
						strconv.Itoa(fn.Metadata.UsageCount),
						fn.Description,
					})
				}
				fmt.Fprintln(opts.out, renderTable([]string{"Function", "Tags", "Ver", "Uses", "Description"}, rows))
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringArrayVarP(&req.Tags, "tag", "t", nil, "only functions with any of these tags")
	flags.StringVar(&req.NamePattern, "pattern", "", "glob over names, e.g. calc*")
	flags.StringVar(&req.CreatedBy, "created-by", "", "only functions by this author")
	flags.IntVarP(&req.Limit, "limit", "n", 0, "maximum number of results")
	flags.StringVarP(&query, "query", "q", "", "search names, descriptions and tags instead")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "show <name|id>",
		Short: "Show a function's definition and source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(svc *service.Service) error {
				resp := svc.Get(args[0])
				if err := finish(opts, resp); err != nil {
					return err
				}
				if opts.jsonOut {
					printJSON(opts.out, resp)
					return nil
				}
				fn := resp.Data.(*function.Function)

				fmt.Fprintln(opts.out, titleStyle.Render(functions.Signature(fn)))
				if fn.Description != "" {
					fmt.Fprintln(opts.out, fn.Description)
				}
				rows := [][2]string{
					{"ID", fn.ID},
					{"Version", strconv.Itoa(fn.Metadata.Version)},
					{"Created", fn.Metadata.CreatedAt.Format("2006-01-02 15:04:05")},
					{"Updated", fn.Metadata.UpdatedAt.Format("2006-01-02 15:04:05")},
					{"Usage", strconv.Itoa(fn.Metadata.UsageCount)},
				}
				if fn.Metadata.CreatedBy != "" {
					rows = append(rows, [2]string{"Author", fn.Metadata.CreatedBy})
				}
				if len(fn.Tags) > 0 {
					rows = append(rows, [2]string{"Tags", strings.Join(fn.Tags, ", ")})
				}
				printKV(opts.out, "", rows)

				if len(fn.Parameters) > 0 {
					fmt.Fprintln(opts.out, titleStyle.Render("Parameters"))
					for _, p := range fn.Parameters {
						line := fmt.Sprintf("  %s %s", p.Name, labelStyle.Render(p.Type))
						if p.Optional {
							line += labelStyle.Render(" optional")
						}
						if p.HasDefault() {
							def, _ := json.Marshal(p.Default)
							line += labelStyle.Render(" = " + string(def))
						}
						if p.Description != "" {
							line += "  " + p.Description
						}
						fmt.Fprintln(opts.out, line)
					}
				}

				fmt.Fprintln(opts.out, titleStyle.Render("Code"))
				highlight(opts.out, fn.Code, plain)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print source without syntax highlighting")
	return cmd
}

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		def    definitionFlags
		author string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Validate and store a new function",
		Long: `Validate and store a new function. The definition comes from --file,
from flags, or both (flags win).

Example:
  funcbox create --name double --return-type number \
    --param "n:number:value to double" --code "return n * 2;"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := def.definition()
			if err != nil {
				return err
			}
			return opts.withService(cmd.Context(), func(svc *service.Service) error {
				resp := svc.Register(cmd.Context(), service.RegisterRequest{Definition: d, CreatedBy: author})
				if err := finish(opts, resp); err != nil {
					return err
				}
				if opts.jsonOut {
					printJSON(opts.out, resp)
					return nil
				}
				fn := resp.Data.(*function.Function)
				fmt.Fprintln(opts.out, successStyle.Render(fmt.Sprintf("Created %s (%s)", fn.Name, fn.ID)))
				printIssues(opts.out, "Warnings", warnStyle, resp.Warnings)
				return nil
			})
		},
	}
	def.register(cmd, "name")
	cmd.Flags().StringVar(&author, "author", "cli", "recorded as the function's creator")
	return cmd
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var def definitionFlags
	cmd := &cobra.Command{
		Use:   "update <name|id>",
		Short: "Change fields of a stored function",
		Long: `Change fields of a stored function. Only the flags given are applied;
a --file replaces every field it contains.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := def.patch(cmd)
			if err != nil {
				return err
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update")
			}
			return opts.withService(cmd.Context(), func(svc *service.Service) error {
				resp := svc.Update(cmd.Context(), args[0], patch)
				if err := finish(opts, resp); err != nil {
					return err
				}
				if opts.jsonOut {
					printJSON(opts.out, resp)
					return nil
				}
				fn := resp.Data.(*function.Function)
				fmt.Fprintln(opts.out, successStyle.Render(fmt.Sprintf("Updated %s to version %d", fn.Name, fn.Metadata.Version)))
				printIssues(opts.out, "Warnings", warnStyle, resp.Warnings)
				return nil
			})
		},
	}
	def.register(cmd, "new-name")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name|id>",
		Aliases: []string{"rm"},
		Short:   "Delete a function",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(svc *service.Service) error {
				resp := svc.Delete(cmd.Context(), args[0])
				if err := finish(opts, resp); err != nil {
					return err
				}
				if opts.jsonOut {
					printJSON(opts.out, resp)
					return nil
				}
				if result := resp.Data.(service.DeleteResult); result.Deleted {
					fmt.Fprintln(opts.out, successStyle.Render(fmt.Sprintf("Deleted %s", result.ID)))
				} else {
					fmt.Fprintln(opts.out, labelStyle.Render(fmt.Sprintf("No function %q; nothing deleted", args[0])))
				}
				return nil
			})
		},
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		argsJSON string
		pairs    []string
	)
	cmd := &cobra.Command{
		Use:   "run <name|id>",
		Short: "Execute a function in the sandbox",
		Long: `Execute a function in the sandbox. Arguments come from --args as a JSON
object and from --arg key=value pairs, where each value is read as JSON when
possible and as a string otherwise.

Example:
  funcbox run double --arg n=21`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs, err := parseArgs(argsJSON, pairs)
			if err != nil {
				return err
			}
			return opts.withService(cmd.Context(), func(svc *service.Service) error {
				resp := svc.Execute(cmd.Context(), args[0], callArgs)
				result, _ := resp.Data.(*function.Result)
				if opts.jsonOut {
					printJSON(opts.out, resp)
					return resp.Err()
				}
				if result != nil {
					for _, line := range result.Logs {
						fmt.Fprintln(opts.errOut, labelStyle.Render(line))
					}
				}
				if err := finish(opts, resp); err != nil {
					return err
				}
				value, err := json.MarshalIndent(result.Value, "", "  ")
				if err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
				fmt.Fprintln(opts.out, string(value))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "", `arguments as a JSON object, e.g. '{"n": 21}'`)
	cmd.Flags().StringArrayVarP(&pairs, "arg", "a", nil, "argument as key=value, repeatable")
	return cmd
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var def definitionFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a definition without storing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := def.definition()
			if err != nil {
				return err
			}
			return opts.withService(cmd.Context(), func(svc *service.Service) error {
				resp := svc.Validate(d)
				if opts.jsonOut {
					printJSON(opts.out, resp)
					return resp.Err()
				}
				result := resp.Data.(function.ValidationResult)
				if result.Valid {
					fmt.Fprintln(opts.out, successStyle.Render("Definition is valid"))
				} else {
					fmt.Fprintln(opts.out, errorStyle.Render(fmt.Sprintf("Definition is invalid (%d errors)", len(result.Errors))))
				}
				printIssues(opts.out, "Errors", errorStyle, result.Errors)
				printIssues(opts.out, "Warnings", warnStyle, result.Warnings)
				if !result.Valid {
					return fmt.Errorf("validation failed")
				}
				return nil
			})
		},
	}
	def.register(cmd, "name")
	return cmd
}
