package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/store"
)

// definitionFlags are the flags shared by create, update and validate.
type definitionFlags struct {
	file        string
	name        string
	description string
	returnType  string
	code        string
	codeFile    string
	params      []string
	tags        []string
}

func (f *definitionFlags) register(cmd *cobra.Command, nameFlag string) {
	flags := cmd.Flags()
	flags.StringVarP(&f.file, "file", "f", "", "definition file (YAML or JSON)")
	flags.StringVar(&f.name, nameFlag, "", "function name")
	flags.StringVarP(&f.description, "description", "d", "", "what the function does")
	flags.StringVarP(&f.returnType, "return-type", "r", "", "declared return type, e.g. number or Promise<string>")
	flags.StringVar(&f.code, "code", "", "function body")
	flags.StringVar(&f.codeFile, "code-file", "", "read the function body from a file")
	flags.StringArrayVarP(&f.params, "param", "p", nil, `parameter as name[?]:type[=default][:description], repeatable`)
	flags.StringArrayVarP(&f.tags, "tag", "t", nil, "tag, repeatable")
}

// definition merges the definition file, if any, with explicit flags.
func (f *definitionFlags) definition() (function.Definition, error) {
	var def function.Definition
	if f.file != "" {
		loaded, err := loadDefinition(f.file)
		if err != nil {
			return def, err
		}
		def = loaded
	}
	if f.name != "" {
		def.Name = f.name
	}
	if f.description != "" {
		def.Description = f.description
	}
	if f.returnType != "" {
		def.ReturnType = f.returnType
	}
	code, err := f.body()
	if err != nil {
		return def, err
	}
	if code != nil {
		def.Code = *code
	}
	if len(f.params) > 0 {
		params, err := parseParams(f.params)
		if err != nil {
			return def, err
		}
		def.Parameters = params
	}
	if len(f.tags) > 0 {
		def.Tags = f.tags
	}
	return def, nil
}

// patch builds an update from the flags the user actually set.
func (f *definitionFlags) patch(cmd *cobra.Command) (store.Patch, error) {
	var patch store.Patch
	if f.file != "" {
		def, err := loadDefinition(f.file)
		if err != nil {
			return patch, err
		}
		patch = store.Patch{
			Description: &def.Description,
			Parameters:  &def.Parameters,
			ReturnType:  &def.ReturnType,
			Code:        &def.Code,
			Tags:        &def.Tags,
		}
		if def.Name != "" {
			patch.Name = &def.Name
		}
	}

	changed := cmd.Flags().Changed
	if changed("new-name") {
		patch.Name = &f.name
	}
	if changed("description") {
		patch.Description = &f.description
	}
	if changed("return-type") {
		patch.ReturnType = &f.returnType
	}
	code, err := f.body()
	if err != nil {
		return patch, err
	}
	if code != nil {
		patch.Code = code
	}
	if changed("param") {
		params, err := parseParams(f.params)
		if err != nil {
			return patch, err
		}
		patch.Parameters = &params
	}
	if changed("tag") {
		tags := append([]string(nil), f.tags...)
		patch.Tags = &tags
	}
	return patch, nil
}

func (f *definitionFlags) body() (*string, error) {
	if f.codeFile != "" {
		data, err := os.ReadFile(f.codeFile)
		if err != nil {
			return nil, fmt.Errorf("read code file: %w", err)
		}
		code := string(data)
		return &code, nil
	}
	if f.code != "" {
		return &f.code, nil
	}
	return nil, nil
}

func loadDefinition(path string) (function.Definition, error) {
	var def function.Definition
	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("read definition: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &def)
	default:
		err = json.Unmarshal(data, &def)
	}
	if err != nil {
		return def, fmt.Errorf("parse definition %s: %w", path, err)
	}
	return def, nil
}

// parseParams reads name[?]:type[=default][:description] specs.
func parseParams(specs []string) ([]function.Parameter, error) {
	params := make([]function.Parameter, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid parameter %q: want name:type", spec)
		}
		p := function.Parameter{Name: strings.TrimSpace(parts[0])}
		if strings.HasSuffix(p.Name, "?") {
			p.Name = strings.TrimSuffix(p.Name, "?")
			p.Optional = true
		}
		typ := parts[1]
		if i := strings.Index(typ, "="); i >= 0 {
			p.Default = parseValue(typ[i+1:])
			typ = typ[:i]
		}
		p.Type = strings.TrimSpace(typ)
		if len(parts) == 3 {
			p.Description = strings.TrimSpace(parts[2])
		}
		params = append(params, p)
	}
	return params, nil
}

// parseValue reads a JSON value, falling back to the raw string.
func parseValue(raw string) any {
	raw = strings.TrimSpace(raw)
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// parseArgs merges a JSON object with key=value pairs.
func parseArgs(argsJSON string, pairs []string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(argsJSON) != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return nil, fmt.Errorf("--args must be a JSON object: %w", err)
		}
		if args == nil {
			args = map[string]any{}
		}
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --arg %q: want key=value", pair)
		}
		args[strings.TrimSpace(key)] = parseValue(value)
	}
	return args, nil
}
