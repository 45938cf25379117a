package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/few/pkg/datadef"
	"github.com/aretw0/few/pkg/expr"
	"github.com/aretw0/few/pkg/path"
)

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate an expression",
	Long: `Evaluates an expression against a scope and prints the value as JSON.

  few eval "items.length > 0 ? items[0] : 'none'" --scope '{"items": ["a"]}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := scopeFlag(cmd)
		if err != nil {
			return err
		}
		ignore, _ := cmd.Flags().GetBool("ignore-errors")
		v, err := expr.Evaluate(args[0], scope, ignore, nil)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), v)
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <reference>",
	Short: "Split a path reference into scope and sub-path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := path.Parse(args[0])
		if err := path.Validate(ref); err != nil {
			return err
		}
		if ref.HasPath {
			if _, err := path.Segments(ref.Path); err != nil {
				return err
			}
		}
		return printJSON(cmd.OutOrStdout(), ref)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <definition.json|yaml>",
	Short: "Evaluate the placeholders of a data definition",
	Long: `Reads a data definition and replaces every "${expression}" placeholder with its value.
Use "-" to read JSON from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := scopeFlag(cmd)
		if err != nil {
			return err
		}
		def, err := readDocument(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		v, err := datadef.Evaluate(def, scope)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), v)
	},
}

func init() {
	for _, c := range []*cobra.Command{evalCmd, resolveCmd} {
		c.Flags().String("scope", "{}", "Scope as a JSON object, or @file for a JSON or YAML file")
	}
	evalCmd.Flags().Bool("ignore-errors", false, "Print undefined instead of failing")
	rootCmd.AddCommand(evalCmd, pathCmd, resolveCmd)
}

func scopeFlag(cmd *cobra.Command) (map[string]any, error) {
	raw, _ := cmd.Flags().GetString("scope")
	if file, ok := strings.CutPrefix(raw, "@"); ok {
		v, err := readDocument(nil, file)
		if err != nil {
			return nil, err
		}
		scope, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("scope file %s must hold an object", file)
		}
		return scope, nil
	}
	var scope map[string]any
	if err := decodeJSON(strings.NewReader(raw), &scope); err != nil {
		return nil, fmt.Errorf("invalid --scope: %w", err)
	}
	return scope, nil
}

// readDocument reads a JSON or YAML file, or JSON from stdin for "-".
func readDocument(stdin io.Reader, name string) (any, error) {
	var v any
	if name == "-" {
		return v, decodeJSON(stdin, &v)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		return v, nil
	}
	if err := decodeJSON(strings.NewReader(string(data)), &v); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return v, nil
}

func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
