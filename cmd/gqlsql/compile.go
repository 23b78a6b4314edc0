package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"gqlsql/internal/pipeline"
	"gqlsql/internal/wheresql"
	"gqlsql/internal/window"
)

type sqlOutput struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

type errorOutput struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// reportCompileError writes err as JSON and turns it into exit status 1.
func reportCompileError(cmd *cobra.Command, err error) error {
	if werr := writeJSON(cmd.OutOrStdout(), errorOutput{Code: pipeline.ErrorCode(err), Error: err.Error()}); werr != nil {
		return werr
	}
	return &exitError{code: 1, reason: err.Error()}
}

func newFilterCmd(a *app) *cobra.Command {
	var (
		file string
		o    overrides
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Compile a where-input filter into a SQL predicate",
		Long: `Reads a where-input JSON object from --file or stdin, for example
{"status": {"eq": "active"}, "OR": [{"age": {"gte": 18}}]}, and prints the
compiled predicate with its parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, o); err != nil {
				return err
			}
			body, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			where, err := decodeWhere(body)
			if err != nil {
				return reportCompileError(cmd, &pipeline.InvalidWhereError{Err: err})
			}

			frag, err := a.pipeline.CompileWhereInput(cmd.Context(), where)
			if err != nil {
				return reportCompileError(cmd, err)
			}

			out := sqlOutput{SQL: frag.Text(), Params: []any{}}
			if p, ok := frag.(wheresql.Parameterized); ok {
				out.Params = p.Params
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Where-input JSON file (default stdin)")
	cmd.Flags().StringVar(&o.dialect, "dialect", "", "Shortcut for --compiler.dialect")
	cmd.Flags().BoolVar(&o.inline, "inline", false, "Embed escaped literals (PostgreSQL only)")
	return cmd
}

func decodeWhere(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(body)))
	dec.UseNumber()
	var where map[string]any
	if err := dec.Decode(&where); err != nil {
		return nil, fmt.Errorf("failed to decode where input: %w", err)
	}
	if where == nil {
		return nil, fmt.Errorf("where input must be a JSON object")
	}
	return where, nil
}

func newWindowCmd(a *app) *cobra.Command {
	var (
		file string
		o    overrides
	)

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Compile a window-function plan into a SELECT statement",
		Long: `Reads a window plan (YAML or JSON) from --file or stdin and prints the
compiled statement with its parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, o); err != nil {
				return err
			}
			body, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			plan, err := window.DecodePlan(body)
			if err != nil {
				return reportCompileError(cmd, err)
			}

			out, err := a.pipeline.CompileWindow(cmd.Context(), plan)
			if err != nil {
				return reportCompileError(cmd, err)
			}
			return writeJSON(cmd.OutOrStdout(), sqlOutput{SQL: out.Text, Params: out.Params})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Plan file (default stdin)")
	cmd.Flags().StringVar(&o.dialect, "dialect", "", "Shortcut for --compiler.dialect")
	return cmd
}
