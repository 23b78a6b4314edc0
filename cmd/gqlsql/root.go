package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gqlsql/internal/config"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gqlsql",
		Short: "Validate GraphQL requests and compile filters and window plans to SQL",
		Long: `gqlsql checks GraphQL documents against depth and complexity budgets and
compiles where-input filters and window-function plans into SQL for
PostgreSQL, MySQL, SQLite and SQL Server.

Configuration is read from flags, GQLSQL_* environment variables and
gqlsql.yaml, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	config.DefineFlags(root.PersistentFlags())
	root.PersistentFlags().BoolVar(&a.dumpMetrics, "metrics", false, "Write collected metrics to stderr on exit")

	root.AddCommand(
		newValidateCmd(a),
		newFilterCmd(a),
		newWindowCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration for cmd and builds the pipeline.
func (a *app) setup(cmd *cobra.Command, o overrides) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return a.init(cfg, o)
}

// readInput returns the contents of path, or stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gqlsql %s (%s)\n", Version, Commit)
		},
	}
}
