package main

import (
	"github.com/spf13/cobra"

	"gqlsql/internal/gqlrequest"
	"gqlsql/internal/pipeline"
)

type validateOutput struct {
	Valid         bool   `json:"valid"`
	Code          string `json:"code,omitempty"`
	Error         string `json:"error,omitempty"`
	OperationName string `json:"operation_name,omitempty"`
	OperationType string `json:"operation_type,omitempty"`
	OperationHash string `json:"operation_hash,omitempty"`
	Depth         int    `json:"depth"`
	Complexity    int    `json:"complexity"`
	FieldCount    int    `json:"field_count"`
	VariableCount int    `json:"variable_count"`
	FragmentCount int    `json:"fragment_count"`
	SizeBytes     int    `json:"size_bytes"`
}

func newValidateCmd(a *app) *cobra.Command {
	var (
		file          string
		operationName string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a GraphQL request against the depth and complexity budgets",
		Long: `Reads a GraphQL request from --file or stdin. The input is either a JSON
payload ({"query", "operationName", "variables"}) or a raw GraphQL document.
Exits with status 1 when the request is rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, overrides{}); err != nil {
				return err
			}
			body, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			env, err := gqlrequest.ParseEnvelope(body)
			if err != nil {
				return &gqlrequest.MalformedQueryError{Reason: "invalid request payload: " + err.Error()}
			}
			if operationName != "" {
				env.OperationName = operationName
			}

			analysis, verr := a.pipeline.ValidateRequest(cmd.Context(), env)
			out := validateOutput{
				Valid:         verr == nil,
				OperationName: analysis.OperationName,
				OperationType: analysis.OperationType,
				OperationHash: analysis.OperationHash,
				Depth:         analysis.SelectionDepth,
				Complexity:    analysis.Complexity,
				FieldCount:    analysis.FieldCount,
				VariableCount: analysis.VariableCount,
				FragmentCount: analysis.FragmentCount,
				SizeBytes:     env.DocumentSizeBytes,
			}
			if verr != nil {
				out.Code = pipeline.ErrorCode(verr)
				out.Error = verr.Error()
			}
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if verr != nil {
				return &exitError{code: 1, reason: verr.Error()}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Request file (default stdin)")
	cmd.Flags().StringVar(&operationName, "operation-name", "", "Operation to select from a multi-operation document")
	return cmd
}
