package gqlrequest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeEnvelope_Metadata(t *testing.T) {
	tests := []struct {
		name              string
		query             string
		operationName     string
		wantType          string
		wantFields        int
		wantDepth         int
		wantComplexity    int
		wantVars          int
		wantParseErr      bool
		wantSelectionErr  bool
		wantResolvedName  string
		wantOperationHash bool
	}{
		{
			name: "simple query",
			query: `query {
				user {
					id
					name
				}
			}`,
			wantType:          "query",
			wantFields:        3,
			wantDepth:         2,
			wantComplexity:    3,
			wantResolvedName:  "<anonymous>",
			wantOperationHash: true,
		},
		{
			name: "named operation with variables",
			query: `query GetUser($id: ID!, $includeEmail: Boolean) {
				user(id: $id) {
					id
					name
				}
			}`,
			operationName:     "GetUser",
			wantType:          "query",
			wantFields:        3,
			wantDepth:         2,
			wantComplexity:    23,
			wantVars:          2,
			wantResolvedName:  "GetUser",
			wantOperationHash: true,
		},
		{
			name: "mutation",
			query: `mutation CreateUser($name: String!) {
				createUser(name: $name) {
					id
					name
				}
			}`,
			operationName:     "CreateUser",
			wantType:          "mutation",
			wantFields:        3,
			wantDepth:         2,
			wantComplexity:    13,
			wantVars:          1,
			wantResolvedName:  "CreateUser",
			wantOperationHash: true,
		},
		{
			name: "multiple operations without name is unresolved",
			query: `
				query GetUser { user { id } }
				query GetPosts { posts { id title } }
			`,
			wantSelectionErr: true,
		},
		{
			name:             "unknown operation name",
			query:            `query GetUser { user { id } }`,
			operationName:    "Missing",
			wantSelectionErr: true,
		},
		{
			name:         "malformed query",
			query:        `query { user { `,
			wantParseErr: true,
		},
		{
			name:  "empty query",
			query: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := AnalyzeEnvelope(Envelope{
				Query:         tt.query,
				OperationName: tt.operationName,
			})
			assert.Equal(t, tt.wantParseErr, analysis.ParseError != nil, "parse error: %v", analysis.ParseError)
			assert.Equal(t, tt.wantSelectionErr, analysis.SelectionError != nil, "selection error: %v", analysis.SelectionError)
			if tt.wantParseErr || tt.wantSelectionErr || tt.query == "" {
				return
			}
			require.NoError(t, analysis.CostError)
			assert.Equal(t, tt.wantType, analysis.OperationType)
			assert.Equal(t, tt.wantFields, analysis.FieldCount)
			assert.Equal(t, tt.wantDepth, analysis.SelectionDepth)
			assert.Equal(t, tt.wantComplexity, analysis.Complexity)
			assert.Equal(t, tt.wantVars, analysis.VariableCount)
			assert.Equal(t, tt.wantResolvedName, analysis.OperationName)
			assert.Equal(t, tt.wantOperationHash, analysis.OperationHash != "")
		})
	}
}

func TestAnalyzeEnvelope_FragmentCycleIsReported(t *testing.T) {
	query := `
		fragment A on User {
			id
			...B
		}
		fragment B on User {
			name
			...A
		}
		query {
			user {
				...A
			}
		}
	`
	analysis := AnalyzeEnvelope(Envelope{Query: query})
	require.NoError(t, analysis.ParseError)
	require.NoError(t, analysis.SelectionError)

	var deep *QueryTooDeepError
	require.ErrorAs(t, analysis.CostError, &deep)
	assert.True(t, deep.FragmentLimit)
	assert.Equal(t, "A", deep.Fragment)
	assert.Equal(t, DefaultFragmentRecursionLimit, deep.RecursionLimit)
}

func TestAnalyzeEnvelope_Variables(t *testing.T) {
	analysis := AnalyzeEnvelope(Envelope{
		Query:        `query Q($n: Int) { items(first: $n) { id } }`,
		VariablesRaw: json.RawMessage(`{"n": 7}`),
	})
	require.NoError(t, analysis.VariablesError)
	assert.Equal(t, json.Number("7"), analysis.Variables["n"])
	assert.Equal(t, 1+7+DefaultVariablePenalty, analysis.Complexity)

	analysis = AnalyzeEnvelope(Envelope{
		Query:        `{ items { id } }`,
		VariablesRaw: json.RawMessage(`[1, 2]`),
	})
	require.Error(t, analysis.VariablesError)
	assert.Contains(t, analysis.VariablesError.Error(), "variables must be a JSON object")

	analysis = AnalyzeEnvelope(Envelope{Query: `{ items { id } }`, VariablesRaw: json.RawMessage(`null`)})
	require.NoError(t, analysis.VariablesError)
	assert.Empty(t, analysis.Variables)
}

func TestOperationHash_WhitespaceAndCommentsInsensitive(t *testing.T) {
	query1 := `
		query GetUsers {
			users { id name }
		}
	`
	query2 := `
		# comment
		query GetUsers { users { id name } }
	`

	a := AnalyzeEnvelope(Envelope{Query: query1, OperationName: "GetUsers"})
	b := AnalyzeEnvelope(Envelope{Query: query2, OperationName: "GetUsers"})
	require.NotEmpty(t, a.OperationHash)
	require.NotEmpty(t, b.OperationHash)
	assert.Equal(t, a.OperationHash, b.OperationHash)
}

func TestOperationHash_IncludesReachableFragmentsOnly(t *testing.T) {
	base := `query Q { users { ...UserFields } } fragment UserFields on User { id }`
	withUnused := base + ` fragment Unused on User { name }`

	a := AnalyzeEnvelope(Envelope{Query: base})
	b := AnalyzeEnvelope(Envelope{Query: withUnused})
	require.NotEmpty(t, a.OperationHash)
	assert.Equal(t, a.OperationHash, b.OperationHash)
	assert.Contains(t, a.CanonicalOperation, "fragment UserFields on User")
	assert.NotContains(t, b.CanonicalOperation, "Unused")
}

func TestOperationHash_MultiOperationSelection(t *testing.T) {
	query := `
		query A { users { id } }
		query B { posts { id title } }
	`
	a := AnalyzeEnvelope(Envelope{Query: query, OperationName: "A"})
	b := AnalyzeEnvelope(Envelope{Query: query, OperationName: "B"})
	require.NotEmpty(t, a.OperationHash)
	require.NotEmpty(t, b.OperationHash)
	assert.NotEqual(t, a.OperationHash, b.OperationHash)
}

func TestFramedHashDisambiguatesTuples(t *testing.T) {
	assert.NotEqual(t, framedSHA256("ab", "c"), framedSHA256("a", "bc"))
}
