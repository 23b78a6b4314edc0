package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(strings.NewReader(stdin), &stdout, &stderr)

	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	a.close(context.Background())

	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &out), s)
	return out
}

func TestVersion(t *testing.T) {
	r := execute(t, "", "version")
	require.NoError(t, r.err)
	assert.Equal(t, "gqlsql dev (none)\n", r.stdout)
}

func TestValidate_Accepted(t *testing.T) {
	r := execute(t, "{ users(first: 5) { id name } }", "validate")
	require.NoError(t, r.err)

	out := decode(t, r.stdout)
	assert.Equal(t, true, out["valid"])
	assert.Equal(t, float64(2), out["depth"])
	assert.Equal(t, float64(11), out["complexity"])
	assert.Equal(t, float64(3), out["field_count"])
	assert.Equal(t, "query", out["operation_type"])
	assert.NotEmpty(t, out["operation_hash"])
}

func TestValidate_JSONPayloadWithOperationName(t *testing.T) {
	payload := `{"query": "query A { a } query B { b { c } }", "variables": null}`
	r := execute(t, payload, "validate", "--operation-name", "B")
	require.NoError(t, r.err)

	out := decode(t, r.stdout)
	assert.Equal(t, "B", out["operation_name"])
	assert.Equal(t, float64(2), out["depth"])
}

func TestValidate_Rejected(t *testing.T) {
	r := execute(t, "{ a { b { c } } }", "validate", "--analysis.max_depth", "2")

	var exit *exitError
	require.True(t, errors.As(r.err, &exit))
	assert.Equal(t, 1, exit.code)

	out := decode(t, r.stdout)
	assert.Equal(t, false, out["valid"])
	assert.Equal(t, "query_too_deep", out["code"])
	assert.Equal(t, "query exceeds maximum depth of 2 (depth: 3)", out["error"])
}

func TestValidate_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.graphql")
	require.NoError(t, os.WriteFile(path, []byte("{ ping }"), 0o600))

	r := execute(t, "", "validate", "-f", path)
	require.NoError(t, r.err)
	assert.Equal(t, float64(1), decode(t, r.stdout)["depth"])
}

func TestFilter_Dialects(t *testing.T) {
	where := `{"status": {"eq": "active"}}`

	r := execute(t, where, "filter", "--dialect", "mysql")
	require.NoError(t, r.err)
	out := decode(t, r.stdout)
	assert.Equal(t, "JSON_UNQUOTE(JSON_EXTRACT(data, '$.status')) = ?", out["sql"])
	assert.Equal(t, []any{"active"}, out["params"])

	r = execute(t, where, "filter", "--inline")
	require.NoError(t, r.err)
	out = decode(t, r.stdout)
	assert.Equal(t, "data->>'status' = 'active'", out["sql"])
	assert.Equal(t, []any{}, out["params"])
}

func TestFilter_NumbersStayNumbers(t *testing.T) {
	r := execute(t, `{"age": {"gte": 18}}`, "filter", "--compiler.dialect", "sqlserver")
	require.NoError(t, r.err)
	out := decode(t, r.stdout)
	assert.Equal(t, []any{float64(18)}, out["params"])
}

func TestFilter_Errors(t *testing.T) {
	t.Run("denied operator", func(t *testing.T) {
		r := execute(t, `{"name": {"icontains": "bo"}}`, "filter", "--compiler.denied_operators", "icontains")
		var exit *exitError
		require.True(t, errors.As(r.err, &exit))
		assert.Equal(t, "denied_operator", decode(t, r.stdout)["code"])
	})

	t.Run("bad json", func(t *testing.T) {
		r := execute(t, `[1, 2]`, "filter")
		require.Error(t, r.err)
		assert.Equal(t, "invalid_where", decode(t, r.stdout)["code"])
	})

	t.Run("unknown dialect", func(t *testing.T) {
		r := execute(t, `{}`, "filter", "--dialect", "oracle")
		require.Error(t, r.err)
		assert.Contains(t, r.err.Error(), `unknown dialect "oracle"`)
	})

	t.Run("invalid configuration", func(t *testing.T) {
		r := execute(t, `{}`, "filter", "--compiler.mode", "literal")
		require.Error(t, r.err)
		assert.Equal(t, "configuration validation failed", r.err.Error())
		assert.Contains(t, r.stderr, "compiler.mode")
	})
}

const planYAML = `
table: tf_sales
select:
  - expression: occurred_at
    alias: date
  - expression: revenue
    alias: revenue
windows:
  - function: {kind: sum, field: revenue}
    alias: running_total
    order_by:
      - field: occurred_at
    frame: {type: rows, start: unbounded_preceding, end: current_row}
where:
  category: {eq: books}
order_by:
  - field: occurred_at
limit: 10
offset: 20
`

func TestWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(planYAML), 0o600))

	r := execute(t, "", "window", "--dialect", "sqlite", "--file", path)
	require.NoError(t, r.err)

	out := decode(t, r.stdout)
	assert.Equal(t, `SELECT occurred_at AS "date", revenue AS "revenue", SUM(revenue) OVER (ORDER BY occurred_at ASC ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW) AS "running_total" FROM tf_sales WHERE json_extract(data, '$.category') = ? ORDER BY occurred_at ASC LIMIT 10 OFFSET 20`, out["sql"])
	assert.Equal(t, []any{"books"}, out["params"])
}

func TestWindow_UnsupportedFeature(t *testing.T) {
	plan := `{"table": "t", "windows": [{"function": {"kind": "stddev", "field": "x"}, "alias": "s"}]}`
	r := execute(t, plan, "window", "--dialect", "sqlite")
	require.Error(t, r.err)
	assert.Equal(t, "unsupported_feature", decode(t, r.stdout)["code"])
}

func TestMetricsDump(t *testing.T) {
	r := execute(t, `{"status": {"eq": "active"}}`, "filter", "--metrics")
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "gqlsql_compile")
	assert.Contains(t, r.stderr, `kind="where_input"`)
}
