// Package wheresql compiles filter expressions into SQL WHERE predicates.
//
// Two shapes of generator share the Generator contract. The inline
// generator embeds escaped literals for transports without bind parameter
// support and returns Inline fragments. Placeholder generators, one per
// dialect, keep caller values out of the SQL text and return Parameterized
// fragments. A single fragment never mixes the two modes.
package wheresql

import (
	"encoding/json"
	"fmt"

	"gqlsql/internal/dialect"
	"gqlsql/internal/filter"
	"gqlsql/internal/sqlutil"
)

// DefaultColumn is the JSON document column filters address.
const DefaultColumn = "data"

// Generator compiles a filter expression into a SQL fragment.
type Generator interface {
	Dialect() dialect.Dialect
	Generate(expr filter.Expression) (Fragment, error)
}

// Fragment is the output of a Generator: Parameterized or Inline.
type Fragment interface {
	fragment()
	// Text returns the SQL as it should be sent to the database.
	Text() string
}

// Parameterized is SQL text with dialect bind markers and the values bound
// to them, in marker order.
type Parameterized struct {
	SQL    string
	Params []any

	// marked holds SQL with anonymous ? markers and literal question marks
	// doubled, ready to be embedded into a squirrel builder.
	marked string
}

// Inline is SQL text with every value embedded as an escaped literal.
type Inline struct {
	SQL string
}

func (Parameterized) fragment() {}
func (Inline) fragment()        {}

// Text returns the dialect-numbered SQL.
func (p Parameterized) Text() string { return p.SQL }

// Text returns the SQL.
func (i Inline) Text() string { return i.SQL }

// ToSql implements squirrel.Sqlizer. The returned SQL uses ? markers so the
// enclosing builder can number them together with its own arguments.
func (p Parameterized) ToSql() (string, []interface{}, error) {
	if p.marked == "" && p.SQL != "" {
		return "", nil, fmt.Errorf("parameterized fragment was not produced by a generator")
	}
	return p.marked, p.Params, nil
}

// Args returns the parameters converted for database/sql: arrays and objects
// are encoded as JSON text, scalars pass through.
func (p Parameterized) Args() ([]any, error) {
	args := make([]any, len(p.Params))
	for i, param := range p.Params {
		switch param.(type) {
		case map[string]any:
			encoded, err := json.Marshal(param)
			if err != nil {
				return nil, fmt.Errorf("param %d: %w", i+1, err)
			}
			args[i] = string(encoded)
		default:
			if arr, ok := filter.AsArray(param); ok {
				encoded, err := json.Marshal(arr)
				if err != nil {
					return nil, fmt.Errorf("param %d: %w", i+1, err)
				}
				args[i] = string(encoded)
				continue
			}
			if n, ok := param.(json.Number); ok {
				if i64, err := n.Int64(); err == nil {
					args[i] = i64
				} else {
					f, _ := n.Float64()
					args[i] = f
				}
				continue
			}
			args[i] = param
		}
	}
	return args, nil
}

// Option configures a generator.
type Option func(*options)

type options struct {
	column     string
	extensions map[filter.Operator]ExtensionFunc
}

// WithColumn sets the JSON document column (default "data").
func WithColumn(column string) Option {
	return func(o *options) {
		o.column = column
	}
}

// WithExtension registers or replaces the compiler for an extended operator.
func WithExtension(op filter.Operator, fn ExtensionFunc) Option {
	return func(o *options) {
		if o.extensions == nil {
			o.extensions = map[filter.Operator]ExtensionFunc{}
		}
		o.extensions[op] = fn
	}
}

func buildOptions(opts []Option) (options, error) {
	o := options{column: DefaultColumn}
	for _, opt := range opts {
		opt(&o)
	}
	if o.column == "" {
		return o, fmt.Errorf("json column must not be empty")
	}
	return o, nil
}

// New returns the placeholder generator for d.
func New(d dialect.Dialect, opts ...Option) (Generator, error) {
	caps, err := dialect.Lookup(d)
	if err != nil {
		return nil, err
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	extensions := builtinExtensions()
	for op, fn := range o.extensions {
		extensions[op] = fn
	}

	return &placeholderGenerator{
		caps:       caps,
		column:     columnRef(caps, o.column),
		extensions: extensions,
	}, nil
}

// NewInline returns the inline-literal generator. It emits PostgreSQL JSONB
// syntax.
func NewInline(opts ...Option) (Generator, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	if len(o.extensions) > 0 {
		return nil, fmt.Errorf("the inline generator does not support extended operators")
	}
	caps := dialect.MustLookup(dialect.PostgreSQL)
	return &inlineGenerator{
		caps:   caps,
		column: columnRef(caps, o.column),
	}, nil
}

func columnRef(caps dialect.Capabilities, column string) string {
	if sqlutil.IsPlainIdentifier(column) {
		return column
	}
	return caps.QuoteIdentifier(column)
}
