package wheresql

import (
	"strconv"
	"strings"

	"gqlsql/internal/dialect"
	"gqlsql/internal/filter"
)

// ExtensionFunc compiles an extended operator. It must return SQL that uses
// ctx.Bind for every caller-supplied value and ctx.Text for any trusted text
// that could contain a question mark.
type ExtensionFunc func(ctx ExtensionContext, f filter.Field) (string, error)

// ExtensionContext exposes the parts of a placeholder generator an
// extension needs.
type ExtensionContext struct {
	Capabilities dialect.Capabilities
	// Accessor is the SQL expression reading the field's value as text.
	Accessor string

	state *state
}

// Dialect returns the dialect being generated.
func (c ExtensionContext) Dialect() dialect.Dialect {
	return c.Capabilities.Dialect
}

// Bind records v as a parameter and returns its marker.
func (c ExtensionContext) Bind(v any) string {
	return c.state.bind(v)
}

// Text escapes trusted SQL text for the dialect's placeholder format.
func (c ExtensionContext) Text(s string) string {
	return c.Capabilities.Text(s)
}

// Concat joins SQL string expressions with the dialect's operator.
func (c ExtensionContext) Concat(parts ...string) string {
	return concat(c.Dialect(), parts...)
}

func builtinExtensions() map[filter.Operator]ExtensionFunc {
	return map[filter.Operator]ExtensionFunc{
		filter.OpEmailDomainEq:            emailDomainEq,
		filter.OpEmailDomainIn:            emailDomainIn,
		filter.OpEmailDomainEndsWith:      emailDomainEndsWith,
		filter.OpEmailLocalPartStartsWith: emailLocalPartStartsWith,
		filter.OpVinWmiEq:                 prefixEq(3),
		filter.OpIbanCountryEq:            prefixEq(2),
	}
}

func emailDomain(ctx ExtensionContext) string {
	acc := ctx.Accessor
	switch ctx.Dialect() {
	case dialect.PostgreSQL:
		return "split_part(" + acc + ", '@', 2)"
	case dialect.MySQL:
		return "SUBSTRING_INDEX(" + acc + ", '@', -1)"
	case dialect.SQLite:
		return "substr(" + acc + ", instr(" + acc + ", '@') + 1)"
	default:
		return "SUBSTRING(" + acc + ", CHARINDEX('@', " + acc + ") + 1, LEN(" + acc + "))"
	}
}

func emailLocalPart(ctx ExtensionContext) string {
	acc := ctx.Accessor
	switch ctx.Dialect() {
	case dialect.PostgreSQL:
		return "split_part(" + acc + ", '@', 1)"
	case dialect.MySQL:
		return "SUBSTRING_INDEX(" + acc + ", '@', 1)"
	case dialect.SQLite:
		return "substr(" + acc + ", 1, instr(" + acc + ", '@') - 1)"
	default:
		return "LEFT(" + acc + ", NULLIF(CHARINDEX('@', " + acc + "), 0) - 1)"
	}
}

func emailDomainEq(ctx ExtensionContext, f filter.Field) (string, error) {
	v, ok := filter.AsString(f.Value)
	if !ok {
		return "", invalidValue(f, "a string")
	}
	return emailDomain(ctx) + " = " + ctx.Bind(v), nil
}

func emailDomainIn(ctx ExtensionContext, f filter.Field) (string, error) {
	items, ok := filter.AsArray(f.Value)
	if !ok {
		return "", invalidValue(f, "an array of strings")
	}
	if len(items) == 0 {
		return ctx.Capabilities.FalseLiteral, nil
	}
	markers := make([]string, len(items))
	for i, item := range items {
		s, ok := filter.AsString(item)
		if !ok {
			return "", invalidValue(f, "an array of strings")
		}
		markers[i] = ctx.Bind(s)
	}
	return emailDomain(ctx) + " IN (" + strings.Join(markers, ", ") + ")", nil
}

func emailDomainEndsWith(ctx ExtensionContext, f filter.Field) (string, error) {
	v, ok := filter.AsString(f.Value)
	if !ok {
		return "", invalidValue(f, "a string")
	}
	return emailDomain(ctx) + " LIKE " + ctx.Concat("'%'", ctx.Bind(v)), nil
}

func emailLocalPartStartsWith(ctx ExtensionContext, f filter.Field) (string, error) {
	v, ok := filter.AsString(f.Value)
	if !ok {
		return "", invalidValue(f, "a string")
	}
	return emailLocalPart(ctx) + " LIKE " + ctx.Concat(ctx.Bind(v), "'%'"), nil
}

// prefixEq compares the first n characters of the value.
func prefixEq(n int) ExtensionFunc {
	length := strconv.Itoa(n)
	return func(ctx ExtensionContext, f filter.Field) (string, error) {
		v, ok := filter.AsString(f.Value)
		if !ok {
			return "", invalidValue(f, "a string")
		}
		fn := "SUBSTRING"
		if ctx.Dialect() == dialect.SQLite {
			fn = "substr"
		}
		return fn + "(" + ctx.Accessor + ", 1, " + length + ") = " + ctx.Bind(v), nil
	}
}
