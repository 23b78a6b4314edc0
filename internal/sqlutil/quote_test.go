package sqlutil

import "testing"

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"users", "`users`"},
		{"user_data", "`user_data`"},
		{"select", "`select`"},         // reserved word
		{"first name", "`first name`"}, // space in name
		{"user`data", "`user``data`"},  // backtick in name
		{"a`b`c", "`a``b``c`"},         // multiple backticks
		{"", "``"},                     // empty string
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := QuoteIdentifier(tt.input)
			if result != tt.expected {
				t.Errorf("QuoteIdentifier(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestQuoteDoubleAndBracketIdentifier(t *testing.T) {
	tests := []struct {
		input   string
		double  string
		bracket string
	}{
		{"rank", `"rank"`, "[rank]"},
		{`a"b`, `"a""b"`, `[a"b]`},
		{"a]b", `"a]b"`, "[a]]b]"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := QuoteDoubleIdentifier(tt.input); got != tt.double {
				t.Errorf("QuoteDoubleIdentifier(%q) = %q, want %q", tt.input, got, tt.double)
			}
			if got := QuoteBracketIdentifier(tt.input); got != tt.bracket {
				t.Errorf("QuoteBracketIdentifier(%q) = %q, want %q", tt.input, got, tt.bracket)
			}
		})
	}
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "'hello'"},
		{"it's", "'it''s'"},              // single quote
		{"a'b'c", "'a''b''c'"},           // multiple quotes
		{"hello world", "'hello world'"}, // space
		{"", "''"},                       // empty string
		{"'; DROP TABLE x; --", "'''; DROP TABLE x; --'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := QuoteString(tt.input)
			if result != tt.expected {
				t.Errorf("QuoteString(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestQuoteStringBackslash(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "'plain'"},
		{`a\b`, `'a\\b'`},
		{`\'`, `'\\'''`},
		{"it's", "'it''s'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := QuoteStringBackslash(tt.input); got != tt.expected {
				t.Errorf("QuoteStringBackslash(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestJSONPath(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		expected string
	}{
		{"single", []string{"email"}, "$.email"},
		{"nested", []string{"user", "role"}, "$.user.role"},
		{"dotted segment", []string{"a.b"}, `$."a.b"`},
		{"quote in segment", []string{`say "hi"`}, `$."say \"hi\""`},
		{"injection attempt", []string{"user'; DROP TABLE users; --"}, `$."user'; DROP TABLE users; --"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JSONPath(tt.segments); got != tt.expected {
				t.Errorf("JSONPath(%q) = %q, want %q", tt.segments, got, tt.expected)
			}
		})
	}
}

func TestPostgresTextArray(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		expected string
	}{
		{"plain", []string{"a", "b"}, "{a,b}"},
		{"comma", []string{"a,b"}, `{"a,b"}`},
		{"null keyword", []string{"null"}, `{"null"}`},
		{"backslash", []string{`a\b`}, `{"a\\b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PostgresTextArray(tt.segments); got != tt.expected {
				t.Errorf("PostgresTextArray(%q) = %q, want %q", tt.segments, got, tt.expected)
			}
		})
	}
}

func TestEscapePlaceholderMarks(t *testing.T) {
	if got := EscapePlaceholderMarks("data->>'why?'"); got != "data->>'why??'" {
		t.Errorf("EscapePlaceholderMarks = %q", got)
	}
}
