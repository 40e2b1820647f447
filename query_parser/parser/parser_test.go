package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatement_Invalid_ReturnsError(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   error
	}{
		{"empty", "", ErrUnexpectedToken},
		{"unknown command", "insert \"x\"", ErrUnexpectedToken},
		{"put without value", "put", ErrExpectedTerm},
		{"put node only", "put 12", ErrExpectedTerm},
		{"remove without node", "remove \"x\"", ErrExpectedNumber},
		{"scan without bracket", "scan \"a\", \"b\"", ErrExpectedBracket},
		{"scan without comma", "scan [\"a\" \"b\"]", ErrUnexpectedToken},
		{"scan unclosed", "scan [\"a\", \"b\"", ErrUnexpectedToken},
		{"datatype missing", "find \"1\"^^", ErrUnexpectedToken},
		{"trailing input", "prepare now", ErrTrailingInput},
		{"view of a mutation", "view put \"x\"", ErrUnexpectedToken},
		{"phase too large", "select 99999999999", ErrExpectedNumber},
		{"unterminated string", "put \"abc", ErrExpectedTerm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := Parse(tt.input)
			assert.Nil(t, stmt)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParseStatement_Valid(t *testing.T) {
	lit := func(s string) *Term { return &Term{Kind: TermLiteral, Text: s} }
	tests := []struct {
		input string
		want  Statement
	}{
		{"clear", &ClearStmt{}},
		{"CLEAR 7", &ClearStmt{Phase: 7}},
		{"put \"alpha\"", &PutStmt{Value: Term{Kind: TermLiteral, Text: "alpha"}}},
		{"put 12 <http://example.org/a>", &PutStmt{Node: 12, Value: Term{Kind: TermURI, Text: "http://example.org/a"}}},
		{"find \"42\"^^xsd:long", &FindStmt{Value: Term{Kind: TermTyped, Text: "42", Datatype: "xsd:long"}}},
		{"intern \"x\"^^<http://www.w3.org/2001/XMLSchema#string>",
			&InternStmt{Value: Term{Kind: TermTyped, Text: "x", Datatype: "http://www.w3.org/2001/XMLSchema#string"}}},
		{"value 3", &ValueStmt{Node: 3}},
		{"remove 11", &RemoveStmt{Node: 11}},
		{"scan", &ScanStmt{}},
		{"scan *", &ScanStmt{}},
		{"scan [\"a\", \"m\")", &ScanStmt{Low: lit("a"), High: lit("m"), LowInclusive: true}},
		{"scan (*, \"m\"]", &ScanStmt{High: lit("m"), HighInclusive: true}},
		{"scantype literal", &ScanTypeStmt{Category: "literal"}},
		{"scantype typed xsd:long", &ScanTypeStmt{Category: "typed", Datatype: "xsd:long"}},
		{"scantype *", &ScanTypeStmt{Category: "any"}},
		{"prepare", &PrepareStmt{}},
		{"commit", &CommitStmt{}},
		{"rollback", &RollbackStmt{}},
		{"recover", &RecoverStmt{}},
		{"select 4", &SelectPhaseStmt{Phase: 4}},
		{"stats", &StatsStmt{}},
		{"check", &CheckStmt{}},
		{"view", &ViewStmt{}},
		{"view find \"a\"", &ViewStmt{Stmt: &FindStmt{Value: Term{Kind: TermLiteral, Text: "a"}}}},
		{"refresh", &RefreshStmt{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			stmt, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stmt)
		})
	}
}
