package codegen

import (
	executor "ValuePool/query_executor"
	"ValuePool/query_parser/parser"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, input string) []executor.Instruction {
	t.Helper()
	stmt, err := parser.Parse(input)
	require.NoError(t, err)
	instructions, err := EmitBytecode(stmt)
	require.NoError(t, err)
	return instructions
}

func TestEmitBytecode_UnsupportedStatement_ReturnsError(t *testing.T) {
	instructions, err := EmitBytecode(struct{}{})
	assert.ErrorIs(t, err, ErrUnsupportedStatement)
	assert.Nil(t, instructions)
}

func TestEmitBytecode_Put(t *testing.T) {
	got := compile(t, `put 12 "42"^^xsd:long`)
	assert.Equal(t, []executor.Instruction{
		{Op: executor.OP_PUSH_VAL, Value: "42"},
		{Op: executor.OP_PUSH_VAL, Value: "xsd:long"},
		{Op: executor.OP_PUSH_TERM, Value: "typed"},
		{Op: executor.OP_PUT, Value: "12"},
		{Op: executor.OP_END},
	}, got)
}

func TestEmitBytecode_ScanBounds(t *testing.T) {
	got := compile(t, `scan (*, "m"]`)
	assert.Equal(t, []executor.Instruction{
		{Op: executor.OP_PUSH_OPEN},
		{Op: executor.OP_PUSH_VAL, Value: "m"},
		{Op: executor.OP_PUSH_VAL},
		{Op: executor.OP_PUSH_TERM, Value: "literal"},
		{Op: executor.OP_SCAN, Value: "(]"},
		{Op: executor.OP_END},
	}, got)
}

func TestEmitBytecode_ViewPrefix(t *testing.T) {
	got := compile(t, `view value 3`)
	assert.Equal(t, []executor.Instruction{
		{Op: executor.OP_USE_VIEW},
		{Op: executor.OP_VALUE, Value: "3"},
		{Op: executor.OP_END},
	}, got)
	assert.Equal(t, executor.OP_VIEW, compile(t, "view")[0].Op)
}
