package codegen

import (
	executor "ValuePool/query_executor"
	"ValuePool/query_parser/parser"
	"strconv"

	"github.com/cockroachdb/errors"
)

/*
Statements compile to a flat instruction list for the executor VM. Values travel on the stack:

	"42"^^xsd:long   ->  PUSH_VAL "42", PUSH_VAL "xsd:long", PUSH_TERM typed
	*                ->  PUSH_OPEN

Every list ends with OP_END.
*/

var ErrUnsupportedStatement = errors.New("unknown statement type (no bytecode emitted)")

func EmitBytecode(stmt parser.Statement) ([]executor.Instruction, error) {
	instructions, err := emit(stmt)
	if err != nil {
		return nil, err
	}
	return append(instructions, executor.Instruction{Op: executor.OP_END}), nil
}

func emit(stmt parser.Statement) ([]executor.Instruction, error) {
	op := func(code executor.OpCode, value string) executor.Instruction {
		return executor.Instruction{Op: code, Value: value}
	}

	switch s := stmt.(type) {
	case *parser.ClearStmt:
		return []executor.Instruction{op(executor.OP_CLEAR, strconv.FormatUint(uint64(s.Phase), 10))}, nil

	case *parser.PutStmt:
		return append(emitTerm(s.Value), op(executor.OP_PUT, strconv.FormatInt(s.Node, 10))), nil

	case *parser.InternStmt:
		return append(emitTerm(s.Value), op(executor.OP_INTERN, "")), nil

	case *parser.FindStmt:
		return append(emitTerm(s.Value), op(executor.OP_FIND, "")), nil

	case *parser.ValueStmt:
		return []executor.Instruction{op(executor.OP_VALUE, strconv.FormatInt(s.Node, 10))}, nil

	case *parser.RemoveStmt:
		return []executor.Instruction{op(executor.OP_REMOVE, strconv.FormatInt(s.Node, 10))}, nil

	case *parser.ScanStmt:
		var instructions []executor.Instruction
		for _, bound := range []*parser.Term{s.Low, s.High} {
			if bound == nil {
				instructions = append(instructions, op(executor.OP_PUSH_OPEN, ""))
			} else {
				instructions = append(instructions, emitTerm(*bound)...)
			}
		}
		return append(instructions, op(executor.OP_SCAN, brackets(s.LowInclusive, s.HighInclusive))), nil

	case *parser.ScanTypeStmt:
		return []executor.Instruction{
			op(executor.OP_PUSH_VAL, s.Datatype),
			op(executor.OP_SCAN_TYPE, s.Category),
		}, nil

	case *parser.PrepareStmt:
		return []executor.Instruction{op(executor.OP_PREPARE, "")}, nil
	case *parser.CommitStmt:
		return []executor.Instruction{op(executor.OP_COMMIT, "")}, nil
	case *parser.RollbackStmt:
		return []executor.Instruction{op(executor.OP_ROLLBACK, "")}, nil
	case *parser.RecoverStmt:
		return []executor.Instruction{op(executor.OP_RECOVER, "")}, nil
	case *parser.SelectPhaseStmt:
		return []executor.Instruction{op(executor.OP_SELECT_PHASE, strconv.FormatUint(uint64(s.Phase), 10))}, nil
	case *parser.StatsStmt:
		return []executor.Instruction{op(executor.OP_STATS, "")}, nil
	case *parser.CheckStmt:
		return []executor.Instruction{op(executor.OP_CHECK, "")}, nil
	case *parser.RefreshStmt:
		return []executor.Instruction{op(executor.OP_REFRESH, "")}, nil

	case *parser.ViewStmt:
		if s.Stmt == nil {
			return []executor.Instruction{op(executor.OP_VIEW, "")}, nil
		}
		inner, err := emit(s.Stmt)
		if err != nil {
			return nil, err
		}
		return append([]executor.Instruction{op(executor.OP_USE_VIEW, "")}, inner...), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedStatement, "%T", stmt)
}

func emitTerm(t parser.Term) []executor.Instruction {
	return []executor.Instruction{
		{Op: executor.OP_PUSH_VAL, Value: t.Text},
		{Op: executor.OP_PUSH_VAL, Value: t.Datatype},
		{Op: executor.OP_PUSH_TERM, Value: t.Kind.String()},
	}
}

func brackets(lowInclusive, highInclusive bool) string {
	b := []byte("()")
	if lowInclusive {
		b[0] = '['
	}
	if highInclusive {
		b[1] = ']'
	}
	return string(b)
}
