package executor

import (
	"io"

	storageengine "ValuePool/storage_engine"
	"ValuePool/types"
	"ValuePool/values"

	"go.uber.org/zap"
)

type OpCode byte

const (
	// stack
	OP_PUSH_VAL OpCode = iota
	OP_PUSH_TERM
	OP_PUSH_OPEN

	// values
	OP_PUT
	OP_INTERN
	OP_FIND
	OP_VALUE
	OP_REMOVE
	OP_SCAN
	OP_SCAN_TYPE

	// phases
	OP_CLEAR
	OP_PREPARE
	OP_COMMIT
	OP_ROLLBACK
	OP_RECOVER
	OP_SELECT_PHASE

	// diagnostics
	OP_STATS
	OP_CHECK

	// read-only view
	OP_VIEW
	OP_USE_VIEW
	OP_REFRESH

	OP_END
)

type Instruction struct {
	Op    OpCode
	Value string
}

// Reader is the read surface shared by the pool and its read-only views.
type Reader interface {
	FindNode(v types.Value) (int64, error)
	FindValue(node int64) (types.Value, error)
	Scan(low types.Value, lowInclusive bool, high types.Value, highInclusive bool) (*storageengine.NodeCursor, error)
	ScanByType(category types.TypeCategory, typeURI string) (*storageengine.NodeCursor, error)
}

type VM struct {
	pool     *storageengine.ValuePool
	view     *storageengine.ReadOnlyView
	registry *values.Registry
	out      io.Writer
	log      *zap.SugaredLogger

	// autoCommit prepares and commits after every statement that changed the pool
	autoCommit bool
	// scanLimit caps the rows a scan prints, 0 prints all
	scanLimit int

	useView bool
	stack   []string
	terms   []types.Value // nil marks an open scan bound
}

// Options tune a VM.
type Options struct {
	Registry   *values.Registry // resolves typed literals, defaults to values.NewRegistry
	Out        io.Writer
	Logger     *zap.SugaredLogger
	AutoCommit bool
	ScanLimit  int
}
