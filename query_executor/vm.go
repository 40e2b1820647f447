package executor

/*
VM - runs the instructions the code generator emits against one pool:

	VM
	 ├─→ ValuePool     writer: values, scans, phase transitions
	 └─→ ReadOnlyView  snapshot reads, opened with VIEW and rebound with REFRESH

Results are printed to the VM's writer, failures are returned.
*/

import (
	"os"
	"strconv"

	storageengine "ValuePool/storage_engine"
	"ValuePool/values"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

var (
	ErrStackUnderflow = errors.New("stack underflow")
	ErrNoView         = errors.New("no read-only view open, run VIEW first")
)

func NewVM(pool *storageengine.ValuePool, opts Options) *VM {
	vm := &VM{
		pool:       pool,
		registry:   opts.Registry,
		out:        opts.Out,
		log:        opts.Logger,
		autoCommit: opts.AutoCommit,
		scanLimit:  opts.ScanLimit,
		stack:      make([]string, 0),
	}
	if vm.registry == nil {
		vm.registry = values.NewRegistry()
	}
	if vm.out == nil {
		vm.out = os.Stdout
	}
	if vm.log == nil {
		vm.log = zap.NewNop().Sugar()
	}
	return vm
}

func (vm *VM) Execute(instructions []Instruction) error {
	vm.stack = vm.stack[:0]
	vm.terms = vm.terms[:0]
	vm.useView = false

	for _, instr := range instructions {
		switch instr.Op {
		case OP_PUSH_VAL:
			vm.stack = append(vm.stack, instr.Value)

		case OP_PUSH_TERM:
			v, err := vm.popTerm(instr.Value)
			if err != nil {
				return err
			}
			vm.terms = append(vm.terms, v)

		case OP_PUSH_OPEN:
			vm.terms = append(vm.terms, nil)

		case OP_USE_VIEW:
			if vm.view == nil {
				return ErrNoView
			}
			vm.useView = true

		case OP_PUT:
			node, err := parseNode(instr.Value)
			if err != nil {
				return err
			}
			return vm.mutate(func() error { return vm.ExecutePut(node) })

		case OP_INTERN:
			return vm.mutate(vm.ExecuteIntern)

		case OP_REMOVE:
			node, err := parseNode(instr.Value)
			if err != nil {
				return err
			}
			return vm.mutate(func() error { return vm.ExecuteRemove(node) })

		case OP_FIND:
			return vm.ExecuteFind()

		case OP_VALUE:
			node, err := parseNode(instr.Value)
			if err != nil {
				return err
			}
			return vm.ExecuteValue(node)

		case OP_SCAN:
			return vm.ExecuteScan(instr.Value)

		case OP_SCAN_TYPE:
			return vm.ExecuteScanType(instr.Value)

		case OP_CLEAR:
			phase, err := parsePhase(instr.Value)
			if err != nil {
				return err
			}
			return vm.ExecuteClear(phase)

		case OP_PREPARE:
			return vm.pool.Prepare()

		case OP_COMMIT:
			return vm.pool.Commit()

		case OP_ROLLBACK:
			return vm.pool.Rollback()

		case OP_RECOVER:
			return vm.ExecuteRecover()

		case OP_SELECT_PHASE:
			phase, err := parsePhase(instr.Value)
			if err != nil {
				return err
			}
			return vm.pool.SelectPhase(phase)

		case OP_STATS:
			vm.PrintStats(vm.pool.Stats())
			return nil

		case OP_CHECK:
			if err := vm.pool.CheckIntegrity(); err != nil {
				return err
			}
			vm.printf("ok\n")
			return nil

		case OP_VIEW:
			return vm.ExecuteOpenView()

		case OP_REFRESH:
			if vm.view == nil {
				return ErrNoView
			}
			if err := vm.view.Refresh(); err != nil {
				return err
			}
			vm.printf("view at phase %d\n", vm.view.Phase())
			return nil

		case OP_END:
			return nil

		default:
			return errors.Newf("unknown opcode: %d", instr.Op)
		}
	}
	return nil
}

// Close releases the view, if any. The pool belongs to the caller.
func (vm *VM) Close() {
	if vm.view != nil {
		vm.view.Close()
		vm.view = nil
	}
}

// reader is where read statements go: the view after USE_VIEW, the writer otherwise.
func (vm *VM) reader() Reader {
	if vm.useView {
		return vm.view
	}
	return vm.pool
}

func (vm *VM) pop() (string, error) {
	if len(vm.stack) == 0 {
		return "", ErrStackUnderflow
	}
	top := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return top, nil
}

func parseNode(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "bad node %q", s)
	}
	return n, nil
}

func parsePhase(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "bad phase %q", s)
	}
	return uint32(n), nil
}
