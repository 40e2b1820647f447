package executor

import (
	"github.com/cockroachdb/errors"
)

/*
With auto commit on, a statement that changes the pool is its own transaction: the VM prepares
and commits right after it, and rolls back when the statement or the commit fails.
Explicit PREPARE, COMMIT and ROLLBACK go straight to the pool and follow its protocol.
*/

func (vm *VM) mutate(fn func() error) error {
	err := fn()
	if !vm.autoCommit {
		return err
	}
	if err != nil {
		return vm.autoTransactionAbort(err)
	}
	if !vm.pool.Dirty() {
		return nil
	}
	return vm.autoTransactionCommit()
}

func (vm *VM) autoTransactionCommit() error {
	if err := vm.pool.Prepare(); err != nil {
		return vm.autoTransactionAbort(errors.Wrap(err, "auto-commit prepare failed"))
	}
	if err := vm.pool.Commit(); err != nil {
		return errors.Wrap(err, "auto-commit failed")
	}
	vm.log.Debugf("[VM] AUTO COMMIT")
	return nil
}

func (vm *VM) autoTransactionAbort(cause error) error {
	if err := vm.pool.Rollback(); err != nil {
		vm.log.Warnf("[VM] auto rollback failed: %v", err)
		return errors.WithSecondaryError(cause, err)
	}
	return cause
}
