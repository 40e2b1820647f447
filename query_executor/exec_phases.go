package executor

import (
	"fmt"
	"strings"
)

func (vm *VM) ExecuteClear(phase uint32) error {
	if err := vm.pool.Clear(phase); err != nil {
		return err
	}
	vm.printf("cleared at phase %d\n", phase)
	return nil
}

// ExecuteRecover lists the recoverable phases. The newest one is the usual SELECT.
func (vm *VM) ExecuteRecover() error {
	phases, err := vm.pool.Recover()
	if err != nil {
		return err
	}
	if len(phases) == 0 {
		vm.printf("no committed phase, run CLEAR\n")
		return nil
	}
	list := make([]string, len(phases))
	for i, p := range phases {
		list[i] = fmt.Sprint(p)
	}
	vm.printf("phases: %s\n", strings.Join(list, ", "))
	return nil
}

// ExecuteOpenView binds the VM's view to the committed phase, replacing an older view.
func (vm *VM) ExecuteOpenView() error {
	view, err := vm.pool.NewReadOnlyView()
	if err != nil {
		return err
	}
	vm.Close()
	vm.view = view
	vm.printf("view at phase %d\n", view.Phase())
	return nil
}
