package executor

import (
	"strings"

	storageengine "ValuePool/storage_engine"
	"ValuePool/types"
	"ValuePool/values"

	"github.com/cockroachdb/errors"
)

// popTerm builds a value from the text and datatype on the stack.
func (vm *VM) popTerm(kind string) (types.Value, error) {
	datatype, err := vm.pop()
	if err != nil {
		return nil, err
	}
	text, err := vm.pop()
	if err != nil {
		return nil, err
	}
	switch kind {
	case "uri":
		return values.NewURI(text), nil
	case "literal":
		return values.NewLiteral(text), nil
	case "typed":
		return vm.registry.NewTyped(text, values.ExpandDatatype(datatype))
	}
	return nil, errors.Newf("unknown term kind %q", kind)
}

func (vm *VM) popValue() (types.Value, error) {
	if len(vm.terms) == 0 {
		return nil, ErrStackUnderflow
	}
	v := vm.terms[len(vm.terms)-1]
	vm.terms = vm.terms[:len(vm.terms)-1]
	return v, nil
}

// ExecutePut stores the value on the stack, under node when it is not 0.
func (vm *VM) ExecutePut(node int64) error {
	v, err := vm.popValue()
	if err != nil {
		return err
	}
	if node == types.NoNode {
		if node, err = vm.pool.Put(v); err != nil {
			return err
		}
	} else if err := vm.pool.PutNode(node, v); err != nil {
		return err
	}
	vm.PrintLine([]string{strconvNode(node), values.Format(v)})
	return nil
}

func (vm *VM) ExecuteIntern() error {
	v, err := vm.popValue()
	if err != nil {
		return err
	}
	node, err := vm.pool.FindOrCreateNode(v)
	if err != nil {
		return err
	}
	vm.PrintLine([]string{strconvNode(node), values.Format(v)})
	return nil
}

func (vm *VM) ExecuteRemove(node int64) error {
	removed, err := vm.pool.Remove(node)
	if err != nil {
		return err
	}
	if !removed {
		vm.printf("node %d holds no value\n", node)
		return nil
	}
	vm.printf("removed %d\n", node)
	return nil
}

func (vm *VM) ExecuteFind() error {
	v, err := vm.popValue()
	if err != nil {
		return err
	}
	node, err := vm.reader().FindNode(v)
	if err != nil {
		return err
	}
	if node == types.NoNode {
		vm.printf("not found\n")
		return nil
	}
	vm.PrintLine([]string{strconvNode(node), values.Format(v)})
	return nil
}

func (vm *VM) ExecuteValue(node int64) error {
	v, err := vm.reader().FindValue(node)
	if err != nil {
		return err
	}
	if v == nil {
		vm.printf("node %d holds no value\n", node)
		return nil
	}
	vm.PrintLine([]string{strconvNode(node), values.Format(v)})
	return nil
}

// ExecuteScan pops the high then the low bound. brackets is one of [] [) (] ().
func (vm *VM) ExecuteScan(brackets string) error {
	if len(brackets) != 2 {
		return errors.Newf("bad scan brackets %q", brackets)
	}
	high, err := vm.popValue()
	if err != nil {
		return err
	}
	low, err := vm.popValue()
	if err != nil {
		return err
	}
	c, err := vm.reader().Scan(low, brackets[0] == '[', high, brackets[1] == ']')
	if err != nil {
		return err
	}
	return vm.printCursor(c)
}

func (vm *VM) ExecuteScanType(category string) error {
	datatype, err := vm.pop()
	if err != nil {
		return err
	}
	cat, err := parseCategory(category)
	if err != nil {
		return err
	}
	if datatype != "" {
		datatype = values.ExpandDatatype(datatype)
	}
	c, err := vm.reader().ScanByType(cat, datatype)
	if err != nil {
		return err
	}
	return vm.printCursor(c)
}

func parseCategory(name string) (types.TypeCategory, error) {
	switch strings.ToLower(name) {
	case "any", "*":
		return types.CategoryAny, nil
	case "uri", "iri":
		return types.CategoryURI, nil
	case "literal", "untyped":
		return types.CategoryUntypedLiteral, nil
	case "typed":
		return types.CategoryTypedLiteral, nil
	}
	return 0, errors.Newf("unknown category %q, expected any, uri, literal or typed", name)
}

// printCursor prints every node of a scan with its value, up to the scan limit.
func (vm *VM) printCursor(c *storageengine.NodeCursor) error {
	defer c.Close()

	r := vm.reader()
	rows := 0
	vm.PrintLine([]string{"node", "value"})
	vm.PrintSeparator(2)
	for c.Next() {
		if vm.scanLimit > 0 && rows == vm.scanLimit {
			total, err := c.Count()
			if err != nil {
				return err
			}
			vm.printf("... %d more\n", total-int64(rows))
			return nil
		}
		v, err := r.FindValue(c.Node())
		if err != nil {
			return err
		}
		vm.PrintLine([]string{strconvNode(c.Node()), values.Format(v)})
		rows++
	}
	if err := c.Err(); err != nil {
		return err
	}
	vm.printf("(%d nodes)\n", rows)
	return nil
}
