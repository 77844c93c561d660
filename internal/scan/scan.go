// Package scan extracts symbolic class references from decoded class files.
package scan

import (
	"fmt"
	"iter"

	"github.com/tkoenig/jarusage/internal/classfile"
)

// References returns the internal class names referenced by the instruction
// streams of cf, one per qualifying instruction: invocations and field
// accesses resolve to the owning class of the referenced member, type
// operations resolve to the operand class directly. The sequence is a pure
// function of cf and can be ranged over any number of times.
//
// A constant pool inconsistency discovered during resolution stops the
// sequence; check Err afterwards when that matters.
func References(cf *classfile.ClassFile) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, m := range cf.Methods {
			for _, in := range m.Instructions {
				name, ok, err := resolve(cf.Pool, in)
				if err != nil || !ok {
					continue
				}
				if !yield(name) {
					return
				}
			}
		}
	}
}

// Err re-walks cf's instruction streams and returns the first constant pool
// resolution failure, if any. Separate from References so the common path
// stays allocation-free.
func Err(cf *classfile.ClassFile) error {
	for _, m := range cf.Methods {
		for _, in := range m.Instructions {
			if _, _, err := resolve(cf.Pool, in); err != nil {
				return fmt.Errorf("method %s%s: %w", m.Name, m.Descriptor, err)
			}
		}
	}
	return nil
}

// resolve maps one instruction to the class name it references, ok=false for
// instructions that reference none. invokedynamic operands carry a bootstrap
// method and a name-and-type but no owning class, so they resolve to nothing.
func resolve(pool classfile.ConstantPool, in classfile.Instruction) (string, bool, error) {
	switch in.Opcode {
	case classfile.OpInvokevirtual,
		classfile.OpInvokespecial,
		classfile.OpInvokestatic,
		classfile.OpInvokeinterface,
		classfile.OpGetstatic,
		classfile.OpPutstatic,
		classfile.OpGetfield,
		classfile.OpPutfield:
		return pool.RefOwner(in.Index)

	case classfile.OpInvokedynamic:
		return "", false, nil

	case classfile.OpNew,
		classfile.OpAnewarray,
		classfile.OpCheckcast,
		classfile.OpInstanceof,
		classfile.OpMultianewarray:
		name, err := pool.ClassName(in.Index)
		if err != nil {
			return "", false, err
		}
		return name, true, nil
	}
	return "", false, nil
}
