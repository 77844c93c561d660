package classfile

// Opcodes the analysis singles out. Everything else is only ever traversed,
// never interpreted, so no name is needed for it.
const (
	OpLdc   = 0x12
	OpLdcW  = 0x13
	OpLdc2W = 0x14
	OpIinc  = 0x84
	OpRet   = 0xa9

	OpTableswitch  = 0xaa
	OpLookupswitch = 0xab

	OpGetstatic = 0xb2
	OpPutstatic = 0xb3
	OpGetfield  = 0xb4
	OpPutfield  = 0xb5

	OpInvokevirtual   = 0xb6
	OpInvokespecial   = 0xb7
	OpInvokestatic    = 0xb8
	OpInvokeinterface = 0xb9
	OpInvokedynamic   = 0xba

	OpNew            = 0xbb
	OpNewarray       = 0xbc
	OpAnewarray      = 0xbd
	OpCheckcast      = 0xc0
	OpInstanceof     = 0xc1
	OpWide           = 0xc4
	OpMultianewarray = 0xc5
	OpGotoW          = 0xc8
	OpJsrW           = 0xc9
)

// operandWidth maps an opcode to the fixed byte count of its operands, the
// quantity that keeps stream traversal aligned. -1 marks opcodes that need
// data-dependent handling (tableswitch, lookupswitch, wide) and the reserved
// range, which a well-formed Code attribute never contains.
var operandWidth [256]int8

func init() {
	for i := range operandWidth {
		operandWidth[i] = -1
	}

	fixed := func(lo, hi int, w int8) {
		for op := lo; op <= hi; op++ {
			operandWidth[op] = w
		}
	}

	// nop and the *const_* opcodes
	fixed(0x00, 0x0f, 0)

	// bipush, sipush and the ldc family
	operandWidth[0x10] = 1
	operandWidth[0x11] = 2
	operandWidth[OpLdc] = 1
	operandWidth[OpLdcW] = 2
	operandWidth[OpLdc2W] = 2

	// local variable loads and stores, array access, stack ops, arithmetic:
	// iload..aload take a u1 slot, istore..astore likewise, the indexed
	// shorthand forms and everything through lxor take nothing.
	fixed(0x15, 0x19, 1)
	fixed(0x1a, 0x35, 0)
	fixed(0x36, 0x3a, 1)
	fixed(0x3b, 0x83, 0)

	operandWidth[OpIinc] = 2

	// conversions and comparisons
	fixed(0x85, 0x98, 0)

	// ifeq..jsr carry a s2 branch offset, ret a u1 slot
	fixed(0x99, 0xa8, 2)
	operandWidth[OpRet] = 1

	// ireturn..return
	fixed(0xac, 0xb1, 0)

	// field access and invocations: u2 pool index, invokeinterface and
	// invokedynamic pad to 4 operand bytes
	fixed(OpGetstatic, OpInvokestatic, 2)
	operandWidth[OpInvokeinterface] = 4
	operandWidth[OpInvokedynamic] = 4

	// object and array creation, type checks
	operandWidth[OpNew] = 2
	operandWidth[OpNewarray] = 1
	operandWidth[OpAnewarray] = 2
	fixed(0xbe, 0xbf, 0)
	operandWidth[OpCheckcast] = 2
	operandWidth[OpInstanceof] = 2
	fixed(0xc2, 0xc3, 0)

	// multianewarray: u2 pool index plus u1 dimension count
	operandWidth[OpMultianewarray] = 3

	// ifnull, ifnonnull, wide-offset branches
	fixed(0xc6, 0xc7, 2)
	operandWidth[OpGotoW] = 4
	operandWidth[OpJsrW] = 4
}

// poolIndexed reports whether an opcode's leading u2 operand (u1 for ldc) is a
// constant pool index worth recording on the decoded instruction.
func poolIndexed(op byte) bool {
	switch op {
	case OpLdc, OpLdcW, OpLdc2W,
		OpGetstatic, OpPutstatic, OpGetfield, OpPutfield,
		OpInvokevirtual, OpInvokespecial, OpInvokestatic,
		OpInvokeinterface, OpInvokedynamic,
		OpNew, OpAnewarray, OpCheckcast, OpInstanceof, OpMultianewarray:
		return true
	}
	return false
}
