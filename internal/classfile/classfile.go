// Package classfile decodes JVM class files just far enough for reference
// analysis: the constant pool in full, and per-method instruction streams with
// their constant pool operands kept as raw indices. Semantic resolution of
// those indices is the caller's job, keeping binary decoding separate from
// interpretation.
package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic is the class file magic number.
const Magic = 0xCAFEBABE

var (
	// ErrBadMagic marks data that is not a class file at all.
	ErrBadMagic = errors.New("bad magic number")
	// ErrTruncated marks a byte stream that ends before its structure does.
	ErrTruncated = errors.New("truncated class file")
	// ErrBadCode marks an instruction stream that cannot be traversed, e.g.
	// a reserved opcode or a switch with an inconsistent range.
	ErrBadCode = errors.New("malformed bytecode")
)

// ClassFile is one decoded compiled unit.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	Pool         ConstantPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Methods      []Method
}

// Name returns the internal name of the class itself.
func (cf *ClassFile) Name() (string, error) {
	return cf.Pool.ClassName(cf.ThisClass)
}

// Method is one declared method with its decoded instruction stream.
// Instructions is nil for abstract and native methods, which carry no Code
// attribute.
type Method struct {
	AccessFlags  uint16
	Name         string
	Descriptor   string
	Instructions []Instruction
}

// Instruction is a single decoded bytecode instruction. Index holds the raw
// constant pool index for opcodes that reference the pool and is zero
// otherwise; Offset is the instruction's byte offset within its code region.
type Instruction struct {
	Offset int
	Opcode byte
	Index  uint16
}

// reader walks a byte slice big-endian with a sticky error, so parse phases
// can run a run of reads and check once.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) fail(n int) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncated, n, r.pos, len(r.data)-r.pos)
	}
}

func (r *reader) u1() uint8 {
	if r.err != nil {
		return 0
	}
	if r.pos+1 > len(r.data) {
		r.fail(1)
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *reader) u2() uint16 {
	if r.err != nil {
		return 0
	}
	if r.pos+2 > len(r.data) {
		r.fail(2)
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) u4() uint32 {
	if r.err != nil {
		return 0
	}
	if r.pos+4 > len(r.data) {
		r.fail(4)
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.fail(n)
		return nil
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v
}

func (r *reader) skip(n int) {
	r.bytes(n)
}

// Parse decodes the raw bytes of one compiled unit. Any structural problem is
// an error scoped to this unit; the caller decides whether to skip it.
func Parse(data []byte) (*ClassFile, error) {
	r := &reader{data: data}

	if r.u4() != Magic {
		if r.err != nil {
			return nil, r.err
		}
		return nil, ErrBadMagic
	}

	cf := &ClassFile{
		MinorVersion: r.u2(),
		MajorVersion: r.u2(),
	}

	pool, err := parsePool(r)
	if err != nil {
		return nil, err
	}
	cf.Pool = pool

	cf.AccessFlags = r.u2()
	cf.ThisClass = r.u2()
	cf.SuperClass = r.u2()

	// interfaces: u2 count followed by that many u2 indices
	r.skip(2 * int(r.u2()))

	// fields are skipped structurally
	fieldCount := int(r.u2())
	for i := 0; i < fieldCount && r.err == nil; i++ {
		r.skip(6) // access, name, descriptor
		skipAttributes(r)
	}

	methodCount := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	cf.Methods = make([]Method, 0, methodCount)
	for i := 0; i < methodCount; i++ {
		m, err := parseMethod(r, pool)
		if err != nil {
			return nil, err
		}
		cf.Methods = append(cf.Methods, m)
	}

	// trailing class attributes
	skipAttributes(r)
	if r.err != nil {
		return nil, r.err
	}
	return cf, nil
}

func parsePool(r *reader) (ConstantPool, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	pool := make(ConstantPool, count)

	for i := 1; i < count; i++ {
		tag := r.u1()
		switch tag {
		case TagUtf8:
			pool[i] = Utf8{Value: string(r.bytes(int(r.u2())))}
		case TagClass:
			pool[i] = Class{NameIndex: r.u2()}
		case TagFieldref:
			pool[i] = Fieldref{ClassIndex: r.u2(), NameAndTypeIndex: r.u2()}
		case TagMethodref:
			pool[i] = Methodref{ClassIndex: r.u2(), NameAndTypeIndex: r.u2()}
		case TagInterfaceMethodref:
			pool[i] = InterfaceMethodref{ClassIndex: r.u2(), NameAndTypeIndex: r.u2()}
		case TagNameAndType:
			pool[i] = NameAndType{NameIndex: r.u2(), DescriptorIndex: r.u2()}
		case TagInteger, TagFloat:
			r.skip(4)
			pool[i] = Opaque{tag: tag}
		case TagLong, TagDouble:
			// 8-byte constants occupy two slots; the second stays nil.
			r.skip(8)
			pool[i] = Opaque{tag: tag}
			i++
		case TagString, TagMethodType, TagModule, TagPackage:
			r.skip(2)
			pool[i] = Opaque{tag: tag}
		case TagMethodHandle:
			r.skip(3)
			pool[i] = Opaque{tag: tag}
		case TagDynamic, TagInvokeDynamic:
			r.skip(4)
			pool[i] = Opaque{tag: tag}
		default:
			if r.err != nil {
				return nil, r.err
			}
			return nil, fmt.Errorf("%w: unknown tag %d at entry %d", ErrBadPool, tag, i)
		}
		if r.err != nil {
			return nil, r.err
		}
	}
	return pool, nil
}

// skipAttributes consumes a u2-counted attribute list without interpreting it.
func skipAttributes(r *reader) {
	count := int(r.u2())
	for i := 0; i < count && r.err == nil; i++ {
		r.skip(2) // attribute name index
		r.skip(int(r.u4()))
	}
}

func parseMethod(r *reader, pool ConstantPool) (Method, error) {
	m := Method{AccessFlags: r.u2()}
	nameIdx := r.u2()
	descIdx := r.u2()
	if r.err != nil {
		return m, r.err
	}

	var err error
	if m.Name, err = pool.Utf8(nameIdx); err != nil {
		return m, err
	}
	if m.Descriptor, err = pool.Utf8(descIdx); err != nil {
		return m, err
	}

	attrCount := int(r.u2())
	for i := 0; i < attrCount && r.err == nil; i++ {
		attrName, err := pool.Utf8(r.u2())
		if r.err != nil {
			return m, r.err
		}
		if err != nil {
			return m, err
		}
		attrLen := int(r.u4())
		attrEnd := r.pos + attrLen

		if attrName != "Code" {
			r.skip(attrLen)
			continue
		}

		// Code attribute: max_stack u2, max_locals u2, code u4+bytes,
		// then an exception table and nested attributes we don't need.
		r.skip(4)
		code := r.bytes(int(r.u4()))
		if r.err != nil {
			return m, r.err
		}
		m.Instructions, err = decodeInstructions(code)
		if err != nil {
			return m, fmt.Errorf("method %s%s: %w", m.Name, m.Descriptor, err)
		}
		if attrEnd > len(r.data) || attrEnd < r.pos {
			return m, fmt.Errorf("%w: Code attribute of %s%s", ErrTruncated, m.Name, m.Descriptor)
		}
		r.pos = attrEnd
	}
	return m, r.err
}

// decodeInstructions walks one raw code region. Every opcode's operand length
// is taken from the operand table; tableswitch and lookupswitch compute theirs
// from the embedded range or pair count, and wide doubles the index width of
// the instruction it prefixes. An operand running past the end of the region
// is a hard error: past that point every further byte would be misread.
func decodeInstructions(code []byte) ([]Instruction, error) {
	var ins []Instruction

	for pc := 0; pc < len(code); {
		op := code[pc]
		in := Instruction{Offset: pc, Opcode: op}
		size := 1

		switch op {
		case OpTableswitch:
			pad := (4 - (pc+1)%4) % 4
			base := pc + 1 + pad
			if base+12 > len(code) {
				return nil, fmt.Errorf("%w: tableswitch header at %d", ErrTruncated, pc)
			}
			low := int32(binary.BigEndian.Uint32(code[base+4:]))
			high := int32(binary.BigEndian.Uint32(code[base+8:]))
			if high < low {
				return nil, fmt.Errorf("%w: tableswitch range [%d,%d] at %d", ErrBadCode, low, high, pc)
			}
			// span in wide arithmetic; int32 wraps for crafted low/high
			span := int(high) - int(low) + 1
			if span > (len(code)-base-12)/4 {
				return nil, fmt.Errorf("%w: tableswitch table of %d entries at %d", ErrTruncated, span, pc)
			}
			size = base - pc + 12 + 4*span

		case OpLookupswitch:
			pad := (4 - (pc+1)%4) % 4
			base := pc + 1 + pad
			if base+8 > len(code) {
				return nil, fmt.Errorf("%w: lookupswitch header at %d", ErrTruncated, pc)
			}
			npairs := int32(binary.BigEndian.Uint32(code[base+4:]))
			if npairs < 0 {
				return nil, fmt.Errorf("%w: lookupswitch pair count %d at %d", ErrBadCode, npairs, pc)
			}
			if int(npairs) > (len(code)-base-8)/8 {
				return nil, fmt.Errorf("%w: lookupswitch table of %d pairs at %d", ErrTruncated, npairs, pc)
			}
			size = base - pc + 8 + 8*int(npairs)

		case OpWide:
			if pc+1 >= len(code) {
				return nil, fmt.Errorf("%w: wide prefix at %d", ErrTruncated, pc)
			}
			if code[pc+1] == OpIinc {
				size = 6 // wide, iinc, index u2, const u2
			} else {
				size = 4 // wide, opcode, index u2
			}

		default:
			w := operandWidth[op]
			if w < 0 {
				return nil, fmt.Errorf("%w: reserved opcode 0x%02x at %d", ErrBadCode, op, pc)
			}
			size = 1 + int(w)
		}

		if pc+size > len(code) {
			return nil, fmt.Errorf("%w: operands of opcode 0x%02x at %d", ErrTruncated, op, pc)
		}

		if poolIndexed(op) {
			if op == OpLdc {
				in.Index = uint16(code[pc+1])
			} else {
				in.Index = binary.BigEndian.Uint16(code[pc+1:])
			}
		}

		ins = append(ins, in)
		pc += size
	}
	return ins, nil
}
