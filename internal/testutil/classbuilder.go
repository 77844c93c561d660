// Package testutil builds synthetic class files and dependency jars for tests.
package testutil

import (
	"archive/zip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// ClassBuilder assembles a minimal, structurally valid class file: constant
// pool, a handful of methods with raw code, nothing else. Pool entries are
// appended in call order and never deduplicated, which keeps index bookkeeping
// trivial in tests.
type ClassBuilder struct {
	entries   [][]byte
	next      uint16
	this      uint16
	super     uint16
	codeUtf8  uint16
	methods   [][]byte
	methodCnt int
}

// NewClassBuilder starts a class named thisClass (internal form).
func NewClassBuilder(thisClass string) *ClassBuilder {
	b := &ClassBuilder{next: 1}
	b.codeUtf8 = b.Utf8("Code")
	b.this = b.AddClass(thisClass)
	b.super = b.AddClass("java/lang/Object")
	return b
}

func (b *ClassBuilder) add(slots uint16, data []byte) uint16 {
	idx := b.next
	b.entries = append(b.entries, data)
	b.next += slots
	return idx
}

// Utf8 appends a Utf8 entry and returns its index.
func (b *ClassBuilder) Utf8(s string) uint16 {
	data := make([]byte, 3+len(s))
	data[0] = 1 // Utf8 tag
	binary.BigEndian.PutUint16(data[1:], uint16(len(s)))
	copy(data[3:], s)
	return b.add(1, data)
}

// AddClass appends a Class entry (and its Utf8 name) and returns its index.
func (b *ClassBuilder) AddClass(name string) uint16 {
	nameIdx := b.Utf8(name)
	data := []byte{7, 0, 0} // Class tag
	binary.BigEndian.PutUint16(data[1:], nameIdx)
	return b.add(1, data)
}

// NameAndType appends a NameAndType entry and returns its index.
func (b *ClassBuilder) NameAndType(name, desc string) uint16 {
	nameIdx := b.Utf8(name)
	descIdx := b.Utf8(desc)
	data := []byte{12, 0, 0, 0, 0}
	binary.BigEndian.PutUint16(data[1:], nameIdx)
	binary.BigEndian.PutUint16(data[3:], descIdx)
	return b.add(1, data)
}

func (b *ClassBuilder) memberRef(tag byte, class, name, desc string) uint16 {
	classIdx := b.AddClass(class)
	natIdx := b.NameAndType(name, desc)
	return b.RawRef(tag, classIdx, natIdx)
}

// RawRef appends a member reference entry with explicit indices, letting
// tests construct deliberately inconsistent pools.
func (b *ClassBuilder) RawRef(tag byte, classIdx, natIdx uint16) uint16 {
	data := []byte{tag, 0, 0, 0, 0}
	binary.BigEndian.PutUint16(data[1:], classIdx)
	binary.BigEndian.PutUint16(data[3:], natIdx)
	return b.add(1, data)
}

// Methodref appends a Methodref entry (plus its Class and NameAndType).
func (b *ClassBuilder) Methodref(class, name, desc string) uint16 {
	return b.memberRef(10, class, name, desc)
}

// InterfaceMethodref appends an InterfaceMethodref entry.
func (b *ClassBuilder) InterfaceMethodref(class, name, desc string) uint16 {
	return b.memberRef(11, class, name, desc)
}

// Fieldref appends a Fieldref entry.
func (b *ClassBuilder) Fieldref(class, name, desc string) uint16 {
	return b.memberRef(9, class, name, desc)
}

// InvokeDynamic appends an InvokeDynamic entry with bootstrap index 0.
func (b *ClassBuilder) InvokeDynamic(name, desc string) uint16 {
	natIdx := b.NameAndType(name, desc)
	data := []byte{18, 0, 0, 0, 0}
	binary.BigEndian.PutUint16(data[3:], natIdx)
	return b.add(1, data)
}

// Long appends an 8-byte constant, which occupies two pool slots.
func (b *ClassBuilder) Long(v int64) uint16 {
	data := make([]byte, 9)
	data[0] = 5 // Long tag
	binary.BigEndian.PutUint64(data[1:], uint64(v))
	return b.add(2, data)
}

// AddMethod appends a method with the given raw code region. A nil code means
// no Code attribute (abstract/native shape).
func (b *ClassBuilder) AddMethod(name, desc string, code []byte) {
	nameIdx := b.Utf8(name)
	descIdx := b.Utf8(desc)

	var m []byte
	m = appendU16(m, 0x0009) // public static
	m = appendU16(m, nameIdx)
	m = appendU16(m, descIdx)

	if code == nil {
		m = appendU16(m, 0) // attributes_count
	} else {
		m = appendU16(m, 1)
		m = appendU16(m, b.codeUtf8)
		m = appendU32(m, uint32(12+len(code))) // attribute_length
		m = appendU16(m, 8)                    // max_stack
		m = appendU16(m, 8)                    // max_locals
		m = appendU32(m, uint32(len(code)))
		m = append(m, code...)
		m = appendU16(m, 0) // exception_table_length
		m = appendU16(m, 0) // attributes_count
	}
	b.methods = append(b.methods, m)
	b.methodCnt++
}

// Bytes serializes the class file.
func (b *ClassBuilder) Bytes() []byte {
	var out []byte
	out = appendU32(out, 0xCAFEBABE)
	out = appendU16(out, 0)  // minor
	out = appendU16(out, 52) // major (Java 8)

	out = appendU16(out, b.next) // constant_pool_count
	for _, e := range b.entries {
		out = append(out, e...)
	}

	out = appendU16(out, 0x0021) // public super
	out = appendU16(out, b.this)
	out = appendU16(out, b.super)
	out = appendU16(out, 0) // interfaces_count
	out = appendU16(out, 0) // fields_count

	out = appendU16(out, uint16(b.methodCnt))
	for _, m := range b.methods {
		out = append(out, m...)
	}

	out = appendU16(out, 0) // attributes_count
	return out
}

func appendU16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func appendU32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// Ins encodes one instruction: the opcode followed by its operand bytes.
func Ins(op byte, operands ...byte) []byte {
	return append([]byte{op}, operands...)
}

// InsIdx encodes an opcode with a u2 constant pool index operand, plus any
// trailing operand bytes (invokeinterface's count byte, multianewarray's
// dimension count).
func InsIdx(op byte, idx uint16, trailing ...byte) []byte {
	out := []byte{op, byte(idx >> 8), byte(idx)}
	return append(out, trailing...)
}

// Code concatenates instruction encodings into one code region.
func Code(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// WriteJar creates a jar at path whose entries are the given names. Entry
// contents are irrelevant to indexing, so they stay empty.
func WriteJar(t *testing.T, path string, entryNames ...string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating jar %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range entryNames {
		if _, err := zw.Create(name); err != nil {
			t.Fatalf("adding entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing jar %s: %v", path, err)
	}
}

// WriteClassFile writes raw class bytes beneath dir, creating parents.
func WriteClassFile(t *testing.T, dir, relPath string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating dir for %s: %v", relPath, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", relPath, err)
	}
	return path
}
