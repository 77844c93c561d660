package classfile

import (
	"errors"
	"fmt"
)

// Constant pool tags (JVMS §4.4).
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// Entry is implemented by every constant pool entry type.
type Entry interface {
	Tag() uint8
}

// Utf8 is a modified-UTF8 string constant. Only the raw bytes are kept; class
// names never use the surrogate encoding so a plain string conversion suffices.
type Utf8 struct {
	Value string
}

func (Utf8) Tag() uint8 { return TagUtf8 }

// Class is a symbolic class reference pointing at a Utf8 name.
type Class struct {
	NameIndex uint16
}

func (Class) Tag() uint8 { return TagClass }

// Fieldref references a field of a class.
type Fieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (Fieldref) Tag() uint8 { return TagFieldref }

// Methodref references a method of a class.
type Methodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (Methodref) Tag() uint8 { return TagMethodref }

// InterfaceMethodref references a method of an interface.
type InterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (InterfaceMethodref) Tag() uint8 { return TagInterfaceMethodref }

// NameAndType pairs a member name with its descriptor.
type NameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (NameAndType) Tag() uint8 { return TagNameAndType }

// Opaque stands in for entries the analysis never resolves (numbers, strings,
// method handles, dynamic call sites, module/package info). The payload is
// consumed during parsing to keep the pool aligned, then discarded.
type Opaque struct {
	tag uint8
}

func (o Opaque) Tag() uint8 { return o.tag }

// ConstantPool is the one-indexed constant pool of a class file. Index 0 is
// invalid by definition of the format; the slot following a long or double
// entry is unusable and left nil.
type ConstantPool []Entry

// ErrBadPool marks an internally inconsistent constant pool, e.g. a reference
// whose target index is out of range or of the wrong tag.
var ErrBadPool = errors.New("inconsistent constant pool")

func (p ConstantPool) entry(idx uint16) (Entry, error) {
	if idx == 0 || int(idx) >= len(p) || p[idx] == nil {
		return nil, fmt.Errorf("%w: index %d out of range", ErrBadPool, idx)
	}
	return p[idx], nil
}

// Utf8 resolves idx to a Utf8 entry's string value.
func (p ConstantPool) Utf8(idx uint16) (string, error) {
	e, err := p.entry(idx)
	if err != nil {
		return "", err
	}
	u, ok := e.(Utf8)
	if !ok {
		return "", fmt.Errorf("%w: index %d is tag %d, want Utf8", ErrBadPool, idx, e.Tag())
	}
	return u.Value, nil
}

// ClassName resolves a Class entry to its internal name (slash-separated).
func (p ConstantPool) ClassName(idx uint16) (string, error) {
	e, err := p.entry(idx)
	if err != nil {
		return "", err
	}
	c, ok := e.(Class)
	if !ok {
		return "", fmt.Errorf("%w: index %d is tag %d, want Class", ErrBadPool, idx, e.Tag())
	}
	return p.Utf8(c.NameIndex)
}

// RefOwner resolves a Fieldref, Methodref or InterfaceMethodref entry to the
// internal name of the class that owns the referenced member. It returns
// ok=false (and no error) for entries that carry no owning class, such as the
// InvokeDynamic entries behind invokedynamic instructions.
func (p ConstantPool) RefOwner(idx uint16) (string, bool, error) {
	e, err := p.entry(idx)
	if err != nil {
		return "", false, err
	}

	var classIdx uint16
	switch r := e.(type) {
	case Fieldref:
		classIdx = r.ClassIndex
	case Methodref:
		classIdx = r.ClassIndex
	case InterfaceMethodref:
		classIdx = r.ClassIndex
	case Class:
		return "", false, fmt.Errorf("%w: index %d is Class, want member ref", ErrBadPool, idx)
	default:
		return "", false, nil
	}

	name, err := p.ClassName(classIdx)
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}
