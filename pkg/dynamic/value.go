package dynamic

import (
	"debug/elf"
	"fmt"
)

// Entry is one ElfW(Dyn) record read from a module's dynamic section.
type Entry struct {
	// Addr is where the record lives in the target's memory.
	Addr uint64
	Tag  int64
	// Raw is d_un as a machine word, before any interpretation.
	Raw uint64
}

// Terminal reports whether e is the DT_NULL entry closing the array.
func (e Entry) Terminal() bool {
	return e.Tag == int64(elf.DT_NULL)
}

func (e Entry) String() string {
	return fmt.Sprintf("%s(%d) %#x", TagName(e.Tag), e.Tag, e.Raw)
}

// Value is the decoded d_un of an entry. It is one of Address, Integer or
// Ignored.
type Value interface {
	isValue()
}

// Address is a d_ptr value after resolution against the module load bias.
type Address uint64

// Integer is a d_val value.
type Integer uint64

// Ignored is the value of entries whose d_un carries no meaning.
type Ignored struct{}

func (Address) isValue() {}
func (Integer) isValue() {}
func (Ignored) isValue() {}

func (a Address) String() string { return fmt.Sprintf("%#x", uint64(a)) }
func (i Integer) String() string { return fmt.Sprintf("%d", uint64(i)) }
func (Ignored) String() string   { return "-" }

type valueClass int

const (
	classIgnored valueClass = iota
	classPtr
	classVal
)

var tagClasses = map[elf.DynTag]valueClass{
	elf.DT_PLTGOT:        classPtr,
	elf.DT_HASH:          classPtr,
	elf.DT_STRTAB:        classPtr,
	elf.DT_SYMTAB:        classPtr,
	elf.DT_RELA:          classPtr,
	elf.DT_INIT:          classPtr,
	elf.DT_FINI:          classPtr,
	elf.DT_REL:           classPtr,
	elf.DT_DEBUG:         classPtr,
	elf.DT_JMPREL:        classPtr,
	elf.DT_INIT_ARRAY:    classPtr,
	elf.DT_FINI_ARRAY:    classPtr,
	elf.DT_PREINIT_ARRAY: classPtr,

	elf.DT_NEEDED:          classVal,
	elf.DT_PLTRELSZ:        classVal,
	elf.DT_RELASZ:          classVal,
	elf.DT_RELAENT:         classVal,
	elf.DT_STRSZ:           classVal,
	elf.DT_SYMENT:          classVal,
	elf.DT_SONAME:          classVal,
	elf.DT_RPATH:           classVal,
	elf.DT_RELSZ:           classVal,
	elf.DT_RELENT:          classVal,
	elf.DT_PLTREL:          classVal,
	elf.DT_INIT_ARRAYSZ:    classVal,
	elf.DT_FINI_ARRAYSZ:    classVal,
	elf.DT_RUNPATH:         classVal,
	elf.DT_FLAGS:           classVal,
	elf.DT_PREINIT_ARRAYSZ: classVal,
}

func classOf(tag int64) valueClass {
	if tag < 0 || tag > TagMaxPosTags {
		return classIgnored
	}
	return tagClasses[elf.DynTag(tag)]
}

// Decode interprets the d_un of e according to its tag. Address-class values
// go through r with the module's load bias.
func Decode(e Entry, bias uint64, r PointerResolver) Value {
	switch classOf(e.Tag) {
	case classPtr:
		return Address(r.Resolve(bias, e.Raw))
	case classVal:
		return Integer(e.Raw)
	default:
		return Ignored{}
	}
}
