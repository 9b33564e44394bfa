package dynamic

import (
	"debug/elf"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// TargetKind identifies what an interpreted entry points at.
type TargetKind int

const (
	TargetIgnored TargetKind = iota
	TargetHash
	TargetSymbolTable
	TargetStringTable
)

func (k TargetKind) String() string {
	switch k {
	case TargetHash:
		return "hash"
	case TargetSymbolTable:
		return "symtab"
	case TargetStringTable:
		return "strtab"
	default:
		return "ignored"
	}
}

// Target is the data an entry's value was resolved to.
type Target struct {
	Kind TargetKind
	Addr uint64

	// NBucket is the first word of the hash table header. Only set for
	// TargetHash.
	NBucket uint32
	// FirstString is the string at offset zero of the string table. Only set
	// for TargetStringTable. The remaining strings are referenced by offsets
	// held elsewhere and are not decoded.
	FirstString string
}

// Memory is the read access into the target process needed to look at what an
// entry points to.
type Memory interface {
	ReadUint32(addr uint64) (uint32, error)
	ReadCString(addr uint64) (string, error)
}

// Module is the loaded object owning the entries being interpreted.
type Module interface {
	LoadBias() uint64
}

// Interpreter resolves DT_HASH, DT_SYMTAB and DT_STRTAB entries and reports
// what they point at.
type Interpreter struct {
	logger   log.Logger
	mem      Memory
	resolver PointerResolver
}

func NewInterpreter(logger log.Logger, mem Memory, resolver PointerResolver) *Interpreter {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Interpreter{
		logger:   logger,
		mem:      mem,
		resolver: resolver,
	}
}

// Interpret resolves e against m. Entries with other tags yield a
// TargetIgnored target and no output.
func (i *Interpreter) Interpret(e Entry, m Module) (Target, error) {
	switch e.Tag {
	case int64(elf.DT_HASH):
		addr := i.resolver.Resolve(m.LoadBias(), e.Raw)
		nbucket, err := i.mem.ReadUint32(addr)
		if err != nil {
			return Target{}, fmt.Errorf("reading hash table header at %#x: %w", addr, err)
		}
		level.Info(i.logger).Log("msg", "hash table", "tag", TagName(e.Tag), "addr", hex(addr), "nbucket", nbucket)
		return Target{Kind: TargetHash, Addr: addr, NBucket: nbucket}, nil

	case int64(elf.DT_SYMTAB):
		addr := i.resolver.Resolve(m.LoadBias(), e.Raw)
		level.Info(i.logger).Log("msg", "symbol table", "tag", TagName(e.Tag), "addr", hex(addr))
		return Target{Kind: TargetSymbolTable, Addr: addr}, nil

	case int64(elf.DT_STRTAB):
		addr := i.resolver.Resolve(m.LoadBias(), e.Raw)
		s, err := i.mem.ReadCString(addr)
		if err != nil {
			return Target{}, fmt.Errorf("reading string table at %#x: %w", addr, err)
		}
		level.Info(i.logger).Log("msg", "string table", "tag", TagName(e.Tag), "addr", hex(addr), "first", s)
		return Target{Kind: TargetStringTable, Addr: addr, FirstString: s}, nil
	}
	return Target{Kind: TargetIgnored}, nil
}

func hex(v uint64) string {
	return fmt.Sprintf("%#x", v)
}
