package dynamic

import (
	"bytes"
	"debug/elf"
	"errors"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"
)

type mapMemory struct {
	words   map[uint64]uint32
	strings map[uint64]string
}

var errUnmapped = errors.New("unmapped")

func (m mapMemory) ReadUint32(addr uint64) (uint32, error) {
	w, ok := m.words[addr]
	if !ok {
		return 0, errUnmapped
	}
	return w, nil
}

func (m mapMemory) ReadCString(addr uint64) (string, error) {
	s, ok := m.strings[addr]
	if !ok {
		return "", errUnmapped
	}
	return s, nil
}

type biasModule uint64

func (b biasModule) LoadBias() uint64 { return uint64(b) }

func TestInterpret(t *testing.T) {
	mem := mapMemory{
		words:   map[uint64]uint32{0x10200: 17},
		strings: map[uint64]string{0x10400: ""},
	}
	var out bytes.Buffer
	i := NewInterpreter(log.NewLogfmtLogger(&out), mem, NativeResolver)
	m := biasModule(0x10000)

	target, err := i.Interpret(Entry{Tag: int64(elf.DT_HASH), Raw: 0x200}, m)
	require.NoError(t, err)
	require.Equal(t, Target{Kind: TargetHash, Addr: 0x10200, NBucket: 17}, target)

	target, err = i.Interpret(Entry{Tag: int64(elf.DT_SYMTAB), Raw: 0x300}, m)
	require.NoError(t, err)
	require.Equal(t, Target{Kind: TargetSymbolTable, Addr: 0x10300}, target)

	target, err = i.Interpret(Entry{Tag: int64(elf.DT_STRTAB), Raw: 0x10400}, m)
	require.NoError(t, err)
	require.Equal(t, Target{Kind: TargetStringTable, Addr: 0x10400}, target)

	require.Contains(t, out.String(), `msg="hash table" tag=DT_HASH addr=0x10200 nbucket=17`)
	require.Contains(t, out.String(), `msg="symbol table" tag=DT_SYMTAB addr=0x10300`)
	require.Contains(t, out.String(), `msg="string table" tag=DT_STRTAB addr=0x10400 first=`)
}

func TestInterpretIgnoresOtherTags(t *testing.T) {
	var out bytes.Buffer
	i := NewInterpreter(log.NewLogfmtLogger(&out), mapMemory{}, NativeResolver)
	for _, tag := range []int64{0, 1, 3, 21, 31, 0x6ffffef5} {
		target, err := i.Interpret(Entry{Tag: tag, Raw: 0xdead}, biasModule(0))
		require.NoError(t, err)
		require.Equal(t, TargetIgnored, target.Kind)
	}
	require.Empty(t, out.String())
}

func TestInterpretReadError(t *testing.T) {
	i := NewInterpreter(nil, mapMemory{}, NativeResolver)
	_, err := i.Interpret(Entry{Tag: int64(elf.DT_HASH), Raw: 0x200}, biasModule(0x1000))
	require.ErrorIs(t, err, errUnmapped)
	_, err = i.Interpret(Entry{Tag: int64(elf.DT_STRTAB), Raw: 0x200}, biasModule(0x1000))
	require.ErrorIs(t, err, errUnmapped)
}
