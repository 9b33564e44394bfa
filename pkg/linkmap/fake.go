package linkmap

import (
	"fmt"

	"github.com/grafana/dynwalk/pkg/dynamic"
)

// FakeMemory is a sparse address space made of byte regions, used to build
// synthetic linker state.
type FakeMemory struct {
	regions []fakeRegion
}

type fakeRegion struct {
	addr uint64
	data []byte
}

// Map places data at addr.
func (f *FakeMemory) Map(addr uint64, data []byte) {
	f.regions = append(f.regions, fakeRegion{addr: addr, data: data})
}

// ReadMemory fails with ErrFault unless the whole range lies in one region.
func (f *FakeMemory) ReadMemory(addr uint64, p []byte) error {
	for _, r := range f.regions {
		if addr >= r.addr && addr+uint64(len(p)) <= r.addr+uint64(len(r.data)) {
			copy(p, r.data[addr-r.addr:])
			return nil
		}
	}
	return fmt.Errorf("%w: %#x", ErrFault, addr)
}

// FakeModule describes one link_map to be written by FakeImage.
type FakeModule struct {
	Bias    uint64
	Path    string
	Dynamic uint64
}

// FakeImage lays out linker structures in a FakeMemory, bump-allocating from
// a base address.
type FakeImage struct {
	Mem    *FakeMemory
	Layout Layout
	next   uint64
}

func NewFakeImage(layout Layout, base uint64) *FakeImage {
	return &FakeImage{Mem: &FakeMemory{}, Layout: layout, next: base}
}

// Put maps b at the next free 16 byte aligned address and returns it.
func (im *FakeImage) Put(b []byte) uint64 {
	addr := im.next
	im.Mem.Map(addr, b)
	im.next = (addr + uint64(len(b)) + 15) &^ 15
	if im.next == addr {
		im.next += 16
	}
	return addr
}

// PutAt maps b at a fixed address.
func (im *FakeImage) PutAt(addr uint64, b []byte) uint64 {
	im.Mem.Map(addr, b)
	return addr
}

func (im *FakeImage) PutString(s string) uint64 {
	return im.Put(append([]byte(s), 0))
}

func (im *FakeImage) PutWords(words ...uint64) uint64 {
	return im.Put(im.Words(words...))
}

// Words encodes address-sized words in the image's layout.
func (im *FakeImage) Words(words ...uint64) []byte {
	w := im.Layout.WordSize()
	b := make([]byte, len(words)*w)
	for i, v := range words {
		im.Layout.putWord(b[i*w:], v)
	}
	return b
}

// PutUint32 writes a single Elf_Word.
func (im *FakeImage) PutUint32(v uint32) uint64 {
	b := make([]byte, 4)
	im.Layout.ByteOrder.PutUint32(b, v)
	return im.Put(b)
}

// PutDynamic writes entries as an ElfW(Dyn) array. The caller includes the
// DT_NULL terminator.
func (im *FakeImage) PutDynamic(entries ...dynamic.Entry) uint64 {
	return im.Put(im.Dynamic(entries...))
}

// Dynamic encodes entries as an ElfW(Dyn) array.
func (im *FakeImage) Dynamic(entries ...dynamic.Entry) []byte {
	words := make([]uint64, 0, 2*len(entries))
	for _, e := range entries {
		tag := uint64(e.Tag)
		if im.Layout.WordSize() == 4 {
			tag = uint64(uint32(int32(e.Tag)))
		}
		words = append(words, tag, e.Raw)
	}
	return im.Words(words...)
}

// PutModules writes a doubly linked link_map chain and returns the address of
// its first element, or 0 for an empty chain.
func (im *FakeImage) PutModules(modules ...FakeModule) uint64 {
	w := uint64(im.Layout.WordSize())
	addrs := make([]uint64, len(modules))
	for i := range modules {
		addrs[i] = im.Put(make([]byte, 5*w))
	}
	for i, m := range modules {
		var next, prev uint64
		name := im.PutString(m.Path)
		if i+1 < len(addrs) {
			next = addrs[i+1]
		}
		if i > 0 {
			prev = addrs[i-1]
		}
		im.writeWords(addrs[i], m.Bias, name, m.Dynamic, next, prev)
	}
	if len(addrs) == 0 {
		return 0
	}
	return addrs[0]
}

// PutDebug writes a struct r_debug.
func (im *FakeImage) PutDebug(version int32, first uint64, brk uint64, state State, ldbase uint64) uint64 {
	w := im.Layout.WordSize()
	b := make([]byte, 5*w)
	im.Layout.ByteOrder.PutUint32(b, uint32(version))
	im.Layout.putWord(b[w:], first)
	im.Layout.putWord(b[2*w:], brk)
	im.Layout.ByteOrder.PutUint32(b[3*w:], uint32(state))
	im.Layout.putWord(b[4*w:], ldbase)
	return im.Put(b)
}

func (im *FakeImage) writeWords(addr uint64, words ...uint64) {
	buf := im.Words(words...)
	for i := range im.Mem.regions {
		r := &im.Mem.regions[i]
		if r.addr == addr {
			copy(r.data, buf)
			return
		}
	}
	panic(fmt.Sprintf("no region at %#x", addr))
}
