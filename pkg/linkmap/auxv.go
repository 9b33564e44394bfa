package linkmap

// Auxiliary vector tags used to find the executable's program headers.
const (
	AtNull  = 0
	AtPhdr  = 3
	AtPhent = 4
	AtPhnum = 5
	AtEntry = 9
)

// Auxv is a decoded ELF auxiliary vector.
type Auxv map[uint64]uint64

// ParseAuxv decodes the (tag, value) word pairs of an auxiliary vector up to
// AT_NULL or the end of b.
// For the format see System V Application Binary Interface, AMD64 Architecture
// Processor Supplement, section 3.4.3.
func ParseAuxv(b []byte, layout Layout) Auxv {
	w := layout.WordSize()
	auxv := make(Auxv)
	for len(b) >= 2*w {
		tag := layout.word(b)
		val := layout.word(b[w:])
		if tag == AtNull {
			break
		}
		auxv[tag] = val
		b = b[2*w:]
	}
	return auxv
}
