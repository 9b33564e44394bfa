package dynamic

import (
	"errors"
	"fmt"
)

// NativePointerBits is the address width of the running process.
const NativePointerBits = 32 << (^uintptr(0) >> 63)

// Fails to compile on platforms whose pointers are neither 32 nor 64 bits wide.
var _ = [1]struct{}{}[(NativePointerBits-32)*(NativePointerBits-64)]

// ErrUnsupportedWidth is returned for address widths other than 32 and 64 bits.
var ErrUnsupportedWidth = errors.New("unsupported pointer width")

// PointerResolver turns the value of an address-class dynamic entry into a
// runtime address.
//
// Depending on the dynamic linker and the entry, d_ptr either already holds the
// relocated address or still holds the link-time offset. A value is taken as
// absolute when it is not below the load bias and its top byte is not 0xff;
// anything else is added to the bias. This is a heuristic and can misclassify
// entries of objects loaded at unusual addresses.
type PointerResolver struct {
	bits uint
}

// NativeResolver is the resolver for the running process.
var NativeResolver = PointerResolver{bits: NativePointerBits}

// NewPointerResolver returns a resolver for a target with the given address
// width in bits.
func NewPointerResolver(bits int) (PointerResolver, error) {
	if bits != 32 && bits != 64 {
		return PointerResolver{}, fmt.Errorf("%w: %d", ErrUnsupportedWidth, bits)
	}
	return PointerResolver{bits: uint(bits)}, nil
}

// Bits returns the address width of the resolver.
func (r PointerResolver) Bits() int {
	return int(r.bits)
}

func (r PointerResolver) mask() uint64 {
	if r.bits == 64 {
		return ^uint64(0)
	}
	return 1<<r.bits - 1
}

// Absolute reports whether raw is taken as an already-relocated address.
func (r PointerResolver) Absolute(bias, raw uint64) bool {
	raw &= r.mask()
	topByte := raw >> (r.bits - 8) & 0xff
	return raw >= bias&r.mask() && topByte^0xff != 0
}

// Resolve returns raw if it looks absolute and bias+raw otherwise.
func (r PointerResolver) Resolve(bias, raw uint64) uint64 {
	if r.Absolute(bias, raw) {
		return raw & r.mask()
	}
	return (bias + raw) & r.mask()
}
