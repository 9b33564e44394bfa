package linkmap

// Sequence describes a structure in target memory that has no length and is
// walked from one element to the next until a terminator.
type Sequence[T any] struct {
	// Read decodes the element at addr.
	Read func(addr uint64) (T, error)
	// Next returns the address of the element following v, stored at addr.
	Next func(addr uint64, v T) uint64
	// End, if set, is checked before reading an element. Linked lists use it
	// to stop at a null link.
	End func(addr uint64) bool
	// Terminator, if set, is checked after reading an element. A terminator
	// ends the sequence and is not yielded.
	Terminator func(v T) bool
}

// From returns a cursor positioned before the element at addr.
func (s Sequence[T]) From(addr uint64) *Cursor[T] {
	return &Cursor[T]{seq: s, addr: addr}
}

// Cursor is a single-pass iterator over a Sequence. It does not detect changes
// to the underlying memory made while iterating.
//
//	c := seq.From(start)
//	for c.Next() {
//		v := c.Value()
//	}
//	if err := c.Err(); err != nil {
//		return err
//	}
type Cursor[T any] struct {
	seq     Sequence[T]
	addr    uint64
	started bool
	done    bool
	cur     T
	curAddr uint64
	index   int
	err     error
}

// Next advances to the next element and reports whether there is one.
func (c *Cursor[T]) Next() bool {
	if c.done {
		return false
	}
	if c.started {
		c.addr = c.seq.Next(c.curAddr, c.cur)
		c.index++
	}
	c.started = true

	if c.seq.End != nil && c.seq.End(c.addr) {
		return c.stop(nil)
	}
	v, err := c.seq.Read(c.addr)
	if err != nil {
		return c.stop(err)
	}
	if c.seq.Terminator != nil && c.seq.Terminator(v) {
		return c.stop(nil)
	}
	c.cur = v
	c.curAddr = c.addr
	return true
}

func (c *Cursor[T]) stop(err error) bool {
	var zero T
	c.done = true
	c.err = err
	c.cur = zero
	return false
}

// Value returns the current element.
func (c *Cursor[T]) Value() T {
	return c.cur
}

// Addr returns the address of the current element.
func (c *Cursor[T]) Addr() uint64 {
	return c.curAddr
}

// Index returns the zero-based position of the current element.
func (c *Cursor[T]) Index() int {
	return c.index
}

// Err returns the read error that ended the iteration, if any.
func (c *Cursor[T]) Err() error {
	return c.err
}
