// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import (
	"bytes"
	"strings"
)

// MapMode selects the protection of a region mapping.
type MapMode uint8

const (
	MapReadOnly MapMode = iota
	MapReadWrite
)

// minCapacity leaves room for one payload byte and the terminator.
const minCapacity = 2

// maxNameLen matches NAME_MAX for the shared-memory filesystem.
const maxNameLen = 255

// Region is a named shared-memory object of fixed capacity.
// The capacity is chosen once by the creator and never renegotiated.
type Region struct {
	name     string
	capacity int
	fd       int
	creator  bool
}

// Name returns the namespace path of the region, e.g. "/shared_memory".
func (r *Region) Name() string {
	return r.name
}

// Capacity returns the size of the region in bytes.
func (r *Region) Capacity() int {
	return r.capacity
}

// Creator reports whether this handle created and sized the region.
func (r *Region) Creator() bool {
	return r.creator
}

// Buffer is one mapping of a region. Its length is the region capacity
// for its whole lifetime, so Unmap always releases exactly what Map
// acquired.
type Buffer struct {
	mem  []byte
	mode MapMode
}

// Capacity returns the mapped length, or 0 after Unmap.
func (b *Buffer) Capacity() int {
	return len(b.mem)
}

// Mode returns the protection the buffer was mapped with.
func (b *Buffer) Mode() MapMode {
	return b.mode
}

// WriteText stores the text of s up to its first NUL, at most
// Capacity()-1 bytes of it, followed by a terminator, and zero-fills the
// remainder, so a shorter message never exposes the tail of a longer one.
// It returns the number of payload bytes written, which is exactly what
// ReadText on the peer returns.
func (b *Buffer) WriteText(s string) (int, error) {
	if b.mem == nil {
		return 0, ErrClosed
	}
	if b.mode != MapReadWrite {
		return 0, ErrReadOnly
	}
	n := copy(b.mem[:len(b.mem)-1], Text(s))
	clear(b.mem[n:])
	return n, nil
}

// Text returns s as the peer reads it back: the bytes before the first
// NUL, or s itself.
func Text(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return s[:i]
	}
	return s
}

// ReadText returns the bytes before the first terminator.
// A buffer without a terminator yields ErrMalformedPayload.
func (b *Buffer) ReadText() (string, error) {
	if b.mem == nil {
		return "", ErrClosed
	}
	i := bytes.IndexByte(b.mem, 0)
	if i < 0 {
		return "", ErrMalformedPayload
	}
	return string(b.mem[:i]), nil
}

// Clear zero-fills the whole buffer.
func (b *Buffer) Clear() error {
	if b.mem == nil {
		return ErrClosed
	}
	if b.mode != MapReadWrite {
		return ErrReadOnly
	}
	clear(b.mem)
	return nil
}

// Unmap releases the mapping. Calling it again is a no-op.
func (b *Buffer) Unmap() error {
	if b.mem == nil {
		return nil
	}
	mem := b.mem
	b.mem = nil
	return unmapMemory(mem)
}

// validName accepts a single "/"-rooted component, as shm_open does.
func validName(name string) error {
	if len(name) < 2 || len(name) > maxNameLen || name[0] != '/' || strings.IndexByte(name[1:], '/') >= 0 {
		return &OpError{Op: "validate", Name: name, Kind: ErrInvalidConfig}
	}
	if strings.IndexByte(name, 0) >= 0 || name == "/." || name == "/.." {
		return &OpError{Op: "validate", Name: name, Kind: ErrInvalidConfig}
	}
	return nil
}
