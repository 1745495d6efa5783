package ptrarith

import (
	"encoding/binary"
	"fmt"
)

// Width is the size in bytes of every offset, size and id field of an image.
// It is fixed for the whole image at format time.
type Width uint8

const (
	// Width16 selects 16-bit offsets (images up to 64 KiB).
	Width16 Width = 2
	// Width32 selects 32-bit offsets.
	Width32 Width = 4
)

// Valid reports whether w is a supported width.
func (w Width) Valid() bool {
	return w == Width16 || w == Width32
}

// Bytes returns w as an int to be used in size arithmetic.
func (w Width) Bytes() uint64 {
	return uint64(w)
}

// MaxValue returns the largest value representable in w bytes.
func (w Width) MaxValue() uint64 {
	switch w {
	case Width16:
		return 1<<16 - 1
	case Width32:
		return 1<<32 - 1
	default:
		panic(fmt.Sprintf("unsupported width %d", w))
	}
}

// Get reads a little-endian value of width w from the beginning of b.
func (w Width) Get(b []byte) uint64 {
	switch w {
	case Width16:
		return uint64(binary.LittleEndian.Uint16(b))
	case Width32:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		panic(fmt.Sprintf("unsupported width %d", w))
	}
}

// Put writes v as a little-endian value of width w to the beginning of b.
// Higher bits of v not fitting the width are dropped.
func (w Width) Put(b []byte, v uint64) {
	switch w {
	case Width16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case Width32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		panic(fmt.Sprintf("unsupported width %d", w))
	}
}

// String implements fmt.Stringer.
func (w Width) String() string {
	return fmt.Sprintf("%d-bit", w*8)
}

// ParseWidth converts number of bits (16 or 32) into Width.
func ParseWidth(bits uint64) (Width, error) {
	switch bits {
	case 16:
		return Width16, nil
	case 32:
		return Width32, nil
	default:
		return 0, fmt.Errorf("unsupported address width %d, expected 16 or 32", bits)
	}
}
