package wire

import (
	"fmt"

	"github.com/google/uuid"
)

// GuidSize is the wire size of a Guid.
const GuidSize = 16

// Guid holds the 16 wire bytes of a GUID. The bytes are kept verbatim; the
// first three groups are little-endian on the wire as in the Microsoft
// layout.
type Guid [GuidSize]byte

// String returns the canonical "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx" form.
func (g Guid) String() string {
	return uuid.UUID(g.swap()).String()
}

// IsZero reports whether all bytes are zero.
func (g Guid) IsZero() bool {
	return g == Guid{}
}

// swap converts between the mixed-endian wire layout and RFC 4122 byte
// order. It is its own inverse.
func (g Guid) swap() [GuidSize]byte {
	var u [GuidSize]byte
	u[0], u[1], u[2], u[3] = g[3], g[2], g[1], g[0]
	u[4], u[5] = g[5], g[4]
	u[6], u[7] = g[7], g[6]
	copy(u[8:], g[8:])
	return u
}

// ParseGuid parses the canonical text form into wire bytes.
func ParseGuid(s string) (Guid, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Guid{}, fmt.Errorf("parsing guid %q: %w", s, err)
	}
	return Guid(Guid(u).swap()), nil
}

// ReadGuid copies 16 bytes at offset.
func ReadGuid(buf []byte, offset int) (Guid, error) {
	var g Guid
	if err := CheckBounds(buf, offset, GuidSize, ""); err != nil {
		return g, err
	}
	copy(g[:], buf[offset:])
	return g, nil
}

// WriteGuid writes the 16 bytes of g at offset.
func WriteGuid(buf []byte, offset int, g Guid) error {
	return WriteBytes(buf, offset, g[:])
}
