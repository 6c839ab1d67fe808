package wire

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Hex returns b as lowercase hex without separators.
func Hex(b []byte) string {
	return hex.EncodeToString(b)
}

// HexDump returns b as rows of 16 space-separated bytes, each row prefixed
// with its offset.
func HexDump(b []byte) string {
	var sb strings.Builder
	for i := 0; i < len(b); i += 16 {
		end := min(i+16, len(b))
		fmt.Fprintf(&sb, "%04x:", i)
		for _, c := range b[i:end] {
			fmt.Fprintf(&sb, " %02x", c)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatString renders a character array as its text, or as 0x-prefixed
// hex when it is not valid UTF-8.
func FormatString(b []byte) string {
	s, err := DecodeString(b)
	if err != nil {
		return "0x" + Hex(b)
	}
	return s
}

// FormatArray renders the integer array in b as "[0x1, 0x2]", or in
// decimal when signed. Each element is size bytes wide.
func FormatArray(b []byte, size int, endian Endian, signed bool) string {
	parts := make([]string, 0, len(b)/size)
	for off := 0; off+size <= len(b); off += size {
		v := Uint(b[off:], size, endian)
		if signed {
			shift := 64 - 8*size
			parts = append(parts, fmt.Sprintf("%d", int64(v<<shift)>>shift))
		} else {
			parts = append(parts, fmt.Sprintf("0x%x", v))
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
