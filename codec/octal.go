package codec

import (
	"bytes"
	"fmt"
	"strconv"
)

// parseOctal reads a zero-padded octal ASCII field, ignoring leading and
// trailing spaces and NULs.  An empty field parses as zero.  Returns ok=false
// on anything that isn't octal digits after trimming.
func parseOctal(field []byte) (int64, bool) {
	trimmed := bytes.Trim(field, " \x00")
	if len(trimmed) == 0 {
		return 0, true
	}
	v, err := strconv.ParseInt(string(trimmed), 8, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// formatOctal writes v into the field as zero-padded octal digits with a
// single trailing NUL, filling the entire field width.  This is the layout
// every mainstream archiver emits for the size and mtime fields.
func formatOctal(field []byte, v int64) {
	copy(field, fmt.Sprintf("%0*o\x00", len(field)-1, v))
}

// formatChecksum writes v in the checksum field's own canonical layout,
// which differs from the other numeric fields: six digits, a NUL, then a
// space.  (Historical accident, enshrined by every tar since.)
func formatChecksum(field []byte, v int64) {
	copy(field, fmt.Sprintf("%06o\x00 ", v))
}

// SetChecksum recomputes a block's checksum from its current contents and
// stores it in canonical form.  Handy for callers hand-assembling fixture
// blocks; the read paths never mutate blocks.
func SetChecksum(b *Block) {
	unsigned, _ := Checksum(b)
	formatChecksum(b[posChksum:posChksum+lenChksum], unsigned)
}

// FormatSize re-serializes a size value in the canonical field layout.
func FormatSize(v int64) []byte {
	field := make([]byte, lenSize)
	formatOctal(field, v)
	return field
}
