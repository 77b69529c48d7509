package dwarf

import "fmt"

// ByteReader is a forward cursor over an immutable byte slice (spec.md
// §4.1). It never copies the underlying slice; read_block and read_string
// return borrowed views into it. A fixed-width read or ReadBlock that fails
// leaves the position untouched; ReadString and the LEB128 decoders may
// have advanced part-way when they fail. Either way, callers are expected to
// abandon whatever they were decoding (a CU, a line program, an
// abbreviation table) on the first error rather than try to resynchronize.
type ByteReader struct {
	data []byte
	pos  int
}

// NewByteReader wraps data for reading starting at position 0.
func NewByteReader(data []byte) *ByteReader {
	return &ByteReader{data: data}
}

// NewByteReaderAt wraps data for reading starting at the given offset.
func NewByteReaderAt(data []byte, offset uint64) *ByteReader {
	return &ByteReader{data: data, pos: int(offset)}
}

// Pos returns the current absolute position.
func (r *ByteReader) Pos() uint64 { return uint64(r.pos) }

// SetPos seeks to an absolute position within the underlying slice.
func (r *ByteReader) SetPos(pos uint64) error {
	if pos > uint64(len(r.data)) {
		return fmt.Errorf("%w: seek to %d beyond length %d", ErrTruncatedSection, pos, len(r.data))
	}
	r.pos = int(pos)
	return nil
}

// Len returns the total length of the underlying slice.
func (r *ByteReader) Len() int { return len(r.data) }

// Remaining returns the number of unread bytes.
func (r *ByteReader) Remaining() int { return len(r.data) - r.pos }

// Done reports whether the cursor has reached the end of the slice.
func (r *ByteReader) Done() bool { return r.pos >= len(r.data) }

func (r *ByteReader) need(n int) error {
	if n < 0 || r.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedSection, n, r.pos, r.Remaining())
	}
	return nil
}

// ReadU8 reads one byte.
func (r *ByteReader) ReadU8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// ReadU16 reads a little-endian uint16.
func (r *ByteReader) ReadU16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := uint16(r.data[r.pos]) | uint16(r.data[r.pos+1])<<8
	r.pos += 2
	return v, nil
}

// ReadU32 reads a little-endian uint32.
func (r *ByteReader) ReadU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.pos]) | uint32(r.data[r.pos+1])<<8 |
		uint32(r.data[r.pos+2])<<16 | uint32(r.data[r.pos+3])<<24
	r.pos += 4
	return v, nil
}

// ReadU64 reads a little-endian uint64.
func (r *ByteReader) ReadU64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(r.data[r.pos+i]) << (8 * i)
	}
	r.pos += 8
	return v, nil
}

// ReadULong reads an unsigned integer whose width is given by size, which
// must be one of 1, 2, 4, or 8 — the address-size polymorphism spec.md §2
// calls for (DW_FORM_addr width, line-program DW_LNE_set_address operand).
func (r *ByteReader) ReadULong(size int) (uint64, error) {
	switch size {
	case 1:
		v, err := r.ReadU8()
		return uint64(v), err
	case 2:
		v, err := r.ReadU16()
		return uint64(v), err
	case 4:
		v, err := r.ReadU32()
		return uint64(v), err
	case 8:
		return r.ReadU64()
	default:
		return 0, fmt.Errorf("%w: unsupported address size %d", ErrTruncatedSection, size)
	}
}

// ReadULEB128 decodes an unsigned LEB128 value: 7-bit groups, MSB set means
// "continue".
func (r *ByteReader) ReadULEB128() (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadU8()
		if err != nil {
			return 0, err
		}
		if shift < 64 {
			result |= uint64(b&0x7f) << shift
		}
		shift += 7
		if b&0x80 == 0 {
			return result, nil
		}
		if shift >= 70 {
			return 0, fmt.Errorf("%w: LEB128 too long", ErrTruncatedSection)
		}
	}
}

// ReadSLEB128 decodes a signed LEB128 value, sign-extending from the last
// group's sign bit.
func (r *ByteReader) ReadSLEB128() (int64, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	for {
		b, err = r.ReadU8()
		if err != nil {
			return 0, err
		}
		if shift < 64 {
			result |= int64(b&0x7f) << shift
		}
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= 70 {
			return 0, fmt.Errorf("%w: LEB128 too long", ErrTruncatedSection)
		}
	}
	if shift < 64 && (b&0x40) != 0 {
		result |= -1 << shift
	}
	return result, nil
}

// ReadLength implements the DWARF "initial length" rule: a plain 32-bit
// value in the common case, or a 64-bit-DWARF escape (0xFFFFFFFF followed
// by the real 8-byte length). Values in [0xFFFFFFF0, 0xFFFFFFFF) are
// reserved and treated as a malformed stream (spec.md §4.1): the caller
// must abandon the current CU, not the whole session.
func (r *ByteReader) ReadLength() (length uint64, is64 bool, err error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, false, err
	}
	switch {
	case v < 0xFFFFFFF0:
		return uint64(v), false, nil
	case v == 0xFFFFFFFF:
		length, err = r.ReadU64()
		return length, true, err
	default:
		return 0, false, fmt.Errorf("%w: reserved initial-length value 0x%x", ErrMalformedLength, v)
	}
}

// ReadOffset reads a section offset, 4 bytes in 32-bit DWARF format or 8 in
// 64-bit format.
func (r *ByteReader) ReadOffset(is64 bool) (uint64, error) {
	if is64 {
		return r.ReadU64()
	}
	v, err := r.ReadU32()
	return uint64(v), err
}

// ReadBlock returns a borrowed view of the next n bytes without copying.
func (r *ByteReader) ReadBlock(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadString reads a null-terminated string starting at the current
// position.
func (r *ByteReader) ReadString() (string, error) {
	start := r.pos
	for r.pos < len(r.data) {
		if r.data[r.pos] == 0 {
			s := string(r.data[start:r.pos])
			r.pos++
			return s, nil
		}
		r.pos++
	}
	return "", fmt.Errorf("%w: unterminated string starting at %d", ErrTruncatedSection, start)
}

// ReadStringAt reads a null-terminated string out of an unrelated section
// (.debug_str) at the given offset, without disturbing this reader's own
// position. It is the implementation behind AttrValue string forms that
// reference .debug_str (DW_FORM_strp).
func ReadStringAt(section []byte, offset uint64) (string, error) {
	if offset > uint64(len(section)) {
		return "", fmt.Errorf("%w: .debug_str offset %d beyond length %d", ErrTruncatedSection, offset, len(section))
	}
	sub := NewByteReaderAt(section, offset)
	return sub.ReadString()
}
