package blockparse

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

var (
	ErrVarIntUnsupported = errors.New("varint prefix 0xff is not supported")
	ErrShortRead         = errors.New("unexpected end of block data")
	ErrTrailingBytes     = errors.New("trailing bytes after last transaction")

	// ErrTransactionDecode marks a transaction whose byte span is valid but whose structured
	// form could not be decoded. It never aborts the block.
	ErrTransactionDecode = errors.New("transaction decode error")
)

// ReadVarInt reads a compact size integer at off and returns the value and the number of bytes read.
func ReadVarInt(b []byte, off int) (uint64, int, error) {
	if off >= len(b) {
		return 0, 0, ErrShortRead
	}

	prefix := b[off]
	switch {
	case prefix < 0xfd:
		return uint64(prefix), 1, nil
	case prefix == 0xfd:
		if err := need(b, off+1, 2); err != nil {
			return 0, 0, err
		}
		return uint64(binary.LittleEndian.Uint16(b[off+1:])), 3, nil
	case prefix == 0xfe:
		if err := need(b, off+1, 4); err != nil {
			return 0, 0, err
		}
		return uint64(binary.LittleEndian.Uint32(b[off+1:])), 5, nil
	default:
		return 0, 0, ErrVarIntUnsupported
	}
}

func need(b []byte, off, n int) error {
	if off < 0 || n < 0 || off+n > len(b) {
		return errors.Wrapf(ErrShortRead, "need %d bytes at offset %d, have %d", n, off, len(b))
	}
	return nil
}

// skipVarSlice steps over a varint length prefix and the bytes it announces.
func skipVarSlice(b []byte, off int) (int, error) {
	length, n, err := ReadVarInt(b, off)
	if err != nil {
		return 0, err
	}
	off += n
	if uint64(len(b)-off) < length {
		return 0, errors.Wrapf(ErrShortRead, "var slice of %d bytes at offset %d", length, off)
	}
	return off + int(length), nil
}
