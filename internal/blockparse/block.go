package blockparse

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
)

const HeaderSize = 80

type Block struct {
	Hash          chainhash.Hash
	PrevBlockHash chainhash.Hash
	Header        []byte
	Transactions  []Transaction
}

// Input carries the only part of an input the indexer looks at.
type Input struct {
	Witness [][]byte
}

type Transaction struct {
	Txid chainhash.Hash
	Raw  []byte

	// Inputs is filled by Decode. It stays empty when DecodeErr is set.
	Inputs    []Input
	DecodeErr error
}

// TxSpan describes where a transaction sits in the block.
type TxSpan struct {
	Offset int
	Length int
	Segwit bool
	Txid   chainhash.Hash
}

// TxLength walks the transaction starting at off and returns its span. Scripts and witness
// items are skipped by length only, so the span is well defined even for transactions the
// structured decoder rejects.
func TxLength(b []byte, off int) (TxSpan, error) {
	span := TxSpan{Offset: off}
	start := off

	if err := need(b, off, 4); err != nil {
		return span, err
	}
	off += 4

	if off+1 < len(b) && b[off] == 0x00 && b[off+1] == 0x01 {
		span.Segwit = true
		off += 2
	}
	bodyStart := off

	numIn, n, err := ReadVarInt(b, off)
	if err != nil {
		return span, errors.Wrap(err, "input count")
	}
	off += n
	for i := uint64(0); i < numIn; i++ {
		// outpoint
		if err = need(b, off, 36); err != nil {
			return span, err
		}
		off += 36
		if off, err = skipVarSlice(b, off); err != nil {
			return span, errors.Wrapf(err, "script sig of input %d", i)
		}
		if err = need(b, off, 4); err != nil {
			return span, err
		}
		off += 4
	}

	numOut, n, err := ReadVarInt(b, off)
	if err != nil {
		return span, errors.Wrap(err, "output count")
	}
	off += n
	for i := uint64(0); i < numOut; i++ {
		if err = need(b, off, 8); err != nil {
			return span, err
		}
		off += 8
		if off, err = skipVarSlice(b, off); err != nil {
			return span, errors.Wrapf(err, "script pub key of output %d", i)
		}
	}
	bodyEnd := off

	if span.Segwit {
		for i := uint64(0); i < numIn; i++ {
			items, n, err := ReadVarInt(b, off)
			if err != nil {
				return span, errors.Wrapf(err, "witness count of input %d", i)
			}
			off += n
			for j := uint64(0); j < items; j++ {
				if off, err = skipVarSlice(b, off); err != nil {
					return span, errors.Wrapf(err, "witness item %d of input %d", j, i)
				}
			}
		}
	}

	if err = need(b, off, 4); err != nil {
		return span, err
	}
	off += 4
	span.Length = off - start

	// txid commits to the serialisation without marker, flag and witnesses
	stripped := make([]byte, 0, 8+bodyEnd-bodyStart)
	stripped = append(stripped, b[start:start+4]...)
	stripped = append(stripped, b[bodyStart:bodyEnd]...)
	stripped = append(stripped, b[off-4:off]...)
	span.Txid = chainhash.DoubleHashH(stripped)

	return span, nil
}

// ParseBlock splits a raw block into its header and transaction spans. The sum of header,
// count varint and all spans has to equal len(raw). Structured decoding is left to
// Transaction.Decode so callers can fan it out.
func ParseBlock(raw []byte) (*Block, error) {
	if len(raw) < HeaderSize {
		return nil, errors.Wrapf(ErrShortRead, "block of %d bytes has no full header", len(raw))
	}

	block := &Block{
		Header: raw[:HeaderSize],
		Hash:   chainhash.DoubleHashH(raw[:HeaderSize]),
	}
	copy(block.PrevBlockHash[:], raw[4:36])

	count, n, err := ReadVarInt(raw, HeaderSize)
	if err != nil {
		return nil, errors.Wrap(err, "transaction count")
	}
	off := HeaderSize + n

	// every tx needs at least 10 bytes, do not let a bogus count allocate
	if count > uint64(len(raw)-off)/10+1 {
		return nil, errors.Wrapf(ErrShortRead, "transaction count %d exceeds block size", count)
	}

	block.Transactions = make([]Transaction, 0, count)
	for i := uint64(0); i < count; i++ {
		span, err := TxLength(raw, off)
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d at offset %d", i, off)
		}
		block.Transactions = append(block.Transactions, Transaction{
			Txid: span.Txid,
			Raw:  raw[off : off+span.Length],
		})
		off += span.Length
	}

	if off != len(raw) {
		return nil, errors.Wrapf(ErrTrailingBytes, "consumed %d of %d bytes", off, len(raw))
	}

	return block, nil
}

// Decode runs the structured decoder over the raw span. On failure DecodeErr is set and
// marked as ErrTransactionDecode; the span itself stays usable.
func (tx *Transaction) Decode() error {
	var msg wire.MsgTx
	if err := msg.Deserialize(bytes.NewReader(tx.Raw)); err != nil {
		tx.DecodeErr = errors.Mark(errors.Wrapf(err, "txid %s", tx.Txid), ErrTransactionDecode)
		return tx.DecodeErr
	}

	tx.Inputs = make([]Input, len(msg.TxIn))
	for i, in := range msg.TxIn {
		tx.Inputs[i] = Input{Witness: in.Witness}
	}
	return nil
}

// DecodeBlock parses the block and decodes every transaction in order. Per transaction
// failures are recorded on the transaction and do not fail the block.
func DecodeBlock(raw []byte) (*Block, error) {
	block, err := ParseBlock(raw)
	if err != nil {
		return nil, err
	}
	for i := range block.Transactions {
		_ = block.Transactions[i].Decode()
	}
	return block, nil
}
