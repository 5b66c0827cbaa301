package blockparse

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/setavenger/xfp-indexer/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func TestReadVarInt(t *testing.T) {
	tests := []struct {
		name  string
		in    []byte
		value uint64
		size  int
		err   error
	}{
		{"single byte", []byte{0xfc}, 0xfc, 1, nil},
		{"two bytes", []byte{0xfd, 0x34, 0x12}, 0x1234, 3, nil},
		{"four bytes", []byte{0xfe, 0x78, 0x56, 0x34, 0x12}, 0x12345678, 5, nil},
		{"eight bytes unsupported", []byte{0xff, 1, 2, 3, 4, 5, 6, 7, 8}, 0, 0, ErrVarIntUnsupported},
		{"truncated", []byte{0xfd, 0x34}, 0, 0, ErrShortRead},
		{"empty", nil, 0, 0, ErrShortRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, size, err := ReadVarInt(tt.in, 0)
			if tt.err != nil {
				require.True(t, errors.Is(err, tt.err), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.value, value)
			require.Equal(t, tt.size, size)
		})
	}
}

func TestParseBlockMatchesWire(t *testing.T) {
	prev := chainhash.DoubleHashH([]byte("parent"))
	inscribed := testhelpers.Tx(1, testhelpers.InscriptionWitness(t, "text/plain", []byte("hello")))
	mixed := testhelpers.Tx(2, nil, wire.TxWitness{[]byte{0x01}})
	legacy := testhelpers.Tx(3, nil)

	raw, hash := testhelpers.Block(t, prev, 7, testhelpers.Coinbase(100), inscribed, mixed, legacy)

	block, err := DecodeBlock(raw)
	require.NoError(t, err)

	require.Equal(t, hash, block.Hash)
	require.Equal(t, prev, block.PrevBlockHash)
	require.Equal(t, prev.String(), block.PrevBlockHash.String())
	require.Len(t, block.Transactions, 4)

	var msg wire.MsgBlock
	require.NoError(t, msg.Deserialize(bytes.NewReader(raw)))

	total := HeaderSize + wire.VarIntSerializeSize(uint64(len(msg.Transactions)))
	for i, tx := range block.Transactions {
		require.Equal(t, msg.Transactions[i].TxHash(), tx.Txid, "tx %d", i)
		require.Equal(t, msg.Transactions[i].SerializeSize(), len(tx.Raw))
		require.NoError(t, tx.DecodeErr)
		require.Len(t, tx.Inputs, len(msg.Transactions[i].TxIn))
		total += len(tx.Raw)
	}
	require.Equal(t, len(raw), total)

	require.Equal(t, [][]byte(inscribed.TxIn[0].Witness), block.Transactions[1].Inputs[0].Witness)
	require.Empty(t, block.Transactions[2].Inputs[0].Witness)
}

func TestParseBlockRejectsTrailingBytes(t *testing.T) {
	raw, _ := testhelpers.Block(t, chainhash.Hash{}, 1, testhelpers.Coinbase(1))
	_, err := ParseBlock(append(raw, 0x00))
	require.True(t, errors.Is(err, ErrTrailingBytes))
}

func TestParseBlockRejectsTruncation(t *testing.T) {
	raw, _ := testhelpers.Block(t, chainhash.Hash{}, 1, testhelpers.Coinbase(1), testhelpers.Tx(4, nil))
	for _, cut := range []int{10, HeaderSize, len(raw) - 1} {
		_, err := ParseBlock(raw[:cut])
		require.True(t, errors.Is(err, ErrShortRead), "cut at %d: %v", cut, err)
	}
}

// Zero inputs followed by 0x02 walks as two outputs but the structured decoder reads the
// 0x02 as an invalid segwit flag.
func TestUndecodableTransactionKeepsBlock(t *testing.T) {
	odd := []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x02}
	for i := 0; i < 2; i++ {
		odd = append(odd, 0x22, 0x02, 0, 0, 0, 0, 0, 0, 0x00)
	}
	odd = append(odd, 0x00, 0x00, 0x00, 0x00)

	coinbase := testhelpers.Coinbase(2)
	var buf bytes.Buffer
	require.NoError(t, coinbase.Serialize(&buf))

	header := wire.NewBlockHeader(0x20000000, &chainhash.Hash{}, &chainhash.Hash{}, 0x1703a30c, 3)
	var raw bytes.Buffer
	require.NoError(t, header.Serialize(&raw))
	raw.WriteByte(0x03)
	raw.Write(buf.Bytes())
	raw.Write(odd)
	legacy := testhelpers.Tx(6, nil)
	require.NoError(t, legacy.Serialize(&raw))

	block, err := DecodeBlock(raw.Bytes())
	require.NoError(t, err)
	require.Len(t, block.Transactions, 3)

	require.True(t, errors.Is(block.Transactions[1].DecodeErr, ErrTransactionDecode))
	require.Empty(t, block.Transactions[1].Inputs)
	require.Equal(t, odd, block.Transactions[1].Raw)

	require.NoError(t, block.Transactions[2].DecodeErr)
	require.Equal(t, legacy.TxHash(), block.Transactions[2].Txid)
}
