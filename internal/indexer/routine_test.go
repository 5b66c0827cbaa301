package indexer

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/setavenger/xfp-indexer/internal/descriptor"
	"github.com/setavenger/xfp-indexer/internal/inscription"
	"github.com/setavenger/xfp-indexer/internal/testhelpers"
	"github.com/setavenger/xfp-indexer/internal/types"
	"github.com/stretchr/testify/require"
)

var testOptions = ProcessOptions{MinBodyLength: 100, MaxParallelDecoders: 4}

// countDecodes swaps the descriptor decoder for one that counts its calls.
func countDecodes(t *testing.T) *atomic.Int64 {
	var calls atomic.Int64
	orig := decodeDescriptor
	decodeDescriptor = func(text string) (*descriptor.EncryptedDescriptor, error) {
		calls.Add(1)
		return orig(text)
	}
	t.Cleanup(func() { decodeDescriptor = orig })
	return &calls
}

func TestProcessBlockEndToEnd(t *testing.T) {
	body := testhelpers.TwoOfTwo(t, [4]byte{0x12, 0x34, 0x56, 0x78})
	tx := testhelpers.Tx(1, testhelpers.InscriptionWitness(t, "text/plain;charset=utf-8", []byte(body)))
	prev := chainhash.DoubleHashH([]byte("prev"))
	raw, hash := testhelpers.Block(t, prev, 1, testhelpers.Coinbase(1), tx)

	result, err := ProcessBlock(context.Background(), raw, testOptions)
	require.NoError(t, err)

	id := inscription.InscriptionID(tx.TxHash().String(), 0)
	require.Equal(t, hash, result.Hash)
	require.Equal(t, prev, result.PrevBlockHash)
	require.Equal(t, types.XfpPairs{"12345678": {id}}, result.Pairs)
	require.Equal(t, 2, result.Stats.Transactions)
	require.Equal(t, 1, result.Stats.Inscriptions)
	require.Equal(t, 1, result.Stats.Candidates)
	require.Equal(t, 1, result.Stats.Descriptors)
}

func TestProcessBlockSkipsShortAndForeignBodies(t *testing.T) {
	calls := countDecodes(t)

	descriptorText := testhelpers.TwoOfTwo(t, [4]byte{1, 1, 1, 1})
	short := testhelpers.Tx(1, testhelpers.InscriptionWitness(t, "text/plain", []byte("sortedmulti(2,x)AAAA")))
	image := testhelpers.Tx(2, testhelpers.InscriptionWitness(t, "image/png", []byte(descriptorText)))
	noise := testhelpers.Tx(3, testhelpers.InscriptionWitness(t, "text/plain", []byte(descriptorText[:150])))

	raw, _ := testhelpers.Block(t, chainhash.Hash{}, 2, testhelpers.Coinbase(2), short, image, noise)

	result, err := ProcessBlock(context.Background(), raw, testOptions)
	require.NoError(t, err)
	require.Empty(t, result.Pairs)

	require.Equal(t, 3, result.Stats.Inscriptions)
	require.Equal(t, 1, result.Stats.ShortBodies)
	require.Equal(t, 1, result.Stats.Candidates)
	require.Equal(t, 1, result.Stats.DescriptorErrors)

	// only the long text/plain body reaches the decoder
	require.EqualValues(t, 1, calls.Load())
}

func TestProcessBlockSegwitV0SpendsAreNotWitnessErrors(t *testing.T) {
	p2wpkh := wire.TxWitness{bytes.Repeat([]byte{0x01}, 71), bytes.Repeat([]byte{0x02}, 33)}
	p2wsh := wire.TxWitness{nil, bytes.Repeat([]byte{0x01}, 72), []byte{txscript.OP_1, txscript.OP_CHECKSIG}}
	body := testhelpers.TwoOfTwo(t, [4]byte{9, 9, 9, 9})
	inscribed := testhelpers.InscriptionWitness(t, "text/plain", []byte(body))
	tx := testhelpers.Tx(4, p2wpkh, p2wsh, inscribed)

	raw, _ := testhelpers.Block(t, chainhash.Hash{}, 3, testhelpers.Coinbase(3), tx)

	result, err := ProcessBlock(context.Background(), raw, testOptions)
	require.NoError(t, err)
	require.Zero(t, result.Stats.WitnessErrors)
	require.Equal(t, 1, result.Stats.Inscriptions)
	require.Equal(t, types.XfpPairs{
		"09090909": {inscription.InscriptionID(tx.TxHash().String(), 0)},
	}, result.Pairs)
}

func TestProcessBlockMinLengthIsConfigurable(t *testing.T) {
	calls := countDecodes(t)

	text := testhelpers.TwoOfTwo(t, [4]byte{2, 2, 2, 2})
	tx := testhelpers.Tx(1, testhelpers.InscriptionWitness(t, "text/plain", []byte(text)))
	raw, _ := testhelpers.Block(t, chainhash.Hash{}, 3, tx)

	opts := testOptions
	opts.MinBodyLength = len(text) + 1
	result, err := ProcessBlock(context.Background(), raw, opts)
	require.NoError(t, err)
	require.Empty(t, result.Pairs)
	require.EqualValues(t, 0, calls.Load())

	opts.MinBodyLength = len(text)
	result, err = ProcessBlock(context.Background(), raw, opts)
	require.NoError(t, err)
	require.Len(t, result.Pairs, 1)
	require.EqualValues(t, 1, calls.Load())
}

func TestProcessBlockMergesInBlockOrder(t *testing.T) {
	pair := [4]byte{0xab, 0xcd, 0xef, 0x01}
	text := []byte(testhelpers.TwoOfTwo(t, pair))

	var txs []*wire.MsgTx
	for i := 0; i < 12; i++ {
		txs = append(txs, testhelpers.Tx(byte(10+i), testhelpers.InscriptionWitness(t, "text/plain", text)))
	}
	// two envelopes in one input and the same inscription twice in one block
	double := testhelpers.Tx(99, testhelpers.InscriptionWitness(t, "text/plain", text, text))
	txs = append(txs, double, double)

	raw, _ := testhelpers.Block(t, chainhash.Hash{}, 4, txs...)

	result, err := ProcessBlock(context.Background(), raw, testOptions)
	require.NoError(t, err)

	var want []string
	for _, tx := range txs[:12] {
		want = append(want, inscription.InscriptionID(tx.TxHash().String(), 0))
	}
	doubleID := double.TxHash().String()
	want = append(want, inscription.InscriptionID(doubleID, 0), inscription.InscriptionID(doubleID, 1))

	require.Equal(t, want, result.Pairs["abcdef01"])
}

func TestProcessBlockRejectsMalformedBlock(t *testing.T) {
	raw, _ := testhelpers.Block(t, chainhash.Hash{}, 5, testhelpers.Coinbase(5))
	_, err := ProcessBlock(context.Background(), raw[:len(raw)-2], testOptions)
	require.Error(t, err)
}

func TestProcessBlockHonorsCancel(t *testing.T) {
	raw, _ := testhelpers.Block(t, chainhash.Hash{}, 6, testhelpers.Coinbase(6))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ProcessBlock(ctx, raw, testOptions)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReduceFingerprints(t *testing.T) {
	rec := &descriptor.EncryptedDescriptor{XfpPairFingerprints: []string{"00000001", "00000002"}}
	require.Equal(t, []FingerprintRef{
		{Fingerprint: "00000001", InscriptionID: "ti0"},
		{Fingerprint: "00000002", InscriptionID: "ti0"},
	}, ReduceFingerprints(rec, "ti0"))
	require.Nil(t, ReduceFingerprints(nil, "ti0"))
}
