// Package testhelpers builds blocks, inscription witnesses and encrypted descriptors for tests.
package testhelpers

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

const maxPush = txscript.MaxScriptElementSize

// InscriptionScript builds a tapscript carrying one ord envelope per body.
func InscriptionScript(t testing.TB, contentType string, bodies ...[]byte) []byte {
	t.Helper()

	builder := txscript.NewScriptBuilder()
	builder.AddData(bytes.Repeat([]byte{0x02}, 32))
	builder.AddOp(txscript.OP_CHECKSIG)
	for _, body := range bodies {
		builder.AddOp(txscript.OP_FALSE)
		builder.AddOp(txscript.OP_IF)
		builder.AddData([]byte("ord"))
		builder.AddData([]byte{0x01})
		builder.AddData([]byte(contentType))
		builder.AddData(nil)
		for len(body) > 0 {
			n := min(len(body), maxPush)
			builder.AddData(body[:n])
			body = body[n:]
		}
		builder.AddOp(txscript.OP_ENDIF)
	}

	script, err := builder.Script()
	require.NoError(t, err)
	return script
}

// ScriptPathWitness wraps a tapscript into a script path spend witness.
func ScriptPathWitness(script []byte) wire.TxWitness {
	controlBlock := append([]byte{0xc0}, bytes.Repeat([]byte{0x03}, 32)...)
	return wire.TxWitness{bytes.Repeat([]byte{0x01}, 64), script, controlBlock}
}

// InscriptionWitness is ScriptPathWitness(InscriptionScript(...)).
func InscriptionWitness(t testing.TB, contentType string, bodies ...[]byte) wire.TxWitness {
	t.Helper()
	return ScriptPathWitness(InscriptionScript(t, contentType, bodies...))
}

// Tx builds a transaction with one input per witness. A nil witness gives a legacy input.
func Tx(seed byte, witnesses ...wire.TxWitness) *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	for i, witness := range witnesses {
		var prev chainhash.Hash
		prev[0] = seed
		prev[1] = byte(i)
		in := wire.NewTxIn(wire.NewOutPoint(&prev, uint32(i)), nil, witness)
		if witness == nil {
			in.SignatureScript = []byte{txscript.OP_TRUE}
		}
		tx.AddTxIn(in)
	}
	tx.AddTxOut(wire.NewTxOut(546, append([]byte{txscript.OP_1, 0x20}, bytes.Repeat([]byte{seed}, 32)...)))
	return tx
}

// Coinbase returns a non segwit coinbase for height.
func Coinbase(height int64) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	var heightBytes [8]byte
	binary.LittleEndian.PutUint64(heightBytes[:], uint64(height))
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex), append([]byte{0x04}, heightBytes[:4]...), nil))
	tx.AddTxOut(wire.NewTxOut(312_500_000, []byte{txscript.OP_TRUE}))
	return tx
}

// Block serialises a block on top of prev. The nonce keeps otherwise equal blocks apart.
func Block(t testing.TB, prev chainhash.Hash, nonce uint32, txs ...*wire.MsgTx) ([]byte, chainhash.Hash) {
	t.Helper()

	header := wire.NewBlockHeader(0x20000000, &prev, &chainhash.Hash{}, 0x1703a30c, nonce)
	header.Timestamp = time.Unix(1_730_000_000+int64(nonce), 0)
	block := wire.NewMsgBlock(header)
	for _, tx := range txs {
		require.NoError(t, block.AddTransaction(tx))
	}

	var buf bytes.Buffer
	require.NoError(t, block.Serialize(&buf))
	return buf.Bytes(), header.BlockHash()
}

// Xpub derives a deterministic mainnet xpub from seed.
func Xpub(t testing.TB, seed byte) string {
	t.Helper()
	master, err := hdkeychain.NewMaster(bytes.Repeat([]byte{seed}, 32), &chaincfg.MainNetParams)
	require.NoError(t, err)
	pub, err := master.Neuter()
	require.NoError(t, err)
	return pub.String()
}

// Key is one key expression of a multisig group.
type Key struct {
	Xfp  string
	Path string
	Xpub string
}

func (k Key) String() string {
	if k.Xfp == "" {
		return k.Xpub
	}
	return fmt.Sprintf("[%s/%s]%s", k.Xfp, k.Path, k.Xpub)
}

// Multisig renders a sortedmulti group.
func Multisig(required int, keys ...Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return fmt.Sprintf("sortedmulti(%d,%s)", required, strings.Join(parts, ","))
}

// Payload lays out the binary part for single group descriptors: shares, encrypted data and
// the given pair fingerprints.
func Payload(required, numXpubs, numXfps int, pairFingerprints ...[4]byte) []byte {
	share := 32
	if numXpubs > 1 && required > 1 {
		share = 33
	}

	var buf bytes.Buffer
	for i := 0; i < numXpubs; i++ {
		buf.Write(bytes.Repeat([]byte{byte(0xa0 + i)}, share))
	}
	buf.Write(bytes.Repeat([]byte{0xee}, 4*numXfps+74*numXpubs))
	for _, fp := range pairFingerprints {
		buf.Write(fp[:])
	}
	return buf.Bytes()
}

// EncryptedText joins descriptor and payload the way the inscription body stores them.
func EncryptedText(descriptor string, payload []byte) string {
	return descriptor + base64.StdEncoding.EncodeToString(payload)
}

// TwoOfTwo returns a valid encrypted 2-of-2 descriptor text with one pair fingerprint.
func TwoOfTwo(t testing.TB, pair [4]byte) string {
	t.Helper()
	desc := "wsh(" + Multisig(2,
		Key{Xfp: "aaaaaaaa", Path: "48'/0'/0'/2'", Xpub: Xpub(t, 1)},
		Key{Xfp: "bbbbbbbb", Path: "48'/0'/0'/2'", Xpub: Xpub(t, 2)},
	) + ")"
	return EncryptedText(desc, Payload(2, 2, 2, pair))
}
