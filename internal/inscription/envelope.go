package inscription

import (
	"bytes"
	"strconv"

	"github.com/btcsuite/btcd/txscript"
	"github.com/cockroachdb/errors"
)

// ProtocolID is the push that follows OP_FALSE OP_IF in an ord envelope.
const ProtocolID = "ord"

// TagContentType holds the mime type of the body.
var TagContentType = []byte{0x01}

// ErrWitnessDecode marks a tapscript that could not be tokenized. The input is skipped.
var ErrWitnessDecode = errors.New("witness decode error")

// Envelope is one inscription found in an input's tapscript.
type Envelope struct {
	// Index is the position among the envelopes of the same input.
	Index       int
	ContentType string
	Body        []byte
}

// InscriptionID formats the identifier of the i-th envelope of a transaction input.
func InscriptionID(txid string, i int) string {
	return txid + "i" + strconv.Itoa(i)
}

const (
	controlBlockBaseSize = 33
	controlBlockNodeSize = 32
	leafVersionMask      = 0xfe
)

// TapScript returns the leaf script of a taproot script path spend, honoring an annex. The
// item after the script must have the shape of a tapscript control block, so segwit v0 and
// key path spends are not mistaken for script path spends.
func TapScript(witness [][]byte) ([]byte, bool) {
	l := len(witness)
	if l < 2 {
		return nil, false
	}

	posFromLast := 2
	last := witness[l-1]
	if len(last) > 0 && last[0] == txscript.TaprootAnnexTag {
		posFromLast = 3
	}
	if l < posFromLast {
		return nil, false
	}
	if !isControlBlock(witness[l-posFromLast+1]) {
		return nil, false
	}
	return witness[l-posFromLast], true
}

func isControlBlock(cb []byte) bool {
	if len(cb) < controlBlockBaseSize || (len(cb)-controlBlockBaseSize)%controlBlockNodeSize != 0 {
		return false
	}
	return cb[0]&leafVersionMask == byte(txscript.BaseLeafVersion)
}

// ParseWitness extracts all ord envelopes from a witness stack. Witnesses that are not
// script path spends carry no envelopes and return nil without an error.
func ParseWitness(witness [][]byte) ([]Envelope, error) {
	script, ok := TapScript(witness)
	if !ok {
		return nil, nil
	}
	return ParseScript(script)
}

// ParseScript walks a tapscript and returns every complete envelope in it.
func ParseScript(script []byte) ([]Envelope, error) {
	var envelopes []Envelope

	tokenizer := txscript.MakeScriptTokenizer(0, script)
	prevFalse := false
	for tokenizer.Next() {
		op := tokenizer.Opcode()
		if prevFalse && op == txscript.OP_IF {
			if payload, ok := readEnvelope(&tokenizer); ok {
				envelopes = append(envelopes, fromPayload(len(envelopes), payload))
			}
			prevFalse = false
			continue
		}
		prevFalse = op == txscript.OP_FALSE
	}
	if err := tokenizer.Err(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "tokenize tapscript"), ErrWitnessDecode)
	}

	return envelopes, nil
}

// readEnvelope expects the tokenizer right after OP_IF. It consumes the envelope and reports
// whether it was an ord envelope terminated by OP_ENDIF.
func readEnvelope(tokenizer *txscript.ScriptTokenizer) ([][]byte, bool) {
	if !tokenizer.Next() || !isPushBytes(tokenizer.Opcode()) ||
		!bytes.Equal(tokenizer.Data(), []byte(ProtocolID)) {
		return nil, false
	}

	var payload [][]byte
	for tokenizer.Next() {
		op := tokenizer.Opcode()
		switch {
		case op == txscript.OP_ENDIF:
			return payload, true
		case op == txscript.OP_0:
			payload = append(payload, []byte{})
		case op == txscript.OP_1NEGATE:
			payload = append(payload, []byte{0x81})
		case op >= txscript.OP_1 && op <= txscript.OP_16:
			payload = append(payload, []byte{op - txscript.OP_1 + 1})
		case isPushBytes(op):
			payload = append(payload, tokenizer.Data())
		default:
			return nil, false
		}
	}
	return nil, false
}

func fromPayload(index int, payload [][]byte) Envelope {
	envelope := Envelope{Index: index}

	bodyIdx := -1
	for i := 0; i < len(payload); i += 2 {
		if len(payload[i]) == 0 {
			bodyIdx = i
			break
		}
	}

	headEnd := len(payload)
	if bodyIdx != -1 {
		headEnd = bodyIdx
		var body []byte
		for _, chunk := range payload[bodyIdx+1:] {
			body = append(body, chunk...)
		}
		envelope.Body = body
	}

	for i := 0; i+1 < headEnd; i += 2 {
		if bytes.Equal(payload[i], TagContentType) {
			envelope.ContentType = string(payload[i+1])
			break
		}
	}

	return envelope
}

func isPushBytes(opcode byte) bool {
	return (opcode >= txscript.OP_DATA_1 && opcode <= txscript.OP_DATA_75) ||
		opcode == txscript.OP_PUSHDATA1 || opcode == txscript.OP_PUSHDATA2 ||
		opcode == txscript.OP_PUSHDATA4
}
