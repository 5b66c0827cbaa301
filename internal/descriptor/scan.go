package descriptor

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// XpubBodyLength is the number of base58 characters after the four letter prefix.
const XpubBodyLength = 107

var xpubPrefixes = []string{
	"xpub", "ypub", "zpub", "tpub", "upub", "vpub", "Upub", "Vpub", "Ypub", "Zpub",
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// splitEncrypted separates the stripped descriptor (up to and including the last ')') from
// the base64 run that directly follows it. Anything after that run is ignored, so a newline
// between the descriptor and the data leaves no data.
func splitEncrypted(text string) (string, string, error) {
	end := strings.LastIndexByte(text, ')')
	if end < 0 {
		return "", "", rejectf("no closing parenthesis")
	}

	rest := text[end+1:]
	n := 0
	for n < len(rest) && isBase64(rest[n]) {
		n++
	}
	if n == 0 {
		return "", "", rejectf("encrypted text holds no data after the descriptor")
	}
	return strings.TrimSpace(text[:end+1]), rest[:n], nil
}

// multisigBodies returns the argument list of every multi( or multi_a( group. A group runs
// to the first ')' after its opening parenthesis; a group without one ends the scan.
func multisigBodies(desc string) []string {
	var bodies []string
	for i := 0; i < len(desc); {
		j := strings.Index(desc[i:], "multi")
		if j < 0 {
			break
		}
		open := i + j + len("multi")
		switch {
		case strings.HasPrefix(desc[open:], "("):
			open++
		case strings.HasPrefix(desc[open:], "_a("):
			open += len("_a(")
		default:
			i = open
			continue
		}

		closing := strings.IndexByte(desc[open:], ')')
		if closing < 0 {
			break
		}
		bodies = append(bodies, desc[open:open+closing])
		i = open + closing + 1
	}
	return bodies
}

// parseGroup reads "<digits>,<rest>" and the key material in rest.
func parseGroup(body string) (MultisigGroup, error) {
	var group MultisigGroup

	digits := 0
	for digits < len(body) && isDigit(body[digits]) {
		digits++
	}
	if digits == 0 || digits >= len(body) || body[digits] != ',' || digits+1 == len(body) {
		return group, rejectf("invalid multisig group %q", body)
	}

	required, err := strconv.Atoi(body[:digits])
	if err != nil {
		return group, rejectf("required signatures %q out of range", body[:digits])
	}
	rest := body[digits+1:]

	group.RequiredSigs = required
	group.Xfps = scanXfps(rest)
	group.Xpubs = scanXpubs(rest)
	group.NumXpubs = len(strings.Split(rest, ","))
	group.NumXfps = strings.Count(rest, "[")

	for _, path := range scanBracketPaths(rest) {
		if ValidateBIP32Path(strings.ReplaceAll(path, "h", "'")) != nil {
			group.DerivationPaths = append(group.DerivationPaths, path)
		}
	}

	return group, nil
}

// scanXfps finds "[" + 8 lowercase hex characters + "/".
func scanXfps(s string) [][]byte {
	var xfps [][]byte
	for i := 0; i+10 <= len(s); {
		if s[i] != '[' || s[i+9] != '/' || !isLowerHex(s[i+1:i+9]) {
			i++
			continue
		}
		xfp, _ := hex.DecodeString(s[i+1 : i+9])
		xfps = append(xfps, xfp)
		i += 10
	}
	return xfps
}

// scanXpubs decodes every prefixed run of base58 characters of xpub length.
func scanXpubs(s string) [][]byte {
	var xpubs [][]byte
	for i := 0; i < len(s); {
		if !hasXpubPrefix(s[i:]) || len(s)-i < 4+XpubBodyLength ||
			!isBase58(s[i+4:i+4+XpubBodyLength]) {
			i++
			continue
		}

		encoded := s[i : i+4+XpubBodyLength]
		xpubs = append(xpubs, base58.Decode(encoded))
		i += len(encoded)
	}
	return xpubs
}

// scanBracketPaths returns the content of bracket groups made only of digits, '/', '\'' and 'h'.
func scanBracketPaths(s string) []string {
	var paths []string
	for i := 0; i < len(s); i++ {
		if s[i] != '[' {
			continue
		}
		j := i + 1
		for j < len(s) && isPathChar(s[j]) {
			j++
		}
		if j < len(s) && s[j] == ']' {
			paths = append(paths, s[i+1:j])
			i = j
		}
	}
	return paths
}

func hasXpubPrefix(s string) bool {
	for _, prefix := range xpubPrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func isBase58(s string) bool {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(base58Alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func isBase64(c byte) bool {
	return c == '+' || c == '/' || c == '=' || isDigit(c) ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isPathChar(c byte) bool {
	return isDigit(c) || c == '/' || c == '\'' || c == 'h'
}
