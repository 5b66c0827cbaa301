package descriptor

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// HardenedOffset is the first hardened child index.
const HardenedOffset = 1 << 31

// ValidateBIP32Path accepts paths of the form m(/<index>['])*, with every index below 2^31.
func ValidateBIP32Path(path string) error {
	if path == "" {
		return errors.New("bip32 path cannot be blank")
	}
	if path[0] != 'm' {
		return errors.Newf("bip32 path %q must start with m", path)
	}

	rest := path[1:]
	if rest == "" {
		return nil
	}
	if rest[0] != '/' {
		return errors.Newf("bip32 path %q is invalid", path)
	}

	for _, element := range strings.Split(rest[1:], "/") {
		element = strings.TrimSuffix(element, "'")
		if element == "" || !allDigits(element) {
			return errors.Newf("bip32 path %q is invalid", path)
		}
		index, err := strconv.ParseUint(element, 10, 64)
		if err != nil || index >= HardenedOffset {
			return errors.Newf("bip32 index %s is too high", element)
		}
	}
	return nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
