package descriptor

import (
	"github.com/cockroachdb/errors"
)

// ErrDescriptorDecode is the single kind every rejection carries. Most inscription texts are
// not descriptors, so callers count it and move on.
var ErrDescriptorDecode = errors.New("descriptor decode error")

var (
	ErrTaprootUnsupported = mark(errors.New("taproot descriptors not supported yet"))
	ErrTooManyXfps        = mark(errors.Newf("more than %d xfps", MaxXfps))
	ErrExcessData         = mark(errors.New("encrypted text is excessively long"))
	ErrShortData          = mark(errors.New("encrypted text is too short"))
)

func mark(err error) error {
	return errors.Mark(err, ErrDescriptorDecode)
}

func rejectf(format string, args ...interface{}) error {
	return mark(errors.Newf(format, args...))
}
