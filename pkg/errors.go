package pkg

import "errors"

var errInvalidLength = errors.New("length must be positive")

func errKindMismatch(wantDir bool) error {
	if wantDir {
		return errors.New("is not a directory")
	}
	return errors.New("is a directory")
}
