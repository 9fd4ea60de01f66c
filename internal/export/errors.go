package export

import (
	"errors"

	"git.home.luguber.info/inful/pagepress/internal/document"
)

func asDiagnosticError(err error, target **document.DiagnosticError) bool {
	return errors.As(err, target)
}

// AsFailure returns the *Failure inside err, if any.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
