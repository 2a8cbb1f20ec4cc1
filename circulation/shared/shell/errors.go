package shell

import (
	"errors"

	"github.com/school-library/librarian/circulation/shared/core"
)

// IsDomainError reports whether err is (or wraps) a business rule violation from core.
func IsDomainError(err error) bool {
	var domainErr *core.Error

	return errors.As(err, &domainErr)
}
