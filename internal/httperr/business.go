package httperr

import "errors"

// BusinessError carries a stable machine-readable code for a domain
// rule violation (invalid_state, time_conflict, stale_version, ...).
type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// BusinessCode extracts the code from a business error, or "" when the
// error is not one.
func BusinessCode(err error) string {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
