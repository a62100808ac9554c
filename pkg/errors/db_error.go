package custom_error

const (
	codeLockNotAvailable    = "55P03"
	codeQueryCanceled       = "57014"
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// WrapDBError classifies a storage failure by its PostgreSQL error code.
func WrapDBError(op, code string, err error) error {
	switch code {
	case codeLockNotAvailable:
		return &ConcurrencyTimeoutError{Op: op, Err: err}
	case codeUniqueViolation, codeForeignKeyViolation, codeCheckViolation:
		return &PersistenceError{Op: op + " (constraint violation)", Code: code, Err: err}
	case codeQueryCanceled:
		return &PersistenceError{Op: op + " (canceled)", Code: code, Err: err}
	default:
		return &PersistenceError{Op: op, Code: code, Err: err}
	}
}
