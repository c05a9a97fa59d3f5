package errx

// WrapNeo4j maps graph driver errors to the unified Error type. Any driver
// failure is a backend failure: the caller's session must stay in its
// last good state and the operation is retryable.
func WrapNeo4j(err error) *Error {
	if err == nil {
		return nil
	}
	return Wrap(KindBackend, GraphErrorMessage, err)
}
