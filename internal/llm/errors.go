package llm

import "errors"

// Failure kinds returned by Client implementations and the Classifier.
// Callers branch on them with errors.Is.
var (
	// ErrTransport covers network failures, timeouts and non-auth HTTP errors.
	ErrTransport = errors.New("llm transport failure")
	// ErrAuth means the provider rejected or was never given a credential.
	ErrAuth = errors.New("llm authentication failure")
	// ErrMalformedResponse means the provider answered without a usable completion.
	ErrMalformedResponse = errors.New("llm malformed response")
)

func isKnownFailure(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrAuth) || errors.Is(err, ErrMalformedResponse)
}
