package routing

import "errors"

var (
	// ErrRetrievalFailure indicates every concurrent retrieval strategy
	// failed. Distinct from a legitimate empty match.
	ErrRetrievalFailure = errors.New("all retrieval strategies failed")

	// ErrNoCandidateServer indicates retrieval succeeded but matched zero
	// servers.
	ErrNoCandidateServer = errors.New("no suitable server found")

	// ErrNoUsableTool indicates servers were ranked but none offered a
	// usable tool within the fallback cascade window.
	ErrNoUsableTool = errors.New("no usable tool found on ranked servers")
)

// IsNotFound reports whether the error belongs to the not-found class
// (mapped to a 404-class response by the inbound surface).
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoCandidateServer) || errors.Is(err, ErrNoUsableTool)
}
