package chat

import (
	"fmt"
	"time"

	"github.com/bloodplusfight/careline/pkg/admission"
)

// AdmissionRejectedError is returned when the admission controller refuses
// a request. It is the only error that produces no generated answer; callers
// surface the retry-after hint to the user.
type AdmissionRejectedError struct {
	// Reason is why the request was rejected (banned or rate limited).
	Reason admission.Reason

	// Tier names the check that rejected the request.
	Tier admission.Tier

	// RetryAfter hints when the caller may try again.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *AdmissionRejectedError) Error() string {
	return fmt.Sprintf("admission rejected (%s at %s tier), retry after %s",
		e.Reason, e.Tier, e.RetryAfter)
}
