package phxkit

import "time"

// retrySchedule maps the connect-attempt count to the wait before the next
// try. No jitter; the final entry is a plateau, not a cutoff.
var retrySchedule = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
}

const retryPlateau = 10 * time.Second

// retryWait returns the wait after the given number of prior failed attempts
// for the current URL. Callers pass the pre-increment attempt count: the
// first failure uses slot 0.
func retryWait(attempts int) time.Duration {
	if attempts >= 0 && attempts < len(retrySchedule) {
		return retrySchedule[attempts]
	}
	return retryPlateau
}
