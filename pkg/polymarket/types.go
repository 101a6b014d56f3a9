package polymarket

import "fmt"

// DefaultBaseURL is the public data API host.
const DefaultBaseURL = "https://data-api.polymarket.com"

const tradesPath = "/trades"

// StatusError is returned when the data API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("polymarket error: status %d: %s", e.StatusCode, e.Body)
}
