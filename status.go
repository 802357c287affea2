package acsemail

// EmailStatus is the delivery state of a submitted message as reported
// by the status endpoint.
type EmailStatus string

const (
	StatusNotStarted EmailStatus = "NotStarted"
	StatusRunning    EmailStatus = "Running"
	StatusSucceeded  EmailStatus = "Succeeded"
	StatusFailed     EmailStatus = "Failed"
	StatusCanceled   EmailStatus = "Canceled"

	// StatusUnknown is returned for status strings this package does not
	// recognize, so that new service-side states never surface as errors.
	StatusUnknown EmailStatus = "Unknown"
)

// ParseEmailStatus maps a wire status string to an [EmailStatus].
// Unrecognized values map to [StatusUnknown].
func ParseEmailStatus(s string) EmailStatus {
	switch EmailStatus(s) {
	case StatusNotStarted, StatusRunning, StatusSucceeded, StatusFailed, StatusCanceled:
		return EmailStatus(s)
	default:
		return StatusUnknown
	}
}

// Terminal reports whether the status is final; polling past a terminal
// status will not observe further transitions.
func (s EmailStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled, StatusUnknown:
		return true
	default:
		return false
	}
}

func (s EmailStatus) String() string {
	return string(s)
}
