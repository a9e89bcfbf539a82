package urlscan

import "errors"

var (
	// ErrEmptyURL is returned when the analyzer is asked to scan an empty URL.
	ErrEmptyURL = errors.New("url is empty")

	// ErrNoVerdict is returned by VirusTotal when neither the analysis nor the
	// URL object produced any votes before the deadline.
	ErrNoVerdict = errors.New("scanning service returned no verdict")
)
