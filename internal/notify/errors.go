package notify

import "errors"

var (
	// ErrNoRecipients is returned when an email notifier has no recipients.
	ErrNoRecipients = errors.New("email notifier has no recipients")

	// ErrMissingEndpoint is returned when a webhook notifier has no URL.
	ErrMissingEndpoint = errors.New("notifier endpoint is empty")

	// ErrNoBrokers is returned when a Kafka notifier has no brokers.
	ErrNoBrokers = errors.New("kafka notifier has no brokers")
)
