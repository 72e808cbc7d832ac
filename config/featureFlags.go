package config

import "errors"

// StrictQuotationStatus rejects quotation status changes that skip the lifecycle.
// When off, any known status can be set directly.
//
// Set via env:
// - STRICT_QUOTATION_STATUS=true
func StrictQuotationStatus() bool {
	return boolFromEnv("STRICT_QUOTATION_STATUS")
}

// OutboxDispatcherEnabled controls whether the server publishes outbox events.
// Defaults to on when a Pub/Sub topic is configured.
//
// Set via env:
// - OUTBOX_DISPATCHER_ENABLED=false
func OutboxDispatcherEnabled() bool {
	if stringFromEnv("OUTBOX_DISPATCHER_ENABLED", "") == "" {
		return stringFromEnv("PUBSUB_TOPIC", "") != ""
	}
	return boolFromEnv("OUTBOX_DISPATCHER_ENABLED")
}

func SkipMigrations() bool {
	return boolFromEnv("SKIP_MIGRATIONS")
}

// OutboxDirectProcessing runs the consumer in-process against unprocessed outbox
// rows. Defaults to on when no Pub/Sub topic is configured.
//
// Set via env:
// - OUTBOX_DIRECT_PROCESSING=true
func OutboxDirectProcessing() bool {
	if stringFromEnv("OUTBOX_DIRECT_PROCESSING", "") == "" {
		return stringFromEnv("PUBSUB_TOPIC", "") == ""
	}
	return boolFromEnv("OUTBOX_DIRECT_PROCESSING")
}

// ErrOutboxModeConflict is returned when both outbox consumers are switched on.
// They claim rows through the same locked_at/locked_by columns.
var ErrOutboxModeConflict = errors.New("OUTBOX_DISPATCHER_ENABLED and OUTBOX_DIRECT_PROCESSING are mutually exclusive")

// CheckOutboxMode rejects enabling the Pub/Sub dispatcher and direct processing together.
func CheckOutboxMode() error {
	if OutboxDispatcherEnabled() && OutboxDirectProcessing() {
		return ErrOutboxModeConflict
	}
	return nil
}
