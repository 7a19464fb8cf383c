// Package config provides configuration for the fault pipeline.
//
// Constants in this file centralize the fixed points of the NSP
// integration: port numbers, REST paths, and the pipeline's timing
// defaults.
package config

import "time"

// NSP endpoint locations. The gateway serves both the auth API and the
// notification API on the same TLS port.
const (
	NSPGatewayPort    = 8443
	KafkaListenerPort = 9193

	AuthTokenPath      = "/rest-gateway/rest/api/v1/auth/token"
	AuthRevocationPath = "/rest-gateway/rest/api/v1/auth/revocation"
	SubscriptionsPath  = "/nbi-notification/api/v1/notifications/subscriptions"
)

// Consumer group naming. The prefix is kept from the system this
// pipeline replaced so existing group offsets carry over.
const ConsumerGroupPrefix = "nsp-python-"

// Subscription lifecycle timing.
const (
	// SubscriptionRenewalInterval is how often the standing NSP-FAULT
	// subscription is renewed. NSP expires subscriptions after an hour,
	// so renewals run at half that.
	SubscriptionRenewalInterval = 30 * time.Minute
)

// HTTP client configuration.
const (
	// DefaultHTTPTimeout is the default timeout for NSP REST requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultRateLimitPerMinute caps NSP REST requests across the
	// session and subscription managers.
	DefaultRateLimitPerMinute = 60
)

// Store maintenance defaults.
const (
	// DefaultRetentionDays is how long cleared alarms stay in history.
	DefaultRetentionDays = 90

	// RetentionInterval is how often the retention worker runs.
	RetentionInterval = 24 * time.Hour
)

// Health surface defaults.
const (
	DefaultHealthAddr = ":8090"

	// HeartbeatInterval is how often the supervisor logs pipeline
	// counters.
	HeartbeatInterval = 60 * time.Second
)
