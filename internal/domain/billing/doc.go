// Package billing holds the subscription side of the platform as seen by the
// linking flow: plans with per-resource limits and the tenant subscriptions
// that activate them. Payment collection and invoicing live in a separate
// system and are not modeled here.
package billing
