// Package triage is the business boundary for Carewatch's alert triage
// engine. It defines the Service (reading ingest, lifecycle state machine,
// ranking), the Store interface (persistence), the pure priority scorer,
// and the domain models.
package triage
