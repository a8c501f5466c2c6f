// Package otel publishes engine metrics through an OpenTelemetry meter.
//
// Instruments are observable and read a fresh snapshot on every collection,
// so the authorize hot path never calls into the OTel SDK. Counter families
// carry their split (outcome, event or source) as an attribute; authorize
// latency is a bucket gauge keyed by an "le" attribute. Nothing is observed
// while engine metrics are disabled.
package otel
