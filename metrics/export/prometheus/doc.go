// Package prometheus renders engine metrics in the Prometheus text format.
//
// Counters are grouped into labelled families: authorization and login
// outcomes, session events, and swept rows split by inline cleanup versus
// the reaper. The authorize latency histogram is written only when latency
// histograms are enabled. No _sum series is written; snapshots keep bucket
// counts only.
package prometheus
