// Package rate throttles login attempts with Redis counters.
//
// # Window semantics
//
// Fixed-window counters: INCR plus EXPIRE on the first hit. Keys:
//   - <prefix>:login:u:<username>
//   - <prefix>:login:ip:<client ip>
//
// A username is blocked once its counter reaches MaxLoginAttempts and stays
// blocked until the window expires or a successful login resets it.
package rate
