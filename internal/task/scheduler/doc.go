// Package scheduler re-runs a single job on a cron or interval trigger.
//
// Triggers never overlap: a tick that fires while the previous run is still
// in flight is skipped, not queued.
package scheduler
