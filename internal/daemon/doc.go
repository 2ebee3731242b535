// Package daemon coordinates the long-running tunescribed process.
//
// It wires configuration, queue storage, and the pipeline worker pool into a
// single lifecycle with flock-based locking to prevent multiple instances, and
// recovers jobs a previous unclean shutdown left in the running state.
//
// Keep orchestration logic here: pipeline stages live in their respective
// packages while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
