// Package services provides shared infrastructure for pipeline stages and
// external tool clients: error classification sentinels, stage-tagged error
// wrapping, and context carriers for job/stage/request identifiers used by
// structured logging.
package services
