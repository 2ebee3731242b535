// Package logging builds the slog loggers used across tunescribe and defines
// the standardized structured field names. Handlers come in two formats:
// a human console format for interactive use and JSON for daemon logs.
// Context-derived fields (job ID, stage, correlation ID) are attached via
// WithContext so stage code never threads identifiers by hand.
package logging
