// Package logging configures the process-wide slog logger: JSON records to a
// size-rotated file under ~/.litsearch/logs, optionally mirrored to stderr.
package logging
