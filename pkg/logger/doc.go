// Package logger builds configured slog.Logger instances.
//
// Production defaults are JSON at info level for log aggregation; development
// switches to text at debug level. Attribute helpers keep log field names
// consistent across packages.
package logger
