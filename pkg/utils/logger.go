package utils

import "go.uber.org/zap"

// NewLogger builds the process-wide zap logger. Debug mode gets the
// human-readable development config at debug level; otherwise JSON
// output at info level for the server and CLI alike.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
