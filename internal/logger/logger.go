package logger

// Log levels accepted on the command line and in configuration.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// New builds a logger for the given textual level. Components receive the
// logger at construction; there is no package-level logger state.
func New(level string) *Logger {
	return newZapLogger(level)
}
