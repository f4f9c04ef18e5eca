package log

// Diagnostics receives user facing status messages and errors from the
// networking layer. Platforms that want to surface them (a popup, a toast)
// provide their own implementation.
type Diagnostics interface {
	ShowMessage(msg string)
	ShowError(msg string, err error)
}

// LogDiagnostics writes diagnostics to the default logger.
type LogDiagnostics struct{}

func (LogDiagnostics) ShowMessage(msg string) {
	Info("%s", msg)
}

func (LogDiagnostics) ShowError(msg string, err error) {
	if err == nil {
		Error("%s", msg)
		return
	}
	Error("%s: %v", msg, err)
}

// OrDefault returns d, or LogDiagnostics when d is nil.
func OrDefault(d Diagnostics) Diagnostics {
	if d == nil {
		return LogDiagnostics{}
	}
	return d
}
