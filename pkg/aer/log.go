package aer

import "go.uber.org/zap"

// LogInfo writes an INFO-level line tagged with the calling mod
// (spec.md §4.8).
func LogInfo(msg string) {
	if e, ok := guardEngine(); ok {
		e.Log.Info(msg)
		setLast(nil)
	}
}

// LogWarning writes a WARNING-level line.
func LogWarning(msg string) {
	if e, ok := guardEngine(); ok {
		e.Log.Warning(msg)
		setLast(nil)
	}
}

// LogError writes an ERROR-level line tagged with callerFunc.
func LogError(callerFunc, msg string) {
	if e, ok := guardEngine(); ok {
		e.Log.ErrorLine(callerFunc, msg)
		setLast(nil)
	}
}

// LogFatal writes a FATAL-level line and aborts the process, per
// spec.md §7's fatal-error handling.
func LogFatal(callerFunc, msg string, fields ...zap.Field) {
	if e, ok := guardEngine(); ok {
		e.Log.Fatal(callerFunc, msg, fields...)
	}
}
