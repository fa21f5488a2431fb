package utils

import (
	"runtime/debug"

	"go.uber.org/zap"
)

func PanicRecovery(log *zap.Logger) {
	if r := recover(); r != nil {
		log.With(zap.String("stack", string(debug.Stack()))).Error("recovered panic", zap.Any("panic", r))
	}
}

// PanicRecoveryWith is PanicRecovery with a hook that runs after logging, for
// callers that still owe someone a response. It must be deferred directly.
func PanicRecoveryWith(log *zap.Logger, onPanic func(recovered any)) {
	if r := recover(); r != nil {
		log.With(zap.String("stack", string(debug.Stack()))).Error("recovered panic", zap.Any("panic", r))
		if onPanic != nil {
			onPanic(r)
		}
	}
}
