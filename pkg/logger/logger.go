package logger

import "go.uber.org/zap"

// New builds the production logger. Callers own the instance and pass
// it down explicitly.
func New() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}
