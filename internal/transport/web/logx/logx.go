// Package logx keeps handler log lines uniform: request id, operation,
// message and loose key/value pairs.
package logx

import (
	"fmt"

	"go.uber.org/zap"
)

func Info(l *zap.Logger, reqID, op, msg string, kv ...any) {
	l.Info(msg, fields(reqID, op, kv)...)
}

func Warn(l *zap.Logger, reqID, op, msg string, kv ...any) {
	l.Warn(msg, fields(reqID, op, kv)...)
}

func Error(l *zap.Logger, reqID, op, msg string, err error, kv ...any) {
	fs := fields(reqID, op, kv)
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	l.Error(msg, fs...)
}

func fields(reqID, op string, kv []any) []zap.Field {
	fs := make([]zap.Field, 0, 2+len(kv)/2)
	fs = append(fs, zap.String("req_id", reqID), zap.String("op", op))
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 >= len(kv) {
			fs = append(fs, zap.String(key, "(missing)"))
			break
		}
		fs = append(fs, zap.Any(key, kv[i+1]))
	}
	return fs
}
