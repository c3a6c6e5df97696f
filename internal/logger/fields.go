package logger

import (
	"time"

	"go.uber.org/zap"
)

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Latency(v time.Duration) zap.Field { return zap.Duration("latency", v) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

func AccountID(v int64) zap.Field { return zap.Int64("account_id", v) }

func Role(v string) zap.Field { return zap.String("role", v) }

func Kind(v string) zap.Field { return zap.String("kind", v) }

