// Package logger provides the structured logger shared by the docstore packages.
//
// The package wraps Uber's zap behind a small interface so that clients such as
// v1/cosmos can log without importing zap directly:
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		ServiceName:   "orders-api",
//		EnableTracing: true,
//	})
//	defer log.Sync()
//
//	log.Info("bulk load finished", nil, map[string]interface{}{
//		"container": "orders",
//		"documents": 1200,
//	})
//
// # Context-aware logging
//
// The *WithContext variants add the OpenTelemetry trace_id and span_id of the
// active span when tracing is enabled, so log lines can be joined with traces:
//
//	log.WarnWithContext(ctx, "falling back to default index kind", nil, map[string]interface{}{
//		"requested": "hnsw",
//	})
//
// # FX
//
// FXModule provides *LoggerClient and the Logger interface and flushes buffered
// entries on application stop.
//
// # Configuration
//
//	ZAP_LOGGER_LEVEL=debug          # debug, info, warning, error
//	LOGGER_ENABLE_TRACING=true      # attach trace/span ids
//
// All methods are safe for concurrent use.
package logger
