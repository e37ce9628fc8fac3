package cosmos_test

import (
	"context"
	"sync"

	"github.com/Aleph-Alpha/docstore/v1/observability"
)

type logEntry struct {
	level  string
	msg    string
	err    error
	fields map[string]interface{}
}

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string, err error, fields []map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	merged := map[string]interface{}{}
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	l.entries = append(l.entries, logEntry{level: level, msg: msg, err: err, fields: merged})
}

func (l *recordingLogger) DebugWithContext(_ context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.record("debug", msg, err, fields)
}

func (l *recordingLogger) InfoWithContext(_ context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.record("info", msg, err, fields)
}

func (l *recordingLogger) WarnWithContext(_ context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.record("warn", msg, err, fields)
}

func (l *recordingLogger) ErrorWithContext(_ context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.record("error", msg, err, fields)
}

func (l *recordingLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

// recordingObserver captures observed operations.
type recordingObserver struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (o *recordingObserver) ObserveOperation(ctx observability.OperationContext) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, ctx)
}

func (o *recordingObserver) operations(name string) []observability.OperationContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []observability.OperationContext
	for _, op := range o.ops {
		if op.Operation == name {
			out = append(out, op)
		}
	}
	return out
}
