package test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/go-kit/log"
)

type testingLogger struct {
	t testing.TB
}

// NewTestingLogger returns a logger that forwards every record to t.Log.
func NewTestingLogger(t testing.TB) log.Logger {
	return &testingLogger{
		t: t,
	}
}

func (l *testingLogger) Log(keyvals ...interface{}) error {
	l.t.Helper()
	l.t.Log(keyvals...)
	return nil
}

// BufferLogger keeps logfmt output in memory so tests can assert on it.
type BufferLogger struct {
	log.Logger
	mtx sync.Mutex
	buf bytes.Buffer
}

func NewBufferLogger() *BufferLogger {
	l := &BufferLogger{}
	l.Logger = log.NewLogfmtLogger(log.NewSyncWriter(writerFunc(l.write)))
	return l
}

func (l *BufferLogger) write(p []byte) (int, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.buf.Write(p)
}

func (l *BufferLogger) String() string {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.buf.String()
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
