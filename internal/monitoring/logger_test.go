package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})

	Logf("hello %s", "world")
	if got != "hello world" {
		t.Errorf("Logf produced %q, want %q", got, "hello world")
	}
}

func TestSetLoggerNilMutes(t *testing.T) {
	SetLogger(nil)
	// Must not panic.
	Logf("muted %d", 42)
}

func TestDebugfDisabledByDefault(t *testing.T) {
	defer SetLogger(nil)

	var calls int
	SetLogger(func(format string, v ...interface{}) {
		calls++
	})

	DisableDebug()
	Debugf("should not log")
	if calls != 0 {
		t.Errorf("Debugf logged while disabled (%d calls)", calls)
	}

	EnableDebug()
	Debugf("should log")
	if calls != 1 {
		t.Errorf("Debugf calls = %d, want 1", calls)
	}
	DisableDebug()
}
