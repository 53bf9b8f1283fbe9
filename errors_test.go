package duostore_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xraph/duostore"
)

func TestStoreError(t *testing.T) {
	driverErr := errors.New("dial tcp 10.0.0.1:3306: connection refused")
	err := duostore.NewStoreError(duostore.BackendRelational, "connect", duostore.ErrConnectionFailed, driverErr)

	if !errors.Is(err, duostore.ErrConnectionFailed) {
		t.Error("kind should be reachable")
	}
	if !errors.Is(err, driverErr) {
		t.Error("driver error should be reachable")
	}
	if got := err.Error(); got != "duostore/relational: connect: dial tcp 10.0.0.1:3306: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFallbackError(t *testing.T) {
	primary := errors.New("primary down")
	fallback := errors.New("fallback down")
	err := &duostore.FallbackError{Context: "products.list", Primary: primary, Fallback: fallback}

	for _, target := range []error{duostore.ErrBothBackendsFailed, primary, fallback} {
		if !errors.Is(err, target) {
			t.Errorf("errors.Is(%v) = false", target)
		}
	}
	msg := err.Error()
	for _, want := range []string{"products.list", "primary down", "fallback down"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestInitError(t *testing.T) {
	tests := []struct {
		name string
		err  *duostore.InitError
		want string
	}{
		{"empty", &duostore.InitError{}, "duostore: fatal initialization error"},
		{
			"document only",
			&duostore.InitError{Document: errors.New("no reachable servers")},
			"duostore: fatal initialization error: document: no reachable servers",
		},
		{
			"both",
			&duostore.InitError{Relational: errors.New("refused"), Document: errors.New("timeout")},
			"duostore: fatal initialization error: relational: refused; document: timeout",
		},
		{
			"probe",
			&duostore.InitError{Probe: errors.New("ping timed out")},
			"duostore: fatal initialization error: liveness probe: ping timed out",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, duostore.ErrFatalInit) {
				t.Error("ErrFatalInit should be reachable")
			}
		})
	}

	cause := errors.New("refused")
	var wrapped error = &duostore.InitError{Relational: cause}
	if !errors.Is(wrapped, cause) {
		t.Error("cause should be reachable")
	}
	var ie *duostore.InitError
	if !errors.As(wrapped, &ie) || ie.Relational != cause {
		t.Error("errors.As should recover the InitError")
	}
}

func TestModeFromFlag(t *testing.T) {
	if m := duostore.ModeFromFlag(true); m != duostore.ModeRelational || m.Backend() != duostore.BackendRelational {
		t.Errorf("true -> %q/%q", m, m.Backend())
	}
	if m := duostore.ModeFromFlag(false); m != duostore.ModeDocument || m.Backend() != duostore.BackendDocument {
		t.Errorf("false -> %q/%q", m, m.Backend())
	}
}

func TestNewErrorInfo(t *testing.T) {
	if duostore.NewErrorInfo(nil, time.Now()) != nil {
		t.Error("nil error should give nil info")
	}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	info := duostore.NewErrorInfo(errors.New("boom"), at)
	if info.Message != "boom" || !info.At.Equal(at) {
		t.Errorf("info = %+v", info)
	}
}
