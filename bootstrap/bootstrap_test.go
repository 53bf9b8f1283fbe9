package bootstrap_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/backoff"
	"github.com/xraph/duostore/bootstrap"
	"github.com/xraph/duostore/cache"
	"github.com/xraph/duostore/document"
	"github.com/xraph/duostore/selector"
)

type fakeDocument struct {
	connectErr error
	ready      atomic.Bool
}

func (f *fakeDocument) Connect(context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.ready.Store(true)
	return nil
}

func (f *fakeDocument) Ping(context.Context) error { return nil }

func (f *fakeDocument) Disconnect(context.Context) error {
	f.ready.Store(false)
	return nil
}

func (f *fakeDocument) Readiness() document.Readiness {
	if f.ready.Load() {
		return document.Connected
	}
	return document.Disconnected
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newSelector(t *testing.T, doc *fakeDocument) *selector.Selector {
	t.Helper()
	cfg := selector.Config{ConnectTimeout: 100 * time.Millisecond, RetryAttempts: 2}
	s, err := selector.New(cfg, nil, doc,
		selector.WithLogger(quiet),
		selector.WithStrategy(backoff.NewConstant(0)),
		selector.WithCache(cache.Disabled()),
	)
	if err != nil {
		t.Fatalf("selector.New: %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func TestVerify_RunsChecksConcurrently(t *testing.T) {
	var running, peak atomic.Int32
	slow := func(context.Context) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		running.Add(-1)
		return nil
	}

	checks := []bootstrap.Check{
		{Name: "a", Required: true, Run: slow},
		{Name: "b", Required: true, Run: slow},
		{Name: "c", Required: true, Run: slow},
	}
	report := bootstrap.Verify(context.Background(), checks, bootstrap.WithLogger(quiet))

	if !report.Passed {
		t.Errorf("report should pass: %+v", report)
	}
	if p := peak.Load(); p < 2 {
		t.Errorf("peak concurrency = %d, want checks to overlap", p)
	}
	for i, name := range []string{"a", "b", "c"} {
		if report.Results[i].Name != name {
			t.Errorf("result %d = %q, want %q", i, report.Results[i].Name, name)
		}
	}
}

func TestVerify_Outcomes(t *testing.T) {
	boom := errors.New("boom")
	checks := []bootstrap.Check{
		{Name: "required-fail", Required: true, Run: func(context.Context) error { return boom }},
		{Name: "optional-fail", Run: func(context.Context) error { return boom }},
		{Name: "skipped", Run: func(context.Context) error { return bootstrap.ErrSkipped }},
		{Name: "panics", Run: func(context.Context) error { panic("kaboom") }},
		{Name: "ok", Required: true, Run: func(context.Context) error { return nil }},
	}
	report := bootstrap.Verify(context.Background(), checks, bootstrap.WithLogger(quiet))

	if report.Passed {
		t.Error("a failed required check must fail the report")
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Name != "required-fail" {
		t.Errorf("failed = %+v, want only required-fail", failed)
	}
	if !errors.Is(report.Err(), boom) {
		t.Errorf("Err = %v, want boom", report.Err())
	}

	byName := map[string]bootstrap.Result{}
	for _, r := range report.Results {
		byName[r.Name] = r
	}
	if r := byName["skipped"]; !r.Passed || !r.Skipped {
		t.Errorf("skipped = %+v", r)
	}
	if r := byName["panics"]; r.Passed || !strings.Contains(r.Error, "kaboom") {
		t.Errorf("panics = %+v", r)
	}
	if r := byName["optional-fail"]; r.Passed || r.Required {
		t.Errorf("optional-fail = %+v", r)
	}

	var buf bytes.Buffer
	if err := report.Print(&buf); err != nil {
		t.Fatalf("Print: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"FAIL", "WARN", "SKIP", "PASS", "verification failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVerify_Timeout(t *testing.T) {
	checks := []bootstrap.Check{{
		Name:     "hangs",
		Required: true,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}}
	report := bootstrap.Verify(context.Background(), checks,
		bootstrap.WithLogger(quiet),
		bootstrap.WithTimeout(20*time.Millisecond),
	)
	if report.Passed {
		t.Error("hung check should fail")
	}
	if !errors.Is(report.Results[0].Err(), context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", report.Results[0].Err())
	}
}

func TestRun_InitializesSelector(t *testing.T) {
	s := newSelector(t, &fakeDocument{})

	report, err := bootstrap.Run(context.Background(), s, bootstrap.WithLogger(quiet))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Passed {
		t.Errorf("report = %+v", report)
	}
	if st := s.GetStatus(); st.State != duostore.StateDocumentActive {
		t.Errorf("state = %s, want DOCUMENT_ACTIVE", st.State)
	}
	for _, r := range report.Results {
		if r.Name == "cache" && !r.Skipped {
			t.Errorf("disabled cache should be skipped: %+v", r)
		}
	}
}

func TestRun_FatalInit(t *testing.T) {
	s := newSelector(t, &fakeDocument{connectErr: errors.New("document down")})

	report, err := bootstrap.Run(context.Background(), s, bootstrap.WithLogger(quiet))
	if report.Passed {
		t.Error("report should fail")
	}
	var initErr *duostore.InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("err = %v, want *InitError", err)
	}
	if !errors.Is(err, duostore.ErrFatalInit) {
		t.Errorf("err = %v, want ErrFatalInit", err)
	}
}
