// Package bootstrap runs the startup checks that gate serving traffic.
//
// Each external dependency is probed by a Check. Checks run concurrently
// and produce a Report; a failed required check fails the report. The
// selector check is the one that calls Selector.Initialize, so Run is
// also how a process brings its data layer up.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/cache"
	"github.com/xraph/duostore/selector"
)

// ErrSkipped marks a check that had nothing to probe.
var ErrSkipped = errors.New("bootstrap: skipped")

// Check probes one dependency.
type Check struct {
	Name string

	// Required checks fail the report. Optional ones are reported only.
	Required bool

	Run func(ctx context.Context) error
}

// Result is the outcome of one Check.
type Result struct {
	Name     string        `json:"name"`
	Required bool          `json:"required"`
	Passed   bool          `json:"passed"`
	Skipped  bool          `json:"skipped,omitempty"`
	Error    string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`

	err error
}

// Err returns the error the check failed with.
func (r Result) Err() error { return r.err }

// Report collects the results of a verification run in check order.
type Report struct {
	Passed  bool          `json:"passed"`
	Results []Result      `json:"results"`
	Elapsed time.Duration `json:"elapsed"`
}

// Failed returns the required checks that did not pass.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Required && !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// Err joins the errors of every failed required check, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", res.Name, res.err))
	}
	return errors.Join(errs...)
}

// Print writes a human-readable table of the report.
func (r Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tRESULT\tELAPSED\tDETAIL")
	for _, res := range r.Results {
		status := "PASS"
		switch {
		case res.Skipped:
			status = "SKIP"
		case !res.Passed && res.Required:
			status = "FAIL"
		case !res.Passed:
			status = "WARN"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.Name, status, res.Elapsed.Round(time.Millisecond), res.Error)
	}
	verdict := "passed"
	if !r.Passed {
		verdict = "failed"
	}
	fmt.Fprintf(tw, "\nverification %s in %s\n", verdict, r.Elapsed.Round(time.Millisecond))
	return tw.Flush()
}

// ──────────────────────────────────────────────────
// Options
// ──────────────────────────────────────────────────

type options struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures Verify and Run.
type Option func(*options)

// WithLogger sets the logger results are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTimeout bounds the whole verification run. Zero means no bound
// beyond the checks' own timeouts.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// ──────────────────────────────────────────────────
// Verify
// ──────────────────────────────────────────────────

// Verify runs every check concurrently. A failing check does not cancel
// the others.
func Verify(ctx context.Context, checks []Check, opts ...Option) Report {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	results := make([]Result, len(checks))

	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			results[i] = run(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Passed: true, Results: results, Elapsed: time.Since(start)}
	for _, res := range results {
		attrs := []any{
			slog.String("check", res.Name),
			slog.Bool("required", res.Required),
			slog.Duration("elapsed", res.Elapsed),
		}
		switch {
		case res.Passed:
			o.logger.Info("bootstrap check passed", attrs...)
		case res.Skipped:
			o.logger.Info("bootstrap check skipped", attrs...)
		default:
			attrs = append(attrs, slog.String("error", res.Error))
			if res.Required {
				report.Passed = false
				o.logger.Error("bootstrap check failed", attrs...)
			} else {
				o.logger.Warn("bootstrap check failed", attrs...)
			}
		}
	}
	return report
}

func run(ctx context.Context, c Check) (res Result) {
	res = Result{Name: c.Name, Required: c.Required}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("panic: %v", r)
			res.Error = res.err.Error()
		}
		res.Elapsed = time.Since(start)
	}()

	err := c.Run(ctx)
	switch {
	case err == nil:
		res.Passed = true
	case errors.Is(err, ErrSkipped):
		res.Passed = true
		res.Skipped = true
		res.Error = err.Error()
	default:
		res.err = err
		res.Error = err.Error()
	}
	return res
}

// ──────────────────────────────────────────────────
// Checks
// ──────────────────────────────────────────────────

// SelectorCheck initialises the selector and requires a healthy probe of
// the active store.
func SelectorCheck(s *selector.Selector) Check {
	return Check{
		Name:     "selector",
		Required: true,
		Run: func(ctx context.Context) error {
			if err := s.Initialize(ctx); err != nil {
				return err
			}
			report := s.HealthCheck(ctx)
			if !report.Healthy {
				return fmt.Errorf("%s store unhealthy: %s", report.Database, report.Error)
			}
			return nil
		},
	}
}

// CacheCheck pings the cache. A disabled cache is skipped; an unreachable
// one is a warning because nothing depends on it for correctness.
func CacheCheck(c *cache.Client) Check {
	return Check{
		Name: "cache",
		Run: func(ctx context.Context) error {
			if !c.Enabled() {
				return fmt.Errorf("cache disabled: %w", ErrSkipped)
			}
			return c.Ping(ctx)
		},
	}
}

// Run verifies the selector and its cache. The returned error is non-nil
// when a required check failed; a fatal selector initialisation keeps its
// *duostore.InitError reachable through errors.As.
func Run(ctx context.Context, s *selector.Selector, opts ...Option) (Report, error) {
	report := Verify(ctx, []Check{SelectorCheck(s), CacheCheck(s.Cache())}, opts...)
	if report.Passed {
		return report, nil
	}
	err := report.Err()
	if errors.Is(err, duostore.ErrFatalInit) {
		return report, err
	}
	return report, fmt.Errorf("bootstrap: %w", err)
}
