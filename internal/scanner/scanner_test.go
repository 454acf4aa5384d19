package scanner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/harvester/internal/crawler"
	"github.com/nao1215/harvester/internal/model"
	"github.com/nao1215/harvester/internal/rules"
)

// captureReporter records every report it receives.
type captureReporter struct {
	mu      sync.Mutex
	calls   [][]string
	failErr error
}

func (r *captureReporter) Report(_ context.Context, _ string, items []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, slices.Clone(items))
	return r.failErr
}

func (r *captureReporter) reports() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// outcomeRecorder records scan outcomes.
type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *outcomeRecorder) ObserveScan(outcome string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

// site serves the given routes and counts requests.
type site struct {
	*httptest.Server
	hits atomic.Int32
}

func newSite(t *testing.T, routes map[string]string) *site {
	t.Helper()

	s := &site{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		body, ok := routes[r.URL.Path]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if strings.HasSuffix(r.URL.Path, ".js") {
			w.Header().Set("Content-Type", "text/javascript")
		} else {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		_, _ = w.Write([]byte(body)) //nolint:errcheck // test server
	}))
	t.Cleanup(s.Close)
	return s
}

func newScanner(s *site, opts ...Option) *Scanner {
	fetcher := crawler.NewFetcher(s.Client())
	return New(fetcher, crawler.NewAggregator(fetcher), opts...)
}

func emailRule() []model.Rule {
	return []model.Rule{{Name: "email", Pattern: rules.EmailPattern, Enabled: true}}
}

const contactPage = `<html><head><script>var owner = "b@x.io";</script></head>
<body><p>Contact: a@x.io</p>
<script src="/app.js"></script>
<script src="/broken.js"></script>
</body></html>`

// TestRun tests the full scan flow.
func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("finds items across all block kinds and reports once", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/":       contactPage,
			"/app.js": `const team = ["a@x.io", "c@x.io"];`,
		})
		reporter := &captureReporter{}
		recorder := &outcomeRecorder{}

		result := newScanner(s, WithReporter(reporter), WithRecorder(recorder)).Run(context.Background(), s.URL+"/", emailRule())

		want := []string{"a@x.io", "b@x.io", "c@x.io"}
		if !slices.Equal(result.Items, want) {
			t.Errorf("Items = %v, want %v", result.Items, want)
		}
		if result.Phase != model.ScanDone {
			t.Errorf("Phase = %v, want done", result.Phase)
		}
		if result.Outcome != OutcomeReported || !result.Reported {
			t.Errorf("Outcome = %q, Reported = %v", result.Outcome, result.Reported)
		}
		reports := reporter.reports()
		if len(reports) != 1 || !slices.Equal(reports[0], want) {
			t.Errorf("reports = %v", reports)
		}
		if !slices.Equal(recorder.outcomes, []string{string(OutcomeReported)}) {
			t.Errorf("recorded outcomes = %v", recorder.outcomes)
		}
	})

	t.Run("empty rule set makes no request", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{"/": contactPage})
		reporter := &captureReporter{}

		for _, rs := range [][]model.Rule{
			nil,
			{{Name: "off", Pattern: rules.EmailPattern, Enabled: false}},
			{{Name: "bad", Pattern: "([", Enabled: true}},
			{{Name: "blank", Pattern: "  ", Enabled: true}},
		} {
			result := newScanner(s, WithReporter(reporter)).Run(context.Background(), s.URL+"/", rs)
			if result.Outcome != OutcomeNoRules || result.Phase != model.ScanDone {
				t.Errorf("rules %v: Outcome = %q, Phase = %v", rs, result.Outcome, result.Phase)
			}
		}

		if s.hits.Load() != 0 {
			t.Errorf("expected no requests, got %d", s.hits.Load())
		}
		if len(reporter.reports()) != 0 {
			t.Error("expected no reports")
		}
	})

	t.Run("unreachable page is abandoned silently", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{})
		reporter := &captureReporter{}

		result := newScanner(s, WithReporter(reporter)).Run(context.Background(), s.URL+"/", emailRule())

		if !result.Abandoned || result.Outcome != OutcomeAbandoned {
			t.Errorf("Abandoned = %v, Outcome = %q", result.Abandoned, result.Outcome)
		}
		if len(result.Items) != 0 || len(reporter.reports()) != 0 {
			t.Error("abandoned scan must not report")
		}
	})

	t.Run("nothing found means nothing reported", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{"/": "<html><body>no contact here</body></html>"})
		reporter := &captureReporter{}

		result := newScanner(s, WithReporter(reporter)).Run(context.Background(), s.URL+"/", emailRule())

		if result.Outcome != OutcomeNoItems {
			t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeNoItems)
		}
		if len(reporter.reports()) != 0 {
			t.Error("expected no reports")
		}
	})

	t.Run("report failure is discarded", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{"/": "<html><body>a@x.io</body></html>"})
		reporter := &captureReporter{failErr: errors.New("receiver gone")}

		result := newScanner(s, WithReporter(reporter)).Run(context.Background(), s.URL+"/", emailRule())

		if result.Phase != model.ScanDone || result.Reported {
			t.Errorf("Phase = %v, Reported = %v", result.Phase, result.Reported)
		}
		if len(reporter.reports()) != 1 {
			t.Errorf("expected one delivery attempt, got %d", len(reporter.reports()))
		}
	})
}

// TestRunPage tests scanning an already parsed page.
func TestRunPage(t *testing.T) {
	t.Parallel()

	page, err := crawler.NewPage("https://example.com/", strings.NewReader(
		`<html><body>Call 555-123-4567 or mail ops@example.com</body></html>`), "")
	if err != nil {
		t.Fatalf("NewPage() error: %v", err)
	}

	fetcher := crawler.NewFetcher(nil)
	result := New(fetcher, crawler.NewAggregator(fetcher)).RunPage(context.Background(), page, rules.Defaults())

	want := []string{"ops@example.com", "555-123-4567"}
	if !slices.Equal(result.Items, want) {
		t.Errorf("Items = %v, want %v", result.Items, want)
	}
}

// TestPipeline tests the step layout used for batch scans.
func TestPipeline(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{"/": contactPage, "/app.js": ""})
	p := newScanner(s).Pipeline()

	if got := p.StepNames(); !slices.Equal(got, []string{"compile", "aggregate", "extract", "report"}) {
		t.Errorf("StepNames() = %v", got)
	}

	scan := model.NewScan(s.URL+"/", emailRule())
	if err := p.Execute(context.Background(), scan); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if scan.Found.Len() != 2 {
		t.Errorf("expected 2 found items, got %v", scan.Found.Items())
	}
	if scan.Phase != model.ScanReporting {
		t.Errorf("Phase = %v, want reporting", scan.Phase)
	}
}

// TestOutcomeOf tests outcome derivation for pipeline scans.
func TestOutcomeOf(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{"/": contactPage, "/app.js": "", "/plain": "<p>nothing</p>"})

	tests := []struct {
		name  string
		url   string
		rules []model.Rule
		want  Outcome
	}{
		{name: "reported", url: s.URL + "/", rules: emailRule(), want: OutcomeReported},
		{name: "no items", url: s.URL + "/plain", rules: emailRule(), want: OutcomeNoItems},
		{name: "abandoned", url: s.URL + "/missing", rules: emailRule(), want: OutcomeAbandoned},
		{name: "no rules", url: s.URL + "/", rules: []model.Rule{{Name: "off", Pattern: "x", Enabled: false}}, want: OutcomeNoRules},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scan := model.NewScan(tt.url, tt.rules)
			if err := newScanner(s).Pipeline().Execute(context.Background(), scan); err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if got := OutcomeOf(scan); got != tt.want {
				t.Errorf("OutcomeOf() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("interrupted scan is abandoned", func(t *testing.T) {
		t.Parallel()

		scan := model.NewScan(s.URL+"/", emailRule())
		if got := OutcomeOf(scan); got != OutcomeAbandoned {
			t.Errorf("OutcomeOf() = %q, want %q", got, OutcomeAbandoned)
		}
	})
}
