package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/harvester/internal/database"
	"github.com/nao1215/harvester/internal/message"
	"github.com/nao1215/harvester/internal/model"
	"github.com/nao1215/harvester/internal/scanner"
)

// Store is the persistence the controller needs.
type Store = database.KV

// HistoryStore is implemented by stores that also keep scan history.
type HistoryStore = database.History

// Notifier delivers pushes to observers such as open UI sessions.
type Notifier interface {
	Notify(ctx context.Context, update message.UpdatePopup) error
}

// Runner runs one scan. *scanner.Scanner satisfies it.
type Runner interface {
	Run(ctx context.Context, pageURL string, rules []model.Rule) scanner.Result
}

// Recorder observes controller activity.
type Recorder interface {
	SetCollectionSize(n int)
	ObserveItemsAdded(n int)
	ObserveNavigation(qualified bool)
}

// Controller is the single authority over run state, rules and items.
type Controller struct {
	// mu serializes every request together with its persistence.
	mu sync.Mutex

	state model.RunState
	items *model.ItemSet

	store    Store
	history  HistoryStore
	notifier Notifier
	runner   Runner
	recorder Recorder
	logger   *slog.Logger

	// scans tracks in-flight scans for Wait.
	scans sync.WaitGroup

	// lastDelivery is the outcome of the most recent push.
	lastDelivery message.Delivery
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets the observer that receives updatePopup pushes.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithRunner sets the scanner used for qualifying navigations.
func WithRunner(r Runner) Option {
	return func(c *Controller) {
		c.runner = r
	}
}

// WithRecorder sets the metrics observer.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a stopped Controller with no rules and no items. Call Load
// to restore persisted state. When store also implements HistoryStore,
// every dispatched scan is recorded.
func New(store Store, opts ...Option) *Controller {
	c := &Controller{
		state: model.RunState{Rules: []model.Rule{}},
		items: model.NewItemSet(),
		store: store,
	}
	if h, ok := store.(HistoryStore); ok {
		c.history = h
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Load replaces the in-memory state with what the store holds. Missing
// keys yield a stopped controller, no items and no rules.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var enabled bool
	if err := c.getJSON(ctx, KeyEnabled, &enabled); err != nil {
		return err
	}
	var items []string
	if err := c.getJSON(ctx, KeyItems, &items); err != nil {
		return err
	}
	rules, err := c.loadRules(ctx)
	if err != nil {
		return err
	}

	c.state = model.RunState{Enabled: enabled, Rules: rules}
	c.items = model.NewItemSet(items...)
	c.observeSize()

	c.logger.Debug("controller state loaded",
		"status", c.state.Status(),
		"rules", len(rules),
		"collection_size", c.items.Len(),
	)
	return nil
}

// Handle processes one request. ItemsFound returns a nil response.
// Errors come from the store, or from a request type outside the protocol.
func (c *Controller) Handle(ctx context.Context, req message.Request) (*message.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch r := req.(type) {
	case message.Start:
		rules := model.CloneRules(r.Rules)
		if err := c.setManyJSON(ctx, map[string]any{KeyRules: rules, KeyEnabled: true}); err != nil {
			return nil, err
		}
		c.state = model.RunState{Enabled: true, Rules: rules}
		c.logger.Info("auto-scan started", "rules", len(rules))
		return &message.Response{Status: string(model.StatusRunning)}, nil

	case message.Stop:
		if err := c.setJSON(ctx, KeyEnabled, false); err != nil {
			return nil, err
		}
		c.state.Enabled = false
		c.logger.Info("auto-scan stopped")
		return &message.Response{Status: string(model.StatusStopped)}, nil

	case message.SaveRules:
		rules := model.CloneRules(r.Rules)
		if err := c.setJSON(ctx, KeyRules, rules); err != nil {
			return nil, err
		}
		c.state.Rules = rules
		c.logger.Info("rules saved", "rules", len(rules))
		return &message.Response{Status: message.StatusSaved}, nil

	case message.Clear:
		if err := c.setJSON(ctx, KeyItems, []string{}); err != nil {
			return nil, err
		}
		c.items.Clear()
		c.observeSize()
		c.logger.Info("collection cleared")
		return &message.Response{Status: message.StatusCleared}, nil

	case message.GetState:
		rules, err := c.loadRules(ctx)
		if err != nil {
			return nil, err
		}
		state := model.State{
			Status: c.state.Status(),
			Items:  c.items.Items(),
			Rules:  rules,
		}
		return &message.Response{Status: string(state.Status), State: &state}, nil

	case message.ItemsFound:
		return nil, c.mergeLocked(ctx, r.Items)

	default:
		return nil, fmt.Errorf("%w: %T", message.ErrUnknownRequest, req)
	}
}

// mergeLocked adds items to the collection. When it grew, the collection is
// persisted and observers are notified. Must be called with mu held.
func (c *Controller) mergeLocked(ctx context.Context, items []string) error {
	next := model.NewItemSet(c.items.Items()...)
	added := next.Merge(items)
	if added == 0 {
		return nil
	}

	all := next.Items()
	if err := c.setJSON(ctx, KeyItems, all); err != nil {
		return err
	}
	c.items = next

	c.observeSize()
	if c.recorder != nil {
		c.recorder.ObserveItemsAdded(added)
	}
	c.logger.Info("items collected",
		"added", added,
		"collection_size", len(all),
	)

	c.lastDelivery = c.notify(ctx, message.NewUpdatePopup(all))
	return nil
}

// notify pushes update to the notifier. The delivery outcome is returned
// for inspection only; a failure has no effect on controller state.
func (c *Controller) notify(ctx context.Context, update message.UpdatePopup) message.Delivery {
	if c.notifier == nil {
		return message.Delivery{}
	}
	d := message.Delivery{Err: c.notifier.Notify(ctx, update)}
	if !d.OK() {
		c.logger.Debug("update not delivered", "error", d.Err)
	}
	return d
}

// Navigate applies the page qualification policy to a page-load event and,
// when it qualifies, starts a scan on its own goroutine. It reports whether
// a scan was started. Scans are not tied to ctx and run to completion.
func (c *Controller) Navigate(ctx context.Context, nav message.Navigation) bool {
	rules, ok := c.qualify(ctx, nav)
	if c.recorder != nil {
		c.recorder.ObserveNavigation(ok)
	}
	if !ok {
		return false
	}

	c.dispatch(context.WithoutCancel(ctx), nav.URL, rules)
	return true
}

// ScanNow runs a scan of pageURL with rules on the calling goroutine,
// regardless of the run state. It is used by operator-driven scans; found
// items are merged like any other report.
func (c *Controller) ScanNow(ctx context.Context, pageURL string, rules []model.Rule) scanner.Result {
	if c.runner == nil {
		return scanner.Result{URL: pageURL, Phase: model.ScanDone, Outcome: scanner.OutcomeAbandoned, Abandoned: true}
	}
	return c.scan(ctx, pageURL, model.CloneRules(rules))
}

// qualify returns the rule snapshot for nav, or false when nav does not
// qualify for a scan.
func (c *Controller) qualify(ctx context.Context, nav message.Navigation) ([]model.Rule, bool) {
	if nav.FrameID != 0 {
		c.logger.Debug("ignoring sub-frame navigation", "url", nav.URL, "frame_id", nav.FrameID)
		return nil, false
	}
	if !isWebURL(nav.URL) {
		c.logger.Debug("ignoring non-web navigation", "url", nav.URL)
		return nil, false
	}
	if c.runner == nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Enabled {
		c.logger.Debug("ignoring navigation while stopped", "url", nav.URL)
		return nil, false
	}
	rules, err := c.loadRules(ctx)
	if err != nil {
		c.logger.Warn("failed to read rules for navigation", "url", nav.URL, "error", err)
		return nil, false
	}
	if len(rules) == 0 {
		c.logger.Debug("ignoring navigation without rules", "url", nav.URL)
		return nil, false
	}
	return rules, true
}

// dispatch starts a scan goroutine tracked by Wait.
func (c *Controller) dispatch(ctx context.Context, pageURL string, rules []model.Rule) {
	c.scans.Add(1)
	go func() {
		defer c.scans.Done()
		c.scan(ctx, pageURL, rules)
	}()
}

// scan runs one scan and records it in the history.
func (c *Controller) scan(ctx context.Context, pageURL string, rules []model.Rule) scanner.Result {
	result := c.runner.Run(ctx, pageURL, rules)

	if c.history != nil {
		sources := make([]string, 0, len(result.Blocks))
		for _, b := range result.Blocks {
			sources = append(sources, string(b.Source))
		}
		_, err := c.history.InsertScanRecord(ctx, &database.ScanRecord{
			URL:       pageURL,
			Timestamp: time.Now(),
			Outcome:   string(result.Outcome),
			Found:     len(result.Items),
			Sources:   sources,
			Elapsed:   result.Elapsed,
		})
		if err != nil {
			c.logger.Warn("failed to record scan", "url", pageURL, "error", err)
		}
	}
	return result
}

// Report implements scanner.Reporter by merging items into the collection.
func (c *Controller) Report(ctx context.Context, _ string, items []string) error {
	_, err := c.Handle(ctx, message.ItemsFound{Items: items})
	return err
}

// Wait blocks until every dispatched scan has finished.
func (c *Controller) Wait() {
	c.scans.Wait()
}

// Rules returns a copy of the current rule set.
func (c *Controller) Rules() []model.Rule {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.CloneRules(c.state.Rules)
}

// Running reports whether auto-scan is enabled.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Enabled
}

// Items returns the collected items, sorted.
func (c *Controller) Items() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Items()
}

// CollectionSize returns the number of collected items.
func (c *Controller) CollectionSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

// LastDelivery returns the outcome of the most recent push.
func (c *Controller) LastDelivery() message.Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDelivery
}

func (c *Controller) observeSize() {
	if c.recorder != nil {
		c.recorder.SetCollectionSize(c.items.Len())
	}
}

// loadRules reads the persisted rule list.
func (c *Controller) loadRules(ctx context.Context) ([]model.Rule, error) {
	rules := []model.Rule{}
	if err := c.getJSON(ctx, KeyRules, &rules); err != nil {
		return nil, err
	}
	if rules == nil {
		rules = []model.Rule{}
	}
	return rules, nil
}

// getJSON decodes the value under key into v. A missing key leaves v as is.
func (c *Controller) getJSON(ctx context.Context, key string, v any) error {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// setJSON encodes v and stores it under key.
func (c *Controller) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

// setManyJSON encodes and persists every entry in one store write.
func (c *Controller) setManyJSON(ctx context.Context, values map[string]any) error {
	encoded := make(map[string][]byte, len(values))
	for key, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		encoded[key] = data
	}
	if err := c.store.SetMany(ctx, encoded); err != nil {
		return fmt.Errorf("failed to persist run state: %w", err)
	}
	return nil
}

// isWebURL reports whether raw is an absolute http or https URL.
func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}
