// Package syncer runs the export, parse, filter and push cycle, once or on
// a schedule.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"datestack/internal/api"
	"datestack/internal/icalbuddy"
	appLog "datestack/internal/log"
	"datestack/internal/metrics"
	"datestack/internal/model"
)

// Exporter produces the raw text of one export pass.
type Exporter interface {
	Export(ctx context.Context, allDay bool) (string, error)
}

// Pusher delivers events to the server.
type Pusher interface {
	SyncEvents(ctx context.Context, req api.SyncRequest) (api.SyncResponse, error)
}

// Result summarizes one completed sync.
type Result struct {
	EventsFound  int    `json:"events_found"`
	EventsSynced int    `json:"events_synced"`
	SourceName   string `json:"source_name"`
}

// Snapshot is the state of the most recent run, kept for the status server.
type Snapshot struct {
	At     time.Time     `json:"at"`
	Events []model.Event `json:"events"`
	Result *Result       `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type Options struct {
	SourceName      string
	ExcludeKeywords []string
	Parser          *icalbuddy.Parser
	Metrics         *metrics.Recorder
	Now             func() time.Time
}

// Service is safe for concurrent use.
type Service struct {
	exporter Exporter
	pusher   Pusher
	opts     Options

	mu   sync.RWMutex
	last *Snapshot
}

func NewService(exporter Exporter, pusher Pusher, opts Options) *Service {
	if opts.Parser == nil {
		opts.Parser = icalbuddy.NewParser()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{exporter: exporter, pusher: pusher, opts: opts}
}

// Collect runs the timed and all-day passes and returns the filtered events,
// timed ones first. Only a failure of the timed pass is an error.
func (s *Service) Collect(ctx context.Context) ([]model.Event, error) {
	timed, err := s.pass(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("exporting timed events: %w", err)
	}

	allDay, err := s.pass(ctx, true)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		appLog.Warn("all-day export failed, continuing with timed events", "error", err.Error())
		allDay = nil
	}

	events := append(timed, allDay...)
	filtered := icalbuddy.FilterByKeywords(events, s.opts.ExcludeKeywords)
	s.opts.Metrics.ObserveKeywordFiltered(len(events) - len(filtered))

	return filtered, nil
}

func (s *Service) pass(ctx context.Context, allDay bool) ([]model.Event, error) {
	started := s.opts.Now()
	out, err := s.exporter.Export(ctx, allDay)
	if err != nil {
		return nil, err
	}

	events, stats := s.opts.Parser.Parse(out, allDay)
	s.opts.Metrics.ObservePass(allDay, stats.Events, stats.DroppedShort, stats.DroppedNoStart, s.opts.Now().Sub(started))
	return events, nil
}

// Run collects events and pushes them to the server. force asks the server
// to replace this source's events wholesale.
func (s *Service) Run(ctx context.Context, force bool) (Result, error) {
	events, err := s.Collect(ctx)
	if err != nil {
		s.record(nil, nil, err)
		return Result{}, err
	}

	resp, err := s.pusher.SyncEvents(ctx, api.SyncRequest{
		SourceName: s.opts.SourceName,
		Events:     events,
		Force:      force,
	})
	if err != nil {
		err = fmt.Errorf("pushing events: %w", err)
		s.record(events, nil, err)
		return Result{}, err
	}

	res := Result{
		EventsFound:  len(events),
		EventsSynced: resp.EventsSynced,
		SourceName:   s.opts.SourceName,
	}
	s.record(events, &res, nil)

	appLog.Info("sync finished",
		"source", res.SourceName,
		"found", res.EventsFound,
		"synced", res.EventsSynced,
		"force", force,
	)
	return res, nil
}

func (s *Service) record(events []model.Event, res *Result, err error) {
	at := s.opts.Now()
	synced := 0
	if res != nil {
		synced = res.EventsSynced
	}
	s.opts.Metrics.ObserveSync(synced, err, at)

	snap := &Snapshot{At: at, Events: events, Result: res}
	if err != nil {
		snap.Error = err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A failed collect keeps the previous events visible.
	if events == nil && s.last != nil {
		snap.Events = s.last.Events
	}
	if snap.Events == nil {
		snap.Events = []model.Event{}
	}
	s.last = snap
}

// Last returns the most recent run, if any.
func (s *Service) Last() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Snapshot{}, false
	}
	return *s.last, true
}
