package player

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/itchyny/gojq"
)

// defaultPollDelta is the ceiling on the delay between ticks, matching
// §4.4's "default 10s": a save callback can shorten it, never lengthen it.
const defaultPollDelta = 10 * time.Second

// Source is one (url, jqFilter, save) tuple the poller watches on behalf of
// the stream player. Multiple Sources sharing a URL are coalesced into a
// single GET per tick.
type Source struct {
	URL      string
	JQFilter string
	// Save is invoked with the jq-filtered, JSON-decoded value (nil if the
	// fetch failed, the filter produced no result, or decoding failed). It
	// returns the number of seconds before this source should be polled
	// again.
	Save func(value any) int
}

// Poller is the adaptive now-playing metadata poller (C7b): a single
// long-lived goroutine that sleeps until nextFetch, wakes early when its
// source list changes, and reschedules itself from the minimum delta its
// save callbacks return.
//
// Grounded on arung-agamani-denpa-radio/internal/playlist/scheduler.go for
// the "ticker vs next-deadline, wake early via a channel" idiom, generalized
// from a fixed interval to a deadline recomputed after every tick.
type Poller struct {
	mu        sync.Mutex
	sources   []Source
	nextFetch time.Time // zero value means "sleep indefinitely"
	wake      chan struct{}
	client    *resty.Client
}

func NewPoller() *Poller {
	client := resty.New().SetTimeout(30 * time.Second)
	return &Poller{
		wake:   make(chan struct{}, 1),
		client: client,
	}
}

// Start runs the poll loop until ctx is cancelled. Call once, in its own
// goroutine.
func (p *Poller) Start(ctx context.Context) {
	for {
		p.mu.Lock()
		next := p.nextFetch
		p.mu.Unlock()

		var timer <-chan time.Time
		if !next.IsZero() {
			d := time.Until(next)
			if d < 0 {
				d = 0
			}
			timer = time.After(d)
		}

		select {
		case <-ctx.Done():
			return
		case <-p.wake:
			continue
		case <-timer:
			p.tick()
		}
	}
}

// SetSources replaces the watched sources and wakes the loop immediately —
// called by StreamPlayer.play() to arm fresh now-playing/artwork sources.
func (p *Poller) SetSources(sources []Source) {
	p.mu.Lock()
	p.sources = sources
	p.nextFetch = time.Now()
	p.mu.Unlock()
	p.wakeNow()
}

// Suspend invokes every current save callback with nil ("show
// not-playing") and puts the loop to sleep indefinitely, per §4.4's state
// transition on pause/stop.
func (p *Poller) Suspend() {
	p.mu.Lock()
	sources := p.sources
	p.nextFetch = time.Time{}
	p.mu.Unlock()

	for _, s := range sources {
		if s.Save != nil {
			s.Save(nil)
		}
	}
}

func (p *Poller) wakeNow() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// tick fetches each distinct URL once, runs every source's jq filter over
// the decoded body, and reschedules nextFetch from the minimum of
// defaultPollDelta and every delta the save callbacks returned.
func (p *Poller) tick() {
	p.mu.Lock()
	sources := append([]Source(nil), p.sources...)
	p.mu.Unlock()

	if len(sources) == 0 {
		return
	}

	byURL := make(map[string][]Source)
	for _, s := range sources {
		byURL[s.URL] = append(byURL[s.URL], s)
	}

	minDelta := defaultPollDelta
	for url, srcs := range byURL {
		doc, err := p.fetchJSON(url)
		for _, s := range srcs {
			var value any
			if err == nil {
				if v, ok := evalJQ(s.JQFilter, doc); ok {
					value = v
				}
			}
			delta := time.Duration(s.Save(value)) * time.Second
			if delta < minDelta {
				minDelta = delta
			}
		}
	}

	p.mu.Lock()
	p.nextFetch = time.Now().Add(minDelta)
	p.mu.Unlock()
}

func (p *Poller) fetchJSON(url string) (any, error) {
	resp, err := p.client.R().Get(url)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// evalJQ runs filterExpr over input and returns its first result. A parse
// error, compile error, empty result stream, or an error value produced by
// the query itself are all treated as "no result" (ok=false) — §4.4 treats
// a filter that fails to decode the same as a null result.
func evalJQ(filterExpr string, input any) (any, bool) {
	query, err := gojq.Parse(filterExpr)
	if err != nil {
		return nil, false
	}
	iter := query.Run(input)
	v, ok := iter.Next()
	if !ok {
		return nil, false
	}
	if _, isErr := v.(error); isErr {
		return nil, false
	}
	return v, true
}
