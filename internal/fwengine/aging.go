package fwengine

import (
	"time"

	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/log"
	"github.com/picn-go/picn/internal/table"
)

// RunAging starts the periodic aging/retransmission task (§4.4) on its own
// goroutine, modeled as a single self-rescheduling timer rather than a
// fresh goroutine per tick (spec §9 design notes, and the forwarder's
// own Timer.Schedule idiom in std/engine/basic/timer.go). stop, once
// closed, prevents the next tick from being scheduled; a tick already in
// flight still runs to completion.
func (e *Engine) RunAging(stop <-chan struct{}) {
	var tick func()
	tick = func() {
		select {
		case <-stop:
			return
		default:
		}

		e.ageOnce()

		select {
		case <-stop:
		case <-time.After(e.cfg.AgeingInterval):
			tick()
		}
	}
	go func() {
		// Exceptions during aging are caught and logged; the next tick is
		// always scheduled regardless of how this one ended.
		defer func() {
			if r := recover(); r != nil {
				log.Error(e, "Aging task panicked, rescheduling", "recover", r)
				select {
				case <-stop:
				case <-time.After(e.cfg.AgeingInterval):
					e.RunAging(stop)
				}
			}
		}()
		tick()
	}()
}

func (e *Engine) ageOnce() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.agePit()
	e.cs.AgeOut(e.cfg.CsTTL)
}

func (e *Engine) agePit() {
	now := time.Now()

	type scheduled struct {
		entry  *table.PitEntry
		remove bool
	}
	var work []scheduled

	for _, entry := range e.pit.All() {
		if entry.IsSession {
			continue // session entries are exempt from aging entirely (§4.4, §8 "Session immortality")
		}

		expired := now.Sub(entry.Timestamp) > e.cfg.PitTimeout
		if expired && entry.Retransmits > e.cfg.PitRetransmits {
			work = append(work, scheduled{entry: entry, remove: true})
			continue
		}
		entry.Retransmits++
		work = append(work, scheduled{entry: entry, remove: false})
	}

	for _, w := range work {
		if w.remove {
			e.removeTimedOutEntry(w.entry)
		} else {
			e.retransmit(w.entry)
		}
	}
}

func (e *Engine) retransmit(entry *table.PitEntry) {
	excl := make(map[defn.FaceID]bool, len(entry.InFaces))
	for _, f := range entry.InFaces {
		excl[f] = true
	}

	fe, ok := e.fib.Lookup(entry.Name, table.LookupOptions{
		ExcludeUpstream: excl,
		ExcludeTried:    entry.FibsTried,
	})
	if !ok {
		log.Debug(e, "No fresh FIB entry for retransmit", "name", entry.Name)
		return
	}

	ident := fe.Identity()
	entry.CurrentFib = &ident
	sent := 0
	for _, up := range fe.Upstreams {
		if entry.NackedFaces[up] {
			continue
		}
		e.sender.Send(up, entry.Interest)
		sent++
	}
	entry.OutstandingForwards = sent
	log.Debug(e, "Retransmitted Interest", "name", entry.Name, "upstreams", fe.Upstreams)
}

func (e *Engine) removeTimedOutEntry(entry *table.PitEntry) {
	e.pit.Remove(entry.Name)
	for i, f := range entry.InFaces {
		if !entry.Local[i] {
			continue
		}
		e.sender.Send(f, &defn.Nack{
			NameV:               entry.Name.Clone(),
			Reason:              defn.NackPitTimeout,
			OriginatingInterest: entry.Interest,
		})
	}
	log.Debug(e, "PIT entry timed out", "name", entry.Name)
}
