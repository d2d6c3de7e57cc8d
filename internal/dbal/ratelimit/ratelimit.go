// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ratelimit enforces three independent sliding-window ceilings — one
per traffic class — keyed by client IP. Unlike yomira's original per-IP
token-bucket limiter (a single flat ceiling via golang.org/x/time/rate), DBAL
needs a ceiling that differs by which kind of route was hit, and a class's
usage must never borrow from or steal capacity out of another class's
budget, so each class keeps an entirely separate counter.
*/
package ratelimit

import (
	"sync"
	"time"

	"github.com/meridiandb/dbal/internal/platform/constants"
)

// Class names one of the three independent traffic classes.
type Class string

const (
	ClassAdmin    Class = "admin"
	ClassMutation Class = "mutation"
	ClassRead     Class = "read"
)

func ceilingFor(class Class) int {
	switch class {
	case ClassAdmin:
		return constants.RateLimitAdminCeiling
	case ClassMutation:
		return constants.RateLimitMutationCeiling
	default:
		return constants.RateLimitReadCeiling
	}
}

type window struct {
	hits     []time.Time
	lastSeen time.Time
}

// Limiter tracks one sliding window of request timestamps per (class,
// client IP) pair.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	stopCleanup chan struct{}
}

// New builds a [Limiter] and starts its background idle-window eviction.
func New() *Limiter {
	l := &Limiter{
		windows:     make(map[string]*window),
		stopCleanup: make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Stop halts the background eviction goroutine. Safe to call once.
func (l *Limiter) Stop() {
	close(l.stopCleanup)
}

func windowKey(class Class, clientIP string) string {
	return string(class) + "|" + clientIP
}

// Allow reports whether a request from clientIP in the given class fits
// under that class's ceiling for the current window, recording the hit if
// so. On denial it also returns the number of seconds the caller should wait
// before retrying.
func (l *Limiter) Allow(class Class, clientIP string) (allowed bool, retryAfterSeconds int) {
	now := time.Now()
	cutoff := now.Add(-constants.RateLimitWindow)
	ceiling := ceilingFor(class)

	l.mu.Lock()
	defer l.mu.Unlock()

	key := windowKey(class, clientIP)
	w, ok := l.windows[key]
	if !ok {
		w = &window{}
		l.windows[key] = w
	}
	w.lastSeen = now
	w.hits = pruneBefore(w.hits, cutoff)

	if len(w.hits) >= ceiling {
		retryAfter := w.hits[0].Add(constants.RateLimitWindow).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, int(retryAfter.Seconds()) + 1
	}

	w.hits = append(w.hits, now)
	return true, 0
}

func pruneBefore(hits []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(hits) && hits[idx].Before(cutoff) {
		idx++
	}
	return hits[idx:]
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(constants.RateLimitCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *Limiter) evictIdle() {
	cutoff := time.Now().Add(-constants.RateLimitClientTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if w.lastSeen.Before(cutoff) {
			delete(l.windows, key)
		}
	}
}
