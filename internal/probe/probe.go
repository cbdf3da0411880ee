// Package probe checks that the upstream services the monitor calls are
// reachable before the daemon is started.
package probe

import (
	"context"
	"net/url"
)

// CheckResult is the outcome of one check against one upstream.
type CheckResult struct {
	Name       string  `json:"name"`
	Target     string  `json:"target"`
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	StatusCode int     `json:"status_code,omitempty"`
	LatencyMS  float64 `json:"latency_ms,omitempty"`
}

// Checker performs a single check for a given target URL.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}

type MultiChecker struct {
	Checkers []Checker
}

func NewMultiChecker(checkers ...Checker) *MultiChecker {
	return &MultiChecker{Checkers: checkers}
}

// Run applies every checker to every target, in order.
func (m *MultiChecker) Run(ctx context.Context, targets ...string) []CheckResult {
	results := make([]CheckResult, 0, len(m.Checkers)*len(targets))
	for _, target := range targets {
		for _, c := range m.Checkers {
			results = append(results, c.Check(ctx, target))
		}
	}
	return results
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
