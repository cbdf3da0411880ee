package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

const (
	DNSResolves = "RESOLVES"
	DNSNotFound = "NXDOMAIN"
	DNSTimeout  = "SERVFAIL_or_TIMEOUT"
	DNSInvalid  = "INVALID_NAME"
)

type DNSChecker struct {
	Resolver *net.Resolver
	Timeout  time.Duration
}

func NewDNSChecker(timeout time.Duration) *DNSChecker {
	return &DNSChecker{Resolver: net.DefaultResolver, Timeout: timeout}
}

// Check resolves the host part of target.
func (d *DNSChecker) Check(ctx context.Context, target string) CheckResult {
	host := strings.TrimSpace(extractHost(target))
	res := CheckResult{Name: "DNS", Target: target}
	if host == "" || strings.Contains(host, "://") || strings.ContainsAny(host, " /") {
		res.Message = DNSInvalid
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	start := time.Now()
	ips, err := d.Resolver.LookupIP(ctx, "ip", host)
	res.LatencyMS = float64(time.Since(start).Microseconds()) / 1000

	switch {
	case err == nil && len(ips) > 0:
		res.Success = true
		res.Message = DNSResolves
	case err != nil:
		var de *net.DNSError
		if errors.As(err, &de) && de.IsNotFound {
			res.Message = DNSNotFound
		} else {
			res.Message = DNSTimeout
		}
	default:
		res.Message = DNSNotFound
	}
	return res
}
