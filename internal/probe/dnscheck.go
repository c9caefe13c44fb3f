package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// DNSStatus is the outcome of classifying a host name.
type DNSStatus struct {
	Domain        string
	Class         string // one of the DNS* constants
	ResolverError string
}

const (
	DNSResolves         = "RESOLVES"
	DNSNXDomain         = "NXDOMAIN"
	DNSNoARecord        = "NO_A_RECORD"
	DNSServfailOrTimout = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName      = "INVALID_NAME"
)

var dnsTimeout = 3 * time.Second

// resolver is the subset of *net.Resolver the classifier needs.
type resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

// CheckDNS classifies domain with the OS resolver.
func CheckDNS(ctx context.Context, domain string) DNSStatus {
	return classifyDNS(ctx, &net.Resolver{}, domain)
}

// classifyDNS needs one lookup when the name resolves and at most two
// otherwise; the NS lookup separates a missing zone from a zone without
// address records.
func classifyDNS(ctx context.Context, r resolver, domain string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domain)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = DNSInvalidName
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	ips, err := r.LookupIP(ctx, "ip", s.Domain)
	if err == nil && len(ips) > 0 {
		s.Class = DNSResolves
		return s
	}
	if err != nil {
		s.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) && !de.IsNotFound && (de.IsTemporary || de.Timeout()) {
			s.Class = DNSServfailOrTimout
			return s
		}
	}

	if ns, nsErr := r.LookupNS(ctx, s.Domain); nsErr == nil && len(ns) > 0 {
		s.Class = DNSNoARecord
		return s
	}
	if err != nil && !isNotFound(err) {
		s.Class = DNSServfailOrTimout
		return s
	}
	s.Class = DNSNXDomain
	return s
}

func isNotFound(err error) bool {
	var de *net.DNSError
	return errors.As(err, &de) && de.IsNotFound
}
