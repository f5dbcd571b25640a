package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DNSClass summarizes why a host does or does not resolve. It is used to
// annotate network-failure logs so an operator can tell a dead service
// from a dead name.
type DNSClass string

const (
	DNSResolves          DNSClass = "RESOLVES"
	DNSNXDomain          DNSClass = "NXDOMAIN"
	DNSNoARecord         DNSClass = "NO_A_RECORD"
	DNSServfailOrTimeout DNSClass = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName       DNSClass = "INVALID_NAME"
)

var dnsTimeout = 3 * time.Second

// ClassifyDNS resolves host with the OS resolver and buckets the result.
func ClassifyDNS(host string) DNSClass {
	host = strings.TrimSpace(host)
	if host == "" || strings.Contains(host, "://") {
		return DNSInvalidName
	}

	ctx, cancel := context.WithTimeout(context.Background(), dnsTimeout)
	defer cancel()
	r := &net.Resolver{}

	ips, err := r.LookupIP(ctx, "ip", host)
	if err == nil && len(ips) > 0 {
		return DNSResolves
	}

	class := DNSServfailOrTimeout
	if err != nil {
		var de *net.DNSError
		if errors.As(err, &de) && de.IsNotFound {
			class = DNSNXDomain
		}
	}

	// A name with NS records but no address records is parked, not gone.
	if ns, nerr := r.LookupNS(ctx, host); nerr == nil && len(ns) > 0 {
		return DNSNoARecord
	}
	return class
}

// HostFromURL pulls the hostname out of a URL string; if parsing fails
// the raw string is returned as-is.
func HostFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
