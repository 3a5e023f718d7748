package dnscheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Blacklists are the DNSBL zones queried for every domain
var Blacklists = []string{
	"zen.spamhaus.org",
	"b.barracudacentral.org",
	"spam.dnsbl.sorbs.net",
}

const defaultLookupTimeout = 5 * time.Second

// Resolver is the subset of *net.Resolver used by the checker
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Health describes the DNS state of a sending domain
type Health struct {
	Domain        string    `json:"domain"`
	MXRecords     []string  `json:"mx_records"`
	BlacklistHits []string  `json:"blacklist_hits"`
	Warnings      []string  `json:"warnings"`
	CheckedAt     time.Time `json:"checked_at"`
}

// Checker looks up MX records and DNSBL listings
type Checker struct {
	resolver Resolver
	timeout  time.Duration
	logger   *zap.Logger
}

// NewChecker creates a checker. A nil resolver uses the Go resolver.
func NewChecker(resolver Resolver, timeout time.Duration, logger *zap.Logger) *Checker {
	if resolver == nil {
		resolver = &net.Resolver{PreferGo: true}
	}
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &Checker{resolver: resolver, timeout: timeout, logger: logger}
}

// Check returns the DNS health of domain. Lookup failures are logged and
// reported through warnings, never as an error.
func (c *Checker) Check(ctx context.Context, domain string) (*Health, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, errors.New("domain is required")
	}

	health := &Health{
		Domain:        domain,
		MXRecords:     c.lookupMX(ctx, domain),
		BlacklistHits: c.checkBlacklists(ctx, domain),
		Warnings:      []string{},
		CheckedAt:     time.Now().UTC(),
	}
	if len(health.MXRecords) == 0 {
		health.Warnings = append(health.Warnings, "No MX records found.")
	}
	if len(health.BlacklistHits) > 0 {
		health.Warnings = append(health.Warnings, "Domain appears on known blacklists.")
	}
	return health, nil
}

func (c *Checker) lookupMX(ctx context.Context, domain string) []string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	records, err := c.resolver.LookupMX(ctx, domain)
	if err != nil {
		c.logger.Debug("MX lookup failed", zap.String("domain", domain), zap.Error(err))
		return []string{}
	}

	seen := make(map[string]struct{}, len(records))
	hosts := make([]string, 0, len(records))
	for _, mx := range records {
		host := strings.TrimSuffix(mx.Host, ".")
		if host == "" {
			continue
		}
		if _, ok := seen[host]; ok {
			continue
		}
		seen[host] = struct{}{}
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

func (c *Checker) checkBlacklists(ctx context.Context, domain string) []string {
	hits := []string{}
	for _, zone := range Blacklists {
		query := fmt.Sprintf("%s.%s", domain, zone)

		lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
		_, err := c.resolver.LookupHost(lookupCtx, query)
		cancel()

		if err != nil {
			var dnsErr *net.DNSError
			if !errors.As(err, &dnsErr) || !dnsErr.IsNotFound {
				c.logger.Debug("Blacklist lookup failed",
					zap.String("domain", domain),
					zap.String("blacklist", zone),
					zap.Error(err))
			}
			continue
		}
		hits = append(hits, zone)
	}
	return hits
}
