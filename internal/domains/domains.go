package domains

import (
	"strings"

	"go.uber.org/zap"
)

// Extract returns the part of an email address after the last "@".
// An address without "@" is returned unchanged.
func Extract(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[i+1:]
	}
	return email
}

// Set holds sending domains excluded from warmup cycles
type Set struct {
	domains map[string]struct{}
	logger  *zap.Logger
}

// NewSet creates a set of paused domains
func NewSet(domains []string, logger *zap.Logger) *Set {
	normalized := make(map[string]struct{}, len(domains))
	names := make([]string, 0, len(domains))
	for _, domain := range domains {
		d := strings.ToLower(strings.TrimSpace(domain))
		if d == "" {
			continue
		}
		if _, dup := normalized[d]; !dup {
			names = append(names, d)
		}
		normalized[d] = struct{}{}
	}

	if len(names) > 0 && logger != nil {
		logger.Info("Initialized paused domains", zap.Strings("domains", names))
	}

	return &Set{
		domains: normalized,
		logger:  logger,
	}
}

// Contains reports whether the domain is paused. Comparison ignores case.
func (s *Set) Contains(domain string) bool {
	if s == nil || len(s.domains) == 0 {
		return false
	}
	_, ok := s.domains[strings.ToLower(domain)]
	return ok
}

// Len returns the number of paused domains
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.domains)
}
