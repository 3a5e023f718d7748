package dnscheck

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeResolver struct {
	mx     map[string][]*net.MX
	mxErr  error
	listed map[string]bool
	hosts  []string
}

func (f *fakeResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	if f.mxErr != nil {
		return nil, f.mxErr
	}
	return f.mx[name], nil
}

func (f *fakeResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	f.hosts = append(f.hosts, host)
	if f.listed[host] {
		return []string{"127.0.0.2"}, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func TestCheckHealthyDomain(t *testing.T) {
	resolver := &fakeResolver{
		mx: map[string][]*net.MX{
			"example.com": {
				{Host: "mx2.example.com.", Pref: 20},
				{Host: "mx1.example.com.", Pref: 10},
				{Host: "mx1.example.com.", Pref: 30},
			},
		},
	}

	health, err := NewChecker(resolver, 0, zap.NewNop()).Check(context.Background(), "  Example.COM ")
	require.NoError(t, err)

	assert.Equal(t, "example.com", health.Domain)
	assert.Equal(t, []string{"mx1.example.com", "mx2.example.com"}, health.MXRecords)
	assert.Empty(t, health.BlacklistHits)
	assert.Empty(t, health.Warnings)
	assert.Equal(t, []string{
		"example.com.zen.spamhaus.org",
		"example.com.b.barracudacentral.org",
		"example.com.spam.dnsbl.sorbs.net",
	}, resolver.hosts)
}

func TestCheckListedDomainWithoutMX(t *testing.T) {
	resolver := &fakeResolver{
		mxErr:  errors.New("servfail"),
		listed: map[string]bool{"bad.example.zen.spamhaus.org": true},
	}

	health, err := NewChecker(resolver, 0, zap.NewNop()).Check(context.Background(), "bad.example")
	require.NoError(t, err)

	assert.Empty(t, health.MXRecords)
	assert.Equal(t, []string{"zen.spamhaus.org"}, health.BlacklistHits)
	assert.Equal(t, []string{"No MX records found.", "Domain appears on known blacklists."}, health.Warnings)
}

func TestCheckRequiresDomain(t *testing.T) {
	_, err := NewChecker(&fakeResolver{}, 0, zap.NewNop()).Check(context.Background(), "  ")
	assert.Error(t, err)
}
