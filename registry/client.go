package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/viki-org/dnscache"
)

// ErrRegistryUnavailable covers transport errors, non-2xx responses,
// malformed bodies and GraphQL-level errors. Callers must not read it
// as "no records": the registry was never successfully consulted.
var ErrRegistryUnavailable = errors.New("registry unavailable")

// Presence records which attestation kinds the registry returned for a
// host. Both fields are only meaningful when the lookup succeeded.
type Presence struct {
	HasDnsRecord        bool
	HasDeploymentRecord bool
}

// Client performs one registry round-trip per host lookup. It keeps no
// per-host state; caching, if any, is the reconciler's business.
type Client interface {
	Lookup(ctx context.Context, host string) (Presence, error)
}

type client struct {
	endpoint string
	http     *http.Client
}

func New(endpoint string, timeout time.Duration) Client {
	resolver := dnscache.New(time.Minute * 1)

	dialContextFn := func(ctx context.Context, network string, address string) (net.Conn, error) {
		separator := strings.LastIndex(address, ":")
		ip, err := resolver.FetchOneString(address[:separator])
		if err != nil {
			return nil, err
		}
		dialer := &net.Dialer{
			Timeout: 5 * time.Second,
		}

		return dialer.DialContext(ctx, network, ip+address[separator:])
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		DialContext:         dialContextFn,
	}

	return &client{
		endpoint: endpoint,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// NewWithHTTPClient skips the dnscache transport. Used by tests and by
// callers that already manage their own transport.
func NewWithHTTPClient(endpoint string, httpClient *http.Client) Client {
	return &client{endpoint: endpoint, http: httpClient}
}

func (c *client) Lookup(ctx context.Context, host string) (Presence, error) {
	body, err := json.Marshal(queryRequest{
		Query: recordQuery,
		Variables: queryVariables{
			DnsName: host,
			AppUrl:  "https://" + host,
		},
	})
	if err != nil {
		return Presence{}, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Presence{}, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Presence{}, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Presence{}, fmt.Errorf("%w: unexpected status %d", ErrRegistryUnavailable, resp.StatusCode)
	}

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return Presence{}, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	var parsed queryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Presence{}, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	if len(parsed.Errors) > 0 {
		return Presence{}, fmt.Errorf("%w: %s", ErrRegistryUnavailable, parsed.Errors[0].Message)
	}

	if parsed.Data == nil {
		return Presence{}, fmt.Errorf("%w: response carried no data", ErrRegistryUnavailable)
	}

	return Presence{
		HasDnsRecord:        len(parsed.Data.DnsRecords) > 0,
		HasDeploymentRecord: len(parsed.Data.AppDeploymentRecords) > 0,
	}, nil
}
