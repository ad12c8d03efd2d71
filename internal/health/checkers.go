package health

import (
	"context"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/oneway/internal/credential"
)

// EndpointChecker reports whether an HTTP endpoint answers at all. Any
// response below 500 counts as reachable; the status is recorded as a
// detail since unauthenticated probes are expected to be rejected.
type EndpointChecker struct {
	name   string
	url    string
	client *http.Client
}

// NewEndpointChecker checks url under the name "<name>-endpoint". A nil
// client uses http.DefaultClient.
func NewEndpointChecker(name, url string, client *http.Client) *EndpointChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &EndpointChecker{name: name + "-endpoint", url: url, client: client}
}

func (e *EndpointChecker) Name() string { return e.name }

func (e *EndpointChecker) Check(ctx context.Context) *Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return Unhealthy("invalid endpoint URL").WithDetail("error", err.Error())
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return Unhealthy(fmt.Sprintf("%s is unreachable", e.url)).
			WithDetail("error", err.Error())
	}
	_ = resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Degraded(fmt.Sprintf("%s answered with status %d", e.url, resp.StatusCode)).
			WithDetail("status", resp.StatusCode)
	}
	return Healthy(fmt.Sprintf("%s is reachable", e.url)).
		WithDetail("status", resp.StatusCode)
}

// StoreChecker reports whether the credential store can be read. The token
// itself is never included in the result.
type StoreChecker struct {
	store credential.Store
}

func NewStoreChecker(store credential.Store) *StoreChecker {
	return &StoreChecker{store: store}
}

func (s *StoreChecker) Name() string { return "credential-store" }

func (s *StoreChecker) Check(ctx context.Context) *Result {
	_, ok, err := s.store.Get(ctx)
	if err != nil {
		return Unhealthy("credential store cannot be read").WithDetail("error", err.Error())
	}
	if !ok {
		return Healthy("credential store is readable; no session stored").WithDetail("session", false)
	}
	return Healthy("credential store is readable; session stored").WithDetail("session", true)
}
