package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/rocketcart/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const maxBodySize = 1 << 20

type Options struct {
	BaseURL string
	// Timeout bounds a single request, zero means no client-side limit.
	// Lookups shared between callers are bounded only by this timeout.
	Timeout time.Duration
	// BreakerFailures consecutive failures open the breaker for BreakerOpenFor.
	BreakerFailures uint32
	BreakerOpenFor  time.Duration
	Transport       http.RoundTripper
	Logger          *slog.Logger
}

// HTTPClient reads stock and product records from a json-server style API:
// GET /stock/{id} and GET /products/{id}.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	sfg     singleflight.Group // collapses identical in-flight lookups
	logger  *slog.Logger
}

func NewHTTPClient(opts Options) *HTTPClient {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	openFor := opts.BreakerOpenFor
	if openFor == 0 {
		openFor = 30 * time.Second
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   opts.Timeout,
		},
		logger: logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "catalog",
		Timeout: openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// neither a missing product nor a cancelled caller says anything
		// about catalog health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

func (c *HTTPClient) Stock(ctx context.Context, productID int64) (domain.StockRecord, error) {
	var stock domain.StockRecord
	if err := c.getJSON(ctx, fmt.Sprintf("/stock/%d", productID), &stock); err != nil {
		return domain.StockRecord{}, err
	}
	if stock.ID == 0 {
		stock.ID = productID
	}
	return stock, nil
}

func (c *HTTPClient) Product(ctx context.Context, productID int64) (domain.Product, error) {
	var product domain.Product
	if err := c.getJSON(ctx, fmt.Sprintf("/products/%d", productID), &product); err != nil {
		return domain.Product{}, err
	}
	if product.ID == 0 {
		product.ID = productID
	}
	return product, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	// a caller that is already gone says nothing about catalog health
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrFetchFailed, path, err)
	}

	// The shared lookup runs detached from whichever caller started it,
	// bounded by the client timeout; each caller waits on its own ctx.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.sfg.DoChan(path, func() (interface{}, error) {
		return c.breaker.Execute(func() ([]byte, error) {
			return c.fetch(fetchCtx, path)
		})
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return fmt.Errorf("%w: GET %s: %w", ErrFetchFailed, path, ctx.Err())
	}
	if err := res.Err; err != nil {
		if errors.Is(err, ErrFetchFailed) {
			return err
		}
		return fmt.Errorf("%w: GET %s: %w", ErrFetchFailed, path, err)
	}

	if err := json.Unmarshal(res.Val.([]byte), out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrFetchFailed, path, err)
	}
	return nil
}

func (c *HTTPClient) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrFetchFailed, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrFetchFailed, path, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: GET %s: %w", ErrFetchFailed, path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: GET %s: unexpected status %d", ErrFetchFailed, path, resp.StatusCode)
	}

	c.logger.DebugContext(ctx, "catalog lookup", "path", path, "status", resp.StatusCode)
	return body, nil
}
