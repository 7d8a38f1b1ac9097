package esi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://esi.evetech.net/latest"

const userAgent = "EveGem/LP-Index"

// ErrNotFound is returned for 400/404 responses: the type is not tradable in
// the region, or the resource does not exist. Callers treat this as absence
// of data, not as a transient failure.
var ErrNotFound = errors.New("esi: not found")

// Client is a rate-limited ESI HTTP client with fixed-backoff retries.
type Client struct {
	BaseURL string
	http    *http.Client
	sem     chan struct{}
	retries int
	backoff time.Duration
}

// NewClient creates an ESI client. The semaphore bounds total concurrent
// requests across all callers; per-build history fan-out is bounded
// separately by the history source.
func NewClient() *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		sem:     make(chan struct{}, 10),
		retries: 4,
		backoff: 600 * time.Millisecond,
	}
}

// HealthCheck pings ESI to verify connectivity.
func (c *Client) HealthCheck() bool {
	req, err := newRequest(c.BaseURL + "/status/?datasource=tranquility")
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == 200
}

// GetJSON fetches a URL and decodes JSON into dst, retrying on 420/429/5xx
// with a fixed backoff scaled by attempt number. Returns ErrNotFound on
// 400/404 without retrying.
func (c *Client) GetJSON(url string, dst interface{}) error {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		req, err := newRequest(url)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(c.backoff * time.Duration(attempt))
			continue
		}

		switch {
		case resp.StatusCode == 400 || resp.StatusCode == 404:
			resp.Body.Close()
			return ErrNotFound
		case resp.StatusCode == 420 || resp.StatusCode == 429 || resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("ESI %d: %s", resp.StatusCode, url)
			time.Sleep(c.backoff * time.Duration(attempt))
			continue
		case resp.StatusCode != 200:
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("ESI %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(dst)
		resp.Body.Close()
		return err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("ESI fetch failed: %s", url)
	}
	return lastErr
}

// getPage fetches one page of a paginated endpoint and returns the X-Pages
// total alongside the decoded body.
func (c *Client) getPage(url string, page int, dst interface{}) (int, error) {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	pageURL := fmt.Sprintf("%s%spage=%d", url, sep, page)

	c.sem <- struct{}{}

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		req, err := newRequest(pageURL)
		if err != nil {
			<-c.sem
			return 0, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(c.backoff * time.Duration(attempt))
			continue
		}

		if resp.StatusCode == 400 || resp.StatusCode == 404 {
			resp.Body.Close()
			<-c.sem
			return 0, ErrNotFound
		}
		if resp.StatusCode == 420 || resp.StatusCode == 429 || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("ESI %d: %s", resp.StatusCode, pageURL)
			time.Sleep(c.backoff * time.Duration(attempt))
			continue
		}
		if resp.StatusCode != 200 {
			resp.Body.Close()
			<-c.sem
			return 0, fmt.Errorf("ESI %d: %s", resp.StatusCode, pageURL)
		}

		pages := 1
		if p := resp.Header.Get("X-Pages"); p != "" {
			if n, err := strconv.Atoi(p); err == nil && n > 0 {
				pages = n
			}
		}
		err = json.NewDecoder(resp.Body).Decode(dst)
		resp.Body.Close()
		<-c.sem
		return pages, err
	}
	<-c.sem
	return 0, lastErr
}

// newRequest creates a standard ESI GET request with common headers.
func newRequest(url string) (*http.Request, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
