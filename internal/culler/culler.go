// Package culler checks the URLs of bundles for dead links.
package culler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nikbrunner/bundles/internal/model"
)

// Status represents the health status of a URL.
type Status int

const (
	Healthy     Status = iota // 2xx or 3xx response
	Dead                      // 404 or 410 Gone
	Unreachable               // timeout, DNS failure, connection refused, etc.
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Dead:
		return "dead"
	default:
		return "unreachable"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result holds the check result for a single URL of a bundle.
type Result struct {
	Bundle     string `json:"bundle"`
	URL        string `json:"url"`
	Status     Status `json:"status"`
	StatusCode int    `json:"statusCode,omitempty"` // 0 if connection failed
	Error      string `json:"error,omitempty"`      // reason for unreachable URLs
}

// ProgressFunc is called after each URL is checked.
// completed is the number of URLs checked so far, total is the total count.
type ProgressFunc func(completed, total int)

// Options configures CheckBundles.
type Options struct {
	Concurrency int
	Timeout     time.Duration
	// ExcludeDomains lists domains where a 404 likely means "private" rather
	// than gone (e.g. private repositories).
	ExcludeDomains []string
	OnProgress     ProgressFunc
	// Client overrides the HTTP client, for tests.
	Client *http.Client
}

type job struct {
	bundle string
	url    string
}

// CheckBundles checks every URL of every bundle concurrently. Results come
// back in bundle order, then URL order. Cancelling ctx marks the remaining
// URLs unreachable.
func CheckBundles(ctx context.Context, bundles []model.Bundle, opts Options) []Result {
	var jobs []job
	for _, b := range bundles {
		for _, u := range b.URLs {
			jobs = append(jobs, job{bundle: b.Name, url: u})
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	excludeMap := make(map[string]bool)
	for _, domain := range opts.ExcludeDomains {
		excludeMap[strings.ToLower(domain)] = true
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Follow redirects but limit to 10
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]Result, len(jobs))
	queue := make(chan int, len(jobs))
	var wg sync.WaitGroup

	var progressMu sync.Mutex
	completed := 0

	for w := 0; w < min(concurrency, len(jobs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				results[idx] = checkURL(ctx, client, jobs[idx], excludeMap)

				if opts.OnProgress != nil {
					progressMu.Lock()
					completed++
					opts.OnProgress(completed, len(jobs))
					progressMu.Unlock()
				}
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)

	wg.Wait()
	return results
}

// checkURL checks a single URL and returns the result.
func checkURL(ctx context.Context, client *http.Client, j job, excludeMap map[string]bool) Result {
	result := Result{Bundle: j.bundle, URL: j.url}

	// Try HEAD first (faster, less bandwidth)
	resp, err := do(ctx, client, http.MethodHead, j.url)
	if err != nil || resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		if resp != nil {
			resp.Body.Close()
		}
		// Some servers don't support HEAD
		resp, err = do(ctx, client, http.MethodGet, j.url)
		if err != nil {
			result.Status = Unreachable
			result.Error = normalizeError(err.Error())
			return result
		}
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Status = Healthy
	case resp.StatusCode == 404 || resp.StatusCode == 410:
		if isExcludedDomain(j.url, excludeMap) {
			result.Status = Unreachable
			result.Error = "Possibly private (auth required)"
		} else {
			result.Status = Dead
		}
	default:
		// 500, 403, etc. may be temporary or need auth
		result.Status = Unreachable
		result.Error = http.StatusText(resp.StatusCode)
	}

	return result
}

func do(ctx context.Context, client *http.Client, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

// isExcludedDomain checks if the URL's host is an excluded domain or one of
// its subdomains.
func isExcludedDomain(rawURL string, excludeMap map[string]bool) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if excludeMap[host] {
		return true
	}
	for domain := range excludeMap {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// normalizeError simplifies verbose error messages into readable categories.
func normalizeError(errStr string) string {
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(lower, "no such host"):
		return "DNS failure"
	case strings.Contains(lower, "context canceled"):
		return "Cancelled"
	case strings.Contains(lower, "context deadline exceeded"),
		strings.Contains(lower, "timeout"):
		return "Timeout"
	case strings.Contains(lower, "connection refused"):
		return "Connection refused"
	case strings.Contains(lower, "certificate"):
		return "TLS/certificate error"
	case strings.Contains(lower, "network is unreachable"):
		return "Network unreachable"
	case strings.Contains(lower, "tls:"):
		return "TLS error"
	case strings.Contains(lower, "unsupported protocol scheme"):
		return "Not a web URL"
	default:
		return errStr
	}
}

// Summary counts results per status.
type Summary struct {
	Healthy     int
	Dead        int
	Unreachable int
}

// Summarize counts results per status.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case Healthy:
			s.Healthy++
		case Dead:
			s.Dead++
		default:
			s.Unreachable++
		}
	}
	return s
}

// Problems returns the results that are not healthy.
func Problems(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Status != Healthy {
			out = append(out, r)
		}
	}
	return out
}
