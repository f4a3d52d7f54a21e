package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/util"
)

const linkMaxRetries = 3

// linkSleepFunc waits between retries (injectable for tests)
var linkSleepFunc = func(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// LinkChecker probes cited URLs concurrently and reports their reachability
type LinkChecker struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
	authority  *AuthorityClassifier
	robots     *util.RobotsChecker // nil when robots.txt is ignored
}

// NewLinkChecker creates a link checker from configuration
func NewLinkChecker(cfg model.LinkCheckConfig, authConfig *model.AuthorityConfig, httpProxy, httpsProxy, noProxy string) *LinkChecker {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = model.DefaultConfig().LinkCheck.UserAgent
	}

	client := util.NewHTTPClient(cfg.Timeout, httpProxy, httpsProxy, noProxy)
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}

	checker := &LinkChecker{
		httpClient: client,
		maxWorkers: maxWorkers,
		userAgent:  userAgent,
		authority:  NewAuthorityClassifier(authConfig),
	}
	if cfg.RespectRobots {
		checker.robots = util.NewRobotsChecker(userAgent, client)
	}
	return checker
}

// Check probes every URL and returns statuses in input order
func (v *LinkChecker) Check(ctx context.Context, urls []string) []model.LinkStatus {
	results := make([]model.LinkStatus, len(urls))
	if len(urls) == 0 {
		return results
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, v.maxWorkers)

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.LinkStatus{
					URL:       rawURL,
					Authority: v.authority.Classify(rawURL),
					Error:     "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.checkWithRetry(ctx, rawURL)
		}(i, u)
	}

	wg.Wait()
	return results
}

func (v *LinkChecker) checkSingle(ctx context.Context, rawURL string) model.LinkStatus {
	result := model.LinkStatus{
		URL:       rawURL,
		Authority: v.authority.Classify(rawURL),
	}

	if v.robots != nil {
		allowed, err := v.robots.Allowed(ctx, rawURL)
		if err != nil {
			result.Error = err.Error()
			result.Dead = true
			return result
		}
		if !allowed {
			result.Disallowed = true
			return result
		}
	}

	resp, err := v.probe(ctx, http.MethodHead, rawURL)
	if err == nil && resp.StatusCode == http.StatusMethodNotAllowed {
		_ = resp.Body.Close()
		resp, err = v.probe(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		result.Error = err.Error()
		result.Dead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Accessible = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.Dead = true
	}

	if final := resp.Request.URL.String(); final != rawURL {
		result.RedirectURL = final
	}

	return result
}

func (v *LinkChecker) probe(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// checkWithRetry retries transient failures with exponential backoff
func (v *LinkChecker) checkWithRetry(ctx context.Context, rawURL string) model.LinkStatus {
	var result model.LinkStatus
	for attempt := 0; attempt < linkMaxRetries; attempt++ {
		result = v.checkSingle(ctx, rawURL)
		if !isRetryable(result) || ctx.Err() != nil {
			return result
		}
		if attempt < linkMaxRetries-1 {
			linkSleepFunc(ctx, time.Duration(1<<uint(attempt))*time.Second)
		}
	}
	return result
}

// isRetryable returns true for statuses that indicate transient failures
func isRetryable(result model.LinkStatus) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if result.Error == "" {
		return false
	}
	s := strings.ToLower(result.Error)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
