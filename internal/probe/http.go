package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{Client: &http.Client{Timeout: timeout}}
}

// Check sends HEAD (GET when HEAD is not allowed). Any HTTP answer below
// 500 counts as reachable: API roots answer 400/404 without parameters.
func (c *HTTPChecker) Check(ctx context.Context, target string) CheckResult {
	res := CheckResult{Name: "HTTP", Target: target}
	start := time.Now()

	code, err := c.do(ctx, http.MethodHead, target)
	if err == nil && code == http.StatusMethodNotAllowed {
		code, err = c.do(ctx, http.MethodGet, target)
	}
	res.LatencyMS = float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		res.Message = "http_error: " + err.Error()
		return res
	}
	res.StatusCode = code
	res.Success = code < http.StatusInternalServerError
	res.Message = fmt.Sprintf("%d %s", code, http.StatusText(code))
	return res
}

func (c *HTTPChecker) do(ctx context.Context, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
