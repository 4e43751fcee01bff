// Package httpclient is the HTTP client used to reach release endpoints.
// Failures are classified by status so callers can tell a flaky mirror
// (timeouts, 5xx, 429) from a permanent one (404, other 4xx).
//
//	client, _ := httpclient.New(httpclient.Config{
//	    Timeout: 30 * time.Second,
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{URL: endpoint})
package httpclient
