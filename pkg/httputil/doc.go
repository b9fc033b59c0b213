// Package httputil provides retry and status helpers for the processing
// backend client.
//
// # Retry
//
// [Backoff] retries an operation with exponential backoff. Only errors
// marked with [Retryable] (or wrapped in a [RetryableError]) trigger another
// attempt; anything else is returned immediately:
//
//	err := httputil.DefaultBackoff().Do(ctx, func(ctx context.Context) error {
//	    resp, err := client.Do(req.WithContext(ctx))
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckStatus(resp)
//	})
//
// [Retry] is the positional form used by callers that only tune the attempt
// count and the first delay.
//
// # Status
//
// [CheckStatus] turns a non-2xx response into a [*StatusError] carrying the
// status code and the first bytes of the body. Server errors, 408 and 429
// come back retryable.
package httputil
