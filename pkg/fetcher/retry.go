package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// attemptState is the retry loop state for one endpoint.
type attemptState int

const (
	// attemptSucceeded terminates the loop with a real body.
	attemptSucceeded attemptState = iota

	// attemptRetryable records the error and schedules another attempt
	// while the budget lasts.
	attemptRetryable
)

// attemptOutcome is the tagged result of a single GET attempt.
type attemptOutcome struct {
	state attemptState
	body  []byte
	err   error
}

// fetchWithRetry runs the per-endpoint retry loop. It never fails: after
// MaxRetries failed attempts, or when the batch deadline fires mid-loop,
// the endpoint is finalized with the sentinel payload.
func (f *Fetcher) fetchWithRetry(ctx context.Context, client *http.Client, endpoint string) []byte {
	var history []string

	for attempt := 1; attempt <= f.config.MaxRetries; attempt++ {
		outcome := f.attempt(ctx, client, endpoint)
		if outcome.state == attemptSucceeded {
			if attempt > 1 {
				f.logger.Info().
					Str("endpoint", endpoint).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return outcome.body
		}

		history = append(history, fmt.Sprintf("attempt %d: %v", attempt, outcome.err))

		// A deadline breach mid-retry is terminal for the whole batch,
		// logged as its own event rather than as exhausted retries.
		if ctx.Err() != nil {
			fetchBatchTimeoutsTotal.Inc()
			f.logger.Error().
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Strs("attempt_errors", history).
				Msg("Batch deadline exceeded")
			return Sentinel
		}

		errClass := classifyError(outcome.err)
		f.logger.Warn().
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Str("error_class", string(errClass)).
			Err(outcome.err).
			Msg("Request failed")

		// Fail fast after the last attempt, no trailing delay.
		if attempt == f.config.MaxRetries {
			break
		}

		fetchRetriesTotal.WithLabelValues(string(errClass)).Inc()

		delay := f.config.BackoffFactor * time.Duration(1<<(attempt-1))
		if !sleepContext(ctx, delay) {
			fetchBatchTimeoutsTotal.Inc()
			f.logger.Error().
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Strs("attempt_errors", history).
				Msg("Batch deadline exceeded")
			return Sentinel
		}
	}

	fetchRetryExhaustedTotal.Inc()
	f.logger.Error().
		Str("endpoint", endpoint).
		Int("max_retries", f.config.MaxRetries).
		Strs("attempt_errors", history).
		Msg("Retries exhausted")

	return Sentinel
}

// attempt performs one GET against the endpoint. Any transport error,
// non-2xx status, or body read failure yields a retryable outcome.
func (f *Fetcher) attempt(ctx context.Context, client *http.Client, endpoint string) attemptOutcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return attemptOutcome{state: attemptRetryable, err: fmt.Errorf("create request: %w", err)}
	}
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := client.Do(req)
	fetchRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		fetchRequestsTotal.WithLabelValues("network_error").Inc()
		return attemptOutcome{state: attemptRetryable, err: err}
	}
	defer resp.Body.Close()

	fetchRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return attemptOutcome{state: attemptRetryable, err: &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return attemptOutcome{state: attemptRetryable, err: fmt.Errorf("read body: %w", err)}
	}

	return attemptOutcome{state: attemptSucceeded, body: body}
}
