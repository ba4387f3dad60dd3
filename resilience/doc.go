// Package resilience retries idempotent provider reads with exponential
// backoff.
//
//	accounts, err := resilience.Retry(ctx, resilience.Policy{
//		MaxAttempts: 3,
//		RetryIf:     isTransient,
//	}, func(ctx context.Context) ([]string, error) {
//		return fetchAccounts(ctx)
//	})
//
// Interactive requests such as eth_requestAccounts must not be retried:
// each attempt would prompt the user again.
package resilience
