package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	txAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstore_tx_attempts_total",
			Help: "Transaction attempts, including retries.",
		},
		[]string{"backend"},
	)
	txConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstore_tx_conflicts_total",
			Help: "Transaction attempts aborted by an optimistic conflict.",
		},
		[]string{"backend"},
	)
	txContention = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstore_tx_contention_total",
			Help: "Transactions that exhausted every attempt.",
		},
		[]string{"backend"},
	)
)

func init() {
	prometheus.MustRegister(txAttempts, txConflicts, txContention)
}

// runAttempts drives attempt until it succeeds, fails with a non-conflict
// error, or MaxAttempts conflicts have happened.
func runAttempts(ctx context.Context, backend string, opts Options, attempt func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.BaseBackoff
	b.MaxInterval = opts.MaxBackoff
	b.Reset()

	n := 0
	op := func() (struct{}, error) {
		n++
		txAttempts.WithLabelValues(backend).Inc()

		actx, cancel := context.WithTimeout(ctx, opts.OpTimeout)
		err := attempt(actx)
		cancel()

		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, ErrConflict):
			txConflicts.WithLabelValues(backend).Inc()
			log.Debug().Str("backend", backend).Int("attempt", n).Msg("docstore: transaction conflict, retrying")
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(opts.MaxAttempts)),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	if err != nil && errors.Is(err, ErrConflict) {
		txContention.WithLabelValues(backend).Inc()
		log.Warn().Str("backend", backend).Int("attempts", n).Msg("docstore: transaction gave up after repeated conflicts")
		return fmt.Errorf("%w after %d attempts", ErrContention, n)
	}
	return err
}
