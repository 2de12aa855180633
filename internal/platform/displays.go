package platform

import (
	"context"
	"log/slog"
	"time"
)

// DisplaySettleDelay is how long to wait before re-querying a display list
// that under-reports the hardware count.
const DisplaySettleDelay = 500 * time.Millisecond

// ListWithFallback returns the public display list, retrying once after a
// settle cycle when it reports fewer displays than the hardware query. A
// persistent mismatch is accepted as-is.
func ListWithFallback(ctx context.Context, q DisplayQuery, logger *slog.Logger) ([]Display, error) {
	return listWithFallback(ctx, q, logger, DisplaySettleDelay)
}

func listWithFallback(ctx context.Context, q DisplayQuery, logger *slog.Logger, settle time.Duration) ([]Display, error) {
	if logger == nil {
		logger = slog.Default()
	}

	hw := q.HardwareDisplayCount()
	logger.Debug("hardware display count", "count", hw)

	first, err := q.Displays()
	if err != nil {
		return nil, err
	}
	logger.Debug("public display list", "count", len(first))

	if hw == 0 || len(first) >= hw {
		return first, nil
	}

	logger.Warn("display count mismatch, retrying after settle",
		"hardware", hw,
		"public", len(first),
		"delay", settle)

	timer := time.NewTimer(settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return first, nil
	case <-timer.C:
	}

	retry, err := q.Displays()
	if err != nil {
		logger.Warn("display retry failed, keeping first result", "error", err)
		return first, nil
	}
	logger.Debug("public display list retry", "count", len(retry))

	if len(retry) >= len(first) {
		return retry, nil
	}
	return first, nil
}
