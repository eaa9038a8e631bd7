package bootstrap

import (
	"context"
	"time"

	"github.com/krobus00/arbitrage-service/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultDetectionInterval = 30 * time.Second

func StartDetectionWorker(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core := newArbitrageCore(ctx, "detection-worker")

	interval := config.Env.Arbitrage.DetectionInterval
	if interval <= 0 {
		interval = defaultDetectionInterval
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		runDetectionLoop(ctx, interval, func(ctx context.Context) error {
			_, err := core.arbitrageService.DetectOpportunities(ctx)
			return err
		})
	}()
	logrus.WithField("interval", interval.String()).Info("detection worker started")

	ops := core.shutdownOperations(cancel)
	ops["detection loop"] = func(ctx context.Context) error {
		cancel()
		<-done
		return nil
	}

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, ops)

	<-wait
}

// runDetectionLoop runs a cycle immediately and then every interval until ctx
// is done. A cycle never overlaps the next one.
func runDetectionLoop(ctx context.Context, interval time.Duration, cycle func(ctx context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		started := time.Now()
		if err := cycle(ctx); err != nil && ctx.Err() == nil {
			logrus.Errorf("detection cycle failed: %v", err)
		} else {
			logrus.WithField("duration_ms", time.Since(started).Milliseconds()).Debug("detection cycle finished")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
