package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

type operation func(ctx context.Context) error

// gracefulShutdown waits for a termination signal and then runs every
// cleanup operation concurrently. The process exits if they take longer
// than timeout.
func gracefulShutdown(ctx context.Context, timeout time.Duration, ops map[string]operation) <-chan struct{} {
	wait := make(chan struct{})
	go func() {
		s := make(chan os.Signal, 1)
		signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		<-s

		logrus.Info("shutting down")

		timeoutFunc := time.AfterFunc(timeout, func() {
			logrus.Errorf("timeout %d ms has been elapsed, force exit", timeout.Milliseconds())
			os.Exit(0)
		})
		defer timeoutFunc.Stop()

		runOperations(ctx, ops)

		close(wait)
	}()

	return wait
}

func runOperations(ctx context.Context, ops map[string]operation) {
	var wg sync.WaitGroup
	for key, op := range ops {
		wg.Add(1)
		go func() {
			defer wg.Done()

			logrus.Infof("cleaning up: %s", key)
			if err := op(ctx); err != nil {
				logrus.Errorf("%s: clean up failed: %s", key, err.Error())
				return
			}

			logrus.Infof("%s was shutdown gracefully", key)
		}()
	}
	wg.Wait()
}
