package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dbcdk/laconicman/logging"
	"github.com/dbcdk/laconicman/util"
	"go.uber.org/zap"
)

var (
	log = logging.GetInstance()
)

// NotifyContext returns a context cancelled by the first INT/TERM
// signal. The unit of work in flight finishes, nothing new starts. A
// second signal exits immediately.
func NotifyContext(parent context.Context, config *util.Config) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		config.State.ShutdownInProgress = true

		log.Info("Received signal, aborting current operation. Send again to exit now",
			zap.String("signal", sig.String()),
		)
		cancel()

		<-signals
		os.Exit(1)
	}()

	return ctx, cancel
}
