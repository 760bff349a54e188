package http

import (
	"net/http"
	"net/http/pprof"
	"strconv"

	"github.com/dbcdk/laconicman/handlers"
	"github.com/dbcdk/laconicman/logging"
	"github.com/dbcdk/laconicman/util"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	log = logging.GetInstance()
)

func CreateAdminMux(config *util.Config) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/status", http.HandlerFunc(handlers.CreateStatusHandler(config)))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)

	return mux
}

func StartAdminServer(config *util.Config) {
	httpAddr := ":" + strconv.Itoa(config.MetricsPort)

	listener, err := CreateListener("tcp", httpAddr, config.ReuseMetricsPort)
	if err != nil {
		log.Fatal(err.Error())
	}
	defer listener.Close()

	adminServer := &http.Server{
		Handler: CreateAdminMux(config),
	}

	log.Info("Laconicman metrics started on port "+strconv.Itoa(config.MetricsPort),
		zap.String("event", "started"),
		zap.Int("port", config.MetricsPort),
	)

	log.Fatal(adminServer.Serve(listener).Error(),
		zap.String("event", "shutdown"),
		zap.Int("port", config.MetricsPort),
	)
}
