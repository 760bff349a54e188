package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dbcdk/laconicman/util"
)

func CreateStatus(config *util.Config) util.Status {
	return util.Status{
		Name: config.InstanceName,
		Up:   !config.State.ShutdownInProgress,
	}
}

func CreateStatusHandler(config *util.Config) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		status := CreateStatus(config)
		b, _ := json.Marshal(status)
		if !status.Up {
			http.Error(w, string(b), http.StatusServiceUnavailable)
			return
		}
		w.Write(b)
	}
}
