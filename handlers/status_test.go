package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dbcdk/laconicman/util"
)

func createConfig(name string, shutdownInProgress bool) *util.Config {
	return &util.Config{
		InstanceName: name,
		State:        util.State{ShutdownInProgress: shutdownInProgress},
	}
}

func TestCreateStatus(t *testing.T) {
	if !CreateStatus(createConfig("testing", false)).Up {
		t.Error("Expected status=up")
	}

	if CreateStatus(createConfig("testing", true)).Up {
		t.Error("Expected status=down")
	}
}

func TestStatusHandler(t *testing.T) {
	handler := CreateStatusHandler(createConfig("testing", false))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/status", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	handler = CreateStatusHandler(createConfig("testing", true))
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/status", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}
