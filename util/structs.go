package util

import (
	"time"

	"k8s.io/client-go/rest"
)

type Config struct {
	RegistryUrl         string
	RegistryTimeout     time.Duration
	MetricsPort         int
	ReuseMetricsPort    bool
	InstanceName        string
	Kubeconfig          *rest.Config
	Workers             int
	AssumeAbsent        bool
	ProtectionRulesFile string
	Counters            Counters
	State               State
}

type State struct {
	ShutdownInProgress bool
	ShutdownChan       chan bool
}

type Status struct {
	Name string `json:"name"`
	Up   bool   `json:"up"`
}

type Reload struct {
	Reason string
	Time   time.Time
}

func NewReload(reason string) Reload {
	return Reload{
		Reason: reason,
		Time:   time.Now(),
	}
}
