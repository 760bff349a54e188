package main

import (
	"context"
	"os"
	"time"

	"github.com/dbcdk/laconicman/cleanup"
	adminhttp "github.com/dbcdk/laconicman/http"
	"github.com/dbcdk/laconicman/kubernetes"
	"github.com/dbcdk/laconicman/logging"
	"github.com/dbcdk/laconicman/reconcile"
	"github.com/dbcdk/laconicman/registry"
	"github.com/dbcdk/laconicman/resources"
	"github.com/dbcdk/laconicman/shell"
	"github.com/dbcdk/laconicman/signals"
	"github.com/dbcdk/laconicman/util"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app             = kingpin.New("laconicman", "Reconciles ingress routes against registry attestations").Version("1.0")
	registryUrl     = kingpin.Flag("registry", "Registry GraphQL endpoint").Default("https://laconicd.laconic.com/api").String()
	registryTimeout = kingpin.Flag("registry-timeout", "Timeout per registry query [s]").Default("10").Int()
	kubeConfig      = kingpin.Flag("kubeconfig", "Path to kubeconfig file with kubernetes connection details").ExistingFile()
	metricsPort     = kingpin.Flag("metrics-port", "Http port to serve Prometheus metrics on (0=disabled)").Default("0").Int()
	reusePort       = kingpin.Flag("reuse-port", "Enable SO_REUSEPORT for the metrics port").Default("false").Bool()
	instanceName    = kingpin.Flag("name", "Instance name. Used on the status page.").String()
	workers         = kingpin.Flag("workers", "Number of parallel registry lookups during a check").Default("1").Int()
	assumeAbsent    = kingpin.Flag("assume-absent", "Treat failed registry lookups as confirmed absence instead of indeterminate").Default("false").Bool()
	protectionRules = kingpin.Flag("protection-rules", "File with extra protection glob patterns, one per line").String()
	log             = logging.GetInstance()
)

func init() {
	kingpin.Parse()
}

func main() {
	defer log.Sync()

	name := *instanceName
	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			log.Warn("Could not resolve own hostname: " + err.Error())
		} else {
			name = hostname
		}
	}

	kubeconfig, err := kubernetes.GetKubeConfig(kubeConfig)
	if err != nil {
		log.Error("Cannot start without a valid kubeconfig: " + err.Error())
		os.Exit(1)
	}

	config := util.Config{
		RegistryUrl:         *registryUrl,
		RegistryTimeout:     time.Second * time.Duration(*registryTimeout),
		MetricsPort:         *metricsPort,
		ReuseMetricsPort:    *reusePort,
		InstanceName:        name,
		Kubeconfig:          kubeconfig,
		Workers:             *workers,
		AssumeAbsent:        *assumeAbsent,
		ProtectionRulesFile: *protectionRules,
		Counters:            util.CreateAndRegisterCounters(),
		State: util.State{
			ShutdownInProgress: false,
			ShutdownChan:       make(chan bool),
		},
	}

	ctx, cancel := signals.NotifyContext(context.Background(), &config)
	defer cancel()

	clients, err := kubernetes.GetKubeClient(config.Kubeconfig)
	if err != nil {
		log.Error("Cannot connect to the cluster: " + err.Error())
		os.Exit(1)
	}
	cluster := kubernetes.NewCluster(clients)

	registryClient := registry.New(config.RegistryUrl, config.RegistryTimeout)

	rules := cleanup.NewRules()
	if config.ProtectionRulesFile != "" {
		if err := rules.LoadExtraFile(config.ProtectionRulesFile); err != nil {
			log.Error("Cannot load protection rules: " + err.Error())
			os.Exit(1)
		}
		if err := rules.WatchExtraFile(&config, config.ProtectionRulesFile); err != nil {
			log.Error("Cannot watch protection rules: " + err.Error())
			os.Exit(1)
		}
	}

	if config.MetricsPort > 0 {
		go adminhttp.StartAdminServer(&config)
	}

	reconciler := reconcile.New(&config, cluster, registryClient)
	resolver := resources.NewResolver(cluster, resources.PrefixMatcher{})
	deleter := cleanup.NewDeleter(&config, cluster, rules)

	shell.New(&config, cluster, reconciler, resolver, deleter, os.Stdin, os.Stdout).Run(ctx)
}
