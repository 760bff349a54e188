package reconcile

import (
	"context"
	"sync"

	"github.com/dbcdk/laconicman/kubernetes"
	"github.com/dbcdk/laconicman/logging"
	"github.com/dbcdk/laconicman/registry"
	"github.com/dbcdk/laconicman/util"
	"go.uber.org/zap"
)

var (
	log = logging.GetInstance()
)

// HostStatus is the outcome of one registry lookup for one host seen
// in the cluster. Indeterminate means the registry could not be
// consulted; Presence is then meaningless.
type HostStatus struct {
	IngressName   string
	Host          string
	Presence      registry.Presence
	Indeterminate bool
}

// Report is one completed reconciliation pass. It is an explicit value
// handed to later classification and cleanup calls; it is never
// refreshed behind the caller's back.
type Report struct {
	Statuses map[string]HostStatus
	Hosts    []string
}

// ByCategory returns the statuses of the given category in report
// order.
func (r *Report) ByCategory(c Category) []HostStatus {
	out := make([]HostStatus, 0)
	for _, host := range r.Hosts {
		if s := r.Statuses[host]; StatusCategory(s) == c {
			out = append(out, s)
		}
	}
	return out
}

// IngressNames returns the distinct ingress names behind the given
// statuses, preserving order of first appearance.
func IngressNames(statuses []HostStatus) []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if !seen[s.IngressName] {
			seen[s.IngressName] = true
			names = append(names, s.IngressName)
		}
	}
	return names
}

type Reconciler struct {
	config   *util.Config
	cluster  kubernetes.Cluster
	registry registry.Client

	// Progress, when set, is called after each host lookup with the
	// number of processed hosts and the total.
	Progress func(done int, total int)
}

func New(config *util.Config, cluster kubernetes.Cluster, registryClient registry.Client) *Reconciler {
	return &Reconciler{
		config:   config,
		cluster:  cluster,
		registry: registryClient,
	}
}

// Reconcile runs one full pass: every distinct host discovered in the
// cluster is looked up exactly once. When several ingresses declare
// the same host, the last one in discovery order wins. Cancellation is
// honored between hosts; a cancelled pass returns no report.
func (r *Reconciler) Reconcile(ctx context.Context) (*Report, error) {
	refs, err := r.cluster.ListIngresses(ctx)
	if err != nil {
		return nil, err
	}

	// Deduplicate up front so a host shared by several ingresses is
	// queried once, attributed to the last declaring ingress.
	owners := make(map[string]string)
	hosts := make([]string, 0)
	for _, pair := range kubernetes.Pairs(refs) {
		if _, ok := owners[pair.Host]; !ok {
			hosts = append(hosts, pair.Host)
		}
		owners[pair.Host] = pair.IngressName
	}

	report := &Report{
		Statuses: make(map[string]HostStatus, len(hosts)),
		Hosts:    hosts,
	}

	workers := r.config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(hosts) {
		workers = len(hosts)
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		done int
	)

	jobs := make(chan string)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for host := range jobs {
				status := r.lookupHost(ctx, host, owners[host])

				mu.Lock()
				report.Statuses[host] = status
				done++
				if r.Progress != nil {
					r.Progress(done, len(hosts))
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, host := range hosts {
		select {
		case jobs <- host:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		// Partial results are discarded, never merged into a later pass.
		log.Info("Reconciliation pass aborted",
			zap.Int("processed", done),
			zap.Int("total", len(hosts)),
		)
		return nil, err
	}

	r.config.Counters.ReconcilePasses.Inc()

	return report, nil
}

func (r *Reconciler) lookupHost(ctx context.Context, host string, owner string) HostStatus {
	status := HostStatus{
		IngressName: owner,
		Host:        host,
	}

	presence, err := r.registry.Lookup(ctx, host)
	if err != nil {
		r.config.Counters.RegistryQueries.WithLabelValues("error").Inc()
		log.Warn("Registry lookup failed",
			zap.String("host", host),
			zap.String("error", err.Error()),
		)

		// Reference behavior collapses a failed lookup into "absent",
		// which makes transient outages look like the most destructive
		// drift category. Only do that when explicitly asked to.
		status.Indeterminate = !r.config.AssumeAbsent
		return status
	}

	r.config.Counters.RegistryQueries.WithLabelValues("success").Inc()
	status.Presence = presence
	return status
}
