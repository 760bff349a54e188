package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dbcdk/laconicman/kubernetes"
	"github.com/dbcdk/laconicman/registry"
	"github.com/dbcdk/laconicman/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

type fakeRegistry struct {
	mu       sync.Mutex
	presence map[string]registry.Presence
	failing  map[string]bool
	calls    map[string]int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		presence: make(map[string]registry.Presence),
		failing:  make(map[string]bool),
		calls:    make(map[string]int),
	}
}

func (f *fakeRegistry) Lookup(ctx context.Context, host string) (registry.Presence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[host]++
	if f.failing[host] {
		return registry.Presence{}, registry.ErrRegistryUnavailable
	}
	return f.presence[host], nil
}

func ingress(name string, namespace string, hosts ...string) *networkingv1.Ingress {
	rules := make([]networkingv1.IngressRule, 0, len(hosts))
	for _, h := range hosts {
		rules = append(rules, networkingv1.IngressRule{Host: h})
	}
	return &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Spec:       networkingv1.IngressSpec{Rules: rules},
	}
}

func testConfig() *util.Config {
	return &util.Config{
		Workers:  1,
		Counters: util.CreateCounters(),
	}
}

func TestReconcileProducesOneStatusPerHost(t *testing.T) {
	cluster := kubernetes.NewCluster(fake.NewSimpleClientset(
		ingress("foo-ingress", "apps", "foo.example.com"),
		ingress("bar-ingress", "apps", "bar.example.com"),
	))

	reg := newFakeRegistry()
	reg.presence["foo.example.com"] = registry.Presence{HasDnsRecord: true}
	reg.presence["bar.example.com"] = registry.Presence{HasDnsRecord: true, HasDeploymentRecord: true}

	report, err := New(testConfig(), cluster, reg).Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Statuses, 2)

	foo := report.Statuses["foo.example.com"]
	assert.Equal(t, "foo-ingress", foo.IngressName)
	assert.Equal(t, DeploymentMissingOnly, StatusCategory(foo))

	bar := report.Statuses["bar.example.com"]
	assert.Equal(t, Consistent, StatusCategory(bar))
}

func TestReconcileIsDeterministic(t *testing.T) {
	cluster := kubernetes.NewCluster(fake.NewSimpleClientset(
		ingress("foo-ingress", "apps", "foo.example.com", "www.foo.example.com"),
	))

	reg := newFakeRegistry()
	reg.presence["foo.example.com"] = registry.Presence{HasDnsRecord: true}

	r := New(testConfig(), cluster, reg)

	first, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	second, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Statuses, second.Statuses)
	assert.Equal(t, first.Hosts, second.Hosts)
}

func TestReconcileDuplicateHostLastIngressWins(t *testing.T) {
	// The fake clientset lists in the order the objects were added, so
	// b-ingress is discovered last.
	cluster := kubernetes.NewCluster(fake.NewSimpleClientset(
		ingress("a-ingress", "apps", "shared.example.com"),
		ingress("b-ingress", "apps", "shared.example.com"),
	))

	reg := newFakeRegistry()
	report, err := New(testConfig(), cluster, reg).Reconcile(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Hosts, 1)
	assert.Equal(t, "b-ingress", report.Statuses["shared.example.com"].IngressName)
	assert.Equal(t, 1, reg.calls["shared.example.com"], "shared host must be looked up exactly once")
}

func TestReconcileRegistryFailureIsIndeterminate(t *testing.T) {
	cluster := kubernetes.NewCluster(fake.NewSimpleClientset(
		ingress("foo-ingress", "apps", "foo.example.com"),
		ingress("bar-ingress", "apps", "bar.example.com"),
	))

	reg := newFakeRegistry()
	reg.presence["foo.example.com"] = registry.Presence{HasDnsRecord: true, HasDeploymentRecord: true}
	reg.failing["bar.example.com"] = true

	report, err := New(testConfig(), cluster, reg).Reconcile(context.Background())
	require.NoError(t, err)

	// The failing host does not stop the pass and is reported
	// distinctly, not as both-missing.
	assert.Equal(t, Consistent, StatusCategory(report.Statuses["foo.example.com"]))
	assert.Equal(t, Indeterminate, StatusCategory(report.Statuses["bar.example.com"]))
	assert.Empty(t, report.ByCategory(BothMissing))
}

func TestReconcileAssumeAbsentRestoresReferenceBehavior(t *testing.T) {
	cluster := kubernetes.NewCluster(fake.NewSimpleClientset(
		ingress("bar-ingress", "apps", "bar.example.com"),
	))

	reg := newFakeRegistry()
	reg.failing["bar.example.com"] = true

	config := testConfig()
	config.AssumeAbsent = true

	report, err := New(config, cluster, reg).Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BothMissing, StatusCategory(report.Statuses["bar.example.com"]))
}

func TestReconcileIngressWithoutHostsContributesNothing(t *testing.T) {
	cluster := kubernetes.NewCluster(fake.NewSimpleClientset(
		ingress("empty-ingress", "apps"),
	))

	report, err := New(testConfig(), cluster, newFakeRegistry()).Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Statuses)
}

func TestReconcileProgress(t *testing.T) {
	cluster := kubernetes.NewCluster(fake.NewSimpleClientset(
		ingress("a-ingress", "apps", "a.example.com"),
		ingress("b-ingress", "apps", "b.example.com"),
		ingress("c-ingress", "apps", "c.example.com"),
	))

	r := New(testConfig(), cluster, newFakeRegistry())

	var seen []int
	r.Progress = func(done int, total int) {
		assert.Equal(t, 3, total)
		seen = append(seen, done)
	}

	_, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestReconcileCancelledPassDiscardsResults(t *testing.T) {
	cluster := kubernetes.NewCluster(fake.NewSimpleClientset(
		ingress("a-ingress", "apps", "a.example.com"),
	))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(testConfig(), cluster, newFakeRegistry()).Reconcile(ctx)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReconcileParallelWorkers(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		ingress("a-ingress", "apps", "a.example.com"),
		ingress("b-ingress", "apps", "b.example.com"),
		ingress("c-ingress", "apps", "c.example.com"),
		ingress("d-ingress", "apps", "d.example.com"),
	)

	reg := newFakeRegistry()
	reg.presence["a.example.com"] = registry.Presence{HasDnsRecord: true, HasDeploymentRecord: true}

	config := testConfig()
	config.Workers = 4

	report, err := New(config, kubernetes.NewCluster(clientset), reg).Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Statuses, 4)
	for host, n := range reg.calls {
		assert.Equal(t, 1, n, "host %s looked up more than once", host)
	}
}

func TestReconcileClusterFailure(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	clientset.PrependReactor("list", "ingresses", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("control plane down")
	})

	report, err := New(testConfig(), kubernetes.NewCluster(clientset), newFakeRegistry()).Reconcile(context.Background())
	assert.Nil(t, report)
	assert.ErrorIs(t, err, kubernetes.ErrClusterUnavailable)
}
