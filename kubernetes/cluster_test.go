package kubernetes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func makeIngress(name string, namespace string, hosts ...string) *networkingv1.Ingress {
	rules := make([]networkingv1.IngressRule, 0, len(hosts))
	for _, h := range hosts {
		rules = append(rules, networkingv1.IngressRule{Host: h})
	}
	return &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Spec:       networkingv1.IngressSpec{Rules: rules},
	}
}

func TestListIngresses(t *testing.T) {
	cluster := NewCluster(fake.NewSimpleClientset(
		makeIngress("foo-ingress", "apps", "foo.example.com", "www.foo.example.com"),
		makeIngress("empty-ingress", "apps"),
	))

	refs, err := cluster.ListIngresses(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)

	byName := make(map[string]IngressRef)
	for _, ref := range refs {
		byName[ref.Name] = ref
	}

	assert.Equal(t, []string{"foo.example.com", "www.foo.example.com"}, byName["foo-ingress"].Hosts)
	// An ingress without hosts is listed but contributes no pairs.
	assert.Empty(t, byName["empty-ingress"].Hosts)
}

func TestListIngressesSkipsHostlessRules(t *testing.T) {
	in := makeIngress("foo-ingress", "apps", "foo.example.com")
	in.Spec.Rules = append(in.Spec.Rules, networkingv1.IngressRule{})

	cluster := NewCluster(fake.NewSimpleClientset(in))

	refs, err := cluster.ListIngresses(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, []string{"foo.example.com"}, refs[0].Hosts)
}

func TestListIngressesClusterUnavailable(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	clientset.PrependReactor("list", "ingresses", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("connection refused")
	})

	_, err := NewCluster(clientset).ListIngresses(context.Background())
	assert.ErrorIs(t, err, ErrClusterUnavailable)
}

func TestPairs(t *testing.T) {
	pairs := Pairs([]IngressRef{
		{Name: "foo-ingress", Hosts: []string{"foo.example.com", "www.foo.example.com"}},
		{Name: "empty-ingress"},
		{Name: "bar-ingress", Hosts: []string{"bar.example.com"}},
	})

	assert.Equal(t, []HostRef{
		{IngressName: "foo-ingress", Host: "foo.example.com"},
		{IngressName: "foo-ingress", Host: "www.foo.example.com"},
		{IngressName: "bar-ingress", Host: "bar.example.com"},
	}, pairs)
}

func TestGetIngress(t *testing.T) {
	cluster := NewCluster(fake.NewSimpleClientset(
		makeIngress("foo-ingress", "apps", "foo.example.com"),
	))

	ref, err := cluster.GetIngress(context.Background(), "foo-ingress")
	require.NoError(t, err)
	assert.Equal(t, "apps", ref.Namespace)

	_, err = cluster.GetIngress(context.Background(), "missing-ingress")
	assert.ErrorIs(t, err, ErrIngressNotFound)
}

func TestDeleteResourceIgnoresNotFound(t *testing.T) {
	clientset := fake.NewSimpleClientset(&appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "foo-api", Namespace: "apps"},
	})
	cluster := NewCluster(clientset)

	require.NoError(t, cluster.DeleteResource(context.Background(), KindDeployment, "apps", "foo-api"))
	// Second delete hits a gone object and still succeeds.
	require.NoError(t, cluster.DeleteResource(context.Background(), KindDeployment, "apps", "foo-api"))
	require.NoError(t, cluster.DeleteResource(context.Background(), KindService, "apps", "never-existed"))
}

func TestDeleteResourceUnknownKind(t *testing.T) {
	err := NewCluster(fake.NewSimpleClientset()).DeleteResource(context.Background(), "configmap", "apps", "foo")
	assert.Error(t, err)
}

func TestDeleteResourceSurfacesOtherErrors(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	clientset.PrependReactor("delete", "deployments", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("admission webhook denied")
	})

	err := NewCluster(clientset).DeleteResource(context.Background(), KindDeployment, "apps", "foo-api")
	assert.Error(t, err)
}
