package resources

import (
	"context"
	"strings"

	"github.com/dbcdk/laconicman/kubernetes"
)

// Related holds the workload resources associated with one ingress,
// all within the ingress's own namespace.
type Related struct {
	Namespace   string
	Pods        []string
	Deployments []string
	ReplicaSets []string
	Services    []string
}

// Matcher decides which resource names in the ingress's namespace
// belong to the ingress. Prefix matching is a heuristic stand-in for a
// real ownership reference; a label or owner-reference based Matcher
// can replace it without touching the resolver.
type Matcher interface {
	Matches(ingressName string, resourceName string) bool
}

// PrefixMatcher matches resources whose name starts with the ingress
// name truncated at the first "-ingress" marker. An ingress named
// "foo-ingress" claims "foo-api", "foo-worker" and so on; an ingress
// without the marker claims resources sharing its full name.
type PrefixMatcher struct{}

func (PrefixMatcher) Matches(ingressName string, resourceName string) bool {
	return strings.HasPrefix(resourceName, NamePrefix(ingressName))
}

func NamePrefix(ingressName string) string {
	if i := strings.Index(ingressName, "-ingress"); i >= 0 {
		return ingressName[:i]
	}
	return ingressName
}

type Resolver struct {
	cluster kubernetes.Cluster
	matcher Matcher
}

func NewResolver(cluster kubernetes.Cluster, matcher Matcher) *Resolver {
	return &Resolver{
		cluster: cluster,
		matcher: matcher,
	}
}

// Resolve finds the pods, deployments, replica sets and services
// related to the named ingress. Fails with ErrIngressNotFound when the
// ingress is gone or carries no namespace.
func (r *Resolver) Resolve(ctx context.Context, ingressName string) (Related, error) {
	ingress, err := r.cluster.GetIngress(ctx, ingressName)
	if err != nil {
		return Related{}, err
	}

	related := Related{Namespace: ingress.Namespace}

	pods, err := r.cluster.ListPods(ctx, ingress.Namespace)
	if err != nil {
		return Related{}, err
	}
	related.Pods = r.filter(ingressName, pods)

	deployments, err := r.cluster.ListDeployments(ctx, ingress.Namespace)
	if err != nil {
		return Related{}, err
	}
	related.Deployments = r.filter(ingressName, deployments)

	replicasets, err := r.cluster.ListReplicaSets(ctx, ingress.Namespace)
	if err != nil {
		return Related{}, err
	}
	related.ReplicaSets = r.filter(ingressName, replicasets)

	services, err := r.cluster.ListServices(ctx, ingress.Namespace)
	if err != nil {
		return Related{}, err
	}
	related.Services = r.filter(ingressName, services)

	return related, nil
}

func (r *Resolver) filter(ingressName string, names []string) []string {
	out := make([]string, 0)
	for _, name := range names {
		if r.matcher.Matches(ingressName, name) {
			out = append(out, name)
		}
	}
	return out
}
