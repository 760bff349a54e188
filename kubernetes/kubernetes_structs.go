package kubernetes

// ResourceKind names the workload kinds the tool lists and deletes.
type ResourceKind string

const (
	KindPod        ResourceKind = "pod"
	KindDeployment ResourceKind = "deployment"
	KindReplicaSet ResourceKind = "replicaset"
	KindService    ResourceKind = "service"
)

// IngressRef is one ingress object flattened to the parts the
// reconciler cares about. Hosts preserves rule order; rules without a
// host are skipped, so Hosts may be empty.
type IngressRef struct {
	Name      string
	Namespace string
	Hosts     []string
}

type HostRef struct {
	IngressName string
	Host        string
}

// Pairs expands the refs to (ingressName, host) pairs in listing order.
func Pairs(refs []IngressRef) []HostRef {
	pairs := make([]HostRef, 0)
	for _, ref := range refs {
		for _, host := range ref.Hosts {
			pairs = append(pairs, HostRef{IngressName: ref.Name, Host: host})
		}
	}
	return pairs
}
