package kubernetes

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	_ "k8s.io/client-go/plugin/pkg/client/auth/oidc"
)

var (
	// ErrClusterUnavailable wraps any control-plane failure: the whole
	// call fails, there is no partial-result contract.
	ErrClusterUnavailable = errors.New("cluster unavailable")

	// ErrIngressNotFound is returned when an ingress named during
	// resolution no longer exists or carries no namespace.
	ErrIngressNotFound = errors.New("ingress not found")
)

// Cluster is the typed control-plane surface the rest of the program
// uses. The fake clientset implements kubernetes.Interface, so tests
// construct a Cluster the same way production code does.
type Cluster interface {
	ListIngresses(ctx context.Context) ([]IngressRef, error)
	GetIngress(ctx context.Context, name string) (IngressRef, error)
	ListPods(ctx context.Context, namespace string) ([]string, error)
	ListDeployments(ctx context.Context, namespace string) ([]string, error)
	ListReplicaSets(ctx context.Context, namespace string) ([]string, error)
	ListServices(ctx context.Context, namespace string) ([]string, error)
	DeleteResource(ctx context.Context, kind ResourceKind, namespace string, name string) error
}

type cluster struct {
	clients kubernetes.Interface
}

func NewCluster(clients kubernetes.Interface) Cluster {
	return &cluster{clients: clients}
}

func (c *cluster) ListIngresses(ctx context.Context) ([]IngressRef, error) {
	ingresses, err := c.clients.NetworkingV1().Ingresses(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: listing ingresses: %v", ErrClusterUnavailable, err)
	}

	out := make([]IngressRef, 0, len(ingresses.Items))
	for _, i := range ingresses.Items {
		out = append(out, mapIngress(i))
	}

	return out, nil
}

func (c *cluster) GetIngress(ctx context.Context, name string) (IngressRef, error) {
	refs, err := c.ListIngresses(ctx)
	if err != nil {
		return IngressRef{}, err
	}

	for _, ref := range refs {
		if ref.Name == name && ref.Namespace != "" {
			return ref, nil
		}
	}

	return IngressRef{}, fmt.Errorf("%w: %s", ErrIngressNotFound, name)
}

func mapIngress(in networkingv1.Ingress) IngressRef {
	ref := IngressRef{
		Name:      in.Name,
		Namespace: in.Namespace,
		Hosts:     make([]string, 0, len(in.Spec.Rules)),
	}

	for _, r := range in.Spec.Rules {
		if r.Host == "" {
			log.Debug("Ignoring ingress rule with no hostname",
				zap.String("name", in.Name),
				zap.String("namespace", in.Namespace),
			)
			continue
		}
		ref.Hosts = append(ref.Hosts, r.Host)
	}

	return ref
}

func (c *cluster) ListPods(ctx context.Context, namespace string) ([]string, error) {
	pods, err := c.clients.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: listing pods: %v", ErrClusterUnavailable, err)
	}

	names := make([]string, 0, len(pods.Items))
	for _, p := range pods.Items {
		names = append(names, p.Name)
	}
	return names, nil
}

func (c *cluster) ListDeployments(ctx context.Context, namespace string) ([]string, error) {
	deployments, err := c.clients.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: listing deployments: %v", ErrClusterUnavailable, err)
	}

	names := make([]string, 0, len(deployments.Items))
	for _, d := range deployments.Items {
		names = append(names, d.Name)
	}
	return names, nil
}

func (c *cluster) ListReplicaSets(ctx context.Context, namespace string) ([]string, error) {
	replicasets, err := c.clients.AppsV1().ReplicaSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: listing replicasets: %v", ErrClusterUnavailable, err)
	}

	names := make([]string, 0, len(replicasets.Items))
	for _, r := range replicasets.Items {
		names = append(names, r.Name)
	}
	return names, nil
}

func (c *cluster) ListServices(ctx context.Context, namespace string) ([]string, error) {
	services, err := c.clients.CoreV1().Services(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: listing services: %v", ErrClusterUnavailable, err)
	}

	names := make([]string, 0, len(services.Items))
	for _, s := range services.Items {
		names = append(names, s.Name)
	}
	return names, nil
}

// DeleteResource has delete-if-exists semantics: deleting a resource
// that is already gone is a success.
func (c *cluster) DeleteResource(ctx context.Context, kind ResourceKind, namespace string, name string) error {
	var err error
	switch kind {
	case KindPod:
		err = c.clients.CoreV1().Pods(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	case KindDeployment:
		err = c.clients.AppsV1().Deployments(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	case KindReplicaSet:
		err = c.clients.AppsV1().ReplicaSets(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	case KindService:
		err = c.clients.CoreV1().Services(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	default:
		return fmt.Errorf("unknown resource kind %q", kind)
	}

	if err != nil && !apierrors.IsNotFound(err) {
		return err
	}
	return nil
}
