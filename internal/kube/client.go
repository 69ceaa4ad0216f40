// Package kube provides cluster access for the operator: Ingress relist,
// Ingress watch notifications, and namespace assurance.
package kube

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	corev1 "k8s.io/api/core/v1"
	netv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	ctrlconfig "sigs.k8s.io/controller-runtime/pkg/client/config"
)

const listTimeout = 30 * time.Second

// Client wraps a Kubernetes clientset with the operations the operator needs.
type Client struct {
	clientset kubernetes.Interface
}

// NewClient builds a Client from the ambient cluster configuration:
// in-cluster config when running as a pod, kubeconfig otherwise.
// Failure here is startup-fatal.
func NewClient() (*Client, error) {
	restConfig, err := ctrlconfig.GetConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load cluster configuration")
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create clientset")
	}

	return &Client{clientset: clientset}, nil
}

// NewClientFromClientset wraps an existing clientset. Used by tests with a
// fake clientset.
func NewClientFromClientset(clientset kubernetes.Interface) *Client {
	return &Client{clientset: clientset}
}

// ListIngresses fetches the full cluster-wide Ingress snapshot.
// Always a complete relist, never incremental, so a missed watch event can
// never leave the derived configuration stale.
func (c *Client) ListIngresses(ctx context.Context) ([]netv1.Ingress, error) {
	listCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	list, err := c.clientset.NetworkingV1().Ingresses(metav1.NamespaceAll).List(listCtx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ingresses")
	}

	return list.Items, nil
}

// EnsureNamespace creates the namespace if it does not exist.
// A concurrent creation losing the race is success, not an error.
func (c *Client) EnsureNamespace(ctx context.Context, name string) error {
	_, err := c.clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return nil
	}

	if !apierrors.IsNotFound(err) {
		return errors.Wrapf(err, "failed to get namespace %s", name)
	}

	namespace := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: name},
	}

	_, err = c.clientset.CoreV1().Namespaces().Create(ctx, namespace, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return errors.Wrapf(err, "failed to create namespace %s", name)
	}

	return nil
}
