package kube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/duration"
	"sigs.k8s.io/yaml"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
)

const managedByLabel = "app.kubernetes.io/managed-by=paas-operator"

// CreateNamespace applies a Namespace manifest then a ResourceQuota manifest
// (two separate kubectl apply calls, namespace first). Quota values are
// parsed as Kubernetes quantities so bad input fails before any subprocess.
func (c *Client) CreateNamespace(ctx context.Context, req NamespaceRequest) error {
	if err := c.checkNamespace(req.Name); err != nil {
		return err
	}

	cpu, err := parseQuantity("cpu_limit", req.CPULimit)
	if err != nil {
		return err
	}
	mem, err := parseQuantity("memory_limit", req.MemoryLimit)
	if err != nil {
		return err
	}
	storage, err := parseQuantity("storage_limit", req.StorageLimit)
	if err != nil {
		return err
	}

	ns := &corev1.Namespace{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
		ObjectMeta: metav1.ObjectMeta{
			Name:   req.Name,
			Labels: map[string]string{"app.kubernetes.io/managed-by": "paas-operator"},
		},
	}
	quota := &corev1.ResourceQuota{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "ResourceQuota"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      req.Name + "-quota",
			Namespace: req.Name,
		},
		Spec: corev1.ResourceQuotaSpec{
			Hard: corev1.ResourceList{
				corev1.ResourceLimitsCPU:       cpu,
				corev1.ResourceLimitsMemory:    mem,
				corev1.ResourceRequestsStorage: storage,
			},
		},
	}

	if err := c.ApplyManifest(ctx, ns); err != nil {
		return err
	}
	if err := c.ApplyManifest(ctx, quota); err != nil {
		return err
	}
	c.log.Info("namespace created", "namespace", req.Name,
		"cpu", req.CPULimit, "memory", req.MemoryLimit, "storage", req.StorageLimit)
	return nil
}

// ApplyManifest serializes obj with a safe YAML dumper and pipes it to
// `kubectl apply -f -` via stdin.
func (c *Client) ApplyManifest(ctx context.Context, obj interface{}) error {
	data, err := yaml.Marshal(obj)
	if err != nil {
		return errdefs.Validationf("marshal manifest: %v", err)
	}
	args := []string{"apply", "--filename", "-"}
	_, err = c.runner.Run(ctx, c.binary, args, bytes.NewReader(data), c.timeout)
	return err
}

// ListNamespaces lists workspace namespaces. The managed-by selector keeps
// out foreign namespaces server-side; the prefix check guards against
// anything else carrying our label.
func (c *Client) ListNamespaces(ctx context.Context) ([]NamespaceInfo, error) {
	args := []string{"get", "namespaces", "--selector", managedByLabel, "--output", "json"}
	res, err := c.runner.Run(ctx, c.binary, args, nil, c.timeout)
	if err != nil {
		return nil, err
	}

	var list corev1.NamespaceList
	if err := json.Unmarshal([]byte(res.Stdout), &list); err != nil {
		return nil, &errdefs.ExecutionError{Message: fmt.Sprintf("malformed kubectl JSON output: %v", err)}
	}

	now := time.Now()
	out := make([]NamespaceInfo, 0, len(list.Items))
	for _, ns := range list.Items {
		if !strings.HasPrefix(ns.Name, c.nsPrefix) {
			continue
		}
		out = append(out, NamespaceInfo{
			Name:   ns.Name,
			Status: string(ns.Status.Phase),
			Age:    duration.HumanDuration(now.Sub(ns.CreationTimestamp.Time)),
		})
	}
	return out, nil
}

// DeleteNamespace deletes a workspace namespace and everything in it.
func (c *Client) DeleteNamespace(ctx context.Context, name string) error {
	if err := c.checkNamespace(name); err != nil {
		return err
	}
	args := []string{"delete", "namespace", name}
	if _, err := c.runner.Run(ctx, c.binary, args, nil, c.timeout); err != nil {
		return kubectlNotFound(err, "namespace", name)
	}
	c.log.Info("namespace deleted", "namespace", name)
	return nil
}

func parseQuantity(field, value string) (resource.Quantity, error) {
	if value == "" {
		return resource.Quantity{}, errdefs.Validationf("%s is required", field)
	}
	q, err := resource.ParseQuantity(value)
	if err != nil {
		return resource.Quantity{}, errdefs.Validationf("invalid %s %q: %v", field, value, err)
	}
	return q, nil
}
