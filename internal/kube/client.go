// Package kube wraps the kubectl binary for pod/service/deployment listing,
// namespace and quota creation, deployment patching, and manifest apply.
// Output is decoded into the upstream k8s.io/api types; manifests are built
// as typed objects and serialized with a safe YAML dumper, never templated
// from strings.
package kube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/duration"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
	"github.com/WOOWTECH/paas-operator/internal/execx"
	"github.com/WOOWTECH/paas-operator/internal/pkg/validate"
)

type Client struct {
	runner   execx.Runner
	binary   string
	nsPrefix string
	timeout  time.Duration
	log      *slog.Logger
}

func NewClient(runner execx.Runner, binary, nsPrefix string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		runner:   runner,
		binary:   binary,
		nsPrefix: nsPrefix,
		timeout:  timeout,
		log:      log,
	}
}

func (c *Client) checkNamespace(ns string) error {
	if !validate.WorkspaceNamespace(ns, c.nsPrefix) {
		return errdefs.Validationf("namespace %q must start with %q and be a valid DNS label", ns, c.nsPrefix)
	}
	return nil
}

// GetPods lists pods in a workspace namespace. Ready counts and restart
// counts are aggregated across containers; age is computed from
// creationTimestamp.
func (c *Client) GetPods(ctx context.Context, namespace, labelSelector string) ([]PodInfo, error) {
	if err := c.checkNamespace(namespace); err != nil {
		return nil, err
	}

	args := []string{"get", "pods", "--namespace", namespace, "--output", "json"}
	if labelSelector != "" {
		args = append(args, "--selector", labelSelector)
	}
	res, err := c.runner.Run(ctx, c.binary, args, nil, c.timeout)
	if err != nil {
		return nil, err
	}

	var list corev1.PodList
	if err := json.Unmarshal([]byte(res.Stdout), &list); err != nil {
		return nil, &errdefs.ExecutionError{Message: fmt.Sprintf("malformed kubectl JSON output: %v", err)}
	}

	out := make([]PodInfo, 0, len(list.Items))
	for i := range list.Items {
		out = append(out, podToInfo(&list.Items[i], time.Now()))
	}
	return out, nil
}

func podToInfo(pod *corev1.Pod, now time.Time) PodInfo {
	ready := 0
	restarts := 0
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.Ready {
			ready++
		}
		restarts += int(cs.RestartCount)
	}
	total := len(pod.Spec.Containers)
	phase := string(pod.Status.Phase)
	if phase == "" {
		phase = "Unknown"
	}
	return PodInfo{
		Name:     pod.Name,
		Phase:    phase,
		Ready:    fmt.Sprintf("%d/%d", ready, total),
		Restarts: restarts,
		Age:      duration.HumanDuration(now.Sub(pod.CreationTimestamp.Time)),
	}
}

// GetServices lists services in a workspace namespace.
func (c *Client) GetServices(ctx context.Context, namespace string) ([]ServiceInfo, error) {
	if err := c.checkNamespace(namespace); err != nil {
		return nil, err
	}

	args := []string{"get", "services", "--namespace", namespace, "--output", "json"}
	res, err := c.runner.Run(ctx, c.binary, args, nil, c.timeout)
	if err != nil {
		return nil, err
	}

	var list corev1.ServiceList
	if err := json.Unmarshal([]byte(res.Stdout), &list); err != nil {
		return nil, &errdefs.ExecutionError{Message: fmt.Sprintf("malformed kubectl JSON output: %v", err)}
	}

	now := time.Now()
	out := make([]ServiceInfo, 0, len(list.Items))
	for _, svc := range list.Items {
		ports := make([]string, 0, len(svc.Spec.Ports))
		for _, p := range svc.Spec.Ports {
			ports = append(ports, fmt.Sprintf("%d/%s", p.Port, p.Protocol))
		}
		out = append(out, ServiceInfo{
			Name:      svc.Name,
			Type:      string(svc.Spec.Type),
			ClusterIP: svc.Spec.ClusterIP,
			Ports:     ports,
			Age:       duration.HumanDuration(now.Sub(svc.CreationTimestamp.Time)),
		})
	}
	return out, nil
}

// GetDeployments lists deployments in a workspace namespace.
func (c *Client) GetDeployments(ctx context.Context, namespace string) ([]DeploymentInfo, error) {
	if err := c.checkNamespace(namespace); err != nil {
		return nil, err
	}

	args := []string{"get", "deployments", "--namespace", namespace, "--output", "json"}
	res, err := c.runner.Run(ctx, c.binary, args, nil, c.timeout)
	if err != nil {
		return nil, err
	}

	var list appsv1.DeploymentList
	if err := json.Unmarshal([]byte(res.Stdout), &list); err != nil {
		return nil, &errdefs.ExecutionError{Message: fmt.Sprintf("malformed kubectl JSON output: %v", err)}
	}

	now := time.Now()
	out := make([]DeploymentInfo, 0, len(list.Items))
	for _, d := range list.Items {
		replicas := int32(0)
		if d.Spec.Replicas != nil {
			replicas = *d.Spec.Replicas
		}
		out = append(out, DeploymentInfo{
			Name:              d.Name,
			Replicas:          replicas,
			ReadyReplicas:     d.Status.ReadyReplicas,
			AvailableReplicas: d.Status.AvailableReplicas,
			Age:               duration.HumanDuration(now.Sub(d.CreationTimestamp.Time)),
		})
	}
	return out, nil
}

// PatchDeployment applies a patch (used for sidecar injection). patchType is
// one of "json", "merge", "strategic".
func (c *Client) PatchDeployment(ctx context.Context, namespace, name, patch, patchType string) error {
	if err := c.checkNamespace(namespace); err != nil {
		return err
	}
	if !validate.Name(name) {
		return errdefs.Validationf("invalid deployment name %q", name)
	}
	switch patchType {
	case "json", "merge", "strategic":
	default:
		return errdefs.Validationf("invalid patch type %q (want json, merge, or strategic)", patchType)
	}
	if !json.Valid([]byte(patch)) {
		return errdefs.Validationf("patch is not valid JSON")
	}

	args := []string{
		"patch", "deployment", name,
		"--namespace", namespace,
		"--type", patchType,
		"--patch", patch,
	}
	if _, err := c.runner.Run(ctx, c.binary, args, nil, c.timeout); err != nil {
		return kubectlNotFound(err, "deployment", name)
	}
	c.log.Info("deployment patched", "namespace", namespace, "name", name, "patch_type", patchType)
	return nil
}

// GetPodName returns the name of the first running pod matching the selector.
func (c *Client) GetPodName(ctx context.Context, namespace, labelSelector string) (string, error) {
	pods, err := c.GetPods(ctx, namespace, labelSelector)
	if err != nil {
		return "", err
	}
	for _, p := range pods {
		if p.Phase == string(corev1.PodRunning) {
			return p.Name, nil
		}
	}
	return "", &errdefs.NotFoundError{Resource: "running pod", Name: labelSelector}
}

// ExecInPod runs a command inside a running pod and returns its stdout.
// The command is appended after "--" so kubectl never interprets it.
func (c *Client) ExecInPod(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
	if err := c.checkNamespace(namespace); err != nil {
		return "", err
	}
	if !validate.Name(pod) {
		return "", errdefs.Validationf("invalid pod name %q", pod)
	}
	if len(command) == 0 {
		return "", errdefs.Validationf("command is required")
	}

	args := []string{"exec", pod, "--namespace", namespace}
	if container != "" {
		args = append(args, "--container", container)
	}
	args = append(args, "--")
	args = append(args, command...)

	res, err := c.runner.Run(ctx, c.binary, args, nil, c.timeout)
	if err != nil {
		return "", kubectlNotFound(err, "pod", pod)
	}
	return res.Stdout, nil
}

func kubectlNotFound(err error, resource, name string) error {
	var execErr *errdefs.ExecutionError
	if errors.As(err, &execErr) && strings.Contains(strings.ToLower(execErr.Stderr), "not found") {
		return &errdefs.NotFoundError{Resource: resource, Name: name}
	}
	return err
}
