package kube

// PodInfo is derived per-request from `kubectl get pods -o json`; no caching.
type PodInfo struct {
	Name     string `json:"name"`
	Phase    string `json:"phase"`
	Ready    string `json:"ready"`
	Restarts int    `json:"restarts"`
	Age      string `json:"age"`
}

// ServiceInfo summarizes a Service for API consumers.
type ServiceInfo struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	ClusterIP string   `json:"cluster_ip"`
	Ports     []string `json:"ports"`
	Age       string   `json:"age"`
}

// DeploymentInfo summarizes a Deployment for API consumers.
type DeploymentInfo struct {
	Name              string `json:"name"`
	Replicas          int32  `json:"replicas"`
	ReadyReplicas     int32  `json:"ready_replicas"`
	AvailableReplicas int32  `json:"available_replicas"`
	Age               string `json:"age"`
}

// NamespaceInfo summarizes a workspace namespace for API consumers.
type NamespaceInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Age    string `json:"age"`
}

// NamespaceRequest creates a workspace namespace with a resource quota.
type NamespaceRequest struct {
	Name         string `json:"name"`
	CPULimit     string `json:"cpu_limit"`
	MemoryLimit  string `json:"memory_limit"`
	StorageLimit string `json:"storage_limit"`
}
