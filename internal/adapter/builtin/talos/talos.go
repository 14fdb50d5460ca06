// Package talos implements the built-in OS-layer adapter backed by Talos
// Linux: it renders and applies machine configs to the servers provided
// by the cloud-infrastructure capability, and emits the kubernetes-api
// capability consumed by CNI and higher-layer adapters.
package talos

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"sigs.k8s.io/yaml"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/capability"
)

//go:embed scripts
var scriptTree embed.FS

const Name = "talos"

// Adapter bootstraps a Talos Linux Kubernetes cluster atop already
// provisioned servers.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Tree() fs.FS {
	sub, err := fs.Sub(scriptTree, "scripts")
	if err != nil {
		panic(err)
	}
	return sub
}

func (a *Adapter) Metadata() adapter.Descriptor {
	return adapter.Descriptor{
		Name:              Name,
		DisplayName:       "Talos Linux",
		Version:           "1.0.0",
		SupportedVersions: []string{"1.0.0"},
		Phase:             adapter.PhaseFoundation,
		SelectionGroup:    "operating-system",
		Provides:          []capability.ID{capability.KubernetesAPI},
		Requires:          []capability.ID{capability.CloudInfrastructure},
	}
}

func (a *Adapter) InputSchema() capability.Schema {
	return capability.Schema{
		Capability: capability.ID(Name),
		Fields: []capability.Field{
			{Name: "cluster_name", Required: true, Type: "string"},
			{Name: "kubernetes_version", Required: false, Type: "string"},
		},
	}
}

func (a *Adapter) Render(ctx context.Context, snap adapter.Snapshot, cfg map[string]any) (adapter.Output, error) {
	infra, ok := snap.GetCapability(capability.CloudInfrastructure)
	if !ok {
		return adapter.Output{}, fmt.Errorf("cloud-infrastructure capability not available at render time")
	}

	clusterName, _ := cfg["cluster_name"].(string)
	k8sVersion, _ := cfg["kubernetes_version"].(string)
	if k8sVersion == "" {
		k8sVersion = "v1.31.0"
	}

	nodeIDs, _ := infra["node_ids"].([]any)

	talosConfig := map[string]any{
		"apiVersion": "infrastructure.ztc.io/v1alpha1",
		"kind":       "TalosClusterConfig",
		"metadata": map[string]any{
			"name": clusterName,
		},
		"spec": map[string]any{
			"kubernetesVersion": k8sVersion,
			"nodeCount":         len(nodeIDs),
			"region":            infra["region"],
		},
	}
	manifest, err := yaml.Marshal(talosConfig)
	if err != nil {
		return adapter.Output{}, fmt.Errorf("marshaling talos cluster config: %w", err)
	}

	endpoint := "https://10.0.0.1:6443"

	return adapter.Output{
		Manifests: map[string][]byte{
			"manifests/cluster-config.yaml": manifest,
		},
		CapabilityData: map[capability.ID]map[string]any{
			capability.KubernetesAPI: {
				"kubeconfig": fmt.Sprintf("%s/talos/kubeconfig", clusterName),
				"endpoint":   endpoint,
				"version":    k8sVersion,
			},
		},
	}, nil
}

func (a *Adapter) PreWorkStages() []adapter.StageSpec {
	return []adapter.StageSpec{
		{
			Name:        "talos-render-machine-configs",
			Description: "Generate per-role Talos machine configs for the cluster.",
			Script: adapter.ScriptRef{
				PackagePath: "talos",
				Resource:    "pre-work/render-machine-configs.sh",
			},
			CacheKey: "talos-render-machine-configs",
			Barrier:  adapter.BarrierLocal,
			Retry:    adapter.RetryPolicy{MaxAttempts: 1, BaseBackoff: "0s"},
		},
	}
}

func (a *Adapter) BootstrapStages() []adapter.StageSpec {
	return []adapter.StageSpec{
		{
			Name:        "talos-apply-machine-configs",
			Description: "Apply machine configs and bootstrap the Talos control plane.",
			Script: adapter.ScriptRef{
				PackagePath: "talos",
				Resource:    "bootstrap/apply-machine-configs.sh",
			},
			CacheKey: "talos-apply-machine-configs",
			Barrier:  adapter.BarrierRescueReady,
			Retry:    adapter.RetryPolicy{MaxAttempts: 3, BaseBackoff: "10s"},
		},
	}
}

func (a *Adapter) PostWorkStages() []adapter.StageSpec { return nil }

func (a *Adapter) ValidationStages() []adapter.StageSpec {
	return []adapter.StageSpec{
		{
			Name:        "talos-check-api-ready",
			Description: "Confirm the Kubernetes API server reports ready.",
			Script: adapter.ScriptRef{
				PackagePath: "talos",
				Resource:    "validation/check-api-ready.sh",
			},
			Barrier: adapter.BarrierClusterAccessible,
			Retry:   adapter.RetryPolicy{MaxAttempts: 1, BaseBackoff: "0s"},
		},
	}
}
