// Package cilium implements the built-in CNI adapter: installs Cilium
// into a cluster already exposing the kubernetes-api capability, and
// emits cni-artifacts for adapters layered on top (gateway-api, gitops).
package cilium

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

const Name = "cilium"

// Adapter installs Cilium as the cluster CNI.
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
		DisplayName:       "Cilium",
		Version:           "1.0.0",
		SupportedVersions: []string{"1.0.0"},
		Phase:             adapter.PhaseNetworking,
		SelectionGroup:    "cni",
		Provides:          []capability.ID{capability.CNIArtifacts},
		Requires:          []capability.ID{capability.KubernetesAPI},
	}
}

func (a *Adapter) InputSchema() capability.Schema {
	return capability.Schema{
		Capability: capability.ID(Name),
		Fields: []capability.Field{
			{Name: "cluster_pool_cidr", Required: false, Type: "string"},
		},
	}
}

func (a *Adapter) Render(ctx context.Context, snap adapter.Snapshot, cfg map[string]any) (adapter.Output, error) {
	if _, ok := snap.GetCapability(capability.KubernetesAPI); !ok {
		return adapter.Output{}, fmt.Errorf("kubernetes-api capability not available at render time")
	}

	cidr, _ := cfg["cluster_pool_cidr"].(string)
	if cidr == "" {
		cidr = "10.244.0.0/16"
	}

	helmValues := map[string]any{
		"apiVersion": "helm.cattle.io/v1",
		"kind":       "HelmChartConfig",
		"metadata": map[string]any{
			"name": "cilium",
		},
		"spec": map[string]any{
			"valuesContent": map[string]any{
				"ipam": map[string]any{
					"operator": map[string]any{
						"clusterPoolIPv4PodCIDRList": []string{cidr},
					},
				},
				"kubeProxyReplacement": true,
			},
		},
	}
	manifest, err := yaml.Marshal(helmValues)
	if err != nil {
		return adapter.Output{}, fmt.Errorf("marshaling cilium helm values: %w", err)
	}

	return adapter.Output{
		Manifests: map[string][]byte{
			"manifests/helm-values.yaml": manifest,
		},
		CapabilityData: map[capability.ID]map[string]any{
			capability.CNIArtifacts: {
				"pod_cidr": cidr,
				"plugin":   "cilium",
			},
		},
	}, nil
}

func (a *Adapter) PreWorkStages() []adapter.StageSpec { return nil }

func (a *Adapter) BootstrapStages() []adapter.StageSpec {
	return []adapter.StageSpec{
		{
			Name:        "cilium-install",
			Description: "Install Cilium into the cluster.",
			Script: adapter.ScriptRef{
				PackagePath: "cilium",
				Resource:    "bootstrap/install-cilium.sh",
			},
			CacheKey: "cilium-install",
			Barrier:  adapter.BarrierClusterAccessible,
			Retry:    adapter.RetryPolicy{MaxAttempts: 3, BaseBackoff: "5s"},
		},
	}
}

func (a *Adapter) PostWorkStages() []adapter.StageSpec { return nil }

func (a *Adapter) ValidationStages() []adapter.StageSpec {
	return []adapter.StageSpec{
		{
			Name:        "cilium-check-cni-ready",
			Description: "Wait for Cilium to report all components healthy.",
			Script: adapter.ScriptRef{
				PackagePath: "cilium",
				Resource:    "validation/check-cni-ready.sh",
			},
			Barrier: adapter.BarrierCNIReady,
			Retry:   adapter.RetryPolicy{MaxAttempts: 1, BaseBackoff: "0s"},
		},
	}
}
