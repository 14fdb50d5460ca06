// Package hetzner implements the built-in cloud-infrastructure adapter
// backed by Hetzner Cloud: it provisions servers via the hcloud CLI and
// emits the cloud-infrastructure capability consumed by OS-layer adapters
// such as talos.
package hetzner

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

const Name = "hetzner"

// Adapter provisions bare-metal/cloud servers on Hetzner Cloud.
type Adapter struct{}

// New returns the hetzner adapter.
func New() *Adapter { return &Adapter{} }

// Tree satisfies extractor.ScriptSource, rooted so that resource paths in
// stage script references are relative to "scripts/".
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
		DisplayName:       "Hetzner Cloud",
		Version:           "1.0.0",
		SupportedVersions: []string{"1.0.0"},
		Phase:             adapter.PhaseFoundation,
		SelectionGroup:    "cloud-infrastructure",
		Provides:          []capability.ID{capability.CloudInfrastructure},
	}
}

func (a *Adapter) InputSchema() capability.Schema {
	return capability.Schema{
		Capability: capability.ID(Name),
		Fields: []capability.Field{
			{Name: "hcloud_token", Required: true, Type: "string"},
			{Name: "region", Required: true, Type: "string"},
			{Name: "server_type", Required: false, Type: "string"},
			{Name: "node_count", Required: false, Type: "number"},
		},
	}
}

func (a *Adapter) Render(ctx context.Context, snap adapter.Snapshot, cfg map[string]any) (adapter.Output, error) {
	region, _ := cfg["region"].(string)
	serverType, _ := cfg["server_type"].(string)
	if serverType == "" {
		serverType = "cx22"
	}
	nodeCount := 3
	if nc, ok := cfg["node_count"].(float64); ok {
		nodeCount = int(nc)
	}

	machineConfig := map[string]any{
		"apiVersion": "infrastructure.ztc.io/v1alpha1",
		"kind":       "HetznerMachinePool",
		"metadata": map[string]any{
			"name": "ztc-node-pool",
		},
		"spec": map[string]any{
			"region":      region,
			"server_type": serverType,
			"node_count":  nodeCount,
		},
	}
	manifest, err := yaml.Marshal(machineConfig)
	if err != nil {
		return adapter.Output{}, fmt.Errorf("marshaling machine pool manifest: %w", err)
	}

	nodeIDs := make([]any, nodeCount)
	for i := 0; i < nodeCount; i++ {
		nodeIDs[i] = fmt.Sprintf("ztc-node-%d", i+1)
	}

	return adapter.Output{
		Manifests: map[string][]byte{
			"manifests/machine-pool.yaml": manifest,
		},
		CapabilityData: map[capability.ID]map[string]any{
			capability.CloudInfrastructure: {
				"provider": "hetzner",
				"region":   region,
				"node_ids": nodeIDs,
			},
		},
	}, nil
}

func (a *Adapter) PreWorkStages() []adapter.StageSpec {
	return []adapter.StageSpec{
		{
			Name:        "hetzner-check-credentials",
			Description: "Verify the hcloud API token and CLI availability.",
			Script: adapter.ScriptRef{
				PackagePath: "hetzner",
				Resource:    "pre-work/check-credentials.sh",
			},
			CacheKey: "hetzner-check-credentials",
			Barrier:  adapter.BarrierLocal,
			Retry:    adapter.RetryPolicy{MaxAttempts: 1, BaseBackoff: "0s"},
		},
	}
}

func (a *Adapter) BootstrapStages() []adapter.StageSpec {
	return []adapter.StageSpec{
		{
			Name:        "hetzner-provision-servers",
			Description: "Create the Hetzner Cloud servers backing the cluster.",
			Script: adapter.ScriptRef{
				PackagePath: "hetzner",
				Resource:    "bootstrap/provision-servers.sh",
			},
			CacheKey: "hetzner-provision-servers",
			Barrier:  adapter.BarrierLocal,
			Retry:    adapter.RetryPolicy{MaxAttempts: 3, BaseBackoff: "5s"},
		},
	}
}

func (a *Adapter) PostWorkStages() []adapter.StageSpec { return nil }

func (a *Adapter) ValidationStages() []adapter.StageSpec {
	return []adapter.StageSpec{
		{
			Name:        "hetzner-check-servers-reachable",
			Description: "Confirm every provisioned server answers on its public IP.",
			Script: adapter.ScriptRef{
				PackagePath: "hetzner",
				Resource:    "validation/check-servers-reachable.sh",
			},
			Barrier: adapter.BarrierLocal,
			Retry:   adapter.RetryPolicy{MaxAttempts: 1, BaseBackoff: "0s"},
		},
	}
}
