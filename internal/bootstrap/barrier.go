package bootstrap

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/capability"
	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

// DefaultBarrierPollInterval is how often a barrier is re-probed while
// waiting for it to become ready.
const DefaultBarrierPollInterval = 2 * time.Second

// DefaultBarrierDeadline is the default bounded wait for a barrier.
const DefaultBarrierDeadline = 30 * time.Minute

// Prober evaluates whether a barrier's precondition currently holds.
// single-shot, non-blocking: the wait loop in WaitFor calls it repeatedly.
type Prober interface {
	Probe(ctx context.Context, kind adapter.BarrierKind, snap adapter.Snapshot, rescueHost string) (bool, error)
}

// ClusterProber evaluates barriers against real infrastructure: TCP
// reachability for rescue-mode hosts, and client-go discovery/clientset
// calls against whatever kubeconfig the kubernetes-api capability
// published into the snapshot.
type ClusterProber struct {
	DialTimeout time.Duration
}

// NewClusterProber returns a ClusterProber with sane default timeouts.
func NewClusterProber() *ClusterProber {
	return &ClusterProber{DialTimeout: 5 * time.Second}
}

func (p *ClusterProber) Probe(ctx context.Context, kind adapter.BarrierKind, snap adapter.Snapshot, rescueHost string) (bool, error) {
	switch kind {
	case adapter.BarrierLocal, adapter.BarrierNone:
		return true, nil
	case adapter.BarrierRescueReady:
		return p.probeTCP(ctx, rescueHost)
	case adapter.BarrierClusterAccessible:
		return p.probeDiscovery(ctx, snap)
	case adapter.BarrierClusterInstalled:
		return p.probeDiscovery(ctx, snap)
	case adapter.BarrierCNIReady:
		return p.probeNodesReady(ctx, snap)
	case adapter.BarrierGitOpsReady:
		_, ok := snap.GetCapability(capability.GitOps)
		return ok, nil
	default:
		return false, ztcerr.New(ztcerr.ConfigInvalid, "unknown barrier kind "+string(kind))
	}
}

func (p *ClusterProber) probeTCP(ctx context.Context, hostPort string) (bool, error) {
	if hostPort == "" {
		return false, nil
	}
	d := net.Dialer{Timeout: p.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", hostPort)
	if err != nil {
		return false, nil // unreachable is "not yet ready", not a hard error
	}
	conn.Close()
	return true, nil
}

func (p *ClusterProber) clientset(snap adapter.Snapshot) (*kubernetes.Clientset, error) {
	kubeCap, ok := snap.GetCapability(capability.KubernetesAPI)
	if !ok {
		return nil, fmt.Errorf("no kubernetes-api capability published yet")
	}
	kubeconfig, _ := kubeCap["kubeconfig"].(string)
	if kubeconfig == "" {
		return nil, fmt.Errorf("kubernetes-api capability has no kubeconfig field")
	}
	restCfg, err := clientcmd.RESTConfigFromKubeConfig([]byte(kubeconfig))
	if err != nil {
		return nil, err
	}
	restCfg.Timeout = p.DialTimeout
	return kubernetes.NewForConfig(restCfg)
}

func (p *ClusterProber) probeDiscovery(ctx context.Context, snap adapter.Snapshot) (bool, error) {
	cs, err := p.clientset(snap)
	if err != nil {
		return false, nil
	}
	dc := discovery.NewDiscoveryClient(cs.RESTClient())
	if _, err := dc.ServerVersion(); err != nil {
		return false, nil
	}
	return true, nil
}

func (p *ClusterProber) probeNodesReady(ctx context.Context, snap adapter.Snapshot) (bool, error) {
	cs, err := p.clientset(snap)
	if err != nil {
		return false, nil
	}
	nodes, err := cs.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil || len(nodes.Items) == 0 {
		return false, nil
	}

	// Check readiness of all nodes concurrently; this is auxiliary
	// fan-out within a single barrier evaluation, not cross-stage
	// parallelism, so it doesn't violate the single-threaded ordering
	// contract.
	g, _ := errgroup.WithContext(ctx)
	ready := make([]bool, len(nodes.Items))
	for i, n := range nodes.Items {
		i, n := i, n
		g.Go(func() error {
			for _, cond := range n.Status.Conditions {
				if cond.Type == "Ready" && cond.Status == "True" {
					ready[i] = true
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range ready {
		if !r {
			return false, nil
		}
	}
	return true, nil
}

// WaitFor blocks until the barrier is ready or the deadline elapses,
// returning BarrierTimeout on elapse.
func WaitFor(ctx context.Context, prober Prober, kind adapter.BarrierKind, snap adapter.Snapshot, rescueHost, stageName string, deadline time.Duration, pollInterval time.Duration) error {
	if kind == adapter.BarrierLocal || kind == adapter.BarrierNone {
		return nil
	}
	if deadline <= 0 {
		deadline = DefaultBarrierDeadline
	}
	if pollInterval <= 0 {
		pollInterval = DefaultBarrierPollInterval
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ready, err := prober.Probe(deadlineCtx, kind, snap, rescueHost)
		if err != nil {
			return ztcerr.Wrap(ztcerr.BarrierTimeout, err, "evaluating barrier "+string(kind)+" for stage "+stageName)
		}
		if ready {
			return nil
		}

		select {
		case <-deadlineCtx.Done():
			return ztcerr.New(ztcerr.BarrierTimeout,
				fmt.Sprintf("barrier %s for stage %s did not become ready within %s", kind, stageName, deadline)).
				WithDetail("stage", stageName).WithDetail("barrier", string(kind))
		case <-ticker.C:
		}
	}
}
