package capability

// Well-known capability identifiers. This is a closed enumeration; every
// adapter's provides[]/requires[] entries must come from this set.
const (
	CloudInfrastructure ID = "cloud-infrastructure"
	KubernetesAPI       ID = "kubernetes-api"
	CNIArtifacts        ID = "cni-artifacts"
	GatewayAPI          ID = "gateway-api"
	GitOps              ID = "gitops"
	SecretsSOPS         ID = "secrets-sops"
)

// NewBuiltinRegistry returns a registry pre-loaded with the schema for
// every well-known capability. Adding a new capability constant above
// without adding its schema here is caught by TestBuiltinRegistryComplete.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()

	r.Register(Schema{
		Capability: CloudInfrastructure,
		Fields: []Field{
			{Name: "provider", Required: true, Type: "string"},
			{Name: "region", Required: false, Type: "string"},
			{Name: "node_ids", Required: true, Type: "array"},
		},
	})

	r.Register(Schema{
		Capability: KubernetesAPI,
		Fields: []Field{
			{Name: "kubeconfig", Required: true, Type: "string"},
			{Name: "endpoint", Required: true, Type: "string"},
			{Name: "version", Required: false, Type: "string"},
		},
	})

	r.Register(Schema{
		Capability: CNIArtifacts,
		Fields: []Field{
			{Name: "pod_cidr", Required: true, Type: "string"},
			{Name: "plugin", Required: true, Type: "string"},
		},
	})

	r.Register(Schema{
		Capability: GatewayAPI,
		Fields: []Field{
			{Name: "controller", Required: true, Type: "string"},
			{Name: "gateway_class", Required: true, Type: "string"},
		},
	})

	r.Register(Schema{
		Capability: GitOps,
		Fields: []Field{
			{Name: "repository", Required: true, Type: "string"},
			{Name: "branch", Required: false, Type: "string"},
		},
	})

	r.Register(Schema{
		Capability: SecretsSOPS,
		Fields: []Field{
			{Name: "key_source", Required: true, Type: "string"},
		},
	})

	return r
}

// AllIDs lists every well-known capability, in declaration order, for
// tests and for CLI help text.
func AllIDs() []ID {
	return []ID{
		CloudInfrastructure,
		KubernetesAPI,
		CNIArtifacts,
		GatewayAPI,
		GitOps,
		SecretsSOPS,
	}
}
