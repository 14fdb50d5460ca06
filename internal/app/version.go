package app

// AdapterVersionInfo is one builtin adapter's version/phase summary for
// `ztc version`.
type AdapterVersionInfo struct {
	Name    string
	Version string
	Phase   string
}

// VersionInfo is the full report `ztc version` prints.
type VersionInfo struct {
	EngineVersion string
	Adapters      []AdapterVersionInfo
}

// ReportVersion gathers the engine version and every compiled-in adapter's
// own version and phase.
func ReportVersion() VersionInfo {
	var adapters []AdapterVersionInfo
	for _, a := range BuiltinAdapters() {
		meta := a.Metadata()
		adapters = append(adapters, AdapterVersionInfo{
			Name:    meta.Name,
			Version: meta.Version,
			Phase:   meta.Phase.String(),
		})
	}
	return VersionInfo{EngineVersion: EngineVersion, Adapters: adapters}
}
