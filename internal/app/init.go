package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

// InitPlatform writes a scaffold platform.yaml for the given adapters,
// organization, and app name, one field per line commented as required or
// optional per that adapter's input schema. It refuses to overwrite an
// existing platform.yaml.
func InitPlatform(cfg *Config, organization, appName string, adapterNames []string) error {
	path := cfg.PlatformConfigPath()
	if _, err := os.Stat(path); err == nil {
		return ztcerr.New(ztcerr.ConfigInvalid, "platform.yaml already exists at "+path).
			WithRemediation("remove it first, or run ztc in a different --platform-dir")
	}

	registry, err := NewAdapterRegistry()
	if err != nil {
		return err
	}
	adapters, err := registry.Select(adapterNames)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.PlatformDir, 0o750); err != nil {
		return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "creating platform directory")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "version: \"1\"\n")
	fmt.Fprintf(&b, "platform:\n")
	fmt.Fprintf(&b, "  organization: %q\n", organization)
	fmt.Fprintf(&b, "  app_name: %q\n", appName)
	fmt.Fprintf(&b, "adapters:\n")
	for _, a := range adapters {
		meta := a.Metadata()
		fmt.Fprintf(&b, "  %s:\n", meta.Name)
		schema := a.InputSchema()
		if len(schema.Fields) == 0 {
			fmt.Fprintf(&b, "    {} # no configuration required\n")
			continue
		}
		for _, f := range schema.Fields {
			requirement := "optional"
			if f.Required {
				requirement = "required"
			}
			fmt.Fprintf(&b, "    %s: # %s, %s\n", f.Name, f.Type, requirement)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o640); err != nil {
		return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "writing platform.yaml scaffold")
	}
	return nil
}
