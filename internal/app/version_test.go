package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportVersion_ListsEveryBuiltinAdapter(t *testing.T) {
	info := ReportVersion()

	assert.Equal(t, EngineVersion, info.EngineVersion)
	names := make([]string, 0, len(info.Adapters))
	for _, a := range info.Adapters {
		names = append(names, a.Name)
		assert.NotEmpty(t, a.Version)
		assert.NotEmpty(t, a.Phase)
	}
	assert.ElementsMatch(t, []string{"hetzner", "talos", "cilium"}, names)
}
