package app

import (
	"os"
	"path/filepath"

	"github.com/arun4infra/zerotouch-engine/internal/extractor"
	"github.com/arun4infra/zerotouch-engine/internal/pipeline"
	"github.com/arun4infra/zerotouch-engine/internal/template"
	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

const ejectReadmeTemplate = `# {{ .AppName }} bootstrap bundle

Ejected from a ztc render at engine version {{ .EngineVersion }}.

This directory is self-contained: it carries every script a bootstrap run
would extract into a secure workspace, plus the pipeline document describing
stage order, barriers, and retry policy. Nothing here depends on the ztc
binary being present on the target host.

## Contents

- ` + "`pipeline.yaml`" + ` — the rendered stage pipeline, one entry per lifecycle stage
- ` + "`scripts/`" + ` — every stage's script, grouped by adapter, preserving relative layout
- ` + "`stages`" + `: {{ .StageCount }} across {{ .AdapterCount }} adapters: {{ .AdapterNames }}

## Running a stage by hand

Each script reads its input from the ` + "`ZTC_CONTEXT_FILE`" + ` environment variable,
a JSON file with the fields listed under that stage's ` + "`context`" + ` key in
pipeline.yaml. To run one manually:

` + "```" + `
export ZTC_CONTEXT_FILE=/tmp/ctx.json
echo '{"...": "..."}' > "$ZTC_CONTEXT_FILE"
./scripts/<adapter>/<resource>
` + "```" + `
`

type ejectReadmeData struct {
	AppName       string
	EngineVersion string
	StageCount    int
	AdapterCount  int
	AdapterNames  string
}

// EjectPlatform copies the last render's pipeline and every referenced
// script into outputDir, along with a README, so the bootstrap can run on a
// host that never has the ztc binary installed.
func EjectPlatform(cfg *Config, outputDir string) error {
	data, err := os.ReadFile(cfg.PipelinePath())
	if err != nil {
		return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "reading rendered pipeline; run `ztc render` first")
	}
	doc, err := pipeline.UnmarshalDocument(data)
	if err != nil {
		return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "parsing rendered pipeline")
	}

	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "creating eject output directory")
	}

	if _, err := extractor.Extract(filepath.Join(outputDir, "scripts"), doc, builtinScriptSources()); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(outputDir, "pipeline.yaml"), data, 0o640); err != nil {
		return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "writing pipeline document to eject bundle")
	}

	readme, err := renderEjectReadme(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outputDir, "README.md"), []byte(readme), 0o640); err != nil {
		return ztcerr.Wrap(ztcerr.ConfigInvalid, err, "writing eject README")
	}

	return nil
}

func renderEjectReadme(doc pipeline.Document) (string, error) {
	adapters := make(map[string]bool)
	var names string
	for _, s := range doc.Stages {
		if !adapters[s.Adapter] {
			adapters[s.Adapter] = true
			if names != "" {
				names += ", "
			}
			names += s.Adapter
		}
	}

	env := template.New()
	return env.RenderGoTemplate("eject", ejectReadmeTemplate, ejectReadmeData{
		AppName:       "ztc",
		EngineVersion: EngineVersion,
		StageCount:    len(doc.Stages),
		AdapterCount:  len(adapters),
		AdapterNames:  names,
	})
}
