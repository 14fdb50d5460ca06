// Package template implements the shared templating environment (C5): one
// root created per render, with each adapter's templates loaded under a
// namespace equal to the adapter name so peers can be referenced
// explicitly. Built on text/template + sprig with missingkey=error so a
// template referencing an absent value fails loudly instead of rendering
// "<no value>".
package template

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

// Environment is the per-render templating root. Safe for concurrent
// namespace registration, though in practice render runs adapters
// sequentially.
type Environment struct {
	mu         sync.RWMutex
	root       *template.Template
	namespaces map[string]*template.Template
}

// New returns an empty templating environment.
func New() *Environment {
	return &Environment{namespaces: make(map[string]*template.Template)}
}

// Namespace returns (creating if necessary) the named adapter's template
// namespace, pre-loaded with sprig's function map and configured to error
// on any reference to an undefined key rather than silently rendering
// "<no value>". Every namespace belongs to the environment's one template
// set, so a template can invoke a peer's by its qualified name.
func (e *Environment) Namespace(name string) *template.Template {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.namespaces[name]; ok {
		return t
	}
	if e.root == nil {
		e.root = template.New("").Funcs(sprig.TxtFuncMap()).Option("missingkey=error")
	}
	t := e.root.New(name)
	e.namespaces[name] = t
	return t
}

// LoadTemplate parses body as a named template within an adapter's
// namespace, so adapters can later reference peer templates as
// "{{ template \"othernamespace/name\" . }}" when that rarely-used
// cross-adapter reference is needed.
func (e *Environment) LoadTemplate(namespace, name, body string) error {
	ns := e.Namespace(namespace)
	qualified := namespace + "/" + name
	if _, err := ns.New(qualified).Parse(body); err != nil {
		return ztcerr.Wrap(ztcerr.RenderFailure, err, fmt.Sprintf("parsing template %q in namespace %q", name, namespace))
	}
	return nil
}

// RenderGoTemplate renders a one-off template body against data without
// registering it in any namespace. Used for adapter-local templates that
// are never referenced by name from a peer.
func (e *Environment) RenderGoTemplate(namespace string, body string, data any) (string, error) {
	t, err := template.New(namespace + "/inline").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(body)
	if err != nil {
		return "", ztcerr.Wrap(ztcerr.RenderFailure, err, "parsing inline template")
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", ztcerr.Wrap(ztcerr.RenderFailure, err, "executing inline template")
	}
	return buf.String(), nil
}

// RenderNamed renders a previously loaded template by its qualified name
// ("namespace/name").
func (e *Environment) RenderNamed(namespace, name string, data any) (string, error) {
	ns := e.Namespace(namespace)
	qualified := namespace + "/" + name
	var buf bytes.Buffer
	if err := ns.ExecuteTemplate(&buf, qualified, data); err != nil {
		return "", ztcerr.Wrap(ztcerr.RenderFailure, err, fmt.Sprintf("executing template %q", qualified))
	}
	return buf.String(), nil
}
