// Package lock implements the lock file and hasher (C9): streaming,
// deterministic content hashing of both the artifact tree and the
// platform config, plus drift detection against a previously written lock.
package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

const chunkSize = 64 * 1024

// AdapterRecord is the per-adapter summary stored in the lock.
type AdapterRecord struct {
	Version  string   `json:"version" yaml:"version"`
	Phase    string   `json:"phase" yaml:"phase"`
	Provides []string `json:"provides" yaml:"provides"`
	Requires []string `json:"requires" yaml:"requires"`
}

// Lock is the content-addressed record written to platform/lock.json.
type Lock struct {
	EngineVersion string                   `json:"engine_version" yaml:"engine_version"`
	PlatformHash  string                   `json:"platform_hash" yaml:"platform_hash"`
	ArtifactsHash string                   `json:"artifacts_hash" yaml:"artifacts_hash"`
	GeneratedAt   string                   `json:"generated_at" yaml:"generated_at"`
	Adapters      map[string]AdapterRecord `json:"adapters" yaml:"adapters"`
	PartialOf     []string                 `json:"partial_of,omitempty" yaml:"partial_of,omitempty"`
}

// HashFile returns the SHA-256 of a file's contents, streamed in 64 KiB
// chunks so hashing large manifests never requires loading them whole.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ArtifactsHash computes SHA-256 over the multiset of (relative path,
// SHA-256(content)) pairs, sorted by path. root is the generated/ tree
// root; paths are reported relative to it so the hash is independent of
// where the tree lives on disk.
func ArtifactsHash(root string) (string, error) {
	type entry struct {
		relPath  string
		fileHash string
	}
	var entries []entry

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		fh, err := HashFile(path)
		if err != nil {
			return err
		}
		entries = append(entries, entry{relPath: filepath.ToSlash(rel), fileHash: fh})
		return nil
	})
	if err != nil {
		return "", ztcerr.Wrap(ztcerr.HashMismatchArtifacts, err, "walking artifact tree for hashing")
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].relPath < entries[j].relPath })

	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s\x00%s\n", e.relPath, e.fileHash)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// PlatformHash computes SHA-256 over the canonical serialization of the
// validated platform config: decoded, then re-marshaled through
// sigs.k8s.io/yaml (which round-trips via JSON, sorting map keys), so
// formatting differences in the source YAML never change the hash.
func PlatformHash(config any) (string, error) {
	canon, err := yaml.Marshal(config)
	if err != nil {
		return "", ztcerr.Wrap(ztcerr.HashMismatchPlatform, err, "canonicalizing platform config")
	}

	h := sha256.New()
	buf := canon
	for len(buf) > 0 {
		n := len(buf)
		if n > chunkSize {
			n = chunkSize
		}
		h.Write(buf[:n])
		buf = buf[n:]
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Build assembles a Lock from the computed hashes and the resolved plan.
func Build(engineVersion, platformHash, artifactsHash string, plan []string, descriptors map[string]adapter.Descriptor, partialOf []string) Lock {
	records := make(map[string]AdapterRecord, len(plan))
	for _, name := range plan {
		d := descriptors[name]
		provides := make([]string, 0, len(d.Provides))
		for _, c := range d.Provides {
			provides = append(provides, string(c))
		}
		requires := make([]string, 0, len(d.Requires))
		for _, c := range d.Requires {
			requires = append(requires, string(c))
		}
		records[name] = AdapterRecord{
			Version:  d.Version,
			Phase:    d.Phase.String(),
			Provides: provides,
			Requires: requires,
		}
	}
	return Lock{
		EngineVersion: engineVersion,
		PlatformHash:  platformHash,
		ArtifactsHash: artifactsHash,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		Adapters:      records,
		PartialOf:     partialOf,
	}
}

// DriftKind classifies what validate() found different from the lock.
type DriftKind string

const (
	DriftNone              DriftKind = ""
	DriftArtifactsModified DriftKind = "ArtifactsModified"
	DriftPlatformModified  DriftKind = "PlatformModified"
	DriftEngineMismatch    DriftKind = "EngineMismatch"
)

// Validate recomputes hashes for the live tree and config and compares
// them against a previously written lock, returning the first drift kind
// found: an engine mismatch is checked first (it makes the other hashes
// meaningless to compare against), then platform, then artifacts.
func Validate(recorded Lock, runningEngineVersion string, liveConfig any, liveTreeRoot string) (DriftKind, error) {
	if isNewerVersion(recorded.EngineVersion, runningEngineVersion) {
		return DriftEngineMismatch, ztcerr.New(ztcerr.EngineVersionTooNew,
			fmt.Sprintf("lock was generated by engine %s, newer than the running engine %s", recorded.EngineVersion, runningEngineVersion)).
			WithRemediation("upgrade the ztc binary, or re-render the platform with the current binary")
	}

	platformHash, err := PlatformHash(liveConfig)
	if err != nil {
		return "", err
	}
	if platformHash != recorded.PlatformHash {
		return DriftPlatformModified, ztcerr.New(ztcerr.HashMismatchPlatform,
			"platform.yaml has changed since the last render").
			WithRemediation("run `ztc render` to regenerate the artifact tree and lock")
	}

	artifactsHash, err := ArtifactsHash(liveTreeRoot)
	if err != nil {
		return "", err
	}
	if artifactsHash != recorded.ArtifactsHash {
		return DriftArtifactsModified, ztcerr.New(ztcerr.HashMismatchArtifacts,
			"the generated tree has been modified since the last render").
			WithRemediation("run `ztc render` to regenerate the artifact tree and lock")
	}

	return DriftNone, nil
}

// isNewerVersion compares the MAJOR, MINOR and PATCH numbers of the engine's
// own "vMAJOR.MINOR.PATCH" releases in turn; it treats any unparsable
// version as not-newer so an odd version string never makes validation
// fail.
func isNewerVersion(lockVersion, runningVersion string) bool {
	lv, lok := parseSemver(lockVersion)
	rv, rok := parseSemver(runningVersion)
	if !lok || !rok {
		return false
	}
	for i := 0; i < 3; i++ {
		if lv[i] != rv[i] {
			return lv[i] > rv[i]
		}
	}
	return false
}

func parseSemver(v string) ([3]int, bool) {
	var out [3]int
	v = trimVPrefix(v)
	n, err := fmt.Sscanf(v, "%d.%d.%d", &out[0], &out[1], &out[2])
	return out, err == nil && n == 3
}

func trimVPrefix(v string) string {
	if len(v) > 0 && (v[0] == 'v' || v[0] == 'V') {
		return v[1:]
	}
	return v
}
