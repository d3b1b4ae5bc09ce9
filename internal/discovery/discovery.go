// Package discovery finds workflow binaries on disk, probes each one for
// its self-described metadata, and assembles the result into an
// id-addressable catalog.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/relaykit/conductor/internal/core"
)

// MetadataFlag is the single argument a candidate is probed with.
const MetadataFlag = "--workflow-metadata"

// hashSuffix matches a trailing dash followed by 10+ hex characters, the
// shape a content-addressed build artifact's filename carries.
var hashSuffix = regexp.MustCompile(`-[0-9a-fA-F]{10,}$`)

// SearchPaths returns the discovery search directories in priority order:
// the runtime's own executable directory; that directory's parent when it
// is named "deps"; and the per-user workflow directory, when homeDir is
// non-empty. Callers skip directories that don't exist; SearchPaths itself
// does no filesystem access beyond string manipulation.
func SearchPaths(exePath, homeDir string) []string {
	exeDir := filepath.Dir(exePath)
	paths := []string{exeDir}
	if filepath.Base(exeDir) == "deps" {
		paths = append(paths, filepath.Dir(exeDir))
	}
	if homeDir != "" {
		paths = append(paths, filepath.Join(homeDir, ".workflow-manager", "workflows"))
	}
	return paths
}

// isCandidate applies the candidate filter to one directory entry. On
// Windows the required ".exe" extension is stripped before the no-dot and
// hash-suffix checks run against the remaining stem; on Unix those checks
// run against the full filename and the executable bit is required instead.
func isCandidate(path string, windows bool, selfName string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}

	name := filepath.Base(path)
	if name == selfName {
		return false, nil
	}

	stem := name
	if windows {
		if !strings.EqualFold(filepath.Ext(name), ".exe") {
			return false, nil
		}
		stem = strings.TrimSuffix(name, filepath.Ext(name))
	} else if info.Mode()&0o111 == 0 {
		return false, nil
	}

	if strings.Contains(stem, ".") {
		return false, nil
	}
	if hashSuffix.MatchString(stem) {
		return false, nil
	}
	return true, nil
}

// Probe runs one candidate with MetadataFlag, capturing stdout and
// discarding stderr. It returns an error for any failure mode a candidate
// can trip: non-zero exit, invalid UTF-8, malformed JSON, or metadata that
// fails its own Validate. Every such error is a silent per-candidate
// rejection to the caller (Scan); Probe itself just reports it.
func Probe(ctx context.Context, path string) (core.FullWorkflowMetadata, error) {
	cmd := exec.CommandContext(ctx, path, MetadataFlag)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Run(); err != nil {
		return core.FullWorkflowMetadata{}, err
	}
	if !utf8.Valid(stdout.Bytes()) {
		return core.FullWorkflowMetadata{}, core.ErrProtocol("workflow metadata probe produced non-UTF-8 stdout")
	}

	var meta core.FullWorkflowMetadata
	if err := json.Unmarshal(stdout.Bytes(), &meta); err != nil {
		return core.FullWorkflowMetadata{}, err
	}
	if err := meta.Validate(); err != nil {
		return core.FullWorkflowMetadata{}, err
	}
	return meta, nil
}

// Scanner holds the inputs a scan needs that discovery itself cannot
// observe in a test-friendly way: the runtime's own executable path and
// the user's home directory. The composition root fills these from
// os.Executable/os.UserHomeDir; tests fill them with fixture paths.
type Scanner struct {
	ExePath string
	HomeDir string
}

// Scan walks every search path, probes every candidate, and returns the
// resulting id -> DiscoveredWorkflow catalog. Entries are visited in
// search-path order and, within a directory, in filename order, so that
// when two candidates expose the same id the later one — per the
// last-discovered-wins rule — overwrites the earlier in the returned map.
func (s Scanner) Scan(ctx context.Context) map[string]core.DiscoveredWorkflow {
	selfName := filepath.Base(s.ExePath)
	windows := runtime.GOOS == "windows"

	catalog := make(map[string]core.DiscoveredWorkflow)
	for _, dir := range SearchPaths(s.ExePath, s.HomeDir) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue // non-existent (or unreadable) search paths are skipped silently
		}

		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		sort.Strings(names)

		for _, name := range names {
			full := filepath.Join(dir, name)
			ok, err := isCandidate(full, windows, selfName)
			if err != nil || !ok {
				continue
			}
			meta, err := Probe(ctx, full)
			if err != nil {
				continue
			}
			catalog[meta.ID] = core.DiscoveredWorkflow{FullWorkflowMetadata: meta, Path: full}
		}
	}
	return catalog
}

// Catalog is the concurrency-safe, atomically-replaceable holder for a
// scan's result. Refresh swaps the whole map in one critical section so a
// concurrent List/Get never observes a half-updated catalog.
type Catalog struct {
	mu   sync.RWMutex
	data map[string]core.DiscoveredWorkflow
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{data: make(map[string]core.DiscoveredWorkflow)}
}

// Replace atomically swaps the catalog's contents.
func (c *Catalog) Replace(next map[string]core.DiscoveredWorkflow) {
	c.mu.Lock()
	c.data = next
	c.mu.Unlock()
}

// Refresh scans with s and replaces the catalog's contents with the result.
func (c *Catalog) Refresh(ctx context.Context, s Scanner) {
	c.Replace(s.Scan(ctx))
}

// Get looks up a discovered workflow by id.
func (c *Catalog) Get(id string) (core.DiscoveredWorkflow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	wf, ok := c.data[id]
	return wf, ok
}

// List returns every discovered workflow, sorted by id for a stable order.
func (c *Catalog) List() []core.DiscoveredWorkflow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.DiscoveredWorkflow, 0, len(c.data))
	for _, wf := range c.data {
		out = append(out, wf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BuildArgv synthesizes the argument vector for a discovered workflow from
// a parameter map keyed by field name: fields are visited in declaration
// order, and each one with a non-empty supplied value contributes its
// cli_arg followed by the value as two separate argv entries. No shell
// quoting or concatenation is performed.
func BuildArgv(wf core.DiscoveredWorkflow, params core.ParamMap) []string {
	argv := make([]string, 0, len(wf.Fields)*2)
	for _, field := range wf.Fields {
		value, ok := params[field.Name]
		if !ok || value == "" {
			continue
		}
		argv = append(argv, field.CLIArg, value)
	}
	return argv
}
