// Package checkpoint persists batch progress so an interrupted run can resume
// without reprocessing finished parcels.
package checkpoint

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
)

// FileName is the checkpoint file written into the output directory.
const FileName = "checkpoint.json"

// state is the on-disk form.
type state struct {
	RunID     string                     `json:"run_id"`
	Project   string                     `json:"project_name"`
	UpdatedAt time.Time                  `json:"updated_at"`
	Processed map[string]bool            `json:"processed"`
	Failed    map[string]string          `json:"failed"`
	Summaries map[string]json.RawMessage `json:"summaries"`
}

// Checkpoint tracks processed and failed parcel IDs with their summaries.
// It is safe for concurrent use; every mark is written through to disk.
type Checkpoint struct {
	mu    sync.Mutex
	path  string
	state state
}

// Open loads the checkpoint at path, or starts an empty one if the file does
// not exist.
func Open(path, project string) (*Checkpoint, error) {
	c := &Checkpoint{
		path: path,
		state: state{
			Project:   project,
			Processed: map[string]bool{},
			Failed:    map[string]string{},
			Summaries: map[string]json.RawMessage{},
		},
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, cerrors.Wrapf(cerrors.KindIO, err, "reading checkpoint %s", path)
	}
	if err := json.Unmarshal(data, &c.state); err != nil {
		return nil, cerrors.Wrapf(cerrors.KindIO, err, "parsing checkpoint %s", path)
	}
	if c.state.Processed == nil {
		c.state.Processed = map[string]bool{}
	}
	if c.state.Failed == nil {
		c.state.Failed = map[string]string{}
	}
	if c.state.Summaries == nil {
		c.state.Summaries = map[string]json.RawMessage{}
	}
	return c, nil
}

// Path returns the checkpoint file path.
func (c *Checkpoint) Path() string { return c.path }

// SetRunID stamps the run that last wrote the checkpoint.
func (c *Checkpoint) SetRunID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.RunID = id
}

// RunID returns the run that last wrote the checkpoint.
func (c *Checkpoint) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.RunID
}

// Done reports whether id finished in an earlier run. Failed parcels are
// not done and are retried.
func (c *Checkpoint) Done(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Processed[id]
}

// Processed returns the processed IDs in sorted order.
func (c *Checkpoint) Processed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.state.Processed)
}

// Failed returns the failed IDs and their reasons.
func (c *Checkpoint) Failed() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.state.Failed))
	for k, v := range c.state.Failed {
		out[k] = v
	}
	return out
}

// MarkProcessed records id as finished along with its summary.
func (c *Checkpoint) MarkProcessed(id string, summary any) error {
	return c.mark(id, summary, func(s *state) {
		s.Processed[id] = true
		delete(s.Failed, id)
	})
}

// MarkFailed records id as failed with a reason and its summary.
func (c *Checkpoint) MarkFailed(id, reason string, summary any) error {
	return c.mark(id, summary, func(s *state) {
		s.Failed[id] = reason
		delete(s.Processed, id)
	})
}

func (c *Checkpoint) mark(id string, summary any, update func(*state)) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return cerrors.Wrapf(cerrors.KindIO, err, "encoding summary for %s", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	update(&c.state)
	c.state.Summaries[id] = raw
	return c.save()
}

// Summary decodes the stored summary of id into v.
func (c *Checkpoint) Summary(id string, v any) (bool, error) {
	c.mu.Lock()
	raw, ok := c.state.Summaries[id]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, cerrors.Wrapf(cerrors.KindIO, err, "decoding summary for %s", id)
	}
	return true, nil
}

// save writes the state through a temp file so a crash never leaves a
// truncated checkpoint. Callers hold c.mu.
func (c *Checkpoint) save() error {
	c.state.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(c.state, "", "  ")
	if err != nil {
		return cerrors.Wrap(cerrors.KindIO, "encoding checkpoint", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return cerrors.Wrapf(cerrors.KindIO, err, "creating %s", filepath.Dir(c.path))
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return cerrors.Wrapf(cerrors.KindIO, err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return cerrors.Wrapf(cerrors.KindIO, err, "writing %s", c.path)
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, ok := range m {
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
