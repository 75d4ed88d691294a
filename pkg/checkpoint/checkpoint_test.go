package checkpoint

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
)

type summary struct {
	ParcelID string  `json:"numlote"`
	Floors   int     `json:"floors"`
	FAR      float64 `json:"far"`
}

func TestOpenMissingStartsEmpty(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "out", FileName), "demo")
	require.NoError(t, err)
	assert.Empty(t, c.Processed())
	assert.Empty(t, c.Failed())
	assert.False(t, c.Done("L001"))
}

func TestResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", FileName)
	c, err := Open(path, "demo")
	require.NoError(t, err)
	c.SetRunID("run-1")

	require.NoError(t, c.MarkProcessed("L001", summary{"L001", 5, 3.75}))
	require.NoError(t, c.MarkFailed("L004", "max_height must be >= 0", summary{ParcelID: "L004"}))

	reopened, err := Open(path, "demo")
	require.NoError(t, err)
	assert.Equal(t, "run-1", reopened.RunID())
	assert.True(t, reopened.Done("L001"))
	assert.False(t, reopened.Done("L004"), "failed parcels are retried")
	assert.Equal(t, []string{"L001"}, reopened.Processed())
	assert.Equal(t, map[string]string{"L004": "max_height must be >= 0"}, reopened.Failed())

	var s summary
	ok, err := reopened.Summary("L001", &s)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, summary{"L001", 5, 3.75}, s)

	ok, err = reopened.Summary("L999", &s)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")
}

func TestRetryClearsFailure(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), FileName), "demo")
	require.NoError(t, err)
	require.NoError(t, c.MarkFailed("L001", "boom", nil))
	require.NoError(t, c.MarkProcessed("L001", summary{ParcelID: "L001"}))
	assert.True(t, c.Done("L001"))
	assert.Empty(t, c.Failed())
}

func TestConcurrentMarks(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), FileName), "demo")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.MarkProcessed(id, summary{ParcelID: id}))
		}()
	}
	wg.Wait()
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, c.Processed())
}

func TestOpenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := Open(path, "demo")
	require.Error(t, err)
	assert.True(t, cerrors.IsKind(err, cerrors.KindIO))
}
