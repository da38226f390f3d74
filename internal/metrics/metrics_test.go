package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, Ok, Outcome(nil))
	assert.Equal(t, Fail, Outcome(errors.New("boom")))
}

func TestMutationCounter(t *testing.T) {
	c := IndexMutationTotal.WithLabelValues("test", Ok)
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestWriteTextfile(t *testing.T) {
	IndexOpenTotal.WithLabelValues("Read", Ok).Inc()
	IndexMutationTotal.WithLabelValues("add", Fail).Inc()

	path := filepath.Join(t.TempDir(), "pkgindex.prom")
	require.NoError(t, WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `pkgindex_open_total{disposition="Read",outcome="ok"}`)
	assert.Contains(t, string(b), `pkgindex_mutation_total{op="add",outcome="fail"}`)
}
