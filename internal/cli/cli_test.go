package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRanker/internal/app"
	"NewsRanker/internal/domain"
	"NewsRanker/internal/freshness"
	"NewsRanker/internal/infrastructure/storage"
	"NewsRanker/internal/ports"
)

type stubSearch struct{}

func (stubSearch) Lane() domain.Lane { return domain.LaneSearch }

func (stubSearch) Collect(_ context.Context, q ports.Query) ([]domain.RawRecord, error) {
	if q.Entity.Name != "Stripe" {
		return nil, nil
	}
	return []domain.RawRecord{
		{Title: "Stripe acquires payments startup", URL: "https://techcrunch.com/stripe-acquires", Age: "30 minutes ago"},
	}, nil
}

type fixture struct {
	configPath string
	stateDir   string
	outDir     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		configPath: filepath.Join(root, "config.yaml"),
		stateDir:   filepath.Join(root, "state"),
		outDir:     filepath.Join(root, "out"),
	}
	cfg := "environment: test\nlogging:\n  level: error\nstate:\n  dir: " + f.stateDir +
		"\noutput:\n  dir: " + f.outDir + "\nverticals:\n  - name: private_markets\n"
	require.NoError(t, os.WriteFile(f.configPath, []byte(cfg), 0o644))
	return f
}

func (f fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"}, app.Options{
		Collectors: []ports.Collector{stubSearch{}},
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", f.configPath, "--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, err := newFixture(t).run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "newsranker 1.2.3 (commit: abc, built: today)\n", out)
}

func TestRankText(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	out, err := f.run(t, "rank", "--vertical", "private_markets", "--date", "2026-03-10", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "private_markets · 2026-03-10")
	assert.Contains(t, out, "Stripe acquires payments startup")
	assert.FileExists(t, filepath.Join(f.outDir, "2026-03-10_private_markets.json"))

	shown, err := f.run(t, "state", "show", "private_markets")
	require.NoError(t, err)
	var state freshness.SeenState
	require.NoError(t, json.Unmarshal([]byte(shown), &state))
	assert.Equal(t, []string{"https://techcrunch.com/stripe-acquires"}, state["2026-03-10"].URLs)
}

func TestRankJSONToCustomDir(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	custom := filepath.Join(t.TempDir(), "elsewhere")
	out, err := f.run(t, "rank", "--all", "--date", "2026-03-10", "--out", custom)
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "private_markets", docs[0]["vertical"])
	assert.FileExists(t, filepath.Join(custom, "2026-03-10_private_markets.json"))
}

func TestRankRejectsBadFlags(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.run(t, "rank", "--all", "--vertical", "stocks")
	require.Error(t, err)

	_, err = f.run(t, "rank", "--date", "10/03/2026")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "--date"))

	_, err = f.run(t, "rank", "--format", "xml")
	require.Error(t, err)

	_, err = f.run(t, "rank", "--vertical", "stocks")
	require.Error(t, err, "stocks is not enabled in the fixture")
}

func TestStatePrune(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	store := storage.NewFileSeenStore(f.stateDir)
	require.NoError(t, store.Save(context.Background(), "private_markets", freshness.SeenState{
		"2000-01-01": {URLs: []string{"https://old.example/a"}},
	}))

	out, err := f.run(t, "state", "prune")
	require.NoError(t, err)
	assert.Equal(t, "private_markets: pruned 1 date(s).\n", out)

	out, err = f.run(t, "state", "prune", "private_markets")
	require.NoError(t, err)
	assert.Equal(t, "private_markets: nothing to prune.\n", out)
}

func TestStateShowRequiresVertical(t *testing.T) {
	t.Parallel()

	_, err := newFixture(t).run(t, "state", "show")
	require.Error(t, err)
}
