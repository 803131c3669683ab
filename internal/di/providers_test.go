package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FGReport/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Log.Level = "error"
	cfg.Output.DocsDir = t.TempDir()
	return cfg
}

func TestInitializeAppWithDefaults(t *testing.T) {
	app, cleanup, err := InitializeApp(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, app)
	require.NotNil(t, cleanup)
	cleanup()
}

func TestInitializeAppRejectsBadLogLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Level = "chatty"
	_, _, err := InitializeApp(cfg)
	assert.ErrorContains(t, err, "logger")
}

func TestOptionalProvidersReturnNilInterfaces(t *testing.T) {
	cfg := testConfig(t)
	l, err := ProvideLogger(cfg)
	require.NoError(t, err)

	assert.Nil(t, ProvideInputFetcher(cfg, ProvideHTTPClient(cfg), l))

	archive, cleanup, err := ProvideCellArchive(cfg, l)
	require.NoError(t, err)
	assert.Nil(t, archive)
	cleanup()

	events, cleanup, err := ProvideEventPublisher(cfg, l)
	require.NoError(t, err)
	assert.Nil(t, events)
	cleanup()
}

func TestProvideResolverAddsHeatmapHorizon(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.Horizons = []int{60}
	cfg.Analysis.HeatmapHorizon = 20
	assert.Equal(t, []int{60, 20}, horizons(cfg))

	cfg.Analysis.Horizons = []int{20, 60}
	assert.Equal(t, []int{20, 60}, horizons(cfg))
}
