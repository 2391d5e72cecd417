package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/filekb/internal/config"
	"github.com/calder-labs/filekb/internal/core/domain"
)

// stubEngine implements every driving port the commands touch.
type stubEngine struct {
	searchResults []domain.QueryResult
	searchErr     error
	ingestReport  *domain.IngestReport
	answer        *domain.Answer
	healthReport  *domain.HealthReport
	purgeReport   *domain.PurgeReport
}

func (s *stubEngine) Search(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.QueryResult, error) {
	return s.searchResults, s.searchErr
}

func (s *stubEngine) IngestDirectory(context.Context, string) (*domain.IngestReport, error) {
	return s.ingestReport, nil
}

func (s *stubEngine) IngestFile(context.Context, string) (*domain.IngestReport, error) {
	return s.ingestReport, nil
}

func (s *stubEngine) Ask(_ context.Context, query, model string) (*domain.Answer, error) {
	return s.answer, nil
}

func (s *stubEngine) Health(context.Context) (*domain.HealthReport, error) {
	return s.healthReport, nil
}

func (s *stubEngine) Purge(context.Context, domain.PurgeOptions) (*domain.PurgeReport, error) {
	return s.purgeReport, nil
}

// setupTestServices swaps the wired services for a stub engine.
func setupTestServices(stub *stubEngine) func() {
	oldSearch := searchService
	oldIngest := ingestService
	oldAnswer := answerService
	oldMaint := maintenanceService
	oldCfg := cfg

	searchService = stub
	ingestService = stub
	answerService = stub
	maintenanceService = stub
	cfg = config.Default()

	return func() {
		searchService = oldSearch
		ingestService = oldIngest
		answerService = oldAnswer
		maintenanceService = oldMaint
		cfg = oldCfg
	}
}

// resetFlags restores every command flag to its default; flag values
// persist across Execute calls otherwise.
func resetFlags() {
	queryTopK, queryThreshold = 5, 0
	queryJSON, queryNoRerank, queryInteractive = false, false, false
	askModel, askJSON, askShowContext = "", false, false
	healthJSON, healthVisualize = false, false
	purgeSource, purgeOlderThan, purgeForce = "", "", false
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestQueryCmd_Use(t *testing.T) {
	assert.Equal(t, "query [text]", queryCmd.Use)
}

func TestQueryCmd_Flags(t *testing.T) {
	flag := queryCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)

	require.NotNil(t, queryCmd.Flags().Lookup("json"))
	require.NotNil(t, queryCmd.Flags().Lookup("no-rerank"))
	require.NotNil(t, queryCmd.Flags().Lookup("threshold"))
	require.NotNil(t, queryCmd.Flags().Lookup("interactive"))
}

func TestQueryCmd_PrintsResults(t *testing.T) {
	cleanup := setupTestServices(&stubEngine{
		searchResults: []domain.QueryResult{
			{Text: "Deploys run from CI on merge.", Source: "ops/deploy.md", Score: 0.91},
		},
	})
	defer cleanup()

	out, err := execute(t, "query", "how do deploys work")

	require.NoError(t, err)
	assert.Contains(t, out, "0.910")
	assert.Contains(t, out, "ops/deploy.md")
	assert.Contains(t, out, "Deploys run from CI")
}

func TestQueryCmd_JSON(t *testing.T) {
	cleanup := setupTestServices(&stubEngine{
		searchResults: []domain.QueryResult{
			{Text: "chunk", Source: "a.md", Score: 0.5},
		},
	})
	defer cleanup()

	out, err := execute(t, "query", "--json", "anything")

	require.NoError(t, err)
	assert.Contains(t, out, `"source": "a.md"`)
}

func TestQueryCmd_NoResults(t *testing.T) {
	cleanup := setupTestServices(&stubEngine{})
	defer cleanup()

	out, err := execute(t, "query", "nothing matches this")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestQueryCmd_RequiresQueryOrInteractive(t *testing.T) {
	cleanup := setupTestServices(&stubEngine{})
	defer cleanup()

	_, err := execute(t, "query")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIngestCmd_PrintsReport(t *testing.T) {
	cleanup := setupTestServices(&stubEngine{
		ingestReport: &domain.IngestReport{
			ChunksWritten:  12,
			FilesProcessed: 3,
			FilesSkipped:   1,
			Errors:         []string{"bad.pdf: no text layer"},
		},
	})
	defer cleanup()

	out, err := execute(t, "ingest", "./docs")

	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 12 chunks from 3 files (1 skipped)")
	assert.Contains(t, out, "bad.pdf")
}

func TestIngestCmd_RequiresDirectory(t *testing.T) {
	_, err := execute(t, "ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	cleanup := setupTestServices(&stubEngine{
		answer: &domain.Answer{
			Query: "q",
			Text:  "Deploys are triggered from CI.",
			Model: "gpt-4o-mini",
			Context: []domain.QueryResult{
				{Text: "a", Source: "ops/deploy.md", Score: 0.9},
				{Text: "b", Source: "ops/deploy.md", Score: 0.8},
				{Text: "c", Source: "ci.md", Score: 0.7},
			},
		},
	})
	defer cleanup()

	out, err := execute(t, "ask", "how do deploys work")

	require.NoError(t, err)
	assert.Contains(t, out, "Deploys are triggered from CI.")
	assert.Contains(t, out, "Sources:")
	// Duplicate sources collapse.
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte("ops/deploy.md")))
}

func TestHealthCmd_PrintsReport(t *testing.T) {
	cleanup := setupTestServices(&stubEngine{
		healthReport: &domain.HealthReport{
			VectorCount: 120,
			Dimension:   768,
			SampleSize:  120,
			Sources:     map[string]int{"a.md": 80, "b.txt": 40},
			Tokens:      domain.TokenStats{Min: 10, Max: 90, Avg: 44.5, Count: 120},
		},
	})
	defer cleanup()

	out, err := execute(t, "health")

	require.NoError(t, err)
	assert.Contains(t, out, "120 vectors, dimension 768")
	assert.Contains(t, out, "min 10, max 90, avg 44.5")
	assert.Contains(t, out, "a.md")
}

func TestHealthCmd_EmptyIndex(t *testing.T) {
	cleanup := setupTestServices(&stubEngine{
		healthReport: &domain.HealthReport{VectorCount: 0, Dimension: 768},
	})
	defer cleanup()

	out, err := execute(t, "health")

	require.NoError(t, err)
	assert.Contains(t, out, "Index is empty.")
}

func TestPurgeCmd_DryRunByDefault(t *testing.T) {
	cleanup := setupTestServices(&stubEngine{
		purgeReport: &domain.PurgeReport{DryRun: true, Estimated: 40, Remaining: 80},
	})
	defer cleanup()

	out, err := execute(t, "purge", "--source", "a.md")

	require.NoError(t, err)
	assert.Contains(t, out, "Dry run: would delete ~40")
	assert.Contains(t, out, "--force")
}

func TestPurgeCmd_Forced(t *testing.T) {
	cleanup := setupTestServices(&stubEngine{
		purgeReport: &domain.PurgeReport{DryRun: false, Estimated: 40, Remaining: 80},
	})
	defer cleanup()

	out, err := execute(t, "purge", "--source", "a.md", "--force")

	require.NoError(t, err)
	assert.Contains(t, out, "Deleted ~40")
}

func TestVersionCmd(t *testing.T) {
	original := version
	version = "1.2.3"
	defer func() { version = original }()

	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "filekb version 1.2.3")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short", 20))

	long := "alpha bravo charlie delta echo foxtrot"
	out := snippet(long, 20)
	assert.True(t, len(out) <= 24)
	assert.Contains(t, out, "...")
}

func TestSortedSourceLines(t *testing.T) {
	lines := sortedSourceLines(map[string]int{"b.md": 5, "a.md": 5, "c.md": 9})

	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "c.md")
	assert.Contains(t, lines[1], "a.md")
	assert.Contains(t, lines[2], "b.md")
}

func TestRenderSourceChart(t *testing.T) {
	out := renderSourceChart(map[string]int{"big.md": 10, "small.md": 1}, 20)

	assert.Contains(t, out, "big.md")
	assert.Contains(t, out, "small.md")
	assert.Contains(t, out, "█")
}
