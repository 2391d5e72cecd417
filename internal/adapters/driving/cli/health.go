package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	healthJSON      bool
	healthVisualize bool
)

var barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report knowledge base statistics",
	Long: `Shows the vector count and dimension of the index, plus per-source
chunk counts and token statistics from a bounded sample.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "output the report as JSON")
	healthCmd.Flags().BoolVar(&healthVisualize, "visualize", false, "draw a per-source bar chart")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	if err := initEngine(false); err != nil {
		return err
	}

	report, err := maintenanceService.Health(cmd.Context())
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if healthJSON {
		return printJSON(cmd, report)
	}

	cmd.Printf("Index: %d vectors, dimension %d\n", report.VectorCount, report.Dimension)
	if report.SampleSize == 0 {
		cmd.Println("Index is empty.")
		return nil
	}

	cmd.Printf("Sample: %d records\n", report.SampleSize)
	cmd.Printf("Tokens per chunk: min %d, max %d, avg %.1f\n",
		report.Tokens.Min, report.Tokens.Max, report.Tokens.Avg)

	cmd.Printf("\nSources (%d):\n", len(report.Sources))
	if healthVisualize {
		cmd.Print(renderSourceChart(report.Sources, 40))
	} else {
		for _, line := range sortedSourceLines(report.Sources) {
			cmd.Println("  " + line)
		}
	}
	return nil
}

type sourceEntry struct {
	name  string
	count int
}

// sortedSources lists sources by descending chunk count, then name.
func sortedSources(sources map[string]int) []sourceEntry {
	entries := make([]sourceEntry, 0, len(sources))
	for name, count := range sources {
		entries = append(entries, sourceEntry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	return entries
}

func sortedSourceLines(sources map[string]int) []string {
	entries := sortedSources(sources)
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("%4d  %s", e.count, e.name)
	}
	return lines
}

// renderSourceChart draws a horizontal bar chart of chunk counts,
// scaled to width characters for the largest source.
func renderSourceChart(sources map[string]int, width int) string {
	entries := sortedSources(sources)
	if len(entries) == 0 || entries[0].count == 0 {
		return ""
	}
	maxCount := entries[0].count

	var b strings.Builder
	for _, e := range entries {
		barLen := e.count * width / maxCount
		if barLen == 0 {
			barLen = 1
		}
		bar := barStyle.Render(strings.Repeat("█", barLen))
		fmt.Fprintf(&b, "  %-30s %s %d\n", truncateName(e.name, 30), bar, e.count)
	}
	return b.String()
}

func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	return "..." + name[len(name)-limit+3:]
}
