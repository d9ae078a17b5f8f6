package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/david/tax-radar/internal/ingest"
	"github.com/david/tax-radar/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const titleWidth = 60

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func renderOpportunities(w io.Writer, opps []models.Opportunity) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Score", "Type", "Date", "Source", "Title", "URL"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Score", Align: text.AlignRight},
		{Name: "Title", WidthMax: titleWidth},
	})
	for _, o := range opps {
		t.AppendRow(table.Row{
			fmt.Sprintf("%.1f", o.Score),
			o.Type,
			o.Date.Format("2006-01-02"),
			o.Source,
			o.Title,
			o.URL,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d items", len(opps)), ""})
	t.Render()
}

func renderStats(w io.Writer, runID string, s ingest.RunStats) {
	t := newTable(w)
	t.SetTitle("run " + runID)
	t.AppendRows([]table.Row{
		{"sources ok", s.SourcesOK},
		{"sources failed", s.SourcesFailed},
		{"collected", s.Collected},
		{"dropped (bad date)", s.DroppedDates},
		{"duplicates", s.Duplicates},
		{"annotated", s.Annotated},
		{"annotation errors", s.AnnotationErrors},
		{"saved", s.Saved},
		{"opportunities", s.Opportunities},
	})
	t.Render()
}

func renderRuns(w io.Writer, runs []models.IngestRun) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Run", "Status", "Found", "Saved", "Errors", "Duration", "Started At"})
	for _, r := range runs {
		duration := "Running..."
		if r.CompletedAt != nil {
			duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		t.AppendRow(table.Row{r.RunID, r.Status, r.ItemsFound, r.ItemsSaved, r.Errors, duration, r.StartedAt.Format("2006-01-02 15:04:05")})
	}
	t.Render()
}

func renderSources(w io.Writer, sources []ingest.SourceConfig) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Strategy", "Active", "URL"})
	for _, s := range sources {
		t.AppendRow(table.Row{s.ID, s.Name, s.Strategy, s.Active, s.BaseURL})
	}
	t.Render()
}

func renderSourceCounts(w io.Writer, infos []models.SourceInfo) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Source", "Articles", "Opportunities"})
	for _, s := range infos {
		t.AppendRow(table.Row{s.Source, s.Articles, s.Opportunities})
	}
	t.Render()
}
