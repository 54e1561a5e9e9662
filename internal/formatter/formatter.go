// package formatter renders the progress store as a table, CSV, JSON or Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/shared"
)

// Format names accepted by [Render].
const (
	FormatTable    = "table"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

var headers = []string{"ID", "Name", "Group", "Export", "Download", "Archive"}

// Render dispatches to the renderer for format. An empty format renders a table.
func Render(progress *models.Progress, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return ExportToTable(progress)
	case FormatCSV:
		return ExportToCSV(progress)
	case FormatJSON:
		return ExportToJSON(progress)
	case FormatMarkdown, "md":
		return ExportToMarkdown(progress)
	default:
		return nil, fmt.Errorf("%w: format %q (want table, csv, json or markdown)", shared.ErrInvalidFlag, format)
	}
}

func row(p *models.Project) []string {
	return []string{
		strconv.FormatInt(p.ID, 10),
		p.Name,
		p.GroupName,
		p.ExportStatus.String(),
		string(p.DownloadStatus),
		p.Archive,
	}
}

// ExportToTable renders an aligned plain-text table followed by a summary line.
func ExportToTable(progress *models.Progress) ([]byte, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, p := range progress.Projects {
		fmt.Fprintln(w, strings.Join(row(p), "\t"))
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write table: %w", err)
	}

	buf.WriteString("\n" + SummaryLine(progress.Summary()) + "\n")
	return buf.Bytes(), nil
}

// ExportToCSV converts the store to CSV with columns: ID, Name, Group, Export, Download, Archive, SHA256, Downloaded At
func ExportToCSV(progress *models.Progress) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(append(headers, "SHA256", "Downloaded At")); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range progress.Projects {
		downloadedAt := ""
		if p.DownloadedAt != nil {
			downloadedAt = p.DownloadedAt.Format(time.RFC3339)
		}
		if err := writer.Write(append(row(p), p.Checksum, downloadedAt)); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// StatusReport is the JSON document produced by [ExportToJSON].
type StatusReport struct {
	Summary  models.Summary    `json:"summary"`
	Projects []*models.Project `json:"projects"`
}

// ExportToJSON renders the records and the summary as indented JSON.
func ExportToJSON(progress *models.Progress) ([]byte, error) {
	report := StatusReport{Summary: progress.Summary(), Projects: progress.Projects}
	if report.Projects == nil {
		report.Projects = []*models.Project{}
	}
	return shared.MarshalJSON(report, true)
}

// ExportToMarkdown renders a Markdown report grouped by namespace.
func ExportToMarkdown(progress *models.Progress) ([]byte, error) {
	var buf bytes.Buffer
	summary := progress.Summary()

	buf.WriteString("# GitLab export progress\n\n")
	buf.WriteString(fmt.Sprintf("**Projects**: %d\n", summary.Total))
	buf.WriteString(fmt.Sprintf("**Downloaded**: %d\n", summary.Downloaded))
	buf.WriteString(fmt.Sprintf("**Pending**: %d\n", summary.Pending))

	var groups []string
	byGroup := map[string][]*models.Project{}
	for _, p := range progress.Projects {
		if _, ok := byGroup[p.GroupName]; !ok {
			groups = append(groups, p.GroupName)
		}
		byGroup[p.GroupName] = append(byGroup[p.GroupName], p)
	}

	for _, group := range groups {
		buf.WriteString(fmt.Sprintf("\n## %s\n\n", group))
		for _, p := range byGroup[group] {
			mark := " "
			if p.Downloaded() {
				mark = "x"
			}
			archive := ""
			if p.Archive != "" {
				archive = fmt.Sprintf(" `%s`", p.Archive)
			}
			buf.WriteString(fmt.Sprintf("- [%s] %s (ID: %d, export: %s)%s\n", mark, p.Name, p.ID, p.ExportStatus, archive))
		}
	}

	return buf.Bytes(), nil
}

// SummaryLine returns the one-line totals shown after runs and status listings.
func SummaryLine(s models.Summary) string {
	return fmt.Sprintf("%d projects: %d downloaded, %d pending", s.Total, s.Downloaded, s.Pending)
}

// WriteReport renders the store in format and writes it to path.
func WriteReport(progress *models.Progress, path, format string) error {
	data, err := Render(progress, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
