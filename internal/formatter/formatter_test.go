package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/shared"
	th "github.com/desertthunder/glx/internal/testing"
)

func testProgress() *models.Progress {
	progress := models.NewProgress()
	progress.Add(models.NewProject(12, "api", "backend", models.ExportFinished))
	progress.Add(models.NewProject(7, "web, app", "frontend", models.ExportStarted))
	progress.Add(models.NewProject(30, "docs", "backend", models.ExportNone))
	progress.Projects[0].MarkDownloaded("api_export.tar.gz", "cafe", time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC))
	return progress
}

func TestExporters(t *testing.T) {
	t.Run("ExportToTable", func(t *testing.T) {
		data, err := ExportToTable(testProgress())
		if err != nil {
			t.Fatalf("ExportToTable failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 6 {
			t.Fatalf("expected header, 3 rows, blank and summary, got %d lines:\n%s", len(lines), data)
		}
		if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[0], "Download") {
			t.Errorf("unexpected header %q", lines[0])
		}
		if !strings.Contains(lines[1], "api_export.tar.gz") || !strings.Contains(lines[1], "finished") {
			t.Errorf("unexpected first row %q", lines[1])
		}
		if lines[5] != "3 projects: 1 downloaded, 2 pending" {
			t.Errorf("unexpected summary %q", lines[5])
		}

		// columns are aligned
		if strings.Index(lines[1], "backend") != strings.Index(lines[2], "frontend") {
			t.Errorf("group column not aligned:\n%s", data)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testProgress())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Name,Group,Export,Download,Archive,SHA256,Downloaded At") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "12,api,backend,finished,finished,api_export.tar.gz,cafe,2024-02-03T04:05:06Z") {
			t.Errorf("CSV missing downloaded record, got: %s", output)
		}
		if !strings.Contains(output, `7,"web, app",frontend,started,none,,,`) {
			t.Errorf("CSV did not quote the comma, got: %s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testProgress())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var report StatusReport
		if err := json.Unmarshal(data, &report); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if report.Summary.Total != 3 || report.Summary.Downloaded != 1 {
			t.Errorf("unexpected summary %+v", report.Summary)
		}
		if len(report.Projects) != 3 || report.Projects[0].Checksum != "cafe" {
			t.Errorf("unexpected projects %+v", report.Projects)
		}
		if !strings.Contains(string(data), `"group_name": "backend"`) {
			t.Errorf("expected snake_case keys:\n%s", data)
		}
	})

	t.Run("ExportToJSON empty", func(t *testing.T) {
		data, err := ExportToJSON(&models.Progress{})
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		if !strings.Contains(string(data), `"projects": []`) {
			t.Errorf("expected empty array, got %s", data)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testProgress())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# GitLab export progress") {
			t.Error("Markdown missing title")
		}
		if !strings.Contains(output, "## backend") || !strings.Contains(output, "## frontend") {
			t.Error("Markdown missing group sections")
		}
		if !strings.Contains(output, "- [x] api (ID: 12, export: finished) `api_export.tar.gz`") {
			t.Errorf("Markdown missing downloaded entry:\n%s", output)
		}
		if !strings.Contains(output, "- [ ] docs (ID: 30, export: none)") {
			t.Errorf("Markdown missing pending entry:\n%s", output)
		}
		if strings.Index(output, "## backend") > strings.Index(output, "## frontend") {
			t.Error("groups should keep store order")
		}
	})
}

func TestRender(t *testing.T) {
	for _, format := range []string{"", "table", "CSV", "json", "markdown", "md"} {
		t.Run(format, func(t *testing.T) {
			if _, err := Render(testProgress(), format); err != nil {
				t.Errorf("Render(%q) error = %v", format, err)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := Render(testProgress(), "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.csv")
	if err := WriteReport(testProgress(), path, FormatCSV); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	th.AssertFileExists(t, path)
	if !strings.Contains(th.MustReadFile(t, path), "api_export.tar.gz") {
		t.Error("report missing content")
	}

	if err := WriteReport(testProgress(), filepath.Join(t.TempDir(), "missing", "dir", "x.csv"), FormatCSV); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}
