package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/shared"
)

func newTestService(t *testing.T, mux *http.ServeMux) *GitLabService {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	svc, err := NewGitLabService(GitLabOptions{Endpoint: server.URL + "/api/v4", Token: "glpat-test"})
	if err != nil {
		t.Fatalf("NewGitLabService() error = %v", err)
	}
	return svc
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestGitLabService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("requires credentials", func(t *testing.T) {
			_, err := NewGitLabService(GitLabOptions{Endpoint: "https://gitlab.example.com/api/v4"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("name", func(t *testing.T) {
			svc, err := NewGitLabService(GitLabOptions{Endpoint: "https://gitlab.example.com/api/v4", Token: "t", RateLimit: 5})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if svc.Name() != "GitLab" {
				t.Errorf("expected GitLab, got %s", svc.Name())
			}
		})
	})

	t.Run("ListProjects", func(t *testing.T) {
		t.Run("follows pagination", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/v4/projects", func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("PRIVATE-TOKEN") != "glpat-test" {
					t.Errorf("missing token header, got %q", r.Header.Get("PRIVATE-TOKEN"))
				}

				switch r.URL.Query().Get("page") {
				case "", "1":
					w.Header().Set("X-Next-Page", "2")
					writeJSON(w, []map[string]any{
						{"id": 1, "name": "api", "namespace": map[string]any{"name": "backend"}},
						{"id": 2, "name": "web", "namespace": map[string]any{"name": "frontend"}},
					})
				case "2":
					writeJSON(w, []map[string]any{
						{"id": 3, "name": "docs", "namespace": map[string]any{"name": "backend"}},
					})
				default:
					t.Errorf("unexpected page %s", r.URL.Query().Get("page"))
				}
			})

			projects, err := newTestService(t, mux).ListProjects(context.Background())
			if err != nil {
				t.Fatalf("ListProjects() error = %v", err)
			}
			if len(projects) != 3 {
				t.Fatalf("expected 3 projects, got %d", len(projects))
			}

			want := RemoteProject{ID: 3, Name: "docs", Namespace: "backend"}
			if projects[2] != want {
				t.Errorf("expected %+v, got %+v", want, projects[2])
			}
		})

		t.Run("unauthorized", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/v4/projects", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				writeJSON(w, map[string]string{"message": "401 Unauthorized"})
			})

			_, err := newTestService(t, mux).ListProjects(context.Background())
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("ExportStatus", func(t *testing.T) {
		t.Run("returns remote status verbatim", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/v4/projects/{id}/export", func(w http.ResponseWriter, r *http.Request) {
				status := map[string]string{"42": "finished", "43": "regeneration_in_progress", "44": "failed"}[r.PathValue("id")]
				writeJSON(w, map[string]any{"id": 42, "export_status": status})
			})
			svc := newTestService(t, mux)

			tc := []struct {
				id   int64
				want models.ExportStatus
			}{
				{42, models.ExportFinished},
				{43, models.ExportRegenerating},
				{44, models.ExportStatus("failed")},
			}
			for _, tt := range tc {
				got, err := svc.ExportStatus(context.Background(), tt.id)
				if err != nil {
					t.Fatalf("ExportStatus(%d) error = %v", tt.id, err)
				}
				if got != tt.want {
					t.Errorf("ExportStatus(%d) = %s, want %s", tt.id, got, tt.want)
				}
			}
		})

		t.Run("not found", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/v4/projects/{id}/export", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				writeJSON(w, map[string]string{"message": "404 Project Not Found"})
			})

			_, err := newTestService(t, mux).ExportStatus(context.Background(), 9)
			if !errors.Is(err, shared.ErrProjectNotFound) {
				t.Errorf("expected ErrProjectNotFound, got %v", err)
			}
		})
	})

	t.Run("ScheduleExport", func(t *testing.T) {
		called := false
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v4/projects/{id}/export", func(w http.ResponseWriter, r *http.Request) {
			called = true
			if r.PathValue("id") != "7" {
				t.Errorf("expected project 7, got %s", r.PathValue("id"))
			}
			w.WriteHeader(http.StatusAccepted)
			writeJSON(w, map[string]string{"message": "202 Accepted"})
		})

		if err := newTestService(t, mux).ScheduleExport(context.Background(), 7); err != nil {
			t.Fatalf("ScheduleExport() error = %v", err)
		}
		if !called {
			t.Error("export endpoint was not called")
		}
	})

	t.Run("DownloadExport", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v4/projects/{id}/export/download", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("Content-Disposition", `attachment; filename="2024-01-01_group_api_export.tar.gz"; filename*=UTF-8''2024-01-01_group_api_export.tar.gz`)
			w.Write([]byte("archive-bytes"))
		})

		archive, err := newTestService(t, mux).DownloadExport(context.Background(), 1)
		if err != nil {
			t.Fatalf("DownloadExport() error = %v", err)
		}
		defer archive.Body.Close()

		want := `2024-01-01_group_api_export.tar.gz"; filename*=UTF-8''2024-01-01_group_api_export.tar.gz`
		if archive.FilenameToken != want {
			t.Errorf("FilenameToken = %q, want %q", archive.FilenameToken, want)
		}

		data, _ := io.ReadAll(archive.Body)
		if string(data) != "archive-bytes" {
			t.Errorf("unexpected body %q", data)
		}
		if archive.Size != int64(len("archive-bytes")) {
			t.Errorf("unexpected size %d", archive.Size)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v4/projects/{id}/export", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"export_status": "finished"})
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := newTestService(t, mux).ExportStatus(ctx, 1); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}

func TestFilenameToken(t *testing.T) {
	tc := []struct {
		name        string
		disposition string
		want        string
	}{
		{name: "quoted with params", disposition: `attachment; filename="a.tar.gz"; x=y`, want: `a.tar.gz"; x=y`},
		{name: "quoted", disposition: `attachment; filename="a.tar.gz"`, want: `a.tar.gz"`},
		{name: "unquoted", disposition: `attachment; filename=a.tar.gz`, want: `a.tar.gz`},
		{name: "missing", disposition: `attachment`, want: ``},
		{name: "empty", disposition: ``, want: ``},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilenameToken(tt.disposition); got != tt.want {
				t.Errorf("FilenameToken(%q) = %q, want %q", tt.disposition, got, tt.want)
			}
		})
	}
}
