package tasks

import (
	"errors"
	"testing"

	"github.com/desertthunder/glx/internal/shared"
)

func TestExtractFilename(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{name: "truncates at delimiter", token: `archive.tar.gz"; foo=bar`, want: "archive.tar.gz"},
		{name: "first delimiter wins", token: `a.tar.gz"; b.tar.gz"; c`, want: "a.tar.gz"},
		{name: "gitlab header value", token: `2024-01-01_12-00-000_group_api_export.tar.gz"; filename*=UTF-8''2024-01-01_12-00-000_group_api_export.tar.gz`, want: "2024-01-01_12-00-000_group_api_export.tar.gz"},
		{name: "no delimiter trims quotes", token: `"archive.tar.gz"`, want: "archive.tar.gz"},
		{name: "no delimiter trailing quote", token: `archive.tar.gz"`, want: "archive.tar.gz"},
		{name: "bare name", token: "archive.tar.gz", want: "archive.tar.gz"},
		{name: "empty token", token: "", wantErr: true},
		{name: "empty before delimiter", token: `"; foo=bar`, wantErr: true},
		{name: "path traversal", token: `../../etc/passwd"; x`, wantErr: true},
		{name: "absolute path", token: `/tmp/archive.tar.gz`, wantErr: true},
		{name: "backslash", token: `..\archive.tar.gz`, wantErr: true},
		{name: "dot dot", token: `.."; x`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractFilename(tt.token, FilenameDelimiter)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidFilename) {
					t.Errorf("ExtractFilename(%q) error = %v, want ErrInvalidFilename", tt.token, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractFilename(%q) unexpected error: %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("ExtractFilename(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}
