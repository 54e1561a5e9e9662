package tasks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/desertthunder/glx/internal/models"
)

// VerifyResult reports the outcome of [ExportEngine.Verify].
type VerifyResult struct {
	Checked    int     `json:"checked"`    // Downloaded records with a recorded archive
	OK         int     `json:"ok"`         // Archives present with matching checksum
	Unrecorded int     `json:"unrecorded"` // Downloaded records without an archive name
	Reset      []int64 `json:"reset"`      // Records sent back to download status "none"
}

// Verify checks the archive of every downloaded record in the output directory.
//
// A missing archive, or one whose sha256 differs from the recorded digest, resets
// the record's download status so the next run downloads it again. Records with
// no recorded archive name are left alone.
func (e *ExportEngine) Verify(ctx context.Context, prog chan<- ProgressUpdate, state *models.Progress) (*VerifyResult, error) {
	result := &VerifyResult{}
	total := len(state.Projects)

	for i, project := range state.Projects {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !project.Downloaded() {
			continue
		}
		if project.Archive == "" {
			result.Unrecorded++
			e.sendProgress(ctx, prog, verifyUpdate(i+1, total, project, "no archive recorded"))
			continue
		}

		result.Checked++
		path := filepath.Join(e.opts.OutputDir, project.Archive)

		outcome, err := e.checkArchive(path, project.Checksum)
		if err != nil {
			return result, err
		}
		if outcome != "ok" {
			e.logger.Warn("archive check failed, resetting download status", "id", project.ID, "archive", path, "reason", outcome)
			project.ClearDownload()
			result.Reset = append(result.Reset, project.ID)
		} else {
			result.OK++
		}

		e.sendProgress(ctx, prog, verifyUpdate(i+1, total, project, outcome))
	}

	return result, nil
}

func (e *ExportEngine) checkArchive(path, checksum string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "missing", nil
		}
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	if checksum == "" {
		return "ok", nil
	}

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", fmt.Errorf("failed to read archive: %w", err)
	}
	if hex.EncodeToString(hash.Sum(nil)) != checksum {
		return "checksum mismatch", nil
	}
	return "ok", nil
}
