package tasks

import (
	"fmt"

	"github.com/desertthunder/glx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase           // Operation phase
	Step    int             // Current step number within phase
	Total   int             // Total steps in this phase
	Message string          // Human-readable message for display
	Project *models.Project // Record the update is about, nil for batch-level updates
}

// Operation phase enumeration
type Phase int

const (
	Discovering Phase = iota
	Exporting
	Polling
	Downloading
	Completed
	Skipped
	TimedOut
	Verifying
)

func (p Phase) String() string {
	switch p {
	case Discovering:
		return "discover"
	case Exporting:
		return "export"
	case Polling:
		return "poll"
	case Downloading:
		return "download"
	case Completed:
		return "completed"
	case Skipped:
		return "skipped"
	case TimedOut:
		return "timeout"
	case Verifying:
		return "verify"
	default:
		return ""
	}
}

func listingProjectsUpdate(service string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Discovering,
		Message: fmt.Sprintf("Listing projects on %s...", service),
	}
}

func discoveredUpdate(step, total int, p *models.Project, added bool) ProgressUpdate {
	verb := "Refreshed"
	if added {
		verb = "Found"
	}
	return ProgressUpdate{
		Phase:   Discovering,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s (ID: %d) in group %s: %s", step, total, verb, p.Name, p.ID, p.GroupName, p.ExportStatus),
		Project: p,
	}
}

func exportingUpdate(step, total int, p *models.Project) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Exporting,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting project %s (ID: %d) in group %s", step, total, p.Name, p.ID, p.GroupName),
		Project: p,
	}
}

func pollingUpdate(step, total, attempt, attempts int, p *models.Project) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Polling,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("  Export status: %s (check %d/%d)", p.ExportStatus, attempt, attempts),
		Project: p,
	}
}

func downloadingUpdate(step, total int, p *models.Project) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Downloading,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("  Downloading project %s...", p.Name),
		Project: p,
	}
}

func completedUpdate(step, total int, p *models.Project) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Completed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s → %s", step, total, p.Name, p.Archive),
		Project: p,
	}
}

func skippedUpdate(step, total int, p *models.Project, reason string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Skipped,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] - %s (%s)", step, total, p.Name, reason),
		Project: p,
	}
}

func timedOutUpdate(step, total int, p *models.Project) ProgressUpdate {
	return ProgressUpdate{
		Phase:   TimedOut,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ Export timeout. Skipping project %s", step, total, p.Name),
		Project: p,
	}
}

func verifyUpdate(step, total int, p *models.Project, state string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Verifying,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s", step, total, p.Name, state),
		Project: p,
	}
}
