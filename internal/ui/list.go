package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/glx/internal/models"
)

var (
	_ list.Item = projectItem{}
)

// projectItem wraps [models.Project] to implement [list.Item].
type projectItem struct {
	project *models.Project
}

func (i projectItem) FilterValue() string { return i.project.Name }
func (i projectItem) Title() string {
	return fmt.Sprintf("%s (ID: %d)", i.project.Name, i.project.ID)
}
func (i projectItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.project.GroupName, styles.Status(i.project))
	if i.project.Archive != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.project.Archive)
	}
	return desc
}

func projectItems(progress *models.Progress) []list.Item {
	items := make([]list.Item, len(progress.Projects))
	for i, p := range progress.Projects {
		items[i] = projectItem{project: p}
	}
	return items
}
