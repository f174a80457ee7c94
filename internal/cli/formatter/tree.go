package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a tree display.
type TreeItem struct {
	Title  string
	Kind   string
	Level  int
	IsLast bool
	// Ancestors[i] is true when the ancestor at depth i+1 was the last of
	// its siblings, so no pipe continues below it.
	Ancestors []bool
	Detail    string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree renders items as an indented tree with box-drawing connectors
// and right-aligned detail badges.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	contents := make([]string, len(items))
	maxWidth := 0
	for idx, item := range items {
		var prefix strings.Builder
		if item.Level > 0 {
			for i := 1; i < item.Level; i++ {
				if i-1 < len(item.Ancestors) && item.Ancestors[i-1] {
					prefix.WriteString(treeBlank)
				} else {
					prefix.WriteString(treePipe)
				}
			}
			if item.IsLast {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}
		title := Bold(item.Title)
		if item.Kind != "" {
			title = StyleDim.Render(item.Kind+" ") + title
		}
		contents[idx] = StyleDim.Render(prefix.String()) + title
		maxWidth = max(maxWidth, lipgloss.Width(contents[idx]))
	}

	var b strings.Builder
	for idx, item := range items {
		b.WriteString(contents[idx])
		if item.Detail != "" {
			pad := maxWidth - lipgloss.Width(contents[idx])
			b.WriteString(strings.Repeat(" ", pad) + "  " + StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// StructureTreeItems flattens a structure tree depth-first. templateNames
// maps template IDs to names for the binding badge.
func StructureTreeItems(tree *contract.StructureTree, templateNames map[string]string) []TreeItem {
	var items []TreeItem
	var walk func(nodes []*contract.TreeNode, level int, ancestors []bool)
	walk = func(nodes []*contract.TreeNode, level int, ancestors []bool) {
		for i, n := range nodes {
			last := i == len(nodes)-1
			item := TreeItem{
				Title:     n.Location.Name,
				Kind:      string(n.Location.Kind),
				Level:     level,
				IsLast:    last,
				Ancestors: ancestors,
			}
			if n.Location.TemplateID != nil {
				name, ok := templateNames[*n.Location.TemplateID]
				if !ok {
					name = TruncID(*n.Location.TemplateID)
				}
				item.Detail = name
			}
			items = append(items, item)
			walk(n.Children, level+1, append(append([]bool(nil), ancestors...), last))
		}
	}
	walk(tree.Sections, 1, nil)
	return items
}
