package contract

import "github.com/alexanderramin/taktplan/internal/domain"

// TreeNode is a location with its children, in creation order.
type TreeNode struct {
	Location *domain.Location `json:"location"`
	Children []*TreeNode      `json:"children,omitempty"`
}

type StructureTree struct {
	ProjectID string      `json:"project_id"`
	Sections  []*TreeNode `json:"sections"`
}

type AddNodeRequest struct {
	Kind       domain.LocationKind
	ParentID   string // project ID for sections
	Name       string
	TemplateID *string
}

// BindRequest sets or clears (nil TemplateID) a node's template. With
// Propagate the same binding is written onto every descendant.
type BindRequest struct {
	Kind       domain.LocationKind
	NodeID     string
	TemplateID *string
	Propagate  bool
}

type BindResponse struct {
	Updated int `json:"updated"` // nodes written, including the target
}

type DeleteNodeResponse struct {
	Nodes        int `json:"nodes"` // nodes removed, including the target
	TasksDeleted int `json:"tasks_deleted"`
}

// TemplateSaveResponse reports how a template replacement affected steps.
type TemplateSaveResponse struct {
	Template     *domain.Template `json:"template"`
	Created      int              `json:"created"`
	Updated      int              `json:"updated"`
	Deleted      int              `json:"deleted"`
	Retired      int              `json:"retired"` // removed steps kept for their started tasks
	TasksDeleted int              `json:"tasks_deleted"`
}

type ImportResult struct {
	Project   *domain.Project `json:"project,omitempty"`
	Templates int             `json:"templates"`
	Users     int             `json:"users"`
	Nodes     int             `json:"nodes"`
	Bindings  int             `json:"bindings"`
}
