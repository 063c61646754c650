package domain

// Workspace is a named saved view that constrains every search with its own
// tag and keyword filter.
type Workspace struct {
	ID     string          `json:"id" yaml:"id"`
	Name   string          `json:"name" yaml:"name"`
	Filter WorkspaceFilter `json:"filter" yaml:"filter"`
	View   ViewPrefs       `json:"view" yaml:"view"`
}

// WorkspaceFilter is OR over Whitelist, each Blacklist tag negated
// independently, and Keyword appended as-is.
type WorkspaceFilter struct {
	Whitelist []string `json:"whitelist,omitempty" yaml:"whitelist,omitempty"`
	Blacklist []string `json:"blacklist,omitempty" yaml:"blacklist,omitempty"`
	Keyword   string   `json:"keyword,omitempty" yaml:"keyword,omitempty"`
}

// ViewPrefs are the default view preferences of a workspace.
type ViewPrefs struct {
	Layout string `json:"layout,omitempty" yaml:"layout,omitempty"` // grid | list | table
	SortBy string `json:"sort_by,omitempty" yaml:"sort_by,omitempty"`
}
