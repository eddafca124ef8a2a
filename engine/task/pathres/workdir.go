package pathres

import (
	"context"
	"path/filepath"
)

// WorkDirResolver roots relative values under a fixed working directory. An
// empty raw value resolves to the root itself, which is how the dispatcher
// derives the file-path input root handed to handlers.
type WorkDirResolver struct {
	hostType string
	root     string
}

func NewWorkDirResolver(hostType, root string) *WorkDirResolver {
	return &WorkDirResolver{hostType: hostType, root: root}
}

func (r *WorkDirResolver) HostType() string {
	return r.hostType
}

func (r *WorkDirResolver) GetRootedPath(_ context.Context, raw string) string {
	if r.root == "" {
		return ""
	}
	if raw == "" {
		return filepath.Clean(r.root)
	}
	return filepath.Join(r.root, raw)
}
