package engine

import (
	"fmt"

	"github.com/containerd/errdefs"

	"github.com/dockman-dev/dockman/internal/resource"
)

// suggestion maps a runtime error class to a fix hint. fallback is used for
// errors that don't fall in a known class.
func suggestion(err error, kind resource.Kind, fallback string) string {
	switch {
	case errdefs.IsNotFound(err):
		return fmt.Sprintf("The %s no longer exists. Refresh the list with 'r'.", kind.Singular())
	case errdefs.IsConflict(err):
		if kind == resource.Container {
			return "The container is running or in use. Stop it first, or remove with --force."
		}
		return fmt.Sprintf("The %s is in use. Remove its dependents first, or use --force.", kind.Singular())
	case errdefs.IsPermissionDenied(err), errdefs.IsUnauthorized(err):
		return "Check your access to the Docker daemon (docker group membership)."
	case errdefs.IsUnavailable(err):
		return "Is Docker running? Try 'docker info'."
	case errdefs.IsNotModified(err):
		return fmt.Sprintf("The %s is already in that state.", kind.Singular())
	}
	return fallback
}
