package engine

import (
	"fmt"
	"strings"

	"github.com/dockman-dev/dockman/internal/resource"
)

// Op is a lifecycle command.
type Op int

const (
	OpStart Op = iota
	OpStop
	OpRestart
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpStart:
		return "start"
	case OpStop:
		return "stop"
	case OpRestart:
		return "restart"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// ParseOp accepts an op name as typed on the command line.
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return OpStart, nil
	case "stop":
		return OpStop, nil
	case "restart":
		return OpRestart, nil
	case "remove", "rm":
		return OpRemove, nil
	}
	return OpStart, fmt.Errorf("unknown operation %q", s)
}

// Action is one lifecycle command against one object.
type Action struct {
	Kind resource.Kind
	// ID is the container, image or network id, or the volume name.
	ID    string
	Op    Op
	Force bool
}

// Supported reports whether the op applies to the kind. Only containers
// have a lifecycle; every kind can be removed.
func (a Action) Supported() bool {
	if !a.Kind.Valid() {
		return false
	}
	switch a.Op {
	case OpRemove:
		return true
	case OpStart, OpStop, OpRestart:
		return a.Kind == resource.Container
	}
	return false
}

// Describe renders the action for status lines and prompts, e.g.
// "stop container web".
func (a Action) Describe(name string) string {
	if name == "" {
		name = resource.ShortID(a.ID)
	}
	return fmt.Sprintf("%s %s %s", a.Op, a.Kind.Singular(), name)
}
