// Package resource defines the four kinds of runtime objects dockman
// manages and the display records the engine hands to the presentation layer.
package resource

import (
	"fmt"
	"strings"
)

// Kind identifies a cache slot and the shape of its records.
type Kind int

const (
	Container Kind = iota
	Image
	Volume
	Network
)

// NumKinds is the number of kinds, usable as an array length.
const NumKinds = 4

// Kinds returns every kind in tab order.
func Kinds() []Kind {
	return []Kind{Container, Image, Volume, Network}
}

// String returns the plural, lowercase name used in config, flags and tabs.
func (k Kind) String() string {
	switch k {
	case Container:
		return "containers"
	case Image:
		return "images"
	case Volume:
		return "volumes"
	case Network:
		return "networks"
	default:
		return "unknown"
	}
}

// Title returns the tab label.
func (k Kind) Title() string {
	switch k {
	case Container:
		return "Containers"
	case Image:
		return "Images"
	case Volume:
		return "Volumes"
	case Network:
		return "Networks"
	default:
		return "Unknown"
	}
}

// Singular returns the name of one object of this kind ("container").
func (k Kind) Singular() string {
	return strings.TrimSuffix(k.String(), "s")
}

// Valid reports whether k is one of the four known kinds.
func (k Kind) Valid() bool {
	return k >= Container && k <= Network
}

// Next cycles to the following kind, wrapping around.
func (k Kind) Next() Kind {
	return Kind((int(k) + 1) % NumKinds)
}

// ParseKind accepts singular or plural names, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "container", "containers", "ps":
		return Container, nil
	case "image", "images":
		return Image, nil
	case "volume", "volumes":
		return Volume, nil
	case "network", "networks":
		return Network, nil
	}
	return Container, fmt.Errorf("unknown resource kind %q (want containers, images, volumes or networks)", s)
}
