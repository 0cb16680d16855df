package resource

import (
	"sort"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
)

// Display sentinels for attributes the daemon didn't supply or that didn't parse.
const (
	UnknownTime  = "Unknown"
	UntaggedTag  = "<none>"
	UnknownImage = "unknown"
)

// DisplayTimeLayout is the fixed layout for formatted timestamps.
const DisplayTimeLayout = "2006-01-02 15:04:05"

const shortIDLen = 12

// ShortID trims a digest prefix and truncates an id to 12 characters.
func ShortID(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		id = id[i+1:]
	}
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// FormatTimestamp reformats an ISO-8601 timestamp into DisplayTimeLayout,
// keeping the timestamp's own offset. Anything unparsable becomes "Unknown".
func FormatTimestamp(iso string) string {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return UnknownTime
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05Z07:00"} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format(DisplayTimeLayout)
		}
	}
	return UnknownTime
}

// FormatPorts renders a port map as "host:private" for each binding and the
// bare private port when nothing is bound, joined by ", ". Ports are ordered
// by number, then protocol.
func FormatPorts(ports nat.PortMap) string {
	if len(ports) == 0 {
		return ""
	}

	keys := make([]nat.Port, 0, len(ports))
	for p := range ports {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Int() != keys[j].Int() {
			return keys[i].Int() < keys[j].Int()
		}
		return keys[i].Proto() < keys[j].Proto()
	})

	var parts []string
	for _, private := range keys {
		bindings := ports[private]
		if len(bindings) == 0 {
			parts = append(parts, string(private))
			continue
		}
		for _, b := range bindings {
			parts = append(parts, b.HostPort+":"+string(private))
		}
	}
	return strings.Join(parts, ", ")
}

// ImageTags returns tags, or the "<none>" sentinel for an untagged image.
func ImageTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{UntaggedTag}
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

// PrimaryTag returns the first tag, or "unknown" when there is none.
func PrimaryTag(tags []string) string {
	if len(tags) == 0 {
		return UnknownImage
	}
	return tags[0]
}
