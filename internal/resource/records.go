package resource

import (
	"fmt"
	"strings"
)

// Record is one row of a kind's snapshot. Implementations are plain values;
// a snapshot is never mutated after the engine publishes it.
type Record interface {
	Kind() Kind
	// Key is the identifier lifecycle commands target (container/image/network id, volume name).
	Key() string
	// Row renders the record's cells in Columns order.
	Row() []string
}

// Column describes one table column of a kind.
type Column struct {
	Title string
	Width int
}

// Columns returns the table layout for a kind.
func Columns(k Kind) []Column {
	switch k {
	case Container:
		return []Column{
			{Title: "ID", Width: 12},
			{Title: "Name", Width: 22},
			{Title: "Status", Width: 10},
			{Title: "Image", Width: 24},
			{Title: "CPU %", Width: 7},
			{Title: "Mem MB", Width: 9},
			{Title: "Mem %", Width: 7},
			{Title: "Ports", Width: 22},
			{Title: "Created", Width: 19},
		}
	case Image:
		return []Column{
			{Title: "ID", Width: 12},
			{Title: "Tags", Width: 40},
			{Title: "Size MB", Width: 10},
			{Title: "Created", Width: 19},
		}
	case Volume:
		return []Column{
			{Title: "Name", Width: 28},
			{Title: "Driver", Width: 8},
			{Title: "Mountpoint", Width: 48},
			{Title: "Created", Width: 25},
		}
	case Network:
		return []Column{
			{Title: "ID", Width: 12},
			{Title: "Name", Width: 24},
			{Title: "Driver", Width: 8},
			{Title: "Created", Width: 19},
		}
	}
	return nil
}

// ContainerRecord is the display form of a container with its derived usage.
type ContainerRecord struct {
	ID            string            `json:"id"`
	FullID        string            `json:"full_id"`
	Name          string            `json:"name"`
	Status        string            `json:"status"`
	Image         string            `json:"image"`
	Ports         string            `json:"ports"`
	CPUPercent    float64           `json:"cpu_percent"`
	MemoryMB      float64           `json:"memory_mb"`
	MemoryPercent float64           `json:"memory_percent"`
	Created       string            `json:"created"`
	Labels        map[string]string `json:"labels,omitempty"`

	// StatsUnavailable marks a running container whose stats call failed;
	// its usage fields are zero rather than measured.
	StatsUnavailable bool `json:"stats_unavailable,omitempty"`
}

func (r ContainerRecord) Kind() Kind  { return Container }
func (r ContainerRecord) Key() string { return r.FullID }

func (r ContainerRecord) Row() []string {
	return []string{
		r.ID,
		r.Name,
		r.Status,
		r.Image,
		FormatFloat(r.CPUPercent),
		FormatFloat(r.MemoryMB),
		FormatFloat(r.MemoryPercent),
		r.Ports,
		r.Created,
	}
}

// Running reports whether the container is in the running state.
func (r ContainerRecord) Running() bool {
	return r.Status == "running"
}

// ImageRecord is the display form of an image.
type ImageRecord struct {
	ID      string   `json:"id"`
	FullID  string   `json:"full_id"`
	Tags    []string `json:"tags"`
	SizeMB  float64  `json:"size_mb"`
	Created string   `json:"created"`
}

func (r ImageRecord) Kind() Kind  { return Image }
func (r ImageRecord) Key() string { return r.FullID }

func (r ImageRecord) Row() []string {
	return []string{r.ID, strings.Join(r.Tags, ", "), FormatFloat(r.SizeMB), r.Created}
}

// VolumeRecord is the display form of a volume. Created is the daemon's
// string, passed through unparsed.
type VolumeRecord struct {
	Name       string `json:"name"`
	Driver     string `json:"driver"`
	Mountpoint string `json:"mountpoint"`
	Created    string `json:"created"`
}

func (r VolumeRecord) Kind() Kind  { return Volume }
func (r VolumeRecord) Key() string { return r.Name }

func (r VolumeRecord) Row() []string {
	return []string{r.Name, r.Driver, r.Mountpoint, r.Created}
}

// NetworkRecord is the display form of a network.
type NetworkRecord struct {
	ID      string `json:"id"`
	FullID  string `json:"full_id"`
	Name    string `json:"name"`
	Driver  string `json:"driver"`
	Created string `json:"created"`
}

func (r NetworkRecord) Kind() Kind  { return Network }
func (r NetworkRecord) Key() string { return r.FullID }

func (r NetworkRecord) Row() []string {
	return []string{r.ID, r.Name, r.Driver, r.Created}
}

// FormatFloat renders a rounded metric the way tables show it.
func FormatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Rows renders a snapshot as table rows.
func Rows(records []Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return rows
}

// Find returns the record whose key or short id/name matches ref. The
// untagged placeholder never matches, since it names no single image.
func Find(records []Record, ref string) (Record, bool) {
	for _, r := range records {
		if r.Key() == ref {
			return r, true
		}
		switch v := r.(type) {
		case ContainerRecord:
			if v.ID == ref || v.Name == ref {
				return r, true
			}
		case ImageRecord:
			if v.ID == ref {
				return r, true
			}
			for _, tag := range v.Tags {
				if tag == ref && tag != UntaggedTag {
					return r, true
				}
			}
		case NetworkRecord:
			if v.ID == ref || v.Name == ref {
				return r, true
			}
		}
	}
	return nil, false
}
