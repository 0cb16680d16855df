package runtime

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	jsoniter "github.com/json-iterator/go"

	"github.com/dockman-dev/dockman/internal/errors"
	"github.com/dockman-dev/dockman/internal/logger"
	"github.com/dockman-dev/dockman/internal/metrics"
)

// DefaultHost is used when neither config nor DOCKER_HOST names an endpoint.
const DefaultHost = "unix:///var/run/docker.sock"

// socketProbeTimeout bounds the reachability probe on the control socket.
const socketProbeTimeout = 2 * time.Second

// pingTimeout bounds the handshake in Dial when the caller's context has
// no earlier deadline.
var pingTimeout = 10 * time.Second

var (
	// ErrSocketNotFound means the control socket does not exist.
	ErrSocketNotFound = stderrors.New("docker socket not found")
	// ErrSocketPermission means the socket exists but this user can't use it.
	ErrSocketPermission = stderrors.New("permission denied on docker socket")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Docker implements Gateway on the Docker Engine API.
type Docker struct {
	cli        *client.Client
	host       string
	apiVersion string
	log        logger.Logger
}

// ResolveHost picks the endpoint: explicit host, then DOCKER_HOST, then
// the default unix socket.
func ResolveHost(host string) string {
	if host != "" {
		return host
	}
	if env := os.Getenv(client.EnvOverrideHost); env != "" {
		return env
	}
	return DefaultHost
}

// Dial connects to the runtime at host and verifies it answers. A missing
// or inaccessible unix socket and an unreachable daemon are reported as
// distinct ErrConnection errors.
func Dial(ctx context.Context, host string, log logger.Logger) (*Docker, error) {
	if log == nil {
		log = logger.Noop()
	}
	host = ResolveHost(host)

	if path, ok := strings.CutPrefix(host, "unix://"); ok {
		if err := CheckSocket(path); err != nil {
			return nil, err
		}
	}

	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("Invalid Docker host %q", host),
			"Use a unix:// or tcp:// address in 'host' or DOCKER_HOST")
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	ping, err := cli.Ping(pingCtx)
	if err != nil {
		_ = cli.Close()
		if pingCtx.Err() == context.DeadlineExceeded {
			return nil, errors.WrapWithCode(err, errors.ErrConnection,
				fmt.Sprintf("Docker daemon at %s is not responding", host),
				"The socket accepts connections but the daemon never answered. Restart Docker and check 'docker info'")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("Can't reach the Docker daemon at %s", host),
			"Is Docker running? Try 'docker info'")
	}

	log.Debug("connected to %s (API %s)", host, ping.APIVersion)
	return &Docker{cli: cli, host: host, apiVersion: ping.APIVersion, log: log}, nil
}

// CheckSocket verifies a unix control socket exists and accepts a
// connection from this user.
func CheckSocket(path string) error {
	if _, err := os.Stat(path); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.WrapWithCode(fmt.Errorf("%w: %s", ErrSocketNotFound, path), errors.ErrConnection,
				fmt.Sprintf("Docker socket not found at %s", path),
				"Is Docker running? Start the daemon or set 'host' in .dockman.yaml")
		}
		if stderrors.Is(err, fs.ErrPermission) {
			return socketPermissionError(path, err)
		}
		return errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("Can't inspect Docker socket %s", path), "")
	}

	conn, err := net.DialTimeout("unix", path, socketProbeTimeout)
	if err != nil {
		if stderrors.Is(err, fs.ErrPermission) {
			return socketPermissionError(path, err)
		}
		return errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("Docker socket %s is not accepting connections", path),
			"Is Docker running? Try 'docker info'")
	}
	_ = conn.Close()
	return nil
}

func socketPermissionError(path string, cause error) error {
	return errors.WrapWithCode(fmt.Errorf("%w: %v", ErrSocketPermission, cause), errors.ErrConnection,
		fmt.Sprintf("Permission denied accessing Docker socket %s", path),
		"Add your user to the docker group (sudo usermod -aG docker $USER) and log in again, or run with sudo")
}

// Host returns the endpoint this client talks to.
func (d *Docker) Host() string { return d.host }

// APIVersion returns the negotiated Engine API version.
func (d *Docker) APIVersion() string { return d.apiVersion }

// Close releases the underlying HTTP client.
func (d *Docker) Close() error {
	return d.cli.Close()
}

// ListContainers lists containers and resolves each one's image tags with a
// single image listing.
func (d *Docker) ListContainers(ctx context.Context, all bool) ([]Container, error) {
	summaries, err := d.cli.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, err
	}

	tagsByImage := map[string][]string{}
	if images, err := d.cli.ImageList(ctx, image.ListOptions{}); err != nil {
		d.log.Debug("image lookup for container tags failed: %v", err)
	} else {
		for _, img := range images {
			tagsByImage[img.ID] = cleanTags(img.RepoTags)
		}
	}

	out := make([]Container, 0, len(summaries))
	for _, c := range summaries {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}

		tags, ok := tagsByImage[c.ImageID]
		if !ok && c.Image != "" && !strings.HasPrefix(c.Image, "sha256:") {
			tags = []string{c.Image}
		}

		ports := nat.PortMap{}
		for _, p := range c.Ports {
			addPort(ports, p.PrivatePort, p.Type, p.IP, p.PublicPort)
		}

		out = append(out, Container{
			ID:        c.ID,
			Name:      name,
			State:     string(c.State),
			ImageTags: tags,
			Ports:     ports,
			Created:   unixToISO(c.Created),
			Labels:    c.Labels,
		})
	}
	return out, nil
}

// addPort records one port entry of a container summary. The daemon lists a
// binding once per address family; bindings to the same host port collapse.
func addPort(ports nat.PortMap, private uint16, proto, hostIP string, public uint16) {
	if proto == "" {
		proto = "tcp"
	}
	key, err := nat.NewPort(proto, strconv.Itoa(int(private)))
	if err != nil {
		return
	}
	bindings, seen := ports[key]
	if !seen {
		ports[key] = nil
	}
	if public == 0 {
		return
	}
	hostPort := strconv.Itoa(int(public))
	for _, b := range bindings {
		if b.HostPort == hostPort {
			return
		}
	}
	ports[key] = append(bindings, nat.PortBinding{HostIP: hostIP, HostPort: hostPort})
}

// cleanTags drops the placeholder the daemon reports for untagged images.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "<none>:<none>" || t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func unixToISO(sec int64) string {
	if sec <= 0 {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

// statsJSON is the subset of the stats payload dockman reads.
type statsJSON struct {
	CPUStats    cpuStats `json:"cpu_stats"`
	PreCPUStats cpuStats `json:"precpu_stats"`
	MemoryStats struct {
		Usage uint64 `json:"usage"`
		Limit uint64 `json:"limit"`
	} `json:"memory_stats"`
}

type cpuStats struct {
	CPUUsage struct {
		TotalUsage uint64 `json:"total_usage"`
	} `json:"cpu_usage"`
	SystemUsage uint64 `json:"system_cpu_usage"`
}

// DecodeStats reads one stats document.
func DecodeStats(r io.Reader) (metrics.Sample, error) {
	var s statsJSON
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return metrics.Sample{}, fmt.Errorf("decode stats: %w", err)
	}
	return metrics.Sample{
		CPUTotal:       s.CPUStats.CPUUsage.TotalUsage,
		PreCPUTotal:    s.PreCPUStats.CPUUsage.TotalUsage,
		SystemUsage:    s.CPUStats.SystemUsage,
		PreSystemUsage: s.PreCPUStats.SystemUsage,
		MemoryUsage:    s.MemoryStats.Usage,
		MemoryLimit:    s.MemoryStats.Limit,
	}, nil
}

// ContainerStats takes a single, non-streaming stats reading.
func (d *Docker) ContainerStats(ctx context.Context, id string) (metrics.Sample, error) {
	resp, err := d.cli.ContainerStats(ctx, id, false)
	if err != nil {
		return metrics.Sample{}, err
	}
	defer resp.Body.Close()
	return DecodeStats(resp.Body)
}

func (d *Docker) ListImages(ctx context.Context) ([]Image, error) {
	images, err := d.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]Image, 0, len(images))
	for _, img := range images {
		out = append(out, Image{
			ID:      img.ID,
			Tags:    cleanTags(img.RepoTags),
			Size:    img.Size,
			Created: unixToISO(img.Created),
		})
	}
	return out, nil
}

func (d *Docker) ListVolumes(ctx context.Context) ([]Volume, error) {
	resp, err := d.cli.VolumeList(ctx, volume.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]Volume, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		if v == nil {
			continue
		}
		out = append(out, Volume{
			Name:       v.Name,
			Driver:     v.Driver,
			Mountpoint: v.Mountpoint,
			CreatedAt:  v.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *Docker) ListNetworks(ctx context.Context) ([]Network, error) {
	networks, err := d.cli.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]Network, 0, len(networks))
	for _, n := range networks {
		created := ""
		if !n.Created.IsZero() {
			created = n.Created.Format(time.RFC3339Nano)
		}
		out = append(out, Network{ID: n.ID, Name: n.Name, Driver: n.Driver, Created: created})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *Docker) StartContainer(ctx context.Context, id string) error {
	return d.cli.ContainerStart(ctx, id, container.StartOptions{})
}

func (d *Docker) StopContainer(ctx context.Context, id string, grace time.Duration) error {
	timeout := graceSeconds(grace)
	return d.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout})
}

func (d *Docker) RestartContainer(ctx context.Context, id string, grace time.Duration) error {
	timeout := graceSeconds(grace)
	return d.cli.ContainerRestart(ctx, id, container.StopOptions{Timeout: &timeout})
}

func graceSeconds(d time.Duration) int {
	return int(d.Round(time.Second) / time.Second)
}

func (d *Docker) RemoveContainer(ctx context.Context, id string, force bool) error {
	return d.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: force})
}

func (d *Docker) RemoveImage(ctx context.Context, id string, force bool) error {
	_, err := d.cli.ImageRemove(ctx, id, image.RemoveOptions{Force: force, PruneChildren: true})
	return err
}

func (d *Docker) RemoveVolume(ctx context.Context, name string, force bool) error {
	return d.cli.VolumeRemove(ctx, name, force)
}

func (d *Docker) RemoveNetwork(ctx context.Context, id string) error {
	return d.cli.NetworkRemove(ctx, id)
}

// ContainerLogs fetches the tail of a container's output. Non-TTY output is
// multiplexed and gets split back into a single readable stream.
func (d *Docker) ContainerLogs(ctx context.Context, id string, tail int) (string, error) {
	info, err := d.cli.ContainerInspect(ctx, id)
	if err != nil {
		return "", err
	}
	tty := info.Config != nil && info.Config.Tty

	opts := container.LogsOptions{ShowStdout: true, ShowStderr: true}
	if tail > 0 {
		opts.Tail = strconv.Itoa(tail)
	}
	rc, err := d.cli.ContainerLogs(ctx, id, opts)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	return ReadLogs(rc, tty)
}

// ReadLogs drains a log stream, demultiplexing it unless it came from a TTY.
func ReadLogs(r io.Reader, tty bool) (string, error) {
	var buf bytes.Buffer
	if tty {
		if _, err := io.Copy(&buf, r); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	if _, err := stdcopy.StdCopy(&buf, &buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var _ Gateway = (*Docker)(nil)
