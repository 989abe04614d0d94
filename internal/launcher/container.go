package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"
	"github.com/signalnine/simsweep/internal/config"
	"github.com/signalnine/simsweep/internal/observability"
	"go.uber.org/zap"
)

// Container runs each request inside a fresh container of Image. The job's
// output directory is bind-mounted at the same path so the invocation needs
// no rewriting.
type Container struct {
	Image       string
	Env         []string
	Mounts      []mount.Mount
	CPULimit    float64
	MemoryLimit int64
	cli         *client.Client
}

// NewContainer connects to the daemon described by the DOCKER_* environment.
func NewContainer(s config.ContainerSettings, env []string) (*Container, error) {
	mounts := make([]mount.Mount, 0, len(s.Mounts))
	for _, spec := range s.Mounts {
		m, err := ParseMount(spec)
		if err != nil {
			return nil, err
		}
		mounts = append(mounts, m)
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	return &Container{
		Image:       s.Image,
		Env:         env,
		Mounts:      mounts,
		CPULimit:    s.CPULimit,
		MemoryLimit: s.MemoryLimit,
		cli:         cli,
	}, nil
}

// ParseMount accepts "source:target" or "source:target:ro".
func ParseMount(spec string) (mount.Mount, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return mount.Mount{}, fmt.Errorf("invalid mount %q: want source:target[:ro]", spec)
	}
	src, err := filepath.Abs(parts[0])
	if err != nil {
		return mount.Mount{}, fmt.Errorf("resolving mount source %s: %w", parts[0], err)
	}
	m := mount.Mount{Type: mount.TypeBind, Source: src, Target: parts[1]}
	if len(parts) == 3 {
		if parts[2] != "ro" {
			return mount.Mount{}, fmt.Errorf("invalid mount %q: unknown option %q", spec, parts[2])
		}
		m.ReadOnly = true
	}
	return m, nil
}

func (c *Container) Close() error {
	return c.cli.Close()
}

// Preflight checks that the daemon is reachable and the image is present.
func (c *Container) Preflight(ctx context.Context) error {
	if _, err := c.cli.ImageInspect(ctx, c.Image); err != nil {
		return fmt.Errorf("inspecting image %s: %w", c.Image, err)
	}
	return nil
}

func (c *Container) Launch(ctx context.Context, req Request) (int, error) {
	if len(req.Argv) == 0 {
		return -1, &LaunchError{Executable: c.Image, Err: fmt.Errorf("empty invocation")}
	}
	outDir, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return -1, &LaunchError{Executable: req.Argv[0], Err: err}
	}

	mounts := append([]mount.Mount{{
		Type:   mount.TypeBind,
		Source: outDir,
		Target: outDir,
	}}, c.Mounts...)

	initTrue := true
	hostCfg := &container.HostConfig{
		Mounts: mounts,
		Init:   &initTrue,
	}
	if c.CPULimit > 0 {
		hostCfg.NanoCPUs = int64(c.CPULimit * 1e9)
	}
	if c.MemoryLimit > 0 {
		hostCfg.Memory = c.MemoryLimit
	}

	containerCfg := &container.Config{
		Image:  c.Image,
		Cmd:    req.Argv,
		Env:    c.Env,
		Labels: map[string]string{"simsweep": "true"},
		User:   fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
		Tty:    true,
	}

	createResp, err := c.cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     containerCfg,
		HostConfig: hostCfg,
	})
	if err != nil {
		return -1, &LaunchError{Executable: req.Argv[0], Err: fmt.Errorf("creating container: %w", err)}
	}
	containerID := createResp.ID
	defer func() {
		c.cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	if _, err := c.cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return -1, &LaunchError{Executable: req.Argv[0], Err: fmt.Errorf("starting container: %w", err)}
	}

	waitResult := c.cli.ContainerWait(ctx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
	for {
		select {
		case err := <-waitResult.Error:
			if err == nil {
				continue
			}
			c.cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
			c.copyLogs(containerID, req.Log)
			if ctx.Err() != nil {
				return -1, ctx.Err()
			}
			return -1, fmt.Errorf("waiting for container: %w", err)
		case status := <-waitResult.Result:
			c.copyLogs(containerID, req.Log)
			return int(status.StatusCode), nil
		}
	}
}

// copyLogs appends the container's output to w. Tty mode means the stream
// is not multiplexed.
func (c *Container) copyLogs(containerID string, w io.Writer) {
	if w == nil {
		return
	}
	logReader, err := c.cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		observability.CLILogger.Warn("reading container logs", zap.String("container", containerID), zap.Error(err))
		return
	}
	defer logReader.Close()
	if _, err := io.Copy(w, logReader); err != nil {
		observability.CLILogger.Warn("copying container logs", zap.String("container", containerID), zap.Error(err))
	}
}
