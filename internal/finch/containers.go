package finch

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// ContainerListOptions mirrors the flags of "finch container ls".
type ContainerListOptions struct {
	All     bool
	Filters []string
	Last    *int
	Latest  bool
	NoTrunc bool
	Quiet   bool
	Size    bool
}

// Args builds the argument list, always requesting JSON output.
func (o ContainerListOptions) Args() []string {
	args := []string{"container", "ls", "--format", "json"}
	if o.All {
		args = append(args, "-a")
	}
	for _, f := range o.Filters {
		args = append(args, "-f", f)
	}
	if o.Last != nil {
		args = append(args, "-n", strconv.Itoa(*o.Last))
	}
	if o.Latest {
		args = append(args, "-l")
	}
	if o.NoTrunc {
		args = append(args, "--no-trunc")
	}
	if o.Quiet {
		args = append(args, "-q")
	}
	if o.Size {
		args = append(args, "-s")
	}
	return args
}

// ListContainers lists containers as parsed JSON, falling back to finch's
// plain-text table when the JSON lines cannot be decoded.
func (c *Client) ListContainers(ctx context.Context, opts ContainerListOptions) ContainerListResult {
	c.log.Info().Bool("all", opts.All).Msg("listing containers")

	args := opts.Args()
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return ContainerListResult{Result: failure("Error listing containers: %v", err)}
	}
	if !out.Success() {
		return ContainerListResult{Result: failure("Failed to list containers: %s", out.ErrorText())}
	}

	containers, perr := ParseJSONLines(out.Stdout)
	if perr != nil {
		c.log.Warn().Err(perr).Msg("container list is not JSON, retrying as plain text")

		plain, err := c.runner.Run(ctx, withoutJSONFormat(args)...)
		if err != nil {
			return ContainerListResult{Result: failure("Error listing containers: %v", err)}
		}
		if !plain.Success() {
			return ContainerListResult{Result: failure("Failed to list containers: %s", plain.ErrorText())}
		}
		n := countTableRows(plain.Stdout, !opts.Quiet)
		return ContainerListResult{
			Result:         success("Successfully listed %d containers (plain text format)", n),
			ContainersText: plain.Stdout,
		}
	}

	return ContainerListResult{
		Result:     success("Successfully listed %d containers", len(containers)),
		Containers: containers,
	}
}

// InspectContainer runs "finch container inspect". Output that does not
// decode as JSON (for example with a Go template format) is still a success.
func (c *Client) InspectContainer(ctx context.Context, id, format string) ContainerInspectResult {
	if format == "" {
		format = "json"
	}
	out, err := c.runner.Run(ctx, "container", "inspect", "--format", format, id)
	if err != nil {
		return ContainerInspectResult{Result: failure("Error inspecting container: %v", err)}
	}
	if !out.Success() {
		return ContainerInspectResult{Result: failure("Failed to inspect container: %s", out.ErrorText())}
	}

	res := ContainerInspectResult{
		Result:    success("Successfully inspected container %s", id),
		RawOutput: redactEnvText(out.Stdout),
	}
	var info any
	if err := json.Unmarshal([]byte(out.Stdout), &info); err == nil {
		res.ContainerInfo = redactEnv(info)
		if data, err := json.Marshal(res.ContainerInfo); err == nil {
			res.RawOutput = string(data)
		}
	}
	return res
}

// ContainerRunOptions mirrors the flags of "finch container run".
type ContainerRunOptions struct {
	Image         string
	Name          string
	Detach        bool
	Ports         []string
	Volumes       []string
	EnvVars       []string
	Command       string
	Entrypoint    string
	Network       string
	RestartPolicy string
	Memory        string
	CPUs          string
	Platform      string
	User          string
	Workdir       string
	Labels        []string
	Remove        bool
	Privileged    bool
	ReadOnly      bool
}

// Args builds the argument list. The command string is split on whitespace
// and appended after the image.
func (o ContainerRunOptions) Args() []string {
	args := []string{"container", "run"}
	if o.Name != "" {
		args = append(args, "--name", o.Name)
	}
	if o.Detach {
		args = append(args, "-d")
	}
	for _, p := range o.Ports {
		args = append(args, "-p", p)
	}
	for _, v := range o.Volumes {
		args = append(args, "-v", v)
	}
	for _, e := range o.EnvVars {
		args = append(args, "-e", e)
	}

	for _, f := range []struct{ flag, val string }{
		{"--network", o.Network},
		{"--restart", o.RestartPolicy},
		{"--memory", o.Memory},
		{"--cpus", o.CPUs},
		{"--platform", o.Platform},
		{"--user", o.User},
		{"--workdir", o.Workdir},
	} {
		if f.val != "" {
			args = append(args, f.flag, f.val)
		}
	}

	for _, l := range o.Labels {
		args = append(args, "--label", l)
	}
	if o.Remove {
		args = append(args, "--rm")
	}
	if o.Privileged {
		args = append(args, "--privileged")
	}
	if o.ReadOnly {
		args = append(args, "--read-only")
	}
	if o.Entrypoint != "" {
		args = append(args, "--entrypoint", o.Entrypoint)
	}

	args = append(args, o.Image)
	args = append(args, strings.Fields(o.Command)...)
	return args
}

// RunContainer starts a container and returns its ID as printed by finch.
func (c *Client) RunContainer(ctx context.Context, opts ContainerRunOptions) ContainerRunResult {
	c.log.Info().Str("image", opts.Image).Str("name", opts.Name).Msg("running container")

	out, err := c.runner.Run(ctx, opts.Args()...)
	if err != nil {
		return ContainerRunResult{Result: failure("Error running container: %v", err)}
	}
	if !out.Success() {
		return ContainerRunResult{Result: failure("Failed to run container: %s", out.ErrorText())}
	}
	return ContainerRunResult{
		Result:      success("Successfully started container from image %s", opts.Image),
		ContainerID: strings.TrimSpace(out.Stdout),
	}
}

// StopContainer runs "finch container stop". A nil timeout leaves finch's default.
func (c *Client) StopContainer(ctx context.Context, id string, timeout *int, force bool) Result {
	args := []string{"container", "stop"}
	if timeout != nil {
		args = append(args, "--time", strconv.Itoa(*timeout))
	}
	if force {
		args = append(args, "--force")
	}
	args = append(args, id)

	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return failure("Error stopping container: %v", err)
	}
	if !out.Success() {
		return failure("Failed to stop container: %s", out.ErrorText())
	}
	return success("Successfully stopped container %s", id)
}

// RemoveContainer runs "finch container rm".
func (c *Client) RemoveContainer(ctx context.Context, id string, force, volumes bool) Result {
	args := []string{"container", "rm"}
	if force {
		args = append(args, "--force")
	}
	if volumes {
		args = append(args, "--volumes")
	}
	args = append(args, id)

	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return failure("Error removing container: %v", err)
	}
	if !out.Success() {
		return failure("Failed to remove container: %s", out.ErrorText())
	}
	return success("Successfully removed container %s", id)
}
