package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/soyeahso/finch-mcp/internal/finch"
)

const (
	readOnlyPushMessage   = "Server running in read-only mode, unable to push to ECR repository"
	readOnlyActionMessage = "Server running in read-only mode, unable to perform the action"
)

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: mcp.NewTool("finch_container_ls",
			mcp.WithDescription("List containers using finch. Output is parsed JSON, or the plain-text table when finch cannot produce JSON."),
			mcp.WithBoolean("all_containers", mcp.Description("Show all containers, not only running ones")),
			mcp.WithArray("filter_expr", mcp.Description("Filters, e.g. ['status=running', 'name=web']"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithNumber("last", mcp.Description("Show the n last created containers")),
			mcp.WithBoolean("latest", mcp.Description("Show the latest created container")),
			mcp.WithBoolean("no_trunc", mcp.Description("Do not truncate output")),
			mcp.WithBoolean("quiet", mcp.Description("Only display container IDs")),
			mcp.WithBoolean("size", mcp.Description("Display total file sizes")),
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: s.handle("finch_container_ls", s.containerList)},

		{Tool: mcp.NewTool("finch_container_inspect",
			mcp.WithDescription("Show detailed information about a container"),
			mcp.WithString("container_id", mcp.Required(), mcp.Description("Container ID or name")),
			mcp.WithString("format", mcp.Description("Output format: 'json' (default) or a Go template")),
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: s.handle("finch_container_inspect", s.containerInspect)},

		{Tool: mcp.NewTool("finch_container_run",
			mcp.WithDescription("Run a container from an image"),
			mcp.WithString("image", mcp.Required(), mcp.Description("Image to run")),
			mcp.WithString("name", mcp.Description("Container name")),
			mcp.WithBoolean("detach", mcp.Description("Run in the background (default true)"), mcp.DefaultBool(true)),
			mcp.WithArray("ports", mcp.Description("Port mappings, e.g. ['8080:80']"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithArray("volumes", mcp.Description("Volume mounts, e.g. ['/host:/container']"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithArray("env_vars", mcp.Description("Environment variables, e.g. ['KEY=value']"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithString("command", mcp.Description("Command to run, split on whitespace")),
			mcp.WithString("entrypoint", mcp.Description("Override the image entrypoint")),
			mcp.WithString("network", mcp.Description("Network to connect to")),
			mcp.WithString("restart_policy", mcp.Description("Restart policy: no, always, on-failure, unless-stopped")),
			mcp.WithString("memory", mcp.Description("Memory limit, e.g. '512m'")),
			mcp.WithString("cpus", mcp.Description("Number of CPUs, e.g. '1.5'")),
			mcp.WithString("platform", mcp.Description("Target platform, e.g. 'linux/amd64'")),
			mcp.WithString("user", mcp.Description("User to run as")),
			mcp.WithString("workdir", mcp.Description("Working directory inside the container")),
			mcp.WithArray("labels", mcp.Description("Labels, e.g. ['key=value']"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithBoolean("rm", mcp.Description("Remove the container when it exits")),
			mcp.WithBoolean("privileged", mcp.Description("Give extended privileges")),
			mcp.WithBoolean("read_only", mcp.Description("Mount the root filesystem read-only")),
			mcp.WithDestructiveHintAnnotation(false),
		), Handler: s.handle("finch_container_run", s.containerRun)},

		{Tool: mcp.NewTool("finch_container_stop",
			mcp.WithDescription("Stop a running container"),
			mcp.WithString("container_id", mcp.Required(), mcp.Description("Container ID or name")),
			mcp.WithNumber("time", mcp.Description("Seconds to wait before killing the container")),
			mcp.WithBoolean("force", mcp.Description("Force the stop")),
			mcp.WithDestructiveHintAnnotation(true),
		), Handler: s.handle("finch_container_stop", s.containerStop)},

		{Tool: mcp.NewTool("finch_container_remove",
			mcp.WithDescription("Remove a container"),
			mcp.WithString("container_id", mcp.Required(), mcp.Description("Container ID or name")),
			mcp.WithBoolean("force", mcp.Description("Force removal of a running container")),
			mcp.WithBoolean("volumes", mcp.Description("Remove anonymous volumes attached to the container")),
			mcp.WithDestructiveHintAnnotation(true),
		), Handler: s.handle("finch_container_remove", s.containerRemove)},

		{Tool: mcp.NewTool("finch_image_ls",
			mcp.WithDescription("List local images"),
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: s.handle("finch_image_ls", s.imageList)},

		{Tool: mcp.NewTool("finch_image_inspect",
			mcp.WithDescription("Show detailed information about an image"),
			mcp.WithString("image_name", mcp.Required(), mcp.Description("Image name or ID")),
			mcp.WithString("format", mcp.Description("Go template for the output")),
			mcp.WithString("mode", mcp.Description("Inspect mode: 'dockercompat' or 'native'")),
			mcp.WithString("platform", mcp.Description("Platform to inspect, e.g. 'linux/arm64'")),
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: s.handle("finch_image_inspect", s.imageInspect)},

		{Tool: mcp.NewTool("finch_version",
			mcp.WithDescription("Show the finch version"),
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: s.handle("finch_version", s.version)},

		{Tool: mcp.NewTool("finch_help",
			mcp.WithDescription("Show help for finch or one of its commands"),
			mcp.WithString("command", mcp.Description("Command to show help for, e.g. 'container run'")),
			mcp.WithReadOnlyHintAnnotation(true),
		), Handler: s.handle("finch_help", s.help)},

		{Tool: mcp.NewTool("finch_build_container_image",
			mcp.WithDescription("Build a container image. When the Dockerfile references ECR, the ecr-login credential helper is configured first."),
			mcp.WithString("dockerfile_path", mcp.Required(), mcp.Description("Absolute path to the Dockerfile")),
			mcp.WithString("context_path", mcp.Required(), mcp.Description("Absolute path to the build context directory")),
			mcp.WithArray("tags", mcp.Description("Tags to apply, e.g. ['myimage:latest']"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithArray("platforms", mcp.Description("Target platforms, e.g. ['linux/amd64']"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithString("target", mcp.Description("Build stage to target")),
			mcp.WithBoolean("no_cache", mcp.Description("Do not use the build cache")),
			mcp.WithBoolean("pull", mcp.Description("Always pull base images")),
			mcp.WithArray("build_contexts", mcp.Description("Additional build contexts"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithString("outputs", mcp.Description("Output destination")),
			mcp.WithArray("cache_from", mcp.Description("External cache sources"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithBoolean("quiet", mcp.Description("Suppress build output")),
			mcp.WithString("progress", mcp.Description("Progress output type"), mcp.DefaultString("auto")),
		), Handler: s.handle("finch_build_container_image", s.buildImage)},

		{Tool: mcp.NewTool("finch_push_image",
			mcp.WithDescription("Push an image, replacing its tag with the image hash. Pushing to ECR requires --enable-aws-resource-write."),
			mcp.WithString("image", mcp.Required(), mcp.Description("Full image name including repository and tag")),
		), Handler: s.handle("finch_push_image", s.pushImage)},

		{Tool: mcp.NewTool("finch_create_ecr_repo",
			mcp.WithDescription("Check whether an ECR repository exists and create it if not. Requires --enable-aws-resource-write."),
			mcp.WithString("repository_name", mcp.Required(), mcp.Description("Repository name")),
			mcp.WithString("region", mcp.Description("AWS region; defaults to the configured region")),
		), Handler: s.handle("finch_create_ecr_repo", s.createECRRepo)},
	}
}

// optionalInt returns nil when key is absent from the call arguments.
func optionalInt(req mcp.CallToolRequest, key string) *int {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	n := req.GetInt(key, 0)
	return &n
}

func (s *Server) containerList(ctx context.Context, req mcp.CallToolRequest) envelope {
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.ListContainers(ctx, finch.ContainerListOptions{
		All:     req.GetBool("all_containers", false),
		Filters: req.GetStringSlice("filter_expr", nil),
		Last:    optionalInt(req, "last"),
		Latest:  req.GetBool("latest", false),
		NoTrunc: req.GetBool("no_trunc", false),
		Quiet:   req.GetBool("quiet", false),
		Size:    req.GetBool("size", false),
	})
}

func (s *Server) containerInspect(ctx context.Context, req mcp.CallToolRequest) envelope {
	id, err := req.RequireString("container_id")
	if err != nil {
		return errorResult("%v", err)
	}
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.InspectContainer(ctx, id, req.GetString("format", ""))
}

func (s *Server) containerRun(ctx context.Context, req mcp.CallToolRequest) envelope {
	image, err := req.RequireString("image")
	if err != nil {
		return errorResult("%v", err)
	}
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.RunContainer(ctx, finch.ContainerRunOptions{
		Image:         image,
		Name:          req.GetString("name", ""),
		Detach:        req.GetBool("detach", true),
		Ports:         req.GetStringSlice("ports", nil),
		Volumes:       req.GetStringSlice("volumes", nil),
		EnvVars:       req.GetStringSlice("env_vars", nil),
		Command:       req.GetString("command", ""),
		Entrypoint:    req.GetString("entrypoint", ""),
		Network:       req.GetString("network", ""),
		RestartPolicy: req.GetString("restart_policy", ""),
		Memory:        req.GetString("memory", ""),
		CPUs:          req.GetString("cpus", ""),
		Platform:      req.GetString("platform", ""),
		User:          req.GetString("user", ""),
		Workdir:       req.GetString("workdir", ""),
		Labels:        req.GetStringSlice("labels", nil),
		Remove:        req.GetBool("rm", false),
		Privileged:    req.GetBool("privileged", false),
		ReadOnly:      req.GetBool("read_only", false),
	})
}

func (s *Server) containerStop(ctx context.Context, req mcp.CallToolRequest) envelope {
	id, err := req.RequireString("container_id")
	if err != nil {
		return errorResult("%v", err)
	}
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.StopContainer(ctx, id, optionalInt(req, "time"), req.GetBool("force", false))
}

func (s *Server) containerRemove(ctx context.Context, req mcp.CallToolRequest) envelope {
	id, err := req.RequireString("container_id")
	if err != nil {
		return errorResult("%v", err)
	}
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.RemoveContainer(ctx, id, req.GetBool("force", false), req.GetBool("volumes", false))
}

func (s *Server) imageList(ctx context.Context, _ mcp.CallToolRequest) envelope {
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.ListImages(ctx)
}

func (s *Server) imageInspect(ctx context.Context, req mcp.CallToolRequest) envelope {
	name, err := req.RequireString("image_name")
	if err != nil {
		return errorResult("%v", err)
	}
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.InspectImage(ctx, name, finch.ImageInspectOptions{
		Format:   req.GetString("format", ""),
		Mode:     req.GetString("mode", ""),
		Platform: req.GetString("platform", ""),
	})
}

func (s *Server) version(ctx context.Context, _ mcp.CallToolRequest) envelope {
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.Version(ctx)
}

func (s *Server) help(ctx context.Context, req mcp.CallToolRequest) envelope {
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.Help(ctx, req.GetString("command", ""))
}

func (s *Server) buildImage(ctx context.Context, req mcp.CallToolRequest) envelope {
	dockerfile, err := req.RequireString("dockerfile_path")
	if err != nil {
		return errorResult("%v", err)
	}
	contextPath, err := req.RequireString("context_path")
	if err != nil {
		return errorResult("%v", err)
	}

	if res := s.installed(); !res.OK() {
		return res
	}
	if finch.ContainsECRReference(dockerfile) {
		s.log.Info().Str("dockerfile", dockerfile).Msg("ECR reference detected in Dockerfile")
		if res := s.prepareECR(ctx); !res.OK() {
			return res
		}
	}
	if res := s.ensureVM(ctx); !res.OK() {
		return res
	}

	return s.client.BuildImage(ctx, finch.BuildOptions{
		DockerfilePath: dockerfile,
		ContextPath:    contextPath,
		Tags:           req.GetStringSlice("tags", nil),
		Platforms:      req.GetStringSlice("platforms", nil),
		Target:         req.GetString("target", ""),
		NoCache:        req.GetBool("no_cache", false),
		Pull:           req.GetBool("pull", false),
		BuildContexts:  req.GetStringSlice("build_contexts", nil),
		Outputs:        req.GetString("outputs", ""),
		CacheFrom:      req.GetStringSlice("cache_from", nil),
		Quiet:          req.GetBool("quiet", false),
		Progress:       req.GetString("progress", "auto"),
	})
}

func (s *Server) pushImage(ctx context.Context, req mcp.CallToolRequest) envelope {
	image, err := req.RequireString("image")
	if err != nil {
		return errorResult("%v", err)
	}

	if res := s.installed(); !res.OK() {
		return res
	}
	if finch.IsECRRepository(image) {
		if s.readOnly {
			s.log.Warn().Str("image", image).Msg("ECR push refused in read-only mode")
			return errorResult(readOnlyPushMessage)
		}
		if res := s.prepareECR(ctx); !res.OK() {
			return res
		}
	}
	if res := s.ensureVM(ctx); !res.OK() {
		return res
	}
	return s.client.PushImage(ctx, image)
}

func (s *Server) createECRRepo(ctx context.Context, req mcp.CallToolRequest) envelope {
	name, err := req.RequireString("repository_name")
	if err != nil {
		return errorResult("%v", err)
	}
	if s.readOnly {
		s.log.Warn().Str("repository", name).Msg("ECR repository creation refused in read-only mode")
		return errorResult(readOnlyActionMessage)
	}
	if s.ecr == nil {
		return errorResult("ECR support is not configured")
	}
	return s.ecr.EnsureRepository(ctx, name, req.GetString("region", ""))
}
