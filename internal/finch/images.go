package finch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ListImages lists images as parsed JSON with the same plain-text fallback
// as ListContainers.
func (c *Client) ListImages(ctx context.Context) ImageListResult {
	c.log.Info().Msg("listing images")

	args := []string{"image", "ls", "--format", "json"}
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return ImageListResult{Result: failure("Error listing images: %v", err)}
	}
	if !out.Success() {
		return ImageListResult{Result: failure("Failed to list images: %s", out.ErrorText())}
	}

	images, perr := ParseJSONLines(out.Stdout)
	if perr != nil {
		c.log.Warn().Err(perr).Msg("image list is not JSON, retrying as plain text")

		plain, err := c.runner.Run(ctx, withoutJSONFormat(args)...)
		if err != nil {
			return ImageListResult{Result: failure("Error listing images: %v", err)}
		}
		if !plain.Success() {
			return ImageListResult{Result: failure("Failed to list images: %s", plain.ErrorText())}
		}
		return ImageListResult{
			Result:     success("Successfully listed %d images (plain text format)", countTableRows(plain.Stdout, true)),
			ImagesText: plain.Stdout,
		}
	}

	return ImageListResult{
		Result: success("Successfully listed %d images", len(images)),
		Images: images,
	}
}

// ImageInspectOptions mirrors the flags of "finch image inspect".
type ImageInspectOptions struct {
	Format   string // Go template; output is returned verbatim when set
	Mode     string // "dockercompat" | "native"
	Platform string
}

// InspectImage runs "finch image inspect".
func (c *Client) InspectImage(ctx context.Context, name string, opts ImageInspectOptions) ImageInspectResult {
	args := []string{"image", "inspect"}
	if opts.Format != "" {
		args = append(args, "--format", opts.Format)
	}
	if opts.Mode != "" {
		args = append(args, "--mode", opts.Mode)
	}
	if opts.Platform != "" {
		args = append(args, "--platform", opts.Platform)
	}
	args = append(args, name)

	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return ImageInspectResult{Result: failure("Error inspecting image: %v", err)}
	}
	if !out.Success() {
		return ImageInspectResult{Result: failure("Failed to inspect image: %s", out.ErrorText())}
	}

	res := ImageInspectResult{Result: success("Successfully inspected image %s", name)}
	if opts.Format != "" {
		res.Output = out.Stdout
		return res
	}
	var info any
	if err := json.Unmarshal([]byte(out.Stdout), &info); err != nil {
		res.Output = out.Stdout
		return res
	}
	res.ImageInfo = redactEnv(info)
	return res
}

// BuildOptions mirrors the flags of "finch image build".
type BuildOptions struct {
	DockerfilePath string
	ContextPath    string
	Tags           []string
	Platforms      []string
	Target         string
	NoCache        bool
	Pull           bool
	BuildContexts  []string
	Outputs        string
	CacheFrom      []string
	Quiet          bool
	Progress       string
}

// Args builds the argument list for "finch image build".
func (o BuildOptions) Args() []string {
	args := []string{"image", "build", "-f", o.DockerfilePath}
	for _, t := range o.Tags {
		args = append(args, "-t", t)
	}
	for _, p := range o.Platforms {
		args = append(args, "--platform", p)
	}
	if o.Target != "" {
		args = append(args, "--target", o.Target)
	}
	if o.NoCache {
		args = append(args, "--no-cache")
	}
	if o.Pull {
		args = append(args, "--pull")
	}
	for _, bc := range o.BuildContexts {
		args = append(args, "--build-context", bc)
	}
	if o.Outputs != "" {
		args = append(args, "--output", o.Outputs)
	}
	for _, cf := range o.CacheFrom {
		args = append(args, "--cache-from", cf)
	}
	if o.Quiet {
		args = append(args, "-q")
	}
	if o.Progress != "" && o.Progress != "auto" {
		args = append(args, "--progress", o.Progress)
	}
	return append(args, o.ContextPath)
}

// BuildImage runs "finch image build" after checking that the Dockerfile and
// context directory exist.
func (c *Client) BuildImage(ctx context.Context, opts BuildOptions) BuildResult {
	if _, err := os.Stat(opts.DockerfilePath); err != nil {
		return BuildResult{Result: failure("Dockerfile not found at %s", opts.DockerfilePath)}
	}
	if info, err := os.Stat(opts.ContextPath); err != nil || !info.IsDir() {
		return BuildResult{Result: failure("Context directory not found at %s", opts.ContextPath)}
	}

	c.log.Info().
		Str("dockerfile", opts.DockerfilePath).
		Str("context", opts.ContextPath).
		Strs("tags", opts.Tags).
		Msg("building image")

	out, err := c.runner.Run(ctx, opts.Args()...)
	if err != nil {
		return BuildResult{Result: failure("Error building image: %v", err)}
	}
	if !out.Success() {
		return BuildResult{Result: failure("Failed to build image: %s", out.ErrorText())}
	}
	return BuildResult{
		Result: success("Successfully built image from %s", opts.DockerfilePath),
		Stdout: out.Stdout,
	}
}

// TagImage runs "finch image tag".
func (c *Client) TagImage(ctx context.Context, source, target string) Result {
	out, err := c.runner.Run(ctx, "image", "tag", source, target)
	if err != nil {
		return failure("Error tagging image: %v", err)
	}
	if !out.Success() {
		return failure("Failed to tag image: %s", out.ErrorText())
	}
	return success("Successfully tagged %s as %s", source, target)
}

// ImageHash returns the image ID reported by finch, e.g. "sha256:abc...".
func (c *Client) ImageHash(ctx context.Context, image string) (string, Result) {
	out, err := c.runner.Run(ctx, "image", "inspect", "--format", "{{.ID}}", image)
	if err != nil {
		return "", failure("Error getting image hash: %v", err)
	}
	if !out.Success() {
		return "", failure("Failed to get hash for image %s: %s", image, out.ErrorText())
	}
	hash := strings.TrimSpace(out.Stdout)
	if hash == "" {
		return "", failure("Failed to get hash for image %s: empty output", image)
	}
	return hash, success("Image hash is %s", hash)
}

// hashTag derives the short tag pushed alongside an image: the first 12
// hex characters of the digest.
func hashTag(hash string) string {
	h := strings.TrimPrefix(hash, "sha256:")
	if len(h) > 12 {
		h = h[:12]
	}
	return h
}

// repository strips the tag or digest from an image reference, leaving any
// registry port intact.
func repository(image string) string {
	if i := strings.Index(image, "@"); i >= 0 {
		image = image[:i]
	}
	slash := strings.LastIndex(image, "/")
	if colon := strings.LastIndex(image, ":"); colon > slash {
		image = image[:colon]
	}
	return image
}

// PushImage tags image with its short content hash and pushes that tag, so
// every push is addressable by content.
func (c *Client) PushImage(ctx context.Context, image string) PushResult {
	hash, res := c.ImageHash(ctx, image)
	if !res.OK() {
		return PushResult{Result: res}
	}

	tagged := fmt.Sprintf("%s:%s", repository(image), hashTag(hash))
	if res := c.TagImage(ctx, image, tagged); !res.OK() {
		return PushResult{Result: res}
	}

	c.log.Info().Str("image", tagged).Msg("pushing image")
	out, err := c.runner.Run(ctx, "image", "push", tagged)
	if err != nil {
		return PushResult{Result: failure("Error pushing image: %v", err)}
	}
	if !out.Success() {
		return PushResult{Result: failure("Failed to push image: %s", out.ErrorText())}
	}
	return PushResult{
		Result:      success("Successfully pushed image %s", tagged),
		TaggedImage: tagged,
		Stdout:      out.Stdout,
	}
}
