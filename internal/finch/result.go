package finch

import "fmt"

// Status values reported in every envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the status/message pair every operation returns.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Status == StatusSuccess }

func success(format string, args ...any) Result {
	return Result{Status: StatusSuccess, Message: fmt.Sprintf(format, args...)}
}

func failure(format string, args ...any) Result {
	return Result{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// ContainerListResult is returned by ListContainers. Exactly one of
// Containers or ContainersText is set on success.
type ContainerListResult struct {
	Result
	Containers     []map[string]any `json:"containers"`
	ContainersText string           `json:"containers_text,omitempty"`
}

// ImageListResult is returned by ListImages.
type ImageListResult struct {
	Result
	Images     []map[string]any `json:"images"`
	ImagesText string           `json:"images_text,omitempty"`
}

// ContainerInspectResult is returned by InspectContainer. ContainerInfo is
// nil when the output was not JSON.
type ContainerInspectResult struct {
	Result
	ContainerInfo any    `json:"container_info,omitempty"`
	RawOutput     string `json:"raw_output,omitempty"`
}

// ImageInspectResult is returned by InspectImage.
type ImageInspectResult struct {
	Result
	ImageInfo any    `json:"image_info,omitempty"`
	Output    string `json:"output,omitempty"`
}

// ContainerRunResult is returned by RunContainer.
type ContainerRunResult struct {
	Result
	ContainerID string `json:"container_id,omitempty"`
}

// VersionResult is returned by Version.
type VersionResult struct {
	Result
	Version string `json:"version,omitempty"`
}

// HelpResult is returned by Help.
type HelpResult struct {
	Result
	HelpText string `json:"help_text,omitempty"`
}

// BuildResult is returned by BuildImage.
type BuildResult struct {
	Result
	Stdout string `json:"stdout,omitempty"`
}

// PushResult is returned by PushImage.
type PushResult struct {
	Result
	TaggedImage string `json:"tagged_image,omitempty"`
	Stdout      string `json:"stdout,omitempty"`
}
