package finch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// VMState is the classified output of "finch vm status".
type VMState string

const (
	VMRunning     VMState = "running"
	VMStopped     VMState = "stopped"
	VMNonexistent VMState = "nonexistent"
	VMUnknown     VMState = "unknown"
)

// classifyVM maps finch's free-form status output onto a VMState.
func classifyVM(out *Output) VMState {
	text := strings.ToLower(out.Stdout + "\n" + out.Stderr)
	switch {
	case strings.Contains(text, "nonexistent"):
		return VMNonexistent
	case strings.Contains(text, "stopped"):
		return VMStopped
	case strings.Contains(text, "running") && out.Success():
		return VMRunning
	default:
		return VMUnknown
	}
}

// VMStatus runs "finch vm status". The returned Output is nil only when
// finch could not be started.
func (c *Client) VMStatus(ctx context.Context) (VMState, *Output, error) {
	out, err := c.runner.Run(ctx, "vm", "status")
	if err != nil {
		return VMUnknown, out, err
	}
	return classifyVM(out), out, nil
}

func (c *Client) vmCommand(ctx context.Context, verb, done string, args ...string) Result {
	out, err := c.runner.Run(ctx, append([]string{"vm", verb}, args...)...)
	if err != nil {
		return failure("Error running finch vm %s: %v", verb, err)
	}
	if !out.Success() {
		return failure("Failed to %s Finch VM: %s", verb, out.ErrorText())
	}
	return success("%s", done)
}

// InitVM runs "finch vm init".
func (c *Client) InitVM(ctx context.Context) Result {
	return c.vmCommand(ctx, "init", "Finch VM was initialized successfully.")
}

// StartVM runs "finch vm start".
func (c *Client) StartVM(ctx context.Context) Result {
	return c.vmCommand(ctx, "start", "Finch VM was started successfully.")
}

// StopVM runs "finch vm stop".
func (c *Client) StopVM(ctx context.Context, force bool) Result {
	var args []string
	if force {
		args = append(args, "--force")
	}
	return c.vmCommand(ctx, "stop", "Finch VM was stopped successfully.", args...)
}

// NeedsVM reports whether finch runs containers inside a VM on this host.
func (c *Client) NeedsVM() bool { return c.goos != "linux" }

// EnsureVMRunning brings the VM to the running state, initializing or
// starting it as needed. On Linux finch runs natively and this is a no-op.
func (c *Client) EnsureVMRunning(ctx context.Context) Result {
	if !c.NeedsVM() {
		c.log.Debug().Msg("linux host, finch does not use a VM")
		return success("Finch does not use a VM on Linux..")
	}

	state, out, err := c.VMStatus(ctx)
	if err != nil {
		return failure("Error ensuring Finch VM is running: %v", err)
	}

	switch state {
	case VMNonexistent:
		c.log.Info().Msg("finch VM does not exist, initializing")
		return c.InitVM(ctx)
	case VMStopped:
		c.log.Info().Msg("finch VM is stopped, starting")
		return c.StartVM(ctx)
	case VMRunning:
		return success("Finch VM is already running.")
	default:
		return failure("Unknown VM status: status code %d", out.ExitCode)
	}
}

const ecrCredHelper = "ecr-login"

// ConfigureECR makes sure finch.yaml lists the ecr-login credential helper.
// changed reports whether the file was rewritten, in which case the VM must
// be restarted for finch to pick it up. The file is edited as a YAML node
// tree so comments and key order survive.
func ConfigureECR(path string) (res Result, changed bool) {
	var doc yaml.Node
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return failure("Failed to read finch config %s: %v", path, err), false
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return failure("Failed to parse finch config %s: %v", path, err), false
		}
	}
	if doc.Kind == 0 {
		doc.Kind = yaml.DocumentNode
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return failure("Failed to parse finch config %s: top level is not a mapping", path), false
	}

	helpers, err := credsHelpersNode(root)
	if err != nil {
		return failure("Failed to parse finch config %s: %v", path, err), false
	}
	for _, h := range helpers.Content {
		if h.Kind == yaml.ScalarNode && h.Value == ecrCredHelper {
			return success("ECR credential helper already configured"), false
		}
	}
	helpers.Content = append(helpers.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ecrCredHelper})

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return failure("Failed to encode finch config: %v", err), false
	}
	if err := enc.Close(); err != nil {
		return failure("Failed to encode finch config: %v", err), false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return failure("Failed to create finch config directory: %v", err), false
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return failure("Failed to write finch config %s: %v", path, err), false
	}
	return success("ECR credential helper configured in %s", path), true
}

// credsHelpersNode returns the creds_helpers sequence in root, adding an
// empty one when the key is missing or null.
func credsHelpersNode(root *yaml.Node) (*yaml.Node, error) {
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "creds_helpers" {
			continue
		}
		val := root.Content[i+1]
		switch {
		case val.Kind == yaml.SequenceNode:
			return val, nil
		case val.Kind == yaml.ScalarNode && val.ShortTag() == "!!null":
			*val = yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			return val, nil
		default:
			return nil, errors.New("creds_helpers is not a list")
		}
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "creds_helpers"},
		seq,
	)
	return seq, nil
}
