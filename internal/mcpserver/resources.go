package mcpserver

import (
	"context"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/soyeahso/finch-mcp/internal/finch"
	"github.com/soyeahso/finch-mcp/internal/store"
)

const (
	containersURI    = "finch://containers"
	imagesURI        = "finch://images"
	versionURI       = "finch://version"
	historyURI       = "finch://history"
	jsonMIME         = "application/json"
	historyPageLimit = 50
)

// historyResult lists recent finch invocations.
type historyResult struct {
	finch.Result
	Invocations []store.Invocation `json:"invocations"`
}

type resourceFunc func(ctx context.Context, uri string) envelope

func (s *Server) registerResources() {
	s.mcp.AddResource(mcp.NewResource(containersURI, "finch_container_ls",
		mcp.WithResourceDescription("All containers, including stopped ones"),
		mcp.WithMIMEType(jsonMIME),
	), s.resource(s.readContainers))

	s.mcp.AddResourceTemplate(mcp.NewResourceTemplate(containersURI+"/{container_id}", "finch_container_inspect",
		mcp.WithTemplateDescription("Detailed information about one container"),
		mcp.WithTemplateMIMEType(jsonMIME),
	), s.resource(s.readContainer))

	s.mcp.AddResource(mcp.NewResource(imagesURI, "finch_image_list",
		mcp.WithResourceDescription("Local images"),
		mcp.WithMIMEType(jsonMIME),
	), s.resource(s.readImages))

	s.mcp.AddResourceTemplate(mcp.NewResourceTemplate(imagesURI+"/{image_name}", "finch_image_inspect",
		mcp.WithTemplateDescription("Detailed information about one image"),
		mcp.WithTemplateMIMEType(jsonMIME),
	), s.resource(s.readImage))

	s.mcp.AddResource(mcp.NewResource(versionURI, "finch_version",
		mcp.WithResourceDescription("Installed finch version"),
		mcp.WithMIMEType(jsonMIME),
	), s.resource(s.readVersion))

	s.mcp.AddResource(mcp.NewResource(historyURI, "finch_history",
		mcp.WithResourceDescription("Recent finch invocations made by this server"),
		mcp.WithMIMEType(jsonMIME),
	), s.resource(s.readHistory))
}

// resource adapts a read into a resource handler that returns the envelope
// as indented JSON.
func (s *Server) resource(fn resourceFunc) func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := req.Params.URI
		ctx = withCaller(ctx, uri)
		s.log.Info().Str("uri", uri).Msg("resource read")

		text, err := render(fn(ctx, uri))
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: uri, MIMEType: jsonMIME, Text: text},
		}, nil
	}
}

// pathParam extracts the unescaped suffix of uri after prefix.
func pathParam(uri, prefix string) string {
	raw := strings.TrimPrefix(uri, prefix+"/")
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (s *Server) readContainers(ctx context.Context, _ string) envelope {
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.ListContainers(ctx, finch.ContainerListOptions{All: true})
}

func (s *Server) readContainer(ctx context.Context, uri string) envelope {
	id := pathParam(uri, containersURI)
	if id == "" {
		return errorResult("container_id is required")
	}
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.InspectContainer(ctx, id, "")
}

func (s *Server) readImages(ctx context.Context, _ string) envelope {
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.ListImages(ctx)
}

func (s *Server) readImage(ctx context.Context, uri string) envelope {
	name := pathParam(uri, imagesURI)
	if name == "" {
		return errorResult("image_name is required")
	}
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.InspectImage(ctx, name, finch.ImageInspectOptions{})
}

func (s *Server) readVersion(ctx context.Context, _ string) envelope {
	if res := s.guard(ctx); !res.OK() {
		return res
	}
	return s.client.Version(ctx)
}

func (s *Server) readHistory(ctx context.Context, _ string) envelope {
	if s.history == nil {
		return errorResult("Invocation history is disabled")
	}
	invs, err := s.history.Recent(ctx, historyPageLimit, "")
	if err != nil {
		return errorResult("Error reading history: %v", err)
	}
	if invs == nil {
		invs = []store.Invocation{}
	}
	return historyResult{
		Result:      finch.Result{Status: finch.StatusSuccess, Message: "Successfully listed recent invocations"},
		Invocations: invs,
	}
}
