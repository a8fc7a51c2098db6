package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerResources(srv *server.MCPServer, svc *Service) {
	registerAppsResource(srv, svc)
	registerCategoryTemplate(srv, svc)
	registerSettingsResource(srv, svc)
}

func registerAppsResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"apphub://apps",
		"Applications",
		mcp.WithResourceDescription("Every installed application in display order."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		results, err := svc.ListApps(ctx, "", "", 0)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{
			"apps":  results,
			"count": len(results),
		})
	})
}

func registerCategoryTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"apphub://categories/{name}",
		"Category Applications",
		mcp.WithTemplateDescription("Applications that belong to a category."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		name := templateArg(request.Params.Arguments["name"])
		if name == "" {
			return nil, fmt.Errorf("category name is required")
		}
		results, err := svc.ListApps(ctx, "", name, 0)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{
			"category": name,
			"apps":     results,
			"count":    len(results),
		})
	})
}

func registerSettingsResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"apphub://settings",
		"Settings",
		mcp.WithResourceDescription("Theme, accent color and startup preferences."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		st, err := svc.Settings(ctx)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, st)
	})
}

// templateArg reads a URI template variable, which arrives as a string or
// a single element list depending on the template expansion.
func templateArg(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
	}
	return ""
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
