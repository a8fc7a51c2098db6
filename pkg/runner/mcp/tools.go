package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerListAppsTool(srv, svc)
	registerListCategoriesTool(srv, svc)
	registerGetAppTool(srv, svc)
	registerLaunchAppTool(srv, svc)
	registerPinAppTool(srv, svc)
	registerSetCategoryTool(srv, svc)
	registerGetSettingsTool(srv, svc)
	registerSetThemeTool(srv, svc)
	registerUsageReportTool(srv, svc)
	registerListFoldersTool(srv, svc)
	registerOpenFolderTool(srv, svc)
}

func registerListFoldersTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_folders",
		mcp.WithDescription("List the quick-access folders."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list, err := svc.ListFolders(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"folders": list,
			"count":   len(list),
		})
	})
}

func registerOpenFolderTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"open_folder",
		mcp.WithDescription("Show a quick-access folder in the file manager."),
		mcp.WithString("folder",
			mcp.Required(),
			mcp.Description("Folder name or path as listed by list_folders."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("folder")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.OpenFolder(ctx, query)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerListAppsTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_apps",
		mcp.WithDescription("List installed applications, pinned and recently used first."),
		mcp.WithString("query",
			mcp.Description("Case-insensitive text matched against names and paths."),
		),
		mcp.WithString("category",
			mcp.Description("Only applications in this category, such as Games or Development."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of applications to return (default 50)."),
			mcp.Min(1),
			mcp.Max(500),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := request.GetString("query", "")
		category := request.GetString("category", "")
		limit := request.GetInt("limit", 50)

		results, err := svc.ListApps(ctx, query, category, limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"query":    query,
			"category": category,
			"apps":     results,
			"count":    len(results),
		})
	})
}

func registerListCategoriesTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_categories",
		mcp.WithDescription("List the categories in use and how many applications each holds."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summaries, err := svc.ListCategories(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"categories": summaries,
			"count":      len(summaries),
		})
	})
}

func registerGetAppTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"get_app",
		mcp.WithDescription("Fetch a single application by name or path."),
		mcp.WithString("app",
			mcp.Required(),
			mcp.Description("Application name, unique name prefix, or path."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("app")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.App(ctx, query)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerLaunchAppTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"launch_app",
		mcp.WithDescription("Launch an application and record when it was used."),
		mcp.WithString("app",
			mcp.Required(),
			mcp.Description("Application name, unique name prefix, or path."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("app")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.Launch(ctx, query)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerPinAppTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"pin_app",
		mcp.WithDescription("Pin an application to the top of the list, or unpin it."),
		mcp.WithString("app",
			mcp.Required(),
			mcp.Description("Application name, unique name prefix, or path."),
		),
		mcp.WithBoolean("pinned",
			mcp.Description("false unpins the application (default true)."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("app")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.SetPinned(ctx, query, request.GetBool("pinned", true))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerSetCategoryTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"set_category",
		mcp.WithDescription("Move an application into a category. An empty category restores the one the system reports."),
		mcp.WithString("app",
			mcp.Required(),
			mcp.Description("Application name, unique name prefix, or path."),
		),
		mcp.WithString("category",
			mcp.Description("Games, Utilities, Media, Development, Other, or a custom name."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("app")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.SetCategory(ctx, query, request.GetString("category", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerGetSettingsTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"get_settings",
		mcp.WithDescription("Show the theme mode, accent color and startup preferences."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		st, err := svc.Settings(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(st)
	})
}

func registerSetThemeTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"set_theme",
		mcp.WithDescription("Change the theme mode."),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Description("Theme mode to use."),
			mcp.Enum("light", "dark", "black", "system"),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mode, err := request.RequireString("mode")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		st, err := svc.SetTheme(ctx, mode)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(st)
	})
}

func registerUsageReportTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"usage_report",
		mcp.WithDescription("Applications launched within a recent window, grouped by category."),
		mcp.WithString("window",
			mcp.Description("How far back to look, like 12h, 7d or 2w (default 7d)."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		window := strings.TrimSpace(request.GetString("window", "7d"))
		if window == "" {
			window = "7d"
		}
		result, err := svc.Report(ctx, window)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(result)
	})
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return result, nil
}
