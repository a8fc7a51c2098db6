package commands

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/runner/mcp"
)

func addMCP(topLevel *cobra.Command) {
	httpAddr := ""
	path := "/mcp"

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the hub to agents over the Model Context Protocol.",
		Long: `Serve the hub over the Model Context Protocol. Agents can list, launch,
pin and categorize applications and read the appearance settings. The server
speaks stdio unless --http is given.`,
		Example: `
apphub mcp
apphub mcp --http 127.0.0.1:8765
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			r := mcp.Runner{
				Service:   svc,
				Name:      "apphub",
				Version:   version,
				Transport: mcp.TransportStdio,
			}
			if httpAddr != "" {
				r.Transport = mcp.TransportHTTP
				r.HTTPListenAddr = httpAddr
				r.HTTPEndpointPath = path
				r.OnHTTPListening = func(addr net.Addr) {
					_, _ = fmt.Fprintf(os.Stderr, "MCP listening on http://%s%s\n", addr, path)
				}
			}
			return r.Do(ctx)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "Serve streamable HTTP on this address instead of stdio.")
	cmd.Flags().StringVar(&path, "path", path, "Endpoint path for the HTTP transport.")
	topLevel.AddCommand(cmd)
}
