package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/formflow/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes resolution, evaluation, generation, canvas and validation as
MCP tools so agents can drive forms.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		clientKey, _ := cmd.Flags().GetString("client-key")

		srv := mcp.NewServer(a.engine,
			mcp.WithLogger(a.logger),
			mcp.WithClientKey(clientKey),
		)

		switch transport {
		case "stdio":
			// Logs go to stderr; stdout carries JSON-RPC.
			a.logger.Info("starting FormFlow MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			a.logger.Info("starting FormFlow MCP server (SSE)", "addr", addr)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.ServeSSE(ctx, addr); err != nil {
				return err
			}
			a.logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport %q: supported are stdio and sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("client-key", mcp.DefaultClientKey, "Rate limit key shared by all tool calls")
}
