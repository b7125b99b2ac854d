// Command studio-mcp bridges an AI assistant's stdio MCP session to
// Roblox Studio, which can only be driven by polling a loopback HTTP
// server. Whichever instance binds the fixed port becomes primary and
// hosts that server; any other concurrently running instance becomes a
// forwarder, relaying its own stdio tool calls to the primary instead.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/bridge"
	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/dispatch"
	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/forwarder"
	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/httpapi"
	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/portsentry"
)

const version = "0.1.0"

const shutdownGrace = 5 * time.Second

func main() {
	var stdio bool

	rootCmd := &cobra.Command{
		Use:     "studio-mcp",
		Short:   "MCP bridge between an AI assistant and Roblox Studio",
		Version: version,
		RunE:    runServer,
	}
	rootCmd.Flags().BoolVar(&stdio, "stdio", true, "run the stdio MCP + HTTP bridge (the only supported server mode)")
	rootCmd.AddCommand(installCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("[studio-mcp] fatal: %v", err)
		os.Exit(1)
	}
}

// resolvePort honors STUDIO_MCP_PORT for tests that need an ephemeral
// port; the real Studio plugin is hardcoded to portsentry.Port, so
// production runs always get the fixed port.
func resolvePort() int {
	if v := os.Getenv("STUDIO_MCP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			return p
		}
		log.Printf("[studio-mcp] ignoring invalid STUDIO_MCP_PORT=%q", v)
	}
	return portsentry.Port
}

func installCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Print instructions for installing the Studio plugin",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Install the companion Roblox Studio plugin from the marketplace, then add this binary as an MCP server in your assistant's configuration.")
			return nil
		},
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	port := resolvePort()
	if port == portsentry.Port {
		portsentry.Clear(ctx)
	}

	state := bridge.NewSharedState()
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	ln, bindErr := net.Listen("tcp4", addr)

	var shutdownHTTP func(context.Context) error

	if bindErr == nil {
		srv := httpapi.New(addr, state)
		go func() {
			if err := srv.Serve(ln); err != nil {
				log.Printf("[studio-mcp] http server exited: %v", err)
			}
		}()
		shutdownHTTP = srv.Shutdown
		log.Printf("[studio-mcp] bound %s, running as primary", addr)
	} else {
		log.Printf("[studio-mcp] could not bind %s (%v), running as forwarder", addr, bindErr)
		go forwarder.New(state, "http://"+addr).Run(ctx)
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "studio-mcp-bridge", Version: version}, nil)
	dispatch.New(state).Register(server)

	err := server.Run(ctx, &mcp.StdioTransport{})

	if shutdownHTTP != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		if shErr := shutdownHTTP(shutdownCtx); shErr != nil {
			log.Printf("[studio-mcp] http shutdown: %v", shErr)
		}
	}

	if err != nil {
		return fmt.Errorf("mcp session: %w", err)
	}
	return nil
}
