package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"CollabBoard/internal/config"
	"CollabBoard/internal/discovery"
	"CollabBoard/internal/export"
	"CollabBoard/internal/protocol"
	"CollabBoard/internal/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "collabboard",
		Short:         "Real-time collaborative whiteboard server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		discoverCmd(),
		exportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			}))
			slog.SetDefault(logger)
			logger.Info("starting", "config", cfg.String())

			if cfg.MDNSEnabled {
				port := addrPort(cfg.HTTPAddr)
				mdnsServer, err := discovery.Advertise(port)
				if err != nil {
					logger.Warn("mDNS advertise failed", "error", err)
				} else {
					defer mdnsServer.Shutdown()
					if ip, err := discovery.OutgoingIP(); err == nil {
						logger.Info("advertising on LAN", "addr", fmt.Sprintf("%s:%d", ip, port))
					}
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(cfg, logger).Run(ctx)
		},
	}
}

func discoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List board servers on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			found := false
			err := discovery.Browse(func(addr string) {
				found = true
				fmt.Println(addr)
			})
			if err != nil {
				return err
			}
			if !found {
				fmt.Println("no board servers found")
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a saved shape sequence to PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}
			var shapes []protocol.Shape
			if err := json.Unmarshal(data, &shapes); err != nil {
				return fmt.Errorf("parse %s: %w", in, err)
			}
			if err := export.WritePDF(out, shapes); err != nil {
				return err
			}
			fmt.Printf("wrote %d shapes to %s\n", len(shapes), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "shapes.json", "shape sequence JSON file")
	cmd.Flags().StringVar(&out, "out", "board.pdf", "output PDF path")
	return cmd
}

// addrPort extracts the port from a listen address like ":3001".
func addrPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 3001
	}
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port
}
