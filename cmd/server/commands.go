package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/ticketboard-server/internal/app"
	"github.com/vovakirdan/ticketboard-server/internal/auth"
	"github.com/vovakirdan/ticketboard-server/internal/config"
	"github.com/vovakirdan/ticketboard-server/internal/log"
	"github.com/vovakirdan/ticketboard-server/internal/proto"
)

type rootOptions struct {
	configPath string
	addr       string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "ticketboard",
		Short:         "Live queue board server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	for _, c := range []*cobra.Command{root, serve} {
		c.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides config)")
		c.Flags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")
	}

	root.AddCommand(serve, newTokenCmd(opts), newAssignCmd())
	return root
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	bootstrap := log.New("info", "console")

	cfg, path, err := config.Load(bootstrap, opts.configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.UpdateFrom(config.Config{Addr: opts.addr, LogLevel: opts.logLevel})
	return cfg, nil
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := log.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting ticketboard server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a producer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.ProducerSecret == "" {
				return errors.New("producer_secret is not configured")
			}

			token, err := auth.GenerateToken(&auth.JWTConfig{
				Secret: []byte(cfg.ProducerSecret),
				Issuer: cfg.ProducerIssuer,
				TTL:    cfg.ProducerTokenTTL,
			}, subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject, e.g. the desk name")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newAssignCmd() *cobra.Command {
	var (
		url     string
		number  string
		desk    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Announce an assignment over WebSocket and print the resulting board",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			conn, _, err := websocket.Dial(ctx, url, nil)
			if err != nil {
				return fmt.Errorf("dial %s: %w", url, err)
			}
			defer conn.Close(websocket.StatusNormalClosure, "done")

			data, err := json.Marshal(proto.AssignData{
				Number: proto.Identifier(number),
				Desk:   proto.Identifier(desk),
			})
			if err != nil {
				return err
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeAssign, Data: data}); err != nil {
				return fmt.Errorf("send assign: %w", err)
			}

			// The first frame may be the connect snapshot; wait for the board
			// that contains our assignment in the newest slot.
			for {
				var out struct {
					Type  string         `json:"type"`
					Event string         `json:"event"`
					Data  proto.LastFour `json:"data"`
					Error *proto.Error   `json:"error"`
				}
				if err := wsjson.Read(ctx, conn, &out); err != nil {
					return fmt.Errorf("read reply: %w", err)
				}
				if out.Type == proto.OutboundTypeError && out.Error != nil {
					return fmt.Errorf("%s: %s", out.Error.Code, out.Error.Msg)
				}
				if out.Event != proto.EventLastFour || len(out.Data) == 0 || out.Data[0] == nil {
					continue
				}
				if string(out.Data[0].Number) != number || string(out.Data[0].Desk) != desk {
					continue
				}
				printBoard(cmd, out.Data)
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&url, "url", "ws://localhost:8080/ws", "WebSocket endpoint")
	cmd.Flags().StringVar(&number, "number", "", "ticket number")
	cmd.Flags().StringVar(&desk, "desk", "", "desk serving the ticket")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "overall timeout")
	_ = cmd.MarkFlagRequired("number")
	_ = cmd.MarkFlagRequired("desk")
	return cmd
}

func printBoard(cmd *cobra.Command, slots proto.LastFour) {
	w := cmd.OutOrStdout()
	for i, s := range slots {
		if s == nil {
			fmt.Fprintf(w, "%d. -\n", i+1)
			continue
		}
		fmt.Fprintf(w, "%d. %s -> desk %s\n", i+1, s.Number, s.Desk)
	}
}
