package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/termdeck"
	"pkt.systems/termdeck/internal/appconfig"
	"pkt.systems/termdeck/internal/command"
	"pkt.systems/termdeck/internal/eventbus"
	"pkt.systems/termdeck/internal/format"
	"pkt.systems/termdeck/schema"
)

func newRunCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the terminal deck",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			return runDeck(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file path")
	return cmd
}

func runDeck(ctx context.Context, cfg appconfig.Config) error {
	logger := pslog.Ctx(ctx)

	defaultMode := schema.ModeSandboxed
	if cfg.Service.DefaultMode != "" {
		mode, err := schema.NormalizeExecutionMode(cfg.Service.DefaultMode)
		if err != nil {
			return err
		}
		defaultMode = mode
	}

	deck, err := termdeck.New(termdeck.Config{
		Service: schema.ServiceConfig{
			ProjectRoot:        cfg.ProjectRoot,
			ShellCandidates:    cfg.Shell.Candidates,
			DefaultShell:       cfg.Shell.Default,
			ScrollbackMaxLines: cfg.Service.ScrollbackMaxLines,
			HistoryMaxEntries:  cfg.Service.HistoryMaxEntries,
		},
		StateDir:      cfg.StateDir,
		LocalEndpoint: cfg.Backends.Local.Endpoint,
		CloudEndpoint: cfg.Backends.Cloud.Endpoint,
		Defaults: schema.Settings{
			ExecutionMode: defaultMode,
			LocalModel:    schema.ModelID(cfg.Backends.Local.Model),
			CloudModel:    schema.ModelID(cfg.Backends.Cloud.Model),
			CloudEndpoint: cfg.Backends.Cloud.Endpoint,
		},
	}, termdeck.Deps{Logger: logger})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := deck.Close(closeCtx); err != nil {
			logger.Warn("deck close failed", "err", err)
		}
	}()

	service := deck.Service()
	resp, err := service.CreatePane(ctx, schema.CreatePaneRequest{})
	if err != nil {
		return err
	}
	active := resp.Pane.ID
	fmt.Printf("pane opened: %s (%s)\n", active, resp.Pane.Shell)

	events, unsubscribe := deck.Subscribe("")
	defer unsubscribe()
	go printEvents(events)

	handler := command.NewHandler(service, deck.Settings(), command.HandlerConfig{Out: os.Stdout})

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "/quit" || trimmed == "/exit" {
			return nil
		}
		if next, ok := parseUse(trimmed); ok {
			active = next
			fmt.Printf("active pane: %s\n", active)
			continue
		}
		handled, err := handler.Handle(ctx, active, line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		if handled {
			continue
		}
		result, err := service.SubmitLine(ctx, schema.SubmitLineRequest{PaneID: active, Line: line})
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		if result.Rejected {
			// The policy notice also arrives through the event stream.
			continue
		}
	}
}

// parseUse recognizes the host-level pane selector, which never reaches the
// command handler or the service.
func parseUse(line string) (schema.PaneID, bool) {
	fields := strings.Fields(line)
	if len(fields) == 2 && fields[0] == "/use" {
		return schema.PaneID(fields[1]), true
	}
	return "", false
}

func printEvents(events <-chan eventbus.Event) {
	renderer := format.NewPlainRenderer()
	for event := range events {
		if out := renderer.FormatEvent(event); out != "" {
			fmt.Print(out)
		}
	}
}
