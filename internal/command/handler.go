package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"pkt.systems/termdeck/core"
	"pkt.systems/termdeck/internal/logx"
	"pkt.systems/termdeck/internal/version"
	"pkt.systems/termdeck/schema"
)

// SettingsStore is the mutable settings surface the handler drives.
type SettingsStore interface {
	Get() schema.Settings
	Set(patch schema.SettingsPatch) (schema.Settings, error)
}

// HandlerConfig configures slash command behavior.
type HandlerConfig struct {
	// Out receives human-readable command replies; defaults to stdout.
	Out io.Writer
}

// Handler routes host slash commands to service and settings operations.
// Route prefixes (/local, /cloud) are deliberately not handled here: they
// fall through to SubmitLine, which owns agent dispatch.
type Handler struct {
	service  core.Service
	settings SettingsStore
	out      io.Writer
}

// NewHandler constructs a command handler.
func NewHandler(service core.Service, settings SettingsStore, cfg HandlerConfig) *Handler {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	return &Handler{service: service, settings: settings, out: out}
}

// Handle inspects input and executes host slash commands. It returns false
// when the line is not a host command and should be submitted to the pane.
func (h *Handler) Handle(ctx context.Context, paneID schema.PaneID, input string) (bool, error) {
	if ctx == nil {
		return false, errors.New("missing context")
	}
	baseLog := logx.WithPane(ctx, paneID)
	ctx = logx.ContextWithPaneLogger(ctx, baseLog, paneID)
	cmd, ok := Parse(input)
	if !ok {
		return false, nil
	}
	log := baseLog.With("command", cmd.Name, "args", len(cmd.Args))
	switch cmd.Name {
	case "":
		log.Warn("command slash rejected", "reason", "empty")
		return true, fmt.Errorf("invalid command")
	case string(schema.RouteLocal), string(schema.RouteCloud):
		// Agent routing happens inside SubmitLine.
		return false, nil
	case "new":
		log.Info("command slash request")
		return true, h.handleNew(ctx, cmd)
	case "close":
		log.Info("command slash request")
		return true, h.handleClose(ctx, paneID, cmd)
	case "restart":
		log.Info("command slash request")
		return true, h.handleRestart(ctx, paneID, cmd)
	case "panes":
		return true, h.handlePanes(ctx)
	case "mode":
		log.Info("command slash request")
		return true, h.handleMode(ctx, cmd)
	case "model":
		log.Info("command slash request")
		return true, h.handleModel(ctx, cmd)
	case "endpoint":
		log.Info("command slash request")
		return true, h.handleEndpoint(ctx, cmd)
	case "credential":
		log.Info("command slash request")
		return true, h.handleCredential(ctx, cmd)
	case "cancel":
		log.Info("command slash request")
		return true, h.handleCancel(ctx, paneID, cmd)
	case "history":
		return true, h.handleHistory(ctx, paneID)
	case "version":
		return true, h.handleVersion()
	case "help":
		return true, h.handleHelp()
	default:
		log.Warn("command slash rejected", "reason", "unknown")
		return true, fmt.Errorf("unknown command: /%s", cmd.Name)
	}
}

func (h *Handler) handleNew(ctx context.Context, cmd Command) error {
	req := schema.CreatePaneRequest{}
	if len(cmd.Args) > 0 {
		req.PaneID = schema.PaneID(cmd.Args[0])
	}
	resp, err := h.service.CreatePane(ctx, req)
	if err != nil {
		return err
	}
	h.printf("pane opened: %s (%s)\n", resp.Pane.ID, resp.Pane.Shell)
	return nil
}

func (h *Handler) handleClose(ctx context.Context, paneID schema.PaneID, cmd Command) error {
	target := paneID
	if len(cmd.Args) > 0 {
		target = schema.PaneID(cmd.Args[0])
	}
	resp, err := h.service.ClosePane(ctx, schema.ClosePaneRequest{PaneID: target})
	if err != nil {
		return err
	}
	if resp.Closed {
		h.printf("pane closed: %s\n", target)
	} else {
		h.printf("pane already closed: %s\n", target)
	}
	return nil
}

func (h *Handler) handleRestart(ctx context.Context, paneID schema.PaneID, cmd Command) error {
	target := paneID
	if len(cmd.Args) > 0 {
		target = schema.PaneID(cmd.Args[0])
	}
	resp, err := h.service.RestartPane(ctx, schema.RestartPaneRequest{PaneID: target})
	if err != nil {
		return err
	}
	h.printf("pane restarted: %s (%s)\n", resp.Pane.ID, resp.Pane.Shell)
	return nil
}

func (h *Handler) handlePanes(ctx context.Context) error {
	resp, err := h.service.ListPanes(ctx, schema.ListPanesRequest{})
	if err != nil {
		return err
	}
	if len(resp.Panes) == 0 {
		h.printf("no panes open\n")
		return nil
	}
	for _, pane := range resp.Panes {
		h.printf("%s  %-6s  %s  %s\n", pane.ID, pane.Status, pane.Shell, pane.WorkingDir)
	}
	return nil
}

func (h *Handler) handleMode(ctx context.Context, cmd Command) error {
	if h.settings == nil {
		return errors.New("settings are not available")
	}
	if len(cmd.Args) == 0 {
		h.printf("mode: %s\n", h.settings.Get().ExecutionMode)
		return nil
	}
	mode, err := schema.NormalizeExecutionMode(cmd.Args[0])
	if err != nil {
		return fmt.Errorf("usage: /mode [%s|%s|%s]",
			schema.ModeSandboxed, schema.ModeSystemWide, schema.ModeDualStream)
	}
	updated, err := h.settings.Set(schema.SettingsPatch{ExecutionMode: &mode})
	if err != nil {
		return err
	}
	h.printf("mode set: %s\n", updated.ExecutionMode)
	return nil
}

func (h *Handler) handleModel(ctx context.Context, cmd Command) error {
	if h.settings == nil {
		return errors.New("settings are not available")
	}
	current := h.settings.Get()
	if len(cmd.Args) == 0 {
		h.printf("models: local=%s cloud=%s\n", current.LocalModel, current.CloudModel)
		return nil
	}
	if len(cmd.Args) < 2 {
		return errors.New("usage: /model <local|cloud> <model>")
	}
	route, err := schema.NormalizeRoute(cmd.Args[0])
	if err != nil {
		return errors.New("usage: /model <local|cloud> <model>")
	}
	model, err := schema.NormalizeModelID(cmd.Args[1])
	if err != nil {
		return err
	}
	patch := schema.SettingsPatch{}
	if route == schema.RouteCloud {
		patch.CloudModel = &model
	} else {
		patch.LocalModel = &model
	}
	updated, err := h.settings.Set(patch)
	if err != nil {
		return err
	}
	h.printf("model set: %s=%s\n", route, updated.ModelFor(route))
	return nil
}

func (h *Handler) handleEndpoint(ctx context.Context, cmd Command) error {
	if h.settings == nil {
		return errors.New("settings are not available")
	}
	if len(cmd.Args) == 0 {
		endpoint := h.settings.Get().CloudEndpoint
		if endpoint == "" {
			endpoint = "(default)"
		}
		h.printf("cloud endpoint: %s\n", endpoint)
		return nil
	}
	endpoint := cmd.Remainder
	if _, err := h.settings.Set(schema.SettingsPatch{CloudEndpoint: &endpoint}); err != nil {
		return err
	}
	h.printf("cloud endpoint set\n")
	return nil
}

func (h *Handler) handleCredential(ctx context.Context, cmd Command) error {
	if h.settings == nil {
		return errors.New("settings are not available")
	}
	if len(cmd.Args) == 0 {
		if h.settings.Get().CloudCredential == "" {
			h.printf("cloud credential: not set\n")
		} else {
			h.printf("cloud credential: set\n")
		}
		return nil
	}
	credential := cmd.Remainder
	if _, err := h.settings.Set(schema.SettingsPatch{CloudCredential: &credential}); err != nil {
		return err
	}
	h.printf("cloud credential stored\n")
	return nil
}

func (h *Handler) handleCancel(ctx context.Context, paneID schema.PaneID, cmd Command) error {
	target := paneID
	if len(cmd.Args) > 0 {
		target = schema.PaneID(cmd.Args[0])
	}
	if err := h.service.CancelAgent(ctx, schema.CancelAgentRequest{PaneID: target}); err != nil {
		return err
	}
	h.printf("agent cancelled: %s\n", target)
	return nil
}

func (h *Handler) handleHistory(ctx context.Context, paneID schema.PaneID) error {
	resp, err := h.service.GetHistory(ctx, schema.GetHistoryRequest{PaneID: paneID})
	if err != nil {
		return err
	}
	if len(resp.Entries) == 0 {
		h.printf("history is empty\n")
		return nil
	}
	for i, entry := range resp.Entries {
		h.printf("%3d  %s\n", i+1, entry)
	}
	return nil
}

func (h *Handler) handleVersion() error {
	h.printf("termdeck %s\n", version.CurrentWithDirty())
	return nil
}

func (h *Handler) handleHelp() error {
	help := strings.Join([]string{
		"/new [id]              open a pane",
		"/close [id]            close a pane",
		"/restart [id]          restart a pane's shell",
		"/panes                 list open panes",
		"/local <prompt>        ask the local model",
		"/cloud <prompt>        ask the cloud model",
		"/cancel [id]           cancel an in-flight agent request",
		"/mode [mode]           show or set the execution mode",
		"/model [route model]   show or set backend models",
		"/endpoint [url]        show or set the cloud endpoint",
		"/credential [secret]   show status or store the cloud credential",
		"/history               show submitted lines for the pane",
		"/version               show the build version",
		"/help                  show this help",
	}, "\n")
	h.printf("%s\n", help)
	return nil
}

func (h *Handler) printf(format string, args ...any) {
	fmt.Fprintf(h.out, format, args...)
}
