package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"pkt.systems/termdeck/internal/logx"
	"pkt.systems/pslog"
	"pkt.systems/termdeck/internal/policy"
	"pkt.systems/termdeck/schema"
)

// spawnSession resolves mode-dependent spawn parameters and starts the shell
// process for the pane. A spawn failure is reported as a synthetic output
// chunk and leaves no session registered; it is not returned to the caller.
func (s *service) spawnSession(ctx context.Context, p *pane) error {
	if s.sessions == nil {
		return schema.ErrSessionRunnerUnavailable
	}
	log := logx.WithPane(ctx, p.ID)
	mode := s.settings.Get().ExecutionMode
	workingDir := s.workingDirFor(mode)
	log = log.With("mode", mode, "workdir", workingDir)

	handle, err := s.sessions.Start(ctx, StartSessionRequest{
		PaneID:     p.ID,
		WorkingDir: workingDir,
		Env:        []string{"TERMDECK_MODE=" + string(mode)},
		Cols:       80,
		Rows:       24,
	})
	if err != nil {
		log.Error("session spawn failed", "err", err)
		s.appendChunk(p, fmt.Sprintf("shell spawn failed: %v", err))
		s.emitOutput(schema.OutputEvent{PaneID: p.ID, Chunk: fmt.Sprintf("shell spawn failed: %v\r\n", err)})
		return nil
	}

	consumeCtx, cancel := context.WithCancel(pslog.ContextWithLogger(context.Background(), log))
	sess := &session{
		handle:     handle,
		shell:      handle.Shell(),
		workingDir: workingDir,
		cancel:     cancel,
	}
	s.mu.Lock()
	if p.session != nil {
		// Lost a create race; keep the registered session.
		s.mu.Unlock()
		cancel()
		_ = handle.Close()
		return nil
	}
	p.session = sess
	snap := p.Snapshot()
	s.mu.Unlock()
	log.Info("session spawn ok", "shell", sess.shell)
	s.emitPaneEvent(schema.PaneEvent{Type: schema.PaneEventStatus, Pane: snap})

	go s.consumeOutput(consumeCtx, p, sess)
	return nil
}

// workingDirFor resolves the spawn directory from the current execution mode:
// the user home under system-wide, the project root otherwise.
func (s *service) workingDirFor(mode schema.ExecutionMode) string {
	if mode == schema.ModeSystemWide {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			return home
		}
	}
	return s.cfg.ProjectRoot
}

// consumeOutput relays process output to the scrollback buffer and the event
// sink, then settles the exit. An exit belonging to a session that has been
// replaced or removed is stale and must not touch the pane's live state.
func (s *service) consumeOutput(ctx context.Context, p *pane, sess *session) {
	log := pslog.Ctx(ctx)
	stream := sess.handle.Output()
	for {
		chunk, err := stream.Next(ctx)
		if len(chunk) > 0 {
			s.appendChunk(p, string(chunk))
			s.emitOutput(schema.OutputEvent{PaneID: p.ID, Chunk: string(chunk)})
		}
		if err != nil {
			break
		}
	}
	_ = stream.Close()
	result, err := sess.handle.Wait(context.Background())
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("session wait failed", "err", err)
	}

	s.mu.Lock()
	live := p.session == sess
	if live {
		p.session = nil
	}
	snap := p.Snapshot()
	s.mu.Unlock()

	if !live {
		log.Debug("stale session exit suppressed", "exit_code", result.ExitCode)
		return
	}
	log.Info("session exited", "exit_code", result.ExitCode)
	s.emitExit(schema.ExitEvent{PaneID: p.ID})
	s.emitPaneEvent(schema.PaneEvent{Type: schema.PaneEventStatus, Pane: snap})
}

// writeLine runs a shell line through the policy filter and shell-name
// normalization, then writes it with a trailing terminator. The interrupt
// byte bypasses both the filter and the terminator so a running foreground
// command can always be cancelled. Writes to a dead session are silent no-ops.
func (s *service) writeLine(log pslog.Logger, p *pane, line string) (bool, string) {
	s.mu.Lock()
	sess := p.session
	s.mu.Unlock()
	if sess == nil {
		log.Debug("session write noop", "reason", "no session")
		return false, ""
	}

	if isInterrupt(line) {
		if _, err := sess.handle.Write([]byte{schema.InterruptByte}); err != nil {
			log.Warn("session interrupt write failed", "err", err)
		}
		return false, ""
	}

	mode := s.settings.Get().ExecutionMode
	if err := policy.Evaluate(line, mode); err != nil {
		var violation *schema.PolicyViolationError
		reason := err.Error()
		if errors.As(err, &violation) {
			reason = violation.Reason
		}
		log.Warn("session write rejected", "reason", reason, "mode", mode)
		notice := fmt.Sprintf("[policy] %s\r\n", reason)
		s.appendChunk(p, notice)
		s.emitOutput(schema.OutputEvent{PaneID: p.ID, Chunk: notice})
		return true, reason
	}

	normalized := policy.NormalizeForShell(line, sess.shell)
	if _, err := sess.handle.Write([]byte(normalized + "\n")); err != nil {
		log.Warn("session write failed", "err", err)
	}
	return false, ""
}

// terminateSession tears down a replaced or closed session. The late exit
// notification from its consume goroutine is suppressed by session identity.
func (s *service) terminateSession(log pslog.Logger, sess *session) {
	sess.cancel()
	if err := sess.handle.Signal(ProcessSignalTERM); err != nil {
		log.Debug("session signal failed", "err", err)
	}
	if err := sess.handle.Close(); err != nil {
		log.Debug("session close failed", "err", err)
	}
}

func (s *service) appendChunk(p *pane, chunk string) {
	lines := chunkLines(chunk)
	if len(lines) == 0 {
		return
	}
	s.mu.Lock()
	p.buffer.Append(lines...)
	s.mu.Unlock()
}

func chunkLines(chunk string) []string {
	chunk = strings.ReplaceAll(chunk, "\r\n", "\n")
	chunk = strings.TrimRight(chunk, "\n")
	if chunk == "" {
		return nil
	}
	return strings.Split(chunk, "\n")
}

func isInterrupt(line string) bool {
	return len(line) == 1 && line[0] == schema.InterruptByte
}
