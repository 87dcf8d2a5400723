// Package policy evaluates shell command lines against the active execution
// mode. The patterns are heuristic string matches, not a parser: case
// variants, aliasing, and command chaining can slip past them. That matches
// the documented best-effort contract; this is not a sandbox.
package policy

import (
	"path/filepath"
	"strings"

	"pkt.systems/termdeck/schema"
)

// ReasonHighRisk is reported when a destructive-operation pattern matches.
const ReasonHighRisk = "high-risk command blocked"

// ReasonTraversal is reported when a directory-escape attempt matches.
const ReasonTraversal = "traversal blocked"

// destructivePrefixes match the delete/remove/format/shutdown/reboot and
// permission-modification command families on the first token.
var destructivePrefixes = []string{
	"rm",
	"rmdir",
	"del",
	"erase",
	"format",
	"mkfs",
	"shutdown",
	"reboot",
	"poweroff",
	"halt",
	"chmod",
	"chown",
	"chattr",
	"icacls",
	"attrib",
	"takeown",
}

// Evaluate applies the mode's command policy to one raw line. It returns nil
// when the line may reach the shell and a *schema.PolicyViolationError when
// it must not. Only sandboxed mode filters; system-wide and dual-stream pass
// every line through unchanged by design.
func Evaluate(line string, mode schema.ExecutionMode) error {
	if mode != schema.ModeSandboxed {
		return nil
	}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	fields := strings.Fields(strings.ToLower(trimmed))
	head := fields[0]
	for _, prefix := range destructivePrefixes {
		if head == prefix {
			return &schema.PolicyViolationError{Reason: ReasonHighRisk}
		}
	}
	if head == "cd" && len(fields) > 1 && referencesParent(fields[1]) {
		return &schema.PolicyViolationError{Reason: ReasonTraversal}
	}
	return nil
}

func referencesParent(arg string) bool {
	for _, part := range strings.FieldsFunc(arg, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	}) {
		if part == ".." {
			return true
		}
	}
	return false
}

// NormalizeForShell adapts Unix-style listing commands to the host shell's
// native equivalent when the session runs under the legacy command
// interpreter. It is independent of mode and applied after policy evaluation.
func NormalizeForShell(line, shell string) string {
	if !isLegacyInterpreter(shell) {
		return line
	}
	trimmed := strings.TrimSpace(line)
	if trimmed == "ls" {
		return "dir"
	}
	if rest, ok := strings.CutPrefix(trimmed, "ls "); ok {
		return "dir " + rest
	}
	return line
}

func isLegacyInterpreter(shell string) bool {
	base := strings.ToLower(filepath.Base(shell))
	return base == "cmd" || base == "cmd.exe"
}
