package policy

import (
	"errors"
	"testing"

	"pkt.systems/termdeck/schema"
)

func TestEvaluateSandboxedBlocksDestructive(t *testing.T) {
	blocked := []string{
		"rm -rf /",
		"rmdir /s project",
		"  RMDIR /s project",
		"del important.txt",
		"format c:",
		"shutdown -h now",
		"reboot",
		"chmod 777 /etc/passwd",
		"chown root file",
		"icacls secret /grant everyone:F",
	}
	for _, line := range blocked {
		err := Evaluate(line, schema.ModeSandboxed)
		if err == nil {
			t.Fatalf("Evaluate(%q): expected rejection", line)
		}
		var violation *schema.PolicyViolationError
		if !errors.As(err, &violation) {
			t.Fatalf("Evaluate(%q): unexpected error type %T", line, err)
		}
		if violation.Reason != ReasonHighRisk {
			t.Fatalf("Evaluate(%q) reason = %q, want %q", line, violation.Reason, ReasonHighRisk)
		}
	}
}

func TestEvaluateSandboxedBlocksTraversal(t *testing.T) {
	for _, line := range []string{"cd ..", "cd ../secrets", "cd foo/../../etc"} {
		err := Evaluate(line, schema.ModeSandboxed)
		var violation *schema.PolicyViolationError
		if !errors.As(err, &violation) || violation.Reason != ReasonTraversal {
			t.Fatalf("Evaluate(%q) = %v, want traversal violation", line, err)
		}
	}
	if err := Evaluate("cd subdir", schema.ModeSandboxed); err != nil {
		t.Fatalf("Evaluate(cd subdir): %v", err)
	}
}

func TestEvaluateSandboxedAllowsBenign(t *testing.T) {
	for _, line := range []string{"ls -la", "git status", "echo rm", "format-check ./..."} {
		if err := Evaluate(line, schema.ModeSandboxed); err != nil {
			t.Fatalf("Evaluate(%q): %v", line, err)
		}
	}
}

func TestEvaluateWideModesPassThrough(t *testing.T) {
	for _, mode := range []schema.ExecutionMode{schema.ModeSystemWide, schema.ModeDualStream} {
		if err := Evaluate("rmdir /s project", mode); err != nil {
			t.Fatalf("Evaluate in %s: %v", mode, err)
		}
		if err := Evaluate("cd ..", mode); err != nil {
			t.Fatalf("Evaluate cd .. in %s: %v", mode, err)
		}
	}
}

func TestNormalizeForShell(t *testing.T) {
	if got := NormalizeForShell("ls", `C:\Windows\system32\cmd.exe`); got != "dir" {
		t.Fatalf("NormalizeForShell(ls) = %q", got)
	}
	if got := NormalizeForShell("ls -la src", "cmd.exe"); got != "dir -la src" {
		t.Fatalf("NormalizeForShell(ls -la src) = %q", got)
	}
	if got := NormalizeForShell("ls", "/bin/zsh"); got != "ls" {
		t.Fatalf("NormalizeForShell under zsh = %q", got)
	}
	if got := NormalizeForShell("lsof -i", "cmd.exe"); got != "lsof -i" {
		t.Fatalf("NormalizeForShell(lsof) = %q", got)
	}
}
