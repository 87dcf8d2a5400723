package core

import (
	"fmt"
	"testing"
)

func fillBuffer(buf *buffer, n int) {
	for i := 0; i < n; i++ {
		buf.Append(fmt.Sprintf("line-%d", i))
	}
}

func TestBufferTrimsAtMaxLines(t *testing.T) {
	buf := newBufferWithMaxLines(3)
	fillBuffer(buf, 5)

	view := buf.Snapshot(0)
	if view.TotalLines != 3 {
		t.Fatalf("total = %d, want 3", view.TotalLines)
	}
	want := []string{"line-2", "line-3", "line-4"}
	for i, line := range want {
		if view.Lines[i] != line {
			t.Fatalf("line %d = %q, want %q", i, view.Lines[i], line)
		}
	}
}

func TestBufferScrollClampsToRange(t *testing.T) {
	buf := newBufferWithMaxLines(100)
	fillBuffer(buf, 10)

	buf.Scroll(100, 4)
	view := buf.Snapshot(4)
	if view.ScrollOffset != 6 {
		t.Fatalf("offset = %d, want 6", view.ScrollOffset)
	}
	if view.Lines[0] != "line-0" || view.Lines[3] != "line-3" {
		t.Fatalf("lines = %v", view.Lines)
	}

	buf.Scroll(-100, 4)
	view = buf.Snapshot(4)
	if view.ScrollOffset != 0 || !view.AtBottom {
		t.Fatalf("view = %+v", view)
	}
	if view.Lines[3] != "line-9" {
		t.Fatalf("lines = %v", view.Lines)
	}
}

func TestBufferAppendKeepsScrolledViewAnchored(t *testing.T) {
	buf := newBufferWithMaxLines(100)
	fillBuffer(buf, 10)

	buf.Scroll(3, 4)
	before := buf.Snapshot(4)

	buf.Append("line-10", "line-11")
	after := buf.Snapshot(4)
	if after.ScrollOffset != before.ScrollOffset+2 {
		t.Fatalf("offset = %d, want %d", after.ScrollOffset, before.ScrollOffset+2)
	}
	for i := range before.Lines {
		if after.Lines[i] != before.Lines[i] {
			t.Fatalf("view moved: %v vs %v", after.Lines, before.Lines)
		}
	}
}

func TestBufferResetScrollReturnsToBottom(t *testing.T) {
	buf := newBufferWithMaxLines(100)
	fillBuffer(buf, 10)

	buf.Scroll(5, 3)
	buf.ResetScroll()
	view := buf.Snapshot(3)
	if !view.AtBottom || view.Lines[len(view.Lines)-1] != "line-9" {
		t.Fatalf("view = %+v", view)
	}
}

func TestBufferSnapshotLimitLargerThanContent(t *testing.T) {
	buf := newBufferWithMaxLines(100)
	fillBuffer(buf, 2)

	view := buf.Snapshot(10)
	if len(view.Lines) != 2 || !view.AtBottom {
		t.Fatalf("view = %+v", view)
	}
}

func TestHistoryAppendSkipsBlanksAndAdjacentDuplicates(t *testing.T) {
	h := newHistory(10)
	if h.Append("   ") {
		t.Fatal("blank entry appended")
	}
	if !h.Append("ls") {
		t.Fatal("first entry rejected")
	}
	if h.Append("ls") {
		t.Fatal("adjacent duplicate appended")
	}
	if !h.Append("pwd") {
		t.Fatal("new entry rejected")
	}
	if !h.Append("ls") {
		t.Fatal("non-adjacent repeat rejected")
	}
	want := []string{"ls", "pwd", "ls"}
	got := h.Entries()
	if len(got) != len(want) {
		t.Fatalf("entries = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries = %v, want %v", got, want)
		}
	}
}

func TestHistoryTrimsOldestAtMax(t *testing.T) {
	h := newHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(fmt.Sprintf("cmd-%d", i))
	}
	got := h.Entries()
	want := []string{"cmd-2", "cmd-3", "cmd-4"}
	if len(got) != 3 {
		t.Fatalf("entries = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries = %v, want %v", got, want)
		}
	}
}

func TestHistoryEntriesReturnsCopy(t *testing.T) {
	h := newHistory(10)
	h.Append("ls")
	got := h.Entries()
	got[0] = "mutated"
	if h.Entries()[0] != "ls" {
		t.Fatal("Entries leaked internal slice")
	}
}
