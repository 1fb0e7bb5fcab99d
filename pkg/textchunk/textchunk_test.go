package textchunk

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/policynav/policy-navigator/pkg/resilient"
)

func TestSplitRejectsBadParameters(t *testing.T) {
	t.Parallel()

	if _, err := Split("abc", 0, 0); resilient.KindOf(err) != resilient.KindConfiguration {
		t.Fatalf("Split(chunkSize=0) error = %v, want configuration error", err)
	}
	if _, err := Split("abc", 10, 10); resilient.KindOf(err) != resilient.KindConfiguration {
		t.Fatalf("Split(overlap==chunkSize) error = %v, want configuration error", err)
	}
	if _, err := Split("abc", 10, -1); resilient.KindOf(err) != resilient.KindConfiguration {
		t.Fatalf("Split(overlap<0) error = %v, want configuration error", err)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	t.Parallel()

	spans, err := Split("  hello world  ", 100, 10)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	want := []Span{{Text: "hello world", Start: 0, End: 15}}
	if diff := cmp.Diff(want, spans); diff != "" {
		t.Fatalf("Split() mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitSentenceBoundaries(t *testing.T) {
	t.Parallel()

	spans, err := Split("A. B. C.", 5, 1)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	got := Texts(spans)
	want := []string{"A.", "B.", "C."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Texts() mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitCoversSourceWithOverlap(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("The agency issued a new compliance rule. ")
	}
	text := b.String()

	const chunkSize, overlap = 200, 40
	spans, err := Split(text, chunkSize, overlap)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(spans) < 2 {
		t.Fatalf("expected multiple spans, got %d", len(spans))
	}

	if spans[0].Start != 0 {
		t.Fatalf("first span starts at %d, want 0", spans[0].Start)
	}
	if last := spans[len(spans)-1]; last.End != len(text) {
		t.Fatalf("last span ends at %d, want %d", last.End, len(text))
	}

	// Rebuilding the source from raw windows, dropping the overlapping
	// prefix of each subsequent span, must be lossless.
	rebuilt := text[spans[0].Start:spans[0].End]
	for i := 1; i < len(spans); i++ {
		prev, cur := spans[i-1], spans[i]
		if cur.Start <= prev.Start || cur.Start > prev.End {
			t.Fatalf("span %d start %d not within (%d, %d]", i, cur.Start, prev.Start, prev.End)
		}
		if cur.End <= cur.Start || cur.End > len(text) {
			t.Fatalf("span %d has invalid bounds [%d, %d)", i, cur.Start, cur.End)
		}
		rebuilt += text[prev.End:cur.End]
	}
	if rebuilt != text {
		t.Fatalf("rebuilt text differs from source (%d vs %d bytes)", len(rebuilt), len(text))
	}

	for i, s := range spans {
		if s.End-s.Start > chunkSize {
			t.Fatalf("span %d is %d bytes, exceeds chunk size %d", i, s.End-s.Start, chunkSize)
		}
	}
}

func TestSplitNoBoundaryFallsBackToHardCut(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 250)
	spans, err := Split(text, 100, 20)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3", len(spans))
	}
	if spans[1].Start != 80 {
		t.Fatalf("second span starts at %d, want 80", spans[1].Start)
	}
}
