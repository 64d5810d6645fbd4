package leaderboard

import (
	"context"
	"errors"
	"testing"

	"github.com/shiksha-ai/shiksha-go/internal/docstore"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	ds, err := docstore.Open(":memory:")
	if err != nil {
		t.Fatalf("open docstore: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return NewService(ds)
}

func TestSeedAndList(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	seeded, err := svc.Seed(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(seeded) != len(seedNames) {
		t.Fatalf("seeded = %d, want %d", len(seeded), len(seedNames))
	}

	listed, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != len(seeded) {
		t.Fatalf("listed = %d, want %d", len(listed), len(seeded))
	}

	for i, st := range listed {
		if st.Rank != i+1 {
			t.Errorf("position %d has rank %d", i, st.Rank)
		}
		if i > 0 && listed[i-1].Percentage < st.Percentage {
			t.Errorf("rank order violated at %d: %.2f before %.2f", i, listed[i-1].Percentage, st.Percentage)
		}
		if len(st.Marks) != len(Subjects) {
			t.Errorf("%s has %d subjects, want %d", st.ID, len(st.Marks), len(Subjects))
		}
		for subj, m := range st.Marks {
			if m < 0 || m > 100 {
				t.Errorf("%s %s marks %d out of range", st.ID, subj, m)
			}
		}
		wantTotal := 0
		for _, subj := range Subjects {
			wantTotal += st.Marks[subj]
		}
		if st.Total != wantTotal {
			t.Errorf("%s total = %d, want %d", st.ID, st.Total, wantTotal)
		}
		if len(st.Feedbacks) < len(Subjects)+1 {
			t.Errorf("%s has %d feedbacks, want at least one per subject plus overall", st.ID, len(st.Feedbacks))
		}
	}
}

func TestReport(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	st, err := svc.Report(ctx, "STU2025001")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if st.Name != seedNames[0] {
		t.Errorf("name = %q, want %q", st.Name, seedNames[0])
	}

	_, err = svc.Report(ctx, "STU2025999")
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateMarks(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	before, err := svc.Report(ctx, "STU2025002")
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	updated, err := svc.UpdateMarks(ctx, "STU2025002", "maths", 95)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Marks["maths"] != 95 {
		t.Errorf("maths = %d, want 95", updated.Marks["maths"])
	}
	wantTotal := before.Total - before.Marks["maths"] + 95
	if updated.Total != wantTotal {
		t.Errorf("total = %d, want %d", updated.Total, wantTotal)
	}
	wantPct := float64(wantTotal) / float64(len(Subjects))
	if updated.Percentage != wantPct {
		t.Errorf("percentage = %v, want %v", updated.Percentage, wantPct)
	}
	if len(updated.Feedbacks) != len(before.Feedbacks)+1 {
		t.Errorf("feedbacks = %d, want %d", len(updated.Feedbacks), len(before.Feedbacks)+1)
	}

	if _, err := svc.UpdateMarks(ctx, "STU2025002", "astrology", 80); err == nil {
		t.Error("expected error for unknown subject")
	}
	if _, err := svc.UpdateMarks(ctx, "STU2025002", "maths", 140); err == nil {
		t.Error("expected error for out-of-range marks")
	}
}
