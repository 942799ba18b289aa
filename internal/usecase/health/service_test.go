package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

type fakeChecker struct{ err error }

func (f *fakeChecker) HealthCheck(_ context.Context) error { return f.err }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&fakePinger{}, &fakeChecker{})

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Fatalf("expected healthy, got %s", report.Status)
	}
	if report.Checks["snapshot_store"] != CheckOK || report.Checks["embedding"] != CheckOK {
		t.Errorf("unexpected checks: %v", report.Checks)
	}
}

func TestCheck_StoreDown(t *testing.T) {
	svc := New(&fakePinger{err: errors.New("no such directory")}, &fakeChecker{})

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Fatalf("expected degraded, got %s", report.Status)
	}
	if report.Checks["snapshot_store"] != CheckError {
		t.Errorf("expected snapshot_store error, got %v", report.Checks)
	}
}

func TestCheck_EmbeddingDown(t *testing.T) {
	svc := New(&fakePinger{}, &fakeChecker{err: errors.New("connection refused")})

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Fatalf("expected degraded, got %s", report.Status)
	}
}

func TestCheck_NilEmbeddingCheckerSkipped(t *testing.T) {
	svc := New(&fakePinger{}, nil)

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Fatalf("expected healthy, got %s", report.Status)
	}
	if _, ok := report.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when checker is nil")
	}
}
