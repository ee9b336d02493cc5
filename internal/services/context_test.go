package services

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	id, ok := RequestIDFromContext(ctx)
	if !ok || id != "req-1" {
		t.Fatalf("expected req-1, got %q (ok=%v)", id, ok)
	}
}

func TestEmptyValuesLeaveContextUntouched(t *testing.T) {
	base := context.Background()
	if WithRequestID(base, "") != base {
		t.Fatal("expected empty request id to return original context")
	}
	if WithSource(base, "") != base {
		t.Fatal("expected empty source to return original context")
	}
	if _, ok := SourceFromContext(base); ok {
		t.Fatal("expected no source on bare context")
	}
}

func TestSourceRoundTrip(t *testing.T) {
	ctx := WithSource(context.Background(), "remote")
	source, ok := SourceFromContext(ctx)
	if !ok || source != "remote" {
		t.Fatalf("expected remote, got %q (ok=%v)", source, ok)
	}
}
