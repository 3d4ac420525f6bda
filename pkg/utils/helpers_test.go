package utils

import (
	"testing"
	"time"
)

func TestParseDurationOr(t *testing.T) {
	if got := ParseDurationOr("30s", time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s, got %v", got)
	}
	if got := ParseDurationOr("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := ParseDurationOr("garbage", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on malformed input, got %v", got)
	}
}

func TestOutputManagerFileTypes(t *testing.T) {
	om := NewOutputManager()
	if om.GetFileType("tethys-merged.tsv") != "tsv" {
		t.Fatalf("expected tsv")
	}
	if om.ContentType("tethys-merged.tsv") != "text/tab-separated-values" {
		t.Fatalf("unexpected content type")
	}
	if om.GetFileType("data.bin") != "unknown" {
		t.Fatalf("expected unknown")
	}
}
