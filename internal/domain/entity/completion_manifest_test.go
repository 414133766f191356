package entity

import (
	"errors"
	"testing"
	"time"
)

func ackParts(sizes ...int64) []*UploadPart {
	parts := make([]*UploadPart, 0, len(sizes))
	for i, size := range sizes {
		n := i + 1
		parts = append(parts, ReconstructUploadPart("upload-1", n, size, etagFor(n), time.Now()))
	}
	return parts
}

func etagFor(n int) string {
	return "etag-" + string(rune('0'+n))
}

func refs(numbers ...int) []PartRef {
	out := make([]PartRef, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, PartRef{PartNumber: n, ETag: etagFor(n)})
	}
	return out
}

func TestBuildCompletionManifest_CompleteSet_ReturnsOrderedManifest(t *testing.T) {
	record := newPendingRecord(t) // Size 1024
	acknowledged := ackParts(512, 256, 256)

	manifest, err := BuildCompletionManifest(record, acknowledged, refs(1, 2, 3))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range manifest {
		if p.PartNumber != i+1 {
			t.Errorf("manifest[%d]: expected part %d, got %d", i, i+1, p.PartNumber)
		}
	}
}

func TestBuildCompletionManifest_Failures(t *testing.T) {
	tests := []struct {
		name      string
		submitted []PartRef
		want      error
	}{
		{"empty", nil, ErrManifestEmpty},
		{"out of order", refs(2, 1, 3), ErrManifestPartMissing},
		{"descending tail", refs(1, 3, 2), ErrManifestPartMissing},
		{"duplicate", refs(1, 1, 2), ErrManifestOutOfOrder},
		{"missing middle", refs(1, 3), ErrManifestPartMissing},
		{"omitted acknowledged tail", refs(1, 2), ErrManifestPartMissing},
		{"never acknowledged", refs(1, 2, 3, 4), ErrManifestUnknownPart},
		{"etag mismatch", []PartRef{{1, etagFor(1)}, {2, "bogus"}, {3, etagFor(3)}}, ErrManifestETagMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildCompletionManifest(newPendingRecord(t), ackParts(512, 256, 256), tt.submitted)

			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got: %v", tt.want, err)
			}
		})
	}
}

func TestBuildCompletionManifest_SizeMismatch(t *testing.T) {
	_, err := BuildCompletionManifest(newPendingRecord(t), ackParts(512, 256), refs(1, 2))

	if !errors.Is(err, ErrManifestSizeMismatch) {
		t.Errorf("expected ErrManifestSizeMismatch, got: %v", err)
	}
}
