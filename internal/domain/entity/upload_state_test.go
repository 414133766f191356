package entity

import (
	"testing"
	"time"
)

func TestResolveUploadState_NilRecord_IsNew(t *testing.T) {
	state := ResolveUploadState(nil, nil)

	if _, ok := state.(StateNew); !ok {
		t.Errorf("expected StateNew, got %T", state)
	}
}

func TestResolveUploadState_FinishedRecord_IsFinished(t *testing.T) {
	record := newPendingRecord(t)
	_ = record.MarkFinished()

	state := ResolveUploadState(record, nil)

	finished, ok := state.(StateFinished)
	if !ok {
		t.Fatalf("expected StateFinished, got %T", state)
	}
	if finished.Record != record {
		t.Error("expected the same record")
	}
}

func TestResolveUploadState_PendingRecord_SortsParts(t *testing.T) {
	record := newPendingRecord(t)
	parts := []*UploadPart{
		ReconstructUploadPart("upload-1", 3, 1, "c", time.Now()),
		ReconstructUploadPart("upload-1", 1, 1, "a", time.Now()),
	}

	state := ResolveUploadState(record, parts)

	pending, ok := state.(StatePending)
	if !ok {
		t.Fatalf("expected StatePending, got %T", state)
	}
	if pending.UploadID != "upload-1" {
		t.Errorf("expected UploadID %q, got %q", "upload-1", pending.UploadID)
	}
	if len(pending.Parts) != 2 || pending.Parts[0].PartNumber != 1 || pending.Parts[1].PartNumber != 3 {
		t.Errorf("expected parts [1 3], got %v", pending.Parts)
	}
	// 呼び出し元のスライスは変更しない
	if parts[0].PartNumber != 3 {
		t.Error("input slice should not be reordered")
	}
}

func TestResolveUploadState_PendingWithoutParts_IsStillPending(t *testing.T) {
	state := ResolveUploadState(newPendingRecord(t), nil)

	pending, ok := state.(StatePending)
	if !ok {
		t.Fatalf("expected StatePending, got %T", state)
	}
	if len(pending.Parts) != 0 {
		t.Errorf("expected no parts, got %d", len(pending.Parts))
	}
}
