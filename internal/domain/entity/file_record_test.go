package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
)

func newTestHash() valueobject.ContentHash {
	return valueobject.ComputeContentHash([]byte("test content"))
}

func newPendingRecord(t *testing.T) *FileRecord {
	t.Helper()
	record, err := NewPendingFileRecord(newTestHash(), 1024, valueobject.MimeTypeTextPlain, "upload-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return record
}

func TestNewFinishedFileRecord_IsFinishedWithoutSession(t *testing.T) {
	record, err := NewFinishedFileRecord(newTestHash(), 12, valueobject.MimeTypeTextPlain)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !record.Finished {
		t.Error("expected Finished to be true")
	}
	if record.UploadID != nil {
		t.Errorf("expected no upload id, got %q", *record.UploadID)
	}
	if record.ID == uuid.Nil {
		t.Error("expected non-zero public id")
	}
	if err := record.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestNewPendingFileRecord_RequiresUploadID(t *testing.T) {
	_, err := NewPendingFileRecord(newTestHash(), 1024, valueobject.MimeTypeTextPlain, "")

	if err != ErrFileRecordNoUploadSession {
		t.Errorf("expected ErrFileRecordNoUploadSession, got: %v", err)
	}
}

func TestNewPendingFileRecord_RequiresPositiveSize(t *testing.T) {
	_, err := NewPendingFileRecord(newTestHash(), 0, valueobject.MimeTypeTextPlain, "upload-1")

	if err != ErrFileRecordInvalidSize {
		t.Errorf("expected ErrFileRecordInvalidSize, got: %v", err)
	}
}

func TestNewPendingFileRecord_HasUploadSession(t *testing.T) {
	record := newPendingRecord(t)

	if record.Finished {
		t.Error("expected Finished to be false")
	}
	if !record.HasUploadSession("upload-1") {
		t.Error("expected upload-1 to be the live session")
	}
	if record.HasUploadSession("upload-2") {
		t.Error("upload-2 should not be the live session")
	}
}

func TestFileRecord_MarkFinished_ClearsUploadID(t *testing.T) {
	record := newPendingRecord(t)

	if err := record.MarkFinished(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !record.Finished {
		t.Error("expected Finished to be true")
	}
	if record.UploadID != nil {
		t.Error("expected upload id to be cleared")
	}
	if record.HasUploadSession("upload-1") {
		t.Error("finished record should not report a live session")
	}
}

func TestFileRecord_MarkFinished_Twice_ReturnsErrAlreadyFinished(t *testing.T) {
	record := newPendingRecord(t)
	_ = record.MarkFinished()

	if err := record.MarkFinished(); err != ErrFileRecordAlreadyFinished {
		t.Errorf("expected ErrFileRecordAlreadyFinished, got: %v", err)
	}
}

func TestReconstructFileRecord_FinishedDropsUploadID(t *testing.T) {
	uploadID := "stale"

	record := ReconstructFileRecord(uuid.New(), newTestHash(), 10, valueobject.MimeTypeTextPlain, &uploadID, true, time.Now(), time.Now())

	if record.UploadID != nil {
		t.Error("finished record must not carry an upload id")
	}
	if err := record.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestFileRecord_Validate_PendingWithoutSession(t *testing.T) {
	record := ReconstructFileRecord(uuid.New(), newTestHash(), 10, valueobject.MimeTypeTextPlain, nil, false, time.Now(), time.Now())

	if err := record.Validate(); err != ErrFileRecordNoUploadSession {
		t.Errorf("expected ErrFileRecordNoUploadSession, got: %v", err)
	}
}
