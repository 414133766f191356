package entity

import (
	"sort"
)

// UploadState はコンテンツハッシュに対するアップロードの状態を表します
// NEW → PENDING → FINISHED の3状態のみを取り得ます
type UploadState interface {
	isUploadState()
}

// StateNew は未登録のコンテンツハッシュを表します
type StateNew struct{}

// StatePending はマルチパートアップロード進行中を表します
// Parts はパート番号の昇順です
type StatePending struct {
	Record   *FileRecord
	UploadID string
	Parts    []*UploadPart
}

// StateFinished はアップロード完了済みを表します
type StateFinished struct {
	Record *FileRecord
}

func (StateNew) isUploadState()      {}
func (StatePending) isUploadState()  {}
func (StateFinished) isUploadState() {}

// ResolveUploadState はレコードと確認済みパートから状態を決定します
// record が nil の場合は StateNew を返します
func ResolveUploadState(record *FileRecord, parts []*UploadPart) UploadState {
	if record == nil {
		return StateNew{}
	}
	if record.Finished {
		return StateFinished{Record: record}
	}

	sorted := make([]*UploadPart, len(parts))
	copy(sorted, parts)
	SortParts(sorted)

	return StatePending{
		Record:   record,
		UploadID: record.CurrentUploadID(),
		Parts:    sorted,
	}
}

// SortParts はパート番号の昇順に並べ替えます
func SortParts(parts []*UploadPart) {
	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})
}
