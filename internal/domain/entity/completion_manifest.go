package entity

import (
	"errors"
	"fmt"
)

// 完了マニフェスト関連エラー
var (
	ErrManifestEmpty        = errors.New("no parts to complete")
	ErrManifestOutOfOrder   = errors.New("parts are not in ascending order")
	ErrManifestPartMissing  = errors.New("part is missing")
	ErrManifestUnknownPart  = errors.New("part was never acknowledged")
	ErrManifestETagMismatch = errors.New("part etag does not match")
	ErrManifestSizeMismatch = errors.New("total part size does not match declared size")
)

// PartRef はクライアントが提出する完了対象パートです
type PartRef struct {
	PartNumber int
	ETag       string
}

// BuildCompletionManifest はクライアント提出のパート一覧を台帳の確認済みパートと照合し、
// Blobストアへ渡す完了マニフェスト（パート番号昇順）を返します
//
// 提出一覧は厳密な昇順で、確認済みパートと番号・ETagが完全一致し、
// パート番号が1から欠番なく連続し、合計サイズが宣言サイズと一致する必要があります
func BuildCompletionManifest(record *FileRecord, acknowledged []*UploadPart, submitted []PartRef) ([]*UploadPart, error) {
	if len(submitted) == 0 {
		return nil, ErrManifestEmpty
	}

	byNumber := make(map[int]*UploadPart, len(acknowledged))
	for _, p := range acknowledged {
		byNumber[p.PartNumber] = p
	}

	manifest := make([]*UploadPart, 0, len(submitted))
	var total int64
	for i, ref := range submitted {
		if i > 0 && ref.PartNumber <= submitted[i-1].PartNumber {
			return nil, fmt.Errorf("%w: part %d after part %d", ErrManifestOutOfOrder, ref.PartNumber, submitted[i-1].PartNumber)
		}
		if ref.PartNumber != i+1 {
			return nil, fmt.Errorf("%w: part %d", ErrManifestPartMissing, i+1)
		}

		part, ok := byNumber[ref.PartNumber]
		if !ok {
			return nil, fmt.Errorf("%w: part %d", ErrManifestUnknownPart, ref.PartNumber)
		}
		if part.ETag != ref.ETag {
			return nil, fmt.Errorf("%w: part %d", ErrManifestETagMismatch, ref.PartNumber)
		}

		manifest = append(manifest, part)
		total += part.Size
	}

	// 提出されなかった確認済みパートが残っていれば欠落とみなす
	if len(acknowledged) > len(manifest) {
		for _, p := range acknowledged {
			if p.PartNumber > len(manifest) {
				return nil, fmt.Errorf("%w: part %d", ErrManifestPartMissing, p.PartNumber)
			}
		}
	}

	if record != nil && total != record.Size {
		return nil, fmt.Errorf("%w: parts total %d, declared %d", ErrManifestSizeMismatch, total, record.Size)
	}

	return manifest, nil
}
