package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/interface/dto/request"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/interface/dto/response"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/interface/presenter"
	uploadcmd "github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/usecase/upload/command"
	uploadqry "github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/usecase/upload/query"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/logger"
)

// FileHandler はファイルアップロード・取得関連のHTTPハンドラーです
type FileHandler struct {
	uploadSmallFileCommand     *uploadcmd.UploadSmallFileCommand
	initiateLargeUploadCommand *uploadcmd.InitiateLargeUploadCommand
	uploadPartCommand          *uploadcmd.UploadPartCommand
	finishUploadCommand        *uploadcmd.FinishUploadCommand
	getFileQuery               *uploadqry.GetFileQuery
	getUploadStatusQuery       *uploadqry.GetUploadStatusQuery
	maxSmallFileSize           int64
}

// NewFileHandler は新しいFileHandlerを作成します
func NewFileHandler(
	uploadSmallFileCommand *uploadcmd.UploadSmallFileCommand,
	initiateLargeUploadCommand *uploadcmd.InitiateLargeUploadCommand,
	uploadPartCommand *uploadcmd.UploadPartCommand,
	finishUploadCommand *uploadcmd.FinishUploadCommand,
	getFileQuery *uploadqry.GetFileQuery,
	getUploadStatusQuery *uploadqry.GetUploadStatusQuery,
	maxSmallFileSize int64,
) *FileHandler {
	return &FileHandler{
		uploadSmallFileCommand:     uploadSmallFileCommand,
		initiateLargeUploadCommand: initiateLargeUploadCommand,
		uploadPartCommand:          uploadPartCommand,
		finishUploadCommand:        finishUploadCommand,
		getFileQuery:               getFileQuery,
		getUploadStatusQuery:       getUploadStatusQuery,
		maxSmallFileSize:           maxSmallFileSize,
	}
}

// UploadSmall はファイルを一括アップロードします
// @Summary 一括アップロード
// @Description multipart/form-data の file フィールドを1回のリクエストで保存します
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "ファイル"
// @Success 201 {object} response.FileRecordResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /files/small [post]
func (h *FileHandler) UploadSmall(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperror.NewValidationError("file is required", []apperror.FieldError{
			{Field: "file", Message: "this field is required"},
		})
	}
	if fh.Size > h.maxSmallFileSize {
		return apperror.NewPayloadTooLargeError(fmt.Sprintf("file exceeds %d bytes; use the multipart upload", h.maxSmallFileSize))
	}

	src, err := fh.Open()
	if err != nil {
		return apperror.NewInvalidRequestError("failed to read uploaded file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxSmallFileSize+1))
	if err != nil {
		return apperror.NewInvalidRequestError("failed to read uploaded file")
	}

	output, err := h.uploadSmallFileCommand.Execute(c.Request().Context(), uploadcmd.UploadSmallFileInput{
		Data:     data,
		MimeType: fh.Header.Get(echo.HeaderContentType),
	})
	if err != nil {
		return err
	}

	return presenter.Created(c, response.ToFileRecordResponse(output.File))
}

// InitiateLarge はマルチパートアップロードを開始または再開します
// @Summary マルチパートアップロード開始
// @Description 新規開始時は201、再開または完了済みの場合は200を返します
// @Tags Files
// @Accept json
// @Produce json
// @Param body body request.InitiateLargeUploadRequest true "アップロード情報"
// @Success 201 {object} response.InitiateLargeUploadResponse
// @Success 200 {object} response.InitiateLargeUploadResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /files/large [post]
func (h *FileHandler) InitiateLarge(c echo.Context) error {
	var req request.InitiateLargeUploadRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidationError("invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := withContentHash(c, req.ContentHash)
	output, err := h.initiateLargeUploadCommand.Execute(ctx, uploadcmd.InitiateLargeUploadInput{
		ContentHash: req.ContentHash,
		Size:        req.Size,
		MimeType:    req.MimeType,
	})
	if err != nil {
		return err
	}

	return presenter.OKOrCreated(c, output.Created, response.ToInitiateLargeUploadResponse(output))
}

// UploadPart はパートをアップロードします
// @Summary パートアップロード
// @Tags Files
// @Accept json
// @Produce json
// @Param body body request.UploadPartRequest true "パート情報（bytes はbase64）"
// @Success 200 {object} response.PartRecordResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /files/large/part [post]
func (h *FileHandler) UploadPart(c echo.Context) error {
	var req request.UploadPartRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidationError("invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := withContentHash(c, req.ContentHash)
	output, err := h.uploadPartCommand.Execute(ctx, uploadcmd.UploadPartInput{
		ContentHash: req.ContentHash,
		UploadID:    req.UploadID,
		PartNumber:  req.PartNumber,
		Data:        req.Bytes,
	})
	if err != nil {
		return err
	}

	return presenter.OK(c, response.ToPartRecordResponse(output.Part))
}

// FinishUpload はマルチパートアップロードを完了します
// @Summary マルチパートアップロード完了
// @Tags Files
// @Accept json
// @Produce json
// @Param body body request.FinishUploadRequest true "完了対象パート一覧"
// @Success 200 {object} response.FileRecordResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /files/large/finish [patch]
func (h *FileHandler) FinishUpload(c echo.Context) error {
	var req request.FinishUploadRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidationError("invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	parts := make([]entity.PartRef, 0, len(req.Parts))
	for _, p := range req.Parts {
		parts = append(parts, entity.PartRef{PartNumber: p.PartNumber, ETag: p.ETag})
	}

	ctx := withContentHash(c, req.ContentHash)
	output, err := h.finishUploadCommand.Execute(ctx, uploadcmd.FinishUploadInput{
		ContentHash: req.ContentHash,
		UploadID:    req.UploadID,
		Parts:       parts,
	})
	if err != nil {
		return err
	}

	return presenter.OK(c, response.ToFileRecordResponse(output.File))
}

// GetUploadStatus はコンテンツハッシュのアップロード状況を取得します
// @Summary アップロード状況取得
// @Tags Files
// @Produce json
// @Param contentHash path string true "SHA-256ダイジェスト"
// @Success 200 {object} response.UploadStatusResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /files/large/{contentHash} [get]
func (h *FileHandler) GetUploadStatus(c echo.Context) error {
	hash := c.Param("contentHash")

	output, err := h.getUploadStatusQuery.Execute(withContentHash(c, hash), uploadqry.GetUploadStatusInput{
		ContentHash: hash,
	})
	if err != nil {
		return err
	}

	return presenter.OK(c, response.ToUploadStatusResponse(output))
}

// Download は完了済みファイルの内容を返します
// @Summary ファイル取得
// @Tags Files
// @Produce octet-stream
// @Param publicId path string true "公開ID"
// @Success 200 {file} binary
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /files/{publicId} [get]
func (h *FileHandler) Download(c echo.Context) error {
	output, err := h.getFileQuery.Execute(c.Request().Context(), uploadqry.GetFileInput{
		PublicID: c.Param("publicId"),
	})
	if err != nil {
		return err
	}
	defer output.Object.Body.Close()

	hash := output.File.ContentHash.String()
	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", hash))
	header.Set(echo.HeaderContentLength, strconv.FormatInt(output.File.Size, 10))
	header.Set("ETag", strconv.Quote(hash))
	header.Set("Cache-Control", "public, max-age=31536000, immutable")

	return c.Stream(http.StatusOK, output.File.MimeType.String(), output.Object.Body)
}

// withContentHash はログ用にコンテンツハッシュをリクエストcontextへ追加します
func withContentHash(c echo.Context, hash string) context.Context {
	return logger.ContextWithContentHash(c.Request().Context(), hash)
}
