package validator

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
)

// CustomValidator はEcho用のカスタムバリデーターです
type CustomValidator struct {
	validator *validator.Validate
}

// NewCustomValidator は新しいCustomValidatorを作成します
func NewCustomValidator() *CustomValidator {
	v := validator.New()

	// カスタムバリデーション登録
	_ = v.RegisterValidation("sha256hex", validateSHA256Hex)
	_ = v.RegisterValidation("mimetype", validateMimeType)

	return &CustomValidator{validator: v}
}

// Validate はリクエストを検証します
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return cv.formatValidationErrors(err)
	}
	return nil
}

// formatValidationErrors はバリデーションエラーをフォーマットします
func (cv *CustomValidator) formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperror.NewValidationError(err.Error(), nil)
	}

	details := make([]apperror.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, apperror.FieldError{
			Field:   toLowerCamel(e.Field()),
			Message: getValidationMessage(e),
		})
	}

	return apperror.NewValidationError("validation failed", details)
}

// validateSHA256Hex は64桁の16進SHA-256ダイジェストかどうかを検証します
func validateSHA256Hex(fl validator.FieldLevel) bool {
	_, err := valueobject.NewContentHash(fl.Field().String())
	return err == nil
}

// validateMimeType はMIMEタイプのバリデーション
// 空文字は許可します（application/octet-stream として扱います）
func validateMimeType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := valueobject.NewMimeType(value)
	return err == nil
}

// getValidationMessage はバリデーションエラーメッセージを返します
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "sha256hex":
		return "must be a 64 character hex sha256 digest"
	case "mimetype":
		return "must be a valid MIME type"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "uuid":
		return "must be a valid UUID"
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "dive":
		return "contains an invalid item"
	default:
		return "validation failed"
	}
}

// toLowerCamel はPascalCaseのフィールド名をJSONと同じlowerCamelCaseに変換します
func toLowerCamel(str string) string {
	if str == "" {
		return str
	}
	// 先頭の連続する大文字（ID, ETag など）はまとめて小文字にします
	end := 1
	for end < len(str) && 'A' <= str[end] && str[end] <= 'Z' {
		if end+1 < len(str) && 'a' <= str[end+1] && str[end+1] <= 'z' {
			break
		}
		end++
	}
	return strings.ToLower(str[:end]) + str[end:]
}
