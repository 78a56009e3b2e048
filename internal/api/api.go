// Package api はResource APIとフロントエンドが共有するHTTPレスポンス型とエラー変換を提供します。
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// InternalErrorMessage は500応答でクライアントに返す固定メッセージです。
const InternalErrorMessage = "internal server error"

// ErrorResponse はエラー応答の共通ボディです。
type ErrorResponse struct {
	Error string `json:"error"`
	// Fields はバリデーションエラー時のフィールド別メッセージ（JSONフィールド名がキー）
	Fields map[string]string `json:"fields,omitempty"`
	// Detail はデバッグモードでのみ設定される内部エラーの詳細
	Detail string `json:"detail,omitempty"`
}

// MessageResponse は本文がメッセージのみの応答です。
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse はログイン成功時の応答です。
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// HealthResponse はヘルスチェックの応答です。
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

func init() {
	// バリデーションエラーのフィールド名をGoの構造体名ではなくJSON名で報告する
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// ValidationError はバインド/バリデーションエラーを400用のErrorResponseに変換します。
// validator.ValidationErrors 以外（JSON構文エラー等）はフィールド詳細なしで返します。
func ValidationError(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrorResponse{Error: "invalid request body"}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return ErrorResponse{Error: "validation failed", Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "timezone":
		return "unknown time zone"
	default:
		return "failed on the '" + fe.Tag() + "' rule"
	}
}

// AbortInternal は予期しないエラーをログに残し、500で応答を打ち切ります。
// エラーの詳細はGinのデバッグモードでのみボディに含めます。
func AbortInternal(c *gin.Context, err error) {
	slog.Error("internal server error",
		"error", err,
		"method", c.Request.Method,
		"path", c.FullPath(),
		"remote_addr", c.ClientIP(),
	)

	resp := ErrorResponse{Error: InternalErrorMessage}
	if gin.Mode() == gin.DebugMode {
		resp.Detail = err.Error()
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
}
