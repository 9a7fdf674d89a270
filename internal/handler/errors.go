package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bbeditor/internal/bbws"
	"github.com/hitoshi/bbeditor/internal/middleware"
	"github.com/hitoshi/bbeditor/internal/model"
)

// resolveError はサービス層から返されたエラーをAPIErrorとHTTPステータスコードに変換する。
// bbwsの401はUNAUTHORIZED、それ以外の非2xx応答はREMOTE_FAILEDとして扱う。それ以外はnilを返す。
func resolveError(err error) (*model.APIError, int) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr, mapAPIErrorToHTTPStatus(apiErr)
	}

	if sessionRejected(err) {
		apiErr = model.NewUnauthorizedError()
		return apiErr, mapAPIErrorToHTTPStatus(apiErr)
	}

	var statusErr *bbws.StatusError
	if errors.As(err, &statusErr) {
		apiErr = model.NewRemoteFailedError(statusErr.StatusCode)
		return apiErr, mapAPIErrorToHTTPStatus(apiErr)
	}

	return nil, http.StatusInternalServerError
}

// sessionRejected はbbwsがセッションのアクセストークンを拒否した（期限切れなど）かどうかを返す。
func sessionRejected(err error) bool {
	return bbws.IsStatus(err, http.StatusUnauthorized)
}

// handleSubmitError はJSON送信のエラーを書き込む。
// アクセストークンが拒否された場合は、セッション切れと同じくエンティティ参照のない応答を返す。
func handleSubmitError(w http.ResponseWriter, err error) {
	if sessionRejected(err) {
		middleware.WriteJSON(w, http.StatusOK, middleware.RedirectResponseBody{Redirect: middleware.LoginPath})
		return
	}
	handleServiceError(w, err)
}

// handleServiceError はエラーを統一エラーフォーマットのJSONレスポンスとして書き込む。
func handleServiceError(w http.ResponseWriter, err error) {
	apiErr, status := resolveError(err)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, status, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// handlePageError はHTMLページのエラーをプレーンテキストで返す。
func handlePageError(w http.ResponseWriter, err error) {
	apiErr, status := resolveError(err)
	if apiErr != nil {
		http.Error(w, apiErr.Message, status)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	http.Error(w, "内部エラーが発生しました。", http.StatusInternalServerError)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeEntityNotFound, model.ErrCodeUnknownEntityKind:
		return http.StatusNotFound
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidSubmission:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeLoginFailed:
		return http.StatusUnauthorized
	case model.ErrCodeRemoteUnavailable:
		return http.StatusServiceUnavailable
	case model.ErrCodeRemoteFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
