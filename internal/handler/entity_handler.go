package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bbeditor/internal/form"
	"github.com/hitoshi/bbeditor/internal/middleware"
	"github.com/hitoshi/bbeditor/internal/model"
	"github.com/hitoshi/bbeditor/internal/reconcile"
	"github.com/hitoshi/bbeditor/internal/view"
)

// maxSubmissionBytes はJSON送信ボディの上限サイズ。
const maxSubmissionBytes = 1 << 20

// EntityServiceInterface はエンティティハンドラーが必要とするサービスインターフェース。
type EntityServiceInterface interface {
	Load(ctx context.Context, kind model.EntityKind, bbid string) (*model.Entity, error)
	ReferenceData(ctx context.Context, kind model.EntityKind) (*model.ReferenceData, error)
	Create(ctx context.Context, session *model.Session, kind model.EntityKind, sub *reconcile.Submission) (*model.Revision, error)
	Update(ctx context.Context, session *model.Session, prev *model.Entity, sub *reconcile.Submission) (*model.Revision, error)
	Revisions(ctx context.Context, kind model.EntityKind, bbid string) ([]model.RevisionWithUser, error)
	Relationships(ctx context.Context, bbid string) ([]model.Relationship, error)
}

// Renderer はHTMLページの描画インターフェース。
type Renderer interface {
	Render(w io.Writer, page string, data any) error
}

// EntityHandler はエンティティの表示・編集のHTTPハンドラー。
// ハンドラーはエンティティ種別ごとに生成する。
type EntityHandler struct {
	service  EntityServiceInterface
	renderer Renderer
}

// NewEntityHandler はEntityHandlerを生成する。
func NewEntityHandler(service EntityServiceInterface, renderer Renderer) *EntityHandler {
	return &EntityHandler{
		service:  service,
		renderer: renderer,
	}
}

// CreateForm は新規作成フォームを表示する。
// GET /{kind}/create
func (h *EntityHandler) CreateForm(kind model.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := form.New(kind, nil, form.HandlerURL(kind, ""))
		h.renderForm(w, r, http.StatusOK, c, nil)
	}
}

// EditForm は既存エンティティの値を入力済みの編集フォームを表示する。
// GET /{kind}/{bbid}/edit
func (h *EntityHandler) EditForm(kind model.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bbid := chi.URLParam(r, "bbid")
		entity, err := h.service.Load(r.Context(), kind, bbid)
		if err != nil {
			handlePageError(w, err)
			return
		}

		c := form.New(kind, entity, form.HandlerURL(kind, bbid))
		h.renderForm(w, r, http.StatusOK, c, nil)
	}
}

// FormAction はJavaScriptを使わないフォーム送信を処理する。
// タブ移動や行の削除は状態を更新して再描画し、送信操作はエンティティを保存してリダイレクトする。
// POST /{kind}/create, POST /{kind}/{bbid}/edit
func (h *EntityHandler) FormAction(kind model.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bbid := chi.URLParam(r, "bbid")

		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		c, err := form.ParseForm(kind, bbid, r.PostForm)
		if err != nil {
			slog.Warn("invalid form submission", slog.String("error", err.Error()))
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		action := r.PostForm.Get(form.FieldAction)
		if action != form.ActionSubmit {
			if err := c.Apply(action); err != nil {
				http.Error(w, "invalid action", http.StatusBadRequest)
				return
			}
			h.renderForm(w, r, http.StatusOK, c, nil)
			return
		}

		submitter, err := h.submitterFor(r, kind, bbid)
		if err != nil {
			handlePageError(w, err)
			return
		}

		if err := c.Submit(r.Context(), submitter); err != nil {
			if errors.Is(err, form.ErrSubmitDisabled) {
				h.renderForm(w, r, http.StatusBadRequest, c, model.NewInvalidSubmissionError("incomplete aliases"))
				return
			}
			handlePageError(w, err)
			return
		}

		if c.Err != nil {
			apiErr, status := resolveError(c.Err)
			if apiErr == nil {
				slog.Error("entity submission failed", slog.String("error", c.Err.Error()))
				apiErr = &model.APIError{
					Code:     "INTERNAL_ERROR",
					Message:  "内部エラーが発生しました。",
					Category: "system",
					Action:   "しばらく待ってから再度お試しください。",
				}
			}
			h.renderForm(w, r, status, c, apiErr)
			return
		}

		http.Redirect(w, r, c.Redirect, http.StatusSeeOther)
	}
}

// submitterFor は送信先のアダプタを生成する。編集時は差分の基準となるエンティティを読み込む。
func (h *EntityHandler) submitterFor(r *http.Request, kind model.EntityKind, bbid string) (*EntitySubmitter, error) {
	session, _ := middleware.SessionFromContext(r.Context())
	if bbid == "" {
		return NewEntitySubmitter(h.service, session, kind, nil), nil
	}

	prev, err := h.service.Load(r.Context(), kind, bbid)
	if err != nil {
		return nil, err
	}
	return NewEntitySubmitter(h.service, session, kind, prev), nil
}

// SubmitCreate はフォームのJSON送信を受けてエンティティを作成する。
// bbwsが返したリビジョンをそのまま返す。
// POST /{kind}/create/handler
func (h *EntityHandler) SubmitCreate(kind model.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := decodeSubmission(w, r)
		if !ok {
			return
		}

		session, _ := middleware.SessionFromContext(r.Context())
		rev, err := h.service.Create(r.Context(), session, kind, sub)
		if err != nil {
			handleSubmitError(w, err)
			return
		}

		writeRevision(w, rev)
	}
}

// SubmitEdit はフォームのJSON送信を受けてエンティティを更新する。
// 現在のエンティティを読み込み、差分のみをbbwsへ送る。
// POST /{kind}/{bbid}/edit/handler
func (h *EntityHandler) SubmitEdit(kind model.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := decodeSubmission(w, r)
		if !ok {
			return
		}

		prev, err := h.service.Load(r.Context(), kind, chi.URLParam(r, "bbid"))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		session, _ := middleware.SessionFromContext(r.Context())
		rev, err := h.service.Update(r.Context(), session, prev, sub)
		if err != nil {
			handleSubmitError(w, err)
			return
		}

		writeRevision(w, rev)
	}
}

// View はエンティティを表示する。
// GET /{kind}/{bbid}
func (h *EntityHandler) View(kind model.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, err := h.service.Load(r.Context(), kind, chi.URLParam(r, "bbid"))
		if err != nil {
			handlePageError(w, err)
			return
		}

		ref, err := h.service.ReferenceData(r.Context(), kind)
		if err != nil {
			handlePageError(w, err)
			return
		}

		relationships, err := h.service.Relationships(r.Context(), entity.BBID)
		if err != nil {
			handlePageError(w, err)
			return
		}

		title := entity.DisplayName()
		if title == "" {
			title = kind.Title()
		}
		h.render(w, http.StatusOK, view.PageEntity, view.EntityPage{
			Page:          pageFor(r, title),
			Entity:        entity,
			Reference:     ref,
			Relationships: relationships,
		})
	}
}

// Revisions はエンティティの変更履歴を編集者名付きで表示する。
// GET /{kind}/{bbid}/revisions
func (h *EntityHandler) Revisions(kind model.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bbid := chi.URLParam(r, "bbid")
		revisions, err := h.service.Revisions(r.Context(), kind, bbid)
		if err != nil {
			handlePageError(w, err)
			return
		}

		h.render(w, http.StatusOK, view.PageRevisions, view.RevisionsPage{
			Page:      pageFor(r, kind.Title()+" Revisions"),
			Kind:      kind,
			BBID:      bbid,
			Revisions: revisions,
		})
	}
}

func (h *EntityHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, c *form.Controller, apiErr *model.APIError) {
	ref, err := h.service.ReferenceData(r.Context(), c.Kind)
	if err != nil {
		handlePageError(w, err)
		return
	}

	title := "Add " + c.Kind.Title()
	if c.BBID != "" {
		title = "Edit " + c.Kind.Title()
	}
	h.render(w, status, view.PageForm, view.FormPage{
		Page:      pageFor(r, title),
		Form:      c,
		Reference: ref,
		Error:     apiErr,
	})
}

func (h *EntityHandler) render(w http.ResponseWriter, status int, page string, data any) {
	renderPage(w, h.renderer, status, page, data)
}

// renderPage はHTMLページを描画する。描画に失敗した場合は500を返す。
func renderPage(w http.ResponseWriter, renderer Renderer, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := renderer.Render(w, page, data); err != nil {
		slog.Error("failed to render page",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}

// pageFor はリクエストのセッションとCSRFトークンから共通の描画データを生成する。
func pageFor(r *http.Request, title string) view.Page {
	p := view.Page{
		Title:     title,
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
	}
	if session, ok := middleware.SessionFromContext(r.Context()); ok {
		p.UserName = session.UserName
	}
	return p
}

// decodeSubmission はJSONの送信ペイロードを読み取る。失敗時はエラーレスポンスを書き込みfalseを返す。
func decodeSubmission(w http.ResponseWriter, r *http.Request) (*reconcile.Submission, bool) {
	var sub reconcile.Submission
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmissionBytes)).Decode(&sub); err != nil {
		slog.Warn("failed to decode submission", slog.String("error", err.Error()))
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return nil, false
	}
	return &sub, true
}

// writeRevision はbbwsが返したリビジョンのJSONをそのまま書き込む。
func writeRevision(w http.ResponseWriter, rev *model.Revision) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(rev.Raw) > 0 {
		w.Write(rev.Raw)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{})
}
