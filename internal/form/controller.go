package form

import (
	"context"
	"errors"

	"github.com/hitoshi/bbeditor/internal/model"
	"github.com/hitoshi/bbeditor/internal/reconcile"
)

// タブ番号（1始まり）
const (
	TabAliases = 1
	TabData    = 2
	TabNote    = 3
	TabCount   = 3
)

// LoginPath は送信結果にエンティティ参照がない場合の遷移先。
const LoginPath = "/login"

// ErrSubmitDisabled は検証エラーのため送信できない状態で送信しようとした場合のエラー。
var ErrSubmitDisabled = errors.New("form: submission disabled until aliases and data are valid")

// Submitter はフォームの送信先。
type Submitter interface {
	Submit(ctx context.Context, url string, payload *reconcile.Submission) (*SubmitResponse, error)
}

// SubmitResponse は送信結果。EntityBBIDが空の場合はセッション切れとして扱う。
type SubmitResponse struct {
	EntityBBID string
}

// Controller はタブ付き編集フォーム全体の状態。
type Controller struct {
	Kind          model.EntityKind
	BBID          string
	SubmissionURL string

	Tab          int
	AliasesValid bool
	DataValid    bool

	Aliases *AliasList
	Data    *DataForm
	Note    string

	// 送信状態。WaitingはSubmitの実行中だけtrueになる。
	Waiting  bool
	Redirect string
	Err      error
}

// New はフォームを初期化する。entityがnilの場合は新規作成フォーム。
func New(kind model.EntityKind, entity *model.Entity, submissionURL string) *Controller {
	c := &Controller{
		Kind:          kind,
		SubmissionURL: submissionURL,
		Tab:           TabAliases,
		AliasesValid:  true,
		DataValid:     true,
		Data:          NewDataForm(kind, entity),
	}

	if entity == nil {
		c.Aliases = NewAliasList(nil)
		return c
	}

	c.BBID = entity.BBID
	existing := make([]AliasValue, len(entity.Aliases))
	for i, a := range entity.Aliases {
		id := a.ID
		existing[i] = AliasValue{
			ID:       &id,
			Name:     a.Name,
			SortName: a.SortName,
			Language: a.LanguageID,
			Primary:  a.Primary,
			Default:  a.ID == entity.DefaultAliasID,
		}
	}
	c.Aliases = NewAliasList(existing)

	return c
}

// SetTab はタブを切り替え、各タブの有効状態を再計算する。範囲外の値は端に丸める。
func (c *Controller) SetTab(tab int) {
	c.Tab = min(max(tab, 1), TabCount)
	c.AliasesValid = c.Aliases.Valid()
	c.DataValid = c.Data.Valid()
}

// Next は次のタブへ進む。
func (c *Controller) Next() {
	c.SetTab(c.Tab + 1)
}

// Back は前のタブへ戻る。
func (c *Controller) Back() {
	c.SetTab(c.Tab - 1)
}

// SubmitEnabled は送信可能かどうかを返す。
func (c *Controller) SubmitEnabled() bool {
	return c.AliasesValid && c.DataValid
}

// Payload は全タブの入力値を1つの送信ペイロードにまとめる。
func (c *Controller) Payload() *reconcile.Submission {
	sub := &reconcile.Submission{
		Disambiguation: c.Data.Disambiguation,
		Annotation:     c.Data.Annotation,
		Note:           c.Note,
	}

	for _, v := range c.Aliases.Values() {
		sub.Aliases = append(sub.Aliases, reconcile.AliasInput{
			ID:       v.ID,
			Name:     v.Name,
			SortName: v.SortName,
			Language: v.Language,
			Primary:  v.Primary,
			Default:  v.Default,
		})
	}
	for _, v := range c.Data.Identifiers.Values() {
		sub.Identifiers = append(sub.Identifiers, reconcile.IdentifierInput{
			ID:     v.ID,
			Value:  v.Value,
			TypeID: v.TypeID,
		})
	}

	sub.SetTypeID(c.Kind, c.Data.TypeID)
	if c.Kind.HasDates() {
		sub.BeginDate = c.Data.BeginDate
		sub.EndDate = c.Data.EndDate
		sub.Ended = c.Data.Ended
	}
	if c.Kind.HasGender() {
		sub.GenderID = c.Data.GenderID
	}
	if c.Kind.HasLanguages() {
		sub.Languages = append([]int(nil), c.Data.Languages...)
	}

	return sub
}

// Submit はペイロードを送信する。
// 成功時はRedirectに遷移先（エンティティ参照がなければログインページ）を設定する。
// 失敗時はErrにエラーを保持し、再試行はしない。
func (c *Controller) Submit(ctx context.Context, s Submitter) error {
	if !c.SubmitEnabled() {
		return ErrSubmitDisabled
	}

	c.Waiting = true
	c.Err = nil
	resp, err := s.Submit(ctx, c.SubmissionURL, c.Payload())
	c.Waiting = false

	if err != nil {
		c.Err = err
		return nil
	}

	if resp == nil || resp.EntityBBID == "" {
		c.Redirect = LoginPath
		return nil
	}

	c.Redirect = ViewURL(c.Kind, resp.EntityBBID)
	return nil
}

// ViewURL はエンティティ表示ページのURLを返す。
func ViewURL(kind model.EntityKind, bbid string) string {
	return "/" + string(kind) + "/" + bbid
}

// CreateURL は新規作成フォームのURLを返す。
func CreateURL(kind model.EntityKind) string {
	return "/" + string(kind) + "/create"
}

// EditURL は編集フォームのURLを返す。
func EditURL(kind model.EntityKind, bbid string) string {
	return ViewURL(kind, bbid) + "/edit"
}

// HandlerURL はフォームのJSON送信先を返す。bbidが空なら新規作成用。
func HandlerURL(kind model.EntityKind, bbid string) string {
	if bbid == "" {
		return CreateURL(kind) + "/handler"
	}
	return EditURL(kind, bbid) + "/handler"
}
