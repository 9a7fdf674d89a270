package handler

import (
	"context"

	"github.com/hitoshi/bbeditor/internal/auth"
	"github.com/hitoshi/bbeditor/internal/bbws"
	"github.com/hitoshi/bbeditor/internal/form"
	"github.com/hitoshi/bbeditor/internal/model"
	"github.com/hitoshi/bbeditor/internal/reconcile"
)

// EntitySubmitter はエンティティサービスを form.Submitter に適合させるアダプタ。
// JavaScriptなしのフォーム送信で、JSON送信と同じ作成・更新処理をサーバー内で呼び出す。
type EntitySubmitter struct {
	service EntityServiceInterface
	session *model.Session
	kind    model.EntityKind
	prev    *model.Entity
}

// NewEntitySubmitter はEntitySubmitterを生成する。prevがnilの場合は新規作成として送信する。
func NewEntitySubmitter(service EntityServiceInterface, session *model.Session, kind model.EntityKind, prev *model.Entity) *EntitySubmitter {
	return &EntitySubmitter{
		service: service,
		session: session,
		kind:    kind,
		prev:    prev,
	}
}

// Submit はペイロードを作成または更新として送信し、作成されたリビジョンのエンティティ参照を返す。
// セッションがない場合、またはbbwsがアクセストークンを拒否した場合はエンティティ参照のない応答を返す。
func (a *EntitySubmitter) Submit(ctx context.Context, _ string, payload *reconcile.Submission) (*form.SubmitResponse, error) {
	if a.session == nil {
		return &form.SubmitResponse{}, nil
	}

	var (
		rev *model.Revision
		err error
	)
	if a.prev == nil {
		rev, err = a.service.Create(ctx, a.session, a.kind, payload)
	} else {
		rev, err = a.service.Update(ctx, a.session, a.prev, payload)
	}
	if sessionRejected(err) {
		return &form.SubmitResponse{}, nil
	}
	if err != nil {
		return nil, err
	}

	return &form.SubmitResponse{EntityBBID: rev.EntityBBID}, nil
}

// TokenIssuerAdapter は bbws.Client を auth.TokenIssuer に適合させるアダプタ。
type TokenIssuerAdapter struct {
	client *bbws.Client
}

// NewTokenIssuerAdapter はTokenIssuerAdapterを生成する。
func NewTokenIssuerAdapter(client *bbws.Client) *TokenIssuerAdapter {
	return &TokenIssuerAdapter{client: client}
}

// PasswordGrant はパスワードグラントでアクセストークンとその有効期間を取得する。
func (a *TokenIssuerAdapter) PasswordGrant(ctx context.Context, username, password string) (*auth.Grant, error) {
	token, err := a.client.PasswordGrant(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return &auth.Grant{AccessToken: token.AccessToken, ExpiresIn: token.ExpiresIn}, nil
}

// CurrentUser はアクセストークンの所有者を返す。
func (a *TokenIssuerAdapter) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	return a.client.CurrentUser(ctx, token)
}
