package bbws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/bbeditor/internal/model"
)

// Token はOAuthトークンエンドポイントの応答。
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
}

// PasswordGrant はユーザー名とパスワードでアクセストークンを取得する。
// 認証情報の誤り（400/401）はLOGIN_FAILEDエラーとして返す。
func (c *Client) PasswordGrant(ctx context.Context, username, password string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", username)
	form.Set("password", password)
	form.Set("client_id", c.clientID)
	if c.clientSecret != "" {
		form.Set("client_secret", c.clientSecret)
	}

	data, err := c.do(ctx, request{
		operation:   "oauth.token",
		method:      http.MethodPost,
		path:        "/oauth/token",
		form:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	})
	if IsStatus(err, http.StatusBadRequest) || IsStatus(err, http.StatusUnauthorized) {
		return nil, model.NewLoginFailedError()
	}
	if err != nil {
		return nil, err
	}

	var doc struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("トークン応答のパースに失敗しました: %w", err)
	}
	if doc.AccessToken == "" {
		return nil, model.NewLoginFailedError()
	}

	return &Token{
		AccessToken: doc.AccessToken,
		TokenType:   doc.TokenType,
		ExpiresIn:   time.Duration(doc.ExpiresIn) * time.Second,
	}, nil
}
