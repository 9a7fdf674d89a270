// Package model はドメインモデルを定義する。
package model

import "time"

// User はbbwsに登録された編集者アカウントを表す。
type User struct {
	ID   int
	Name string
}

// Session はユーザーのログインセッションを表す。
// AccessTokenはbbwsへの書き込み時にBearerトークンとして使用する。
type Session struct {
	ID          string
	UserID      int
	UserName    string
	AccessToken string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}
