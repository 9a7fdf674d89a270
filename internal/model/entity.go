// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// EntityKind は編集対象となるエンティティの種別を表す。
type EntityKind string

const (
	// EntityKindCreator は著者・制作者を表す。
	EntityKindCreator EntityKind = "creator"
	// EntityKindPublisher は出版社を表す。
	EntityKindPublisher EntityKind = "publisher"
	// EntityKindWork は作品を表す。
	EntityKindWork EntityKind = "work"
)

// EntityKinds はルーティング対象となる全エンティティ種別。
var EntityKinds = []EntityKind{EntityKindCreator, EntityKindPublisher, EntityKindWork}

// ParseEntityKind は文字列からEntityKindを解析する。
func ParseEntityKind(s string) (EntityKind, error) {
	for _, k := range EntityKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind: %q", s)
}

// Title は画面表示用の種別名を返す。
func (k EntityKind) Title() string {
	switch k {
	case EntityKindCreator:
		return "Creator"
	case EntityKindPublisher:
		return "Publisher"
	case EntityKindWork:
		return "Work"
	default:
		return string(k)
	}
}

// HasDates は開始日・終了日を持つ種別かどうかを返す。
func (k EntityKind) HasDates() bool {
	return k == EntityKindCreator || k == EntityKindPublisher
}

// HasGender は性別を持つ種別かどうかを返す。
func (k EntityKind) HasGender() bool {
	return k == EntityKindCreator
}

// HasLanguages は複数言語を持つ種別かどうかを返す。
func (k EntityKind) HasLanguages() bool {
	return k == EntityKindWork
}

// Entity はbbwsから読み込んだエンティティのスナップショット。
// 編集時の差分計算の基準として使用する。
type Entity struct {
	BBID           string
	Kind           EntityKind
	DefaultAliasID int
	Aliases        []Alias
	Identifiers    []Identifier
	Disambiguation string
	Annotation     string

	// 種別固有フィールド
	BeginDate   string
	EndDate     string
	Ended       bool
	TypeID      *int
	GenderID    *int
	LanguageIDs []int
}

// DisplayName はデフォルトエイリアスの名前を返す。見つからない場合は空文字列。
func (e *Entity) DisplayName() string {
	for _, a := range e.Aliases {
		if a.ID == e.DefaultAliasID {
			return a.Name
		}
	}
	return ""
}

// Alias はエンティティの別名を表す。
type Alias struct {
	ID         int
	Name       string
	SortName   string
	LanguageID *int
	Primary    bool
}

// Identifier はエンティティに付与された外部識別子を表す。
type Identifier struct {
	ID     int
	Value  string
	TypeID int
}

// Revision はbbwsが生成した変更履歴の1件を表す。
// Rawにはbbwsのレスポンスをそのまま保持し、呼び出し元へ中継する。
type Revision struct {
	ID         int
	EntityBBID string
	UserID     int
	Note       string
	CreatedAt  time.Time
	Raw        []byte
}

// Relationship はエンティティ間の関係1件を表す。
// Renderedはbbwsが関係タイプのテンプレートから生成した表示用テキスト。
type Relationship struct {
	ID       int
	TypeID   int
	Label    string
	Rendered string
}

// RevisionWithUser は変更履歴と編集者情報を結合したもの。
type RevisionWithUser struct {
	Revision
	UserName string
}
