package reconcile

import (
	"encoding/json"
)

// Changes はbbwsに送信する変更セット。
// キーが存在しないフィールドは変更しない。値がnilのフィールドは明示的にクリアする。
type Changes map[string]any

// 変更セットのキー
const (
	KeyBBID           = "bbid"
	KeyAliases        = "aliases"
	KeyIdentifiers    = "identifiers"
	KeyDisambiguation = "disambiguation"
	KeyAnnotation     = "annotation"
	KeyRevision       = "revision"
	KeyBeginDate      = "begin_date"
	KeyEndDate        = "end_date"
	KeyEnded          = "ended"
	KeyGender         = "gender"
	KeyLanguages      = "languages"
)

// AliasFields はbbwsに送るエイリアスの値。
type AliasFields struct {
	Name       string `json:"name"`
	SortName   string `json:"sort_name"`
	LanguageID *int   `json:"language_id"`
	Primary    bool   `json:"primary"`
	Default    bool   `json:"default"`
}

// IdentifierTypeRef は識別子タイプへの参照。
type IdentifierTypeRef struct {
	IdentifierTypeID *int `json:"identifier_type_id"`
}

// IdentifierFields はbbwsに送る識別子の値。
type IdentifierFields struct {
	Value          string            `json:"value"`
	IdentifierType IdentifierTypeRef `json:"identifier_type"`
}

// RevisionNote は変更履歴に添えるノート。
type RevisionNote struct {
	Note string `json:"note"`
}

// Change は既存の子レコードに対する1件の変更。
//
//	[id, fields]  既存レコードの更新
//	[id, null]    既存レコードの削除
//	[null, fields] 新規レコードの追加
type Change[T any] struct {
	ID     *int
	Fields *T
}

// MarshalJSON は2要素のJSON配列として出力する。
func (c Change[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.ID, c.Fields})
}

// IsRemoval は削除を表す変更かどうかを返す。
func (c Change[T]) IsRemoval() bool {
	return c.ID != nil && c.Fields == nil
}

// IsAddition は追加を表す変更かどうかを返す。
func (c Change[T]) IsAddition() bool {
	return c.ID == nil && c.Fields != nil
}

// Summary は変更セットに含まれる子レコード変更の件数。
type Summary struct {
	Added    int
	Modified int
	Removed  int
}

// Summarize は変更セット内のエイリアスと識別子の変更件数を集計する。
// 新規作成の変更セットでは全件が追加として数えられる。
func Summarize(c Changes) Summary {
	var s Summary
	switch v := c[KeyAliases].(type) {
	case []Change[AliasFields]:
		countChanges(&s, v)
	case []AliasFields:
		s.Added += len(v)
	}
	switch v := c[KeyIdentifiers].(type) {
	case []Change[IdentifierFields]:
		countChanges(&s, v)
	case []IdentifierFields:
		s.Added += len(v)
	}
	return s
}

func countChanges[T any](s *Summary, changes []Change[T]) {
	for _, c := range changes {
		switch {
		case c.IsAddition():
			s.Added++
		case c.IsRemoval():
			s.Removed++
		default:
			s.Modified++
		}
	}
}
