// Package form はエンティティ編集フォームの状態を扱う。
//
// フォームは「エイリアス」「データ」「変更ノート」の3タブで構成される。
// エイリアスと識別子の一覧は、末尾の空行に入力すると新しい空行が追加される形式で編集する。
// サーバー側での初期描画と、JavaScriptなしのフォーム送信の往復の両方でこの状態を使用する。
package form

import (
	"github.com/google/uuid"
)

// AliasValue はエイリアス行の入力値。
type AliasValue struct {
	ID       *int
	Name     string
	SortName string
	Language *int
	Primary  bool
	Default  bool
}

// Empty は名前とソート名がどちらも空かどうかを返す。
func (v AliasValue) Empty() bool {
	return v.Name == "" && v.SortName == ""
}

// Valid は名前とソート名の両方が入力されているかどうかを返す。
func (v AliasValue) Valid() bool {
	return v.Name != "" && v.SortName != ""
}

// AliasRow は行キー付きのエイリアス行。
// Keyは行の生成時に1度だけ払い出され、並べ替えや削除があっても変わらない。
type AliasRow struct {
	Key string
	AliasValue
}

// AliasList はエイリアス一覧の編集状態。
// 末尾には常に空の行（primary=true、default=false、削除不可）が1つ存在する。
type AliasList struct {
	rows []AliasRow
}

// NewAliasList は既存エイリアスから一覧を生成し、末尾に空行を追加する。
// 既存エイリアスがない場合（新規作成）は、その空行をデフォルトとする。
func NewAliasList(existing []AliasValue) *AliasList {
	rows := make([]AliasRow, 0, len(existing)+1)
	for _, v := range existing {
		rows = append(rows, AliasRow{Key: newRowKey(), AliasValue: v})
	}
	rows = append(rows, spawnAliasRow())

	if len(rows) == 1 {
		rows[0].Default = true
	}

	return &AliasList{rows: rows}
}

// restoreAliasList は送信された行から一覧を復元する。行キーはそのまま引き継ぐ。
func restoreAliasList(rows []AliasRow) *AliasList {
	if len(rows) == 0 {
		return NewAliasList(nil)
	}
	return &AliasList{rows: rows}
}

func spawnAliasRow() AliasRow {
	return AliasRow{
		Key:        newRowKey(),
		AliasValue: AliasValue{Primary: true},
	}
}

func newRowKey() string {
	return uuid.NewString()
}

// Rows は現在の行を返す。末尾の行が空行。
func (l *AliasList) Rows() []AliasRow {
	return l.rows
}

// Len は行数を返す。
func (l *AliasList) Len() int {
	return len(l.rows)
}

// IsTrailing は指定位置が末尾の空行かどうかを返す。
func (l *AliasList) IsTrailing(index int) bool {
	return index == len(l.rows)-1
}

// IndexOf は行キーから位置を返す。見つからない場合は-1。
func (l *AliasList) IndexOf(key string) int {
	for i, r := range l.rows {
		if r.Key == key {
			return i
		}
	}
	return -1
}

// Change は指定行の値を更新する。
// 末尾の行で名前・ソート名の有無が変わった、デフォルトが選択された、言語が設定された、
// またはprimaryが外された場合は、新しい空行を末尾に追加してtrueを返す。
// デフォルトはラジオボタンのため、ある行を選択すると他の行の選択は外れる。
func (l *AliasList) Change(index int, v AliasValue) bool {
	if index < 0 || index >= len(l.rows) {
		return false
	}

	prev := l.rows[index].AliasValue
	trailing := l.IsTrailing(index)

	if v.Default {
		for i := range l.rows {
			l.rows[i].Default = false
		}
	}
	l.rows[index].AliasValue = v

	if !trailing || !aliasSpawnTriggered(prev, v) {
		return false
	}

	l.rows = append(l.rows, spawnAliasRow())
	return true
}

func aliasSpawnTriggered(prev, next AliasValue) bool {
	return (prev.Name == "") != (next.Name == "") ||
		(prev.SortName == "") != (next.SortName == "") ||
		next.Default && !prev.Default ||
		prev.Language == nil && next.Language != nil ||
		!next.Primary
}

// Remove は指定行を削除する。末尾の空行は削除できない。
func (l *AliasList) Remove(index int) bool {
	if index < 0 || index >= len(l.rows) || l.IsTrailing(index) {
		return false
	}
	l.rows = append(l.rows[:index:index], l.rows[index+1:]...)
	return true
}

// Valid は一覧全体が送信可能かどうかを返す。
// 末尾以外の行で入力途中（名前かソート名の一方のみ）のものがあれば無効。
// それ以外は、デフォルトの行が1つ以上あるか、行が1つだけであれば有効。
func (l *AliasList) Valid() bool {
	defaultSet := false
	for i, r := range l.rows {
		if !l.IsTrailing(i) && !r.Empty() && !r.Valid() {
			return false
		}
		if r.Default {
			defaultSet = true
		}
	}
	return defaultSet || len(l.rows) == 1
}

// Values は全行の値を返す。末尾の空行も含む。
func (l *AliasList) Values() []AliasValue {
	out := make([]AliasValue, len(l.rows))
	for i, r := range l.rows {
		out[i] = r.AliasValue
	}
	return out
}
