// Package reconcile はフォーム送信内容をbbwsが受け付ける変更セットに変換する。
//
// 新規作成時は入力されたフィールドのみを含め（未入力は「未設定のまま」）、
// 編集時は読み込み済みのエンティティとの差分を取り、空の値は明示的なnull（クリア）として送る。
package reconcile

import (
	"fmt"

	"github.com/hitoshi/bbeditor/internal/model"
)

// AliasInput はフォームから送信されたエイリアス1行分。
// IDは既存エイリアスの場合のみ設定される。
type AliasInput struct {
	ID       *int   `json:"id"`
	Name     string `json:"name"`
	SortName string `json:"sortName"`
	Language *int   `json:"language"`
	Primary  bool   `json:"primary"`
	Default  bool   `json:"default"`
}

// Empty は名前とソート名がどちらも空かどうかを返す。空の行は送信時に破棄される。
func (a AliasInput) Empty() bool {
	return a.Name == "" && a.SortName == ""
}

// IdentifierInput はフォームから送信された識別子1行分。
type IdentifierInput struct {
	ID     *int   `json:"id"`
	Value  string `json:"value"`
	TypeID *int   `json:"typeId"`
}

// Empty は値が空かどうかを返す。
func (i IdentifierInput) Empty() bool {
	return i.Value == ""
}

// Submission はフォームコンポーネントが送信するJSONペイロード。
// 種別固有フィールドは該当する種別でのみ参照される。
type Submission struct {
	Aliases        []AliasInput      `json:"aliases"`
	Identifiers    []IdentifierInput `json:"identifiers"`
	Disambiguation string            `json:"disambiguation"`
	Annotation     string            `json:"annotation"`
	Note           string            `json:"note"`

	BeginDate       string `json:"beginDate,omitempty"`
	EndDate         string `json:"endDate,omitempty"`
	Ended           bool   `json:"ended,omitempty"`
	GenderID        *int   `json:"genderId,omitempty"`
	CreatorTypeID   *int   `json:"creatorTypeId,omitempty"`
	PublisherTypeID *int   `json:"publisherTypeId,omitempty"`
	WorkTypeID      *int   `json:"workTypeId,omitempty"`
	Languages       []int  `json:"languages,omitempty"`
}

// TypeID は種別に対応するタイプIDを返す。
func (s *Submission) TypeID(kind model.EntityKind) *int {
	switch kind {
	case model.EntityKindCreator:
		return s.CreatorTypeID
	case model.EntityKindPublisher:
		return s.PublisherTypeID
	case model.EntityKindWork:
		return s.WorkTypeID
	}
	return nil
}

// SetTypeID は種別に対応するタイプIDを設定する。
func (s *Submission) SetTypeID(kind model.EntityKind, id *int) {
	switch kind {
	case model.EntityKindCreator:
		s.CreatorTypeID = id
	case model.EntityKindPublisher:
		s.PublisherTypeID = id
	case model.EntityKindWork:
		s.WorkTypeID = id
	}
}

// Validate はエイリアスの整合性を検証する。
// 空でない行は名前とソート名の両方が必要で、デフォルトは高々1つ。
// 空でない行が1つだけでデフォルト指定がない場合は、その行を暗黙のデフォルトとする。
func (s *Submission) Validate() error {
	defaults := 0
	filled := -1
	count := 0
	for i, a := range s.Aliases {
		if a.Empty() {
			continue
		}
		if a.Name == "" || a.SortName == "" {
			return fmt.Errorf("alias %d requires both name and sort name", i)
		}
		if a.Default {
			defaults++
		}
		filled = i
		count++
	}
	if defaults > 1 {
		return fmt.Errorf("only one alias may be marked default, got %d", defaults)
	}
	if defaults == 0 && count == 1 {
		s.Aliases[filled].Default = true
	}
	return nil
}

// idOf はポインタのIDを取り出す。nilまたは0はIDなしとして扱う。
func idOf(p *int) (int, bool) {
	if p == nil || *p == 0 {
		return 0, false
	}
	return *p, true
}

func intPtr(v int) *int {
	return &v
}
