package form

import (
	"github.com/hitoshi/bbeditor/internal/model"
)

// DataForm は種別固有データタブの入力値。
// このタブに必須項目はなく、常に有効とみなす。
type DataForm struct {
	Kind           model.EntityKind
	BeginDate      string
	EndDate        string
	Ended          bool
	TypeID         *int
	GenderID       *int
	Languages      []int
	Disambiguation string
	Annotation     string
	Identifiers    *IdentifierList
}

// NewDataForm はエンティティの現在値からデータタブを初期化する。entityがnilなら空のフォーム。
func NewDataForm(kind model.EntityKind, entity *model.Entity) *DataForm {
	d := &DataForm{Kind: kind}
	if entity == nil {
		d.Identifiers = NewIdentifierList(nil)
		return d
	}

	d.BeginDate = entity.BeginDate
	d.EndDate = entity.EndDate
	d.Ended = entity.Ended
	d.TypeID = entity.TypeID
	d.GenderID = entity.GenderID
	d.Languages = append([]int(nil), entity.LanguageIDs...)
	d.Disambiguation = entity.Disambiguation
	d.Annotation = entity.Annotation

	existing := make([]IdentifierValue, len(entity.Identifiers))
	for i, ident := range entity.Identifiers {
		id, typeID := ident.ID, ident.TypeID
		existing[i] = IdentifierValue{ID: &id, Value: ident.Value, TypeID: &typeID}
	}
	d.Identifiers = NewIdentifierList(existing)

	return d
}

// Valid は常にtrueを返す。
func (d *DataForm) Valid() bool {
	return true
}

// HasLanguage は指定言語が選択されているかどうかを返す。
func (d *DataForm) HasLanguage(id int) bool {
	for _, l := range d.Languages {
		if l == id {
			return true
		}
	}
	return false
}
