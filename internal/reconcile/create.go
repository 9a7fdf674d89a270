package reconcile

import (
	"github.com/hitoshi/bbeditor/internal/model"
)

// BuildCreate は新規作成用の変更セットを構築する。
// ユーザーが入力したフィールドのみを含め、空のフィールドはキーごと省略する。
// 終了日が入力された場合は、endedフラグの値に関わらずended=trueとする。
func BuildCreate(kind model.EntityKind, sub *Submission) Changes {
	changes := Changes{KeyBBID: nil}

	if id, ok := idOf(sub.TypeID(kind)); ok {
		changes[typeKey(kind)] = typeRef(kind, id)
	}

	if kind.HasGender() {
		if id, ok := idOf(sub.GenderID); ok {
			changes[KeyGender] = genderRef(id)
		}
	}

	if kind.HasDates() {
		if sub.BeginDate != "" {
			changes[KeyBeginDate] = sub.BeginDate
		}
		if sub.EndDate != "" {
			changes[KeyEndDate] = sub.EndDate
			changes[KeyEnded] = true
		} else if sub.Ended {
			changes[KeyEnded] = true
		}
	}

	if kind.HasLanguages() && len(sub.Languages) > 0 {
		changes[KeyLanguages] = sortedIDs(sub.Languages)
	}

	if sub.Disambiguation != "" {
		changes[KeyDisambiguation] = sub.Disambiguation
	}
	if sub.Annotation != "" {
		changes[KeyAnnotation] = sub.Annotation
	}
	if sub.Note != "" {
		changes[KeyRevision] = RevisionNote{Note: sub.Note}
	}

	var identifiers []IdentifierFields
	for _, in := range sub.Identifiers {
		if in.Empty() {
			continue
		}
		identifiers = append(identifiers, identifierFields(in))
	}
	if len(identifiers) > 0 {
		changes[KeyIdentifiers] = identifiers
	}

	var aliases []AliasFields
	for _, in := range sub.Aliases {
		if in.Empty() {
			continue
		}
		aliases = append(aliases, aliasFields(in))
	}
	if len(aliases) > 0 {
		changes[KeyAliases] = aliases
	}

	return changes
}

// typeKey は種別ごとのタイプフィールド名を返す（例: creator_type）。
func typeKey(kind model.EntityKind) string {
	return string(kind) + "_type"
}

func typeRef(kind model.EntityKind, id int) map[string]int {
	return map[string]int{typeKey(kind) + "_id": id}
}

func genderRef(id int) map[string]int {
	return map[string]int{"gender_id": id}
}

func aliasFields(in AliasInput) AliasFields {
	return AliasFields{
		Name:       in.Name,
		SortName:   in.SortName,
		LanguageID: in.Language,
		Primary:    in.Primary,
		Default:    in.Default,
	}
}

func identifierFields(in IdentifierInput) IdentifierFields {
	return IdentifierFields{
		Value:          in.Value,
		IdentifierType: IdentifierTypeRef{IdentifierTypeID: in.TypeID},
	}
}
