package reconcile

import (
	"slices"

	"github.com/hitoshi/bbeditor/internal/model"
)

// BuildUpdate は編集用の変更セットを構築する。
//
// スカラーフィールドは読み込み済みの値と異なる場合のみ含め、新しい値が空ならnull（クリア）を送る。
// エイリアスと識別子は strategy で既存レコードと突き合わせる。
func BuildUpdate(prev *model.Entity, sub *Submission, strategy Strategy) Changes {
	kind := prev.Kind
	changes := Changes{KeyBBID: prev.BBID}

	newType := sub.TypeID(kind)
	if !sameID(prev.TypeID, newType) {
		if id, ok := idOf(newType); ok {
			changes[typeKey(kind)] = typeRef(kind, id)
		} else {
			changes[typeKey(kind)] = nil
		}
	}

	if kind.HasGender() && !sameID(prev.GenderID, sub.GenderID) {
		if id, ok := idOf(sub.GenderID); ok {
			changes[KeyGender] = genderRef(id)
		} else {
			changes[KeyGender] = nil
		}
	}

	if kind.HasDates() {
		if prev.BeginDate != sub.BeginDate {
			changes[KeyBeginDate] = nullable(sub.BeginDate)
		}
		endChanged := prev.EndDate != sub.EndDate
		if endChanged {
			changes[KeyEndDate] = nullable(sub.EndDate)
		}
		ended := sub.Ended || sub.EndDate != ""
		if endChanged || ended != prev.Ended {
			changes[KeyEnded] = ended
		}
	}

	if kind.HasLanguages() && !slices.Equal(sortedIDs(prev.LanguageIDs), sortedIDs(sub.Languages)) {
		if len(sub.Languages) == 0 {
			changes[KeyLanguages] = nil
		} else {
			changes[KeyLanguages] = sortedIDs(sub.Languages)
		}
	}

	if prev.Disambiguation != sub.Disambiguation {
		changes[KeyDisambiguation] = nullable(sub.Disambiguation)
	}
	if prev.Annotation != sub.Annotation {
		changes[KeyAnnotation] = nullable(sub.Annotation)
	}
	if sub.Note != "" {
		changes[KeyRevision] = RevisionNote{Note: sub.Note}
	}

	changes[KeyIdentifiers] = strategy.Identifiers(prev.Identifiers, sub.Identifiers)
	changes[KeyAliases] = strategy.Aliases(prev.Aliases, prev.DefaultAliasID, sub.Aliases)

	return changes
}

// nullable は空文字列をnilに変換する。
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// sameID は2つのIDが同じかどうかを返す。nilと0は同一視する。
func sameID(a, b *int) bool {
	av, aok := idOf(a)
	bv, bok := idOf(b)
	return aok == bok && av == bv
}

func sortedIDs(ids []int) []int {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
