package reconcile

import (
	"fmt"

	"github.com/hitoshi/bbeditor/internal/model"
)

// Strategy は既存の子レコードと送信された行を突き合わせる方法。
type Strategy interface {
	Name() string
	Aliases(existing []model.Alias, defaultAliasID int, submitted []AliasInput) []Change[AliasFields]
	Identifiers(existing []model.Identifier, submitted []IdentifierInput) []Change[IdentifierFields]
}

const (
	// StrategyPositional は配列の位置で突き合わせる。
	StrategyPositional = "positional"
	// StrategyKeyed はIDの集合差で突き合わせる。
	StrategyKeyed = "keyed"
)

// ParseStrategy は名前からStrategyを返す。
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", StrategyPositional:
		return Positional{}, nil
	case StrategyKeyed:
		return Keyed{}, nil
	default:
		return nil, fmt.Errorf("unknown reconcile strategy: %q", name)
	}
}

// Positional は既存レコードを読み込み順に、送信された行の先頭から順に突き合わせる。
//
// 既存レコードのIDが次の送信行のIDと異なれば削除とし、一致すればその行を消費して更新とする。
// 既存レコードを処理し終えた後に残った行のうち、IDを持たないものを追加とする。
// 送信側が読み込み順を保っていることを前提としており、並べ替えられると誤った削除が発生する。
type Positional struct{}

// Name はStrategy名を返す。
func (Positional) Name() string { return StrategyPositional }

// Aliases はエイリアスの変更を計算する。空の新規行は破棄する。
func (Positional) Aliases(existing []model.Alias, _ int, submitted []AliasInput) []Change[AliasFields] {
	return positional(existing, submitted,
		func(a model.Alias) int { return a.ID },
		func(in AliasInput) *int { return in.ID },
		aliasFields,
		AliasInput.Empty,
	)
}

// Identifiers は識別子の変更を計算する。値が空の新規行は破棄する。
func (Positional) Identifiers(existing []model.Identifier, submitted []IdentifierInput) []Change[IdentifierFields] {
	return positional(existing, submitted,
		func(i model.Identifier) int { return i.ID },
		func(in IdentifierInput) *int { return in.ID },
		identifierFields,
		IdentifierInput.Empty,
	)
}

func positional[E, S, F any](
	existing []E,
	submitted []S,
	existingID func(E) int,
	submittedID func(S) *int,
	fields func(S) F,
	empty func(S) bool,
) []Change[F] {
	out := make([]Change[F], 0, len(existing)+len(submitted))
	next := 0

	for _, e := range existing {
		id := existingID(e)
		if next < len(submitted) {
			if sid, ok := idOf(submittedID(submitted[next])); ok && sid == id {
				f := fields(submitted[next])
				out = append(out, Change[F]{ID: intPtr(id), Fields: &f})
				next++
				continue
			}
		}
		out = append(out, Change[F]{ID: intPtr(id)})
	}

	for _, s := range submitted[next:] {
		// ここに残った行でIDを持つものは処理済みとみなして破棄する
		if _, ok := idOf(submittedID(s)); ok || empty(s) {
			continue
		}
		f := fields(s)
		out = append(out, Change[F]{Fields: &f})
	}

	return out
}

// Keyed はIDをキーとした集合差で突き合わせる。
//
// 送信されなかった既存IDは削除、両方に存在し値が変わったIDは更新、IDを持たない行は追加とする。
// 既存に存在しないIDを持つ送信行は破棄する。出力順は既存レコードの読み込み順、続いて追加分。
type Keyed struct{}

// Name はStrategy名を返す。
func (Keyed) Name() string { return StrategyKeyed }

// Aliases はエイリアスの変更を計算する。
func (Keyed) Aliases(existing []model.Alias, defaultAliasID int, submitted []AliasInput) []Change[AliasFields] {
	return keyed(existing, submitted,
		func(a model.Alias) int { return a.ID },
		func(in AliasInput) *int { return in.ID },
		aliasFields,
		AliasInput.Empty,
		func(a model.Alias, f AliasFields) bool {
			return a.Name == f.Name &&
				a.SortName == f.SortName &&
				sameID(a.LanguageID, f.LanguageID) &&
				a.Primary == f.Primary &&
				(a.ID == defaultAliasID) == f.Default
		},
	)
}

// Identifiers は識別子の変更を計算する。
func (Keyed) Identifiers(existing []model.Identifier, submitted []IdentifierInput) []Change[IdentifierFields] {
	return keyed(existing, submitted,
		func(i model.Identifier) int { return i.ID },
		func(in IdentifierInput) *int { return in.ID },
		identifierFields,
		IdentifierInput.Empty,
		func(i model.Identifier, f IdentifierFields) bool {
			return i.Value == f.Value && sameID(&i.TypeID, f.IdentifierType.IdentifierTypeID)
		},
	)
}

func keyed[E, S, F any](
	existing []E,
	submitted []S,
	existingID func(E) int,
	submittedID func(S) *int,
	fields func(S) F,
	empty func(S) bool,
	unchanged func(E, F) bool,
) []Change[F] {
	byID := make(map[int]S, len(submitted))
	for _, s := range submitted {
		if id, ok := idOf(submittedID(s)); ok {
			byID[id] = s
		}
	}

	out := make([]Change[F], 0, len(existing)+len(submitted))
	for _, e := range existing {
		id := existingID(e)
		s, ok := byID[id]
		if !ok {
			out = append(out, Change[F]{ID: intPtr(id)})
			continue
		}
		f := fields(s)
		if !unchanged(e, f) {
			out = append(out, Change[F]{ID: intPtr(id), Fields: &f})
		}
	}

	for _, s := range submitted {
		if _, ok := idOf(submittedID(s)); ok || empty(s) {
			continue
		}
		f := fields(s)
		out = append(out, Change[F]{Fields: &f})
	}

	return out
}
