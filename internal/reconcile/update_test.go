package reconcile

import (
	"testing"

	"github.com/hitoshi/bbeditor/internal/model"
)

func ptr(v int) *int { return &v }

func baseCreator() *model.Entity {
	return &model.Entity{
		BBID:           "bbid-1",
		Kind:           model.EntityKindCreator,
		DefaultAliasID: 1,
		Aliases: []model.Alias{
			{ID: 1, Name: "x1", SortName: "x1", Primary: true},
			{ID: 2, Name: "x2", SortName: "x2", Primary: true},
		},
		Identifiers:    []model.Identifier{},
		Disambiguation: "A",
		Annotation:     "note",
		BeginDate:      "1900",
		TypeID:         ptr(1),
		GenderID:       ptr(2),
	}
}

func TestBuildUpdate_UnchangedScalarIsAbsent(t *testing.T) {
	prev := baseCreator()
	sub := &Submission{
		Disambiguation: "A",
		Annotation:     "note",
		BeginDate:      "1900",
		CreatorTypeID:  ptr(1),
		GenderID:       ptr(2),
	}

	changes := BuildUpdate(prev, sub, Positional{})

	for _, key := range []string{KeyDisambiguation, KeyAnnotation, KeyBeginDate, KeyEndDate, KeyEnded, "creator_type", KeyGender} {
		if _, ok := changes[key]; ok {
			t.Errorf("%s should be absent, got %v", key, changes[key])
		}
	}
	if changes[KeyBBID] != "bbid-1" {
		t.Errorf("bbid = %v, want bbid-1", changes[KeyBBID])
	}
}

func TestBuildUpdate_ClearedScalarIsNull(t *testing.T) {
	prev := baseCreator()
	sub := &Submission{
		Disambiguation: "",
		Annotation:     "note",
		BeginDate:      "",
		CreatorTypeID:  nil,
		GenderID:       ptr(2),
	}

	changes := BuildUpdate(prev, sub, Positional{})

	for _, key := range []string{KeyDisambiguation, KeyBeginDate, "creator_type"} {
		v, ok := changes[key]
		if !ok {
			t.Errorf("%s should be present", key)
			continue
		}
		if v != nil {
			t.Errorf("%s = %v, want nil", key, v)
		}
	}
}

func TestBuildUpdate_EndDateImpliesEnded(t *testing.T) {
	prev := baseCreator()
	sub := &Submission{
		Disambiguation: "A", Annotation: "note", BeginDate: "1900",
		CreatorTypeID: ptr(1), GenderID: ptr(2),
		EndDate: "2001-05-11",
	}

	changes := BuildUpdate(prev, sub, Positional{})

	if changes[KeyEndDate] != "2001-05-11" {
		t.Errorf("end_date = %v", changes[KeyEndDate])
	}
	if changes[KeyEnded] != true {
		t.Errorf("ended = %v, want true", changes[KeyEnded])
	}
}

func TestBuildUpdate_ChangedTypeUsesReference(t *testing.T) {
	prev := baseCreator()
	sub := &Submission{Disambiguation: "A", Annotation: "note", BeginDate: "1900", CreatorTypeID: ptr(5), GenderID: ptr(2)}

	changes := BuildUpdate(prev, sub, Positional{})

	assertJSON(t, changes["creator_type"], `{"creator_type_id": 5}`)
}

func TestBuildUpdate_Positional_ModifyAndAdd(t *testing.T) {
	prev := baseCreator()
	prev.Aliases = prev.Aliases[:1]
	sub := &Submission{
		Disambiguation: "A", Annotation: "note", BeginDate: "1900", CreatorTypeID: ptr(1), GenderID: ptr(2),
		Aliases: []AliasInput{
			{ID: ptr(1), Name: "x1 modified", SortName: "x1", Primary: true, Default: true},
			{Name: "new", SortName: "new", Primary: true},
			{Primary: true},
		},
	}

	changes := BuildUpdate(prev, sub, Positional{})

	assertJSON(t, changes[KeyAliases], `[
		[1, {"name": "x1 modified", "sort_name": "x1", "language_id": null, "primary": true, "default": true}],
		[null, {"name": "new", "sort_name": "new", "language_id": null, "primary": true, "default": false}]
	]`)
	s := Summarize(changes)
	if s.Removed != 0 || s.Modified != 1 || s.Added != 1 {
		t.Errorf("summary = %+v, want 1 modified 1 added", s)
	}
}

func TestBuildUpdate_Positional_TrailingExistingIsRemoved(t *testing.T) {
	prev := baseCreator()
	sub := &Submission{
		Aliases: []AliasInput{
			{ID: ptr(1), Name: "x1 modified", SortName: "x1", Primary: true, Default: true},
			{Name: "new", SortName: "new", Primary: true},
		},
	}

	changes := BuildUpdate(prev, sub, Positional{})

	assertJSON(t, changes[KeyAliases], `[
		[1, {"name": "x1 modified", "sort_name": "x1", "language_id": null, "primary": true, "default": true}],
		[2, null],
		[null, {"name": "new", "sort_name": "new", "language_id": null, "primary": true, "default": false}]
	]`)
}

func TestBuildUpdate_Positional_AllMismatchedAreRemoved(t *testing.T) {
	prev := baseCreator()
	sub := &Submission{
		Aliases: []AliasInput{
			{Name: "new", SortName: "new", Primary: true, Default: true},
		},
	}

	changes := BuildUpdate(prev, sub, Positional{})

	assertJSON(t, changes[KeyAliases], `[
		[1, null],
		[2, null],
		[null, {"name": "new", "sort_name": "new", "language_id": null, "primary": true, "default": true}]
	]`)
}

func TestBuildUpdate_Positional_ReorderedRemovesMatchedRecord(t *testing.T) {
	// 読み込み順と異なる順序で送信されると、位置比較では x1 が削除扱いになる
	prev := baseCreator()
	sub := &Submission{
		Aliases: []AliasInput{
			{ID: ptr(2), Name: "x2", SortName: "x2", Primary: true},
			{ID: ptr(1), Name: "x1", SortName: "x1", Primary: true, Default: true},
		},
	}

	changes := BuildUpdate(prev, sub, Positional{})

	assertJSON(t, changes[KeyAliases], `[
		[1, null],
		[2, {"name": "x2", "sort_name": "x2", "language_id": null, "primary": true, "default": false}]
	]`)
}

func TestBuildUpdate_Keyed_ReorderedKeepsRecords(t *testing.T) {
	prev := baseCreator()
	sub := &Submission{
		Aliases: []AliasInput{
			{ID: ptr(2), Name: "x2", SortName: "x2", Primary: true},
			{ID: ptr(1), Name: "x1", SortName: "x1", Primary: true, Default: true},
		},
	}

	changes := BuildUpdate(prev, sub, Keyed{})

	got := changes[KeyAliases].([]Change[AliasFields])
	if len(got) != 0 {
		t.Errorf("keyed changes = %d entries, want 0", len(got))
	}
}

func TestBuildUpdate_Keyed_RemoveModifyAdd(t *testing.T) {
	prev := baseCreator()
	prev.Identifiers = []model.Identifier{
		{ID: 10, Value: "a", TypeID: 1},
		{ID: 11, Value: "b", TypeID: 1},
	}
	sub := &Submission{
		Identifiers: []IdentifierInput{
			{ID: ptr(11), Value: "b2", TypeID: ptr(1)},
			{Value: "c", TypeID: ptr(2)},
			{Value: ""},
		},
	}

	changes := BuildUpdate(prev, sub, Keyed{})

	assertJSON(t, changes[KeyIdentifiers], `[
		[10, null],
		[11, {"value": "b2", "identifier_type": {"identifier_type_id": 1}}],
		[null, {"value": "c", "identifier_type": {"identifier_type_id": 2}}]
	]`)
}

func TestBuildUpdate_Positional_DiscardsLeftoverWithID(t *testing.T) {
	prev := baseCreator()
	prev.Identifiers = []model.Identifier{{ID: 10, Value: "a", TypeID: 1}}
	sub := &Submission{
		Identifiers: []IdentifierInput{
			{ID: ptr(99), Value: "stale", TypeID: ptr(1)},
		},
	}

	changes := BuildUpdate(prev, sub, Positional{})

	assertJSON(t, changes[KeyIdentifiers], `[[10, null]]`)
}

func TestBuildUpdate_WorkLanguages(t *testing.T) {
	prev := &model.Entity{BBID: "w", Kind: model.EntityKindWork, LanguageIDs: []int{2, 1}}

	same := BuildUpdate(prev, &Submission{Languages: []int{1, 2}}, Positional{})
	if _, ok := same[KeyLanguages]; ok {
		t.Error("languages should be absent when the set is unchanged")
	}

	cleared := BuildUpdate(prev, &Submission{}, Positional{})
	if v, ok := cleared[KeyLanguages]; !ok || v != nil {
		t.Errorf("languages = %v (present=%v), want explicit nil", v, ok)
	}
}

func TestParseStrategy(t *testing.T) {
	for name, want := range map[string]string{"": StrategyPositional, "positional": StrategyPositional, "keyed": StrategyKeyed} {
		s, err := ParseStrategy(name)
		if err != nil {
			t.Fatalf("ParseStrategy(%q) error: %v", name, err)
		}
		if s.Name() != want {
			t.Errorf("ParseStrategy(%q).Name() = %q, want %q", name, s.Name(), want)
		}
	}
	if _, err := ParseStrategy("fuzzy"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
