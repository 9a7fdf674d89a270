package form

import "testing"

func intp(n int) *int { return &n }

// TestNewAliasList_Create は新規作成時に空行が1つだけでデフォルト指定されることを検証する。
func TestNewAliasList_Create(t *testing.T) {
	l := NewAliasList(nil)

	if l.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", l.Len())
	}
	row := l.Rows()[0]
	if !row.Primary {
		t.Error("expected spawn row to be primary")
	}
	if !row.Default {
		t.Error("expected single spawn row to be default on create")
	}
	if row.Key == "" {
		t.Error("expected row key to be assigned")
	}
	if !l.Valid() {
		t.Error("expected a single row list to be valid")
	}
}

// TestNewAliasList_Edit は既存エイリアスN件に対して空行を加えたN+1行になることを検証する。
func TestNewAliasList_Edit(t *testing.T) {
	l := NewAliasList([]AliasValue{
		{ID: intp(1), Name: "Natsume Soseki", SortName: "Soseki, Natsume", Primary: true, Default: true},
		{ID: intp(2), Name: "夏目漱石", SortName: "夏目漱石", Primary: false},
	})

	if l.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", l.Len())
	}
	spawn := l.Rows()[2]
	if spawn.Default {
		t.Error("expected spawn row not to be default when existing aliases exist")
	}
	if !spawn.Primary || !spawn.Empty() {
		t.Errorf("unexpected spawn row: %+v", spawn)
	}
	if !l.IsTrailing(2) || l.IsTrailing(1) {
		t.Error("IsTrailing mismatch")
	}
	if !l.Valid() {
		t.Error("expected list with a default row to be valid")
	}
}

// TestAliasList_RowKeysAreUnique は行キーが一意であることを検証する。
func TestAliasList_RowKeysAreUnique(t *testing.T) {
	l := NewAliasList([]AliasValue{{Name: "a", SortName: "a"}, {Name: "b", SortName: "b"}})
	l.Change(l.Len()-1, AliasValue{Name: "c", Primary: true})

	seen := map[string]bool{}
	for _, r := range l.Rows() {
		if seen[r.Key] {
			t.Fatalf("duplicate row key %s", r.Key)
		}
		seen[r.Key] = true
	}
}

// TestAliasList_ChangeSpawnsOnName は末尾行への名前入力で新しい空行が追加されることを検証する。
func TestAliasList_ChangeSpawnsOnName(t *testing.T) {
	l := NewAliasList(nil)
	firstKey := l.Rows()[0].Key

	spawned := l.Change(0, AliasValue{Name: "Jane", Primary: true, Default: true})

	if !spawned {
		t.Fatal("expected a new row to be spawned")
	}
	if l.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", l.Len())
	}
	if l.Rows()[0].Key != firstKey {
		t.Error("expected the edited row to keep its key")
	}
	if l.Rows()[1].Default {
		t.Error("expected new spawn row not to be default")
	}
}

// TestAliasList_ChangeSpawnsOnlyOnce は末尾行の入力を続けても空行が増え続けないことを検証する。
func TestAliasList_ChangeSpawnsOnlyOnce(t *testing.T) {
	l := NewAliasList(nil)
	l.Change(0, AliasValue{Name: "J", Primary: true, Default: true})
	if spawned := l.Change(0, AliasValue{Name: "Jane", Primary: true, Default: true}); spawned {
		t.Error("expected no spawn when editing a non-trailing row")
	}
	if l.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", l.Len())
	}
}

// TestAliasList_ChangeSpawnTriggers は空行の追加条件を検証する。
func TestAliasList_ChangeSpawnTriggers(t *testing.T) {
	tests := []struct {
		name  string
		value AliasValue
		want  bool
	}{
		{name: "ソート名の入力", value: AliasValue{SortName: "Doe", Primary: true}, want: true},
		{name: "言語の設定", value: AliasValue{Language: intp(120), Primary: true}, want: true},
		{name: "primaryの解除", value: AliasValue{Primary: false}, want: true},
		{name: "デフォルトの選択", value: AliasValue{Primary: true, Default: true}, want: true},
		{name: "変化なし", value: AliasValue{Primary: true}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewAliasList([]AliasValue{{ID: intp(1), Name: "x", SortName: "x", Primary: true, Default: true}})
			if got := l.Change(1, tt.value); got != tt.want {
				t.Errorf("Change() spawned = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestAliasList_DefaultIsExclusive はデフォルトが1行だけ選択されることを検証する。
func TestAliasList_DefaultIsExclusive(t *testing.T) {
	l := NewAliasList([]AliasValue{
		{ID: intp(1), Name: "a", SortName: "a", Primary: true, Default: true},
		{ID: intp(2), Name: "b", SortName: "b", Primary: true},
	})

	l.Change(1, AliasValue{ID: intp(2), Name: "b", SortName: "b", Primary: true, Default: true})

	if l.Rows()[0].Default {
		t.Error("expected previous default to be cleared")
	}
	if !l.Rows()[1].Default {
		t.Error("expected new default to be set")
	}
}

// TestAliasList_Remove は行の削除と末尾行が削除できないことを検証する。
func TestAliasList_Remove(t *testing.T) {
	l := NewAliasList([]AliasValue{
		{ID: intp(1), Name: "a", SortName: "a", Default: true},
		{ID: intp(2), Name: "b", SortName: "b"},
	})
	keepKey := l.Rows()[1].Key

	if !l.Remove(0) {
		t.Fatal("expected removal of first row")
	}
	if l.Len() != 2 || l.Rows()[0].Key != keepKey {
		t.Errorf("unexpected rows after removal: %+v", l.Rows())
	}

	if l.Remove(l.Len() - 1) {
		t.Error("expected trailing row removal to be rejected")
	}
	if l.Remove(-1) || l.Remove(10) {
		t.Error("expected out of range removal to be rejected")
	}
}

// TestAliasList_Valid は一覧の検証規則を検証する。
func TestAliasList_Valid(t *testing.T) {
	t.Run("2行以上でデフォルトなしは無効", func(t *testing.T) {
		l := NewAliasList([]AliasValue{{ID: intp(1), Name: "a", SortName: "a"}})
		if l.Valid() {
			t.Error("expected list without default to be invalid")
		}
	})

	t.Run("入力途中の行があれば無効", func(t *testing.T) {
		l := NewAliasList([]AliasValue{
			{ID: intp(1), Name: "a", SortName: "a", Default: true},
			{Name: "b"},
		})
		if l.Valid() {
			t.Error("expected half filled row to make list invalid")
		}
	})

	t.Run("末尾行は検証対象外", func(t *testing.T) {
		l := NewAliasList([]AliasValue{{ID: intp(1), Name: "a", SortName: "a", Default: true}})
		l.rows[1].Name = "typing"
		if !l.Valid() {
			t.Error("expected trailing row to be ignored")
		}
	})
}

// TestAliasValue_Valid は行単位の検証を検証する。
func TestAliasValue_Valid(t *testing.T) {
	if (AliasValue{Name: "a"}).Valid() {
		t.Error("name only should be invalid")
	}
	if (AliasValue{SortName: "a"}).Valid() {
		t.Error("sort name only should be invalid")
	}
	if !(AliasValue{Name: "a", SortName: "a"}).Valid() {
		t.Error("name and sort name should be valid")
	}
	if !(AliasValue{}).Empty() {
		t.Error("zero value should be empty")
	}
}
