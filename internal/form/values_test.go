package form

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/google/uuid"

	"github.com/hitoshi/bbeditor/internal/model"
)

func setAlias(v url.Values, i int, key, name, sortName string) {
	v.Set(AliasField(i, "key"), key)
	v.Set(AliasField(i, "name"), name)
	v.Set(AliasField(i, "sort_name"), sortName)
	v.Set(AliasField(i, "primary"), "on")
}

// TestParseForm_CreateFirstInput は新規作成フォームで1行目に入力して送信した場合に空行が追加されることを検証する。
func TestParseForm_CreateFirstInput(t *testing.T) {
	key := uuid.NewString()
	v := url.Values{}
	v.Set(FieldTab, "1")
	v.Set(FieldAliasCount, "1")
	v.Set(FieldAliasDefault, key)
	setAlias(v, 0, key, "Jane Doe", "Doe, Jane")

	c, err := ParseForm(model.EntityKindCreator, "", v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Aliases.Len() != 2 {
		t.Fatalf("expected spawn row after input, got %d rows", c.Aliases.Len())
	}
	first := c.Aliases.Rows()[0]
	if first.Key != key || !first.Default || first.Name != "Jane Doe" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if c.SubmissionURL != "/creator/create/handler" {
		t.Errorf("unexpected submission url %s", c.SubmissionURL)
	}
	if !c.AliasesValid {
		t.Error("expected aliases to be valid")
	}
}

// TestParseForm_EmptyTrailingRow は末尾行が空のまま送信された場合に行が増えないことを検証する。
func TestParseForm_EmptyTrailingRow(t *testing.T) {
	k1, k2 := uuid.NewString(), uuid.NewString()
	v := url.Values{}
	v.Set(FieldAliasCount, "2")
	v.Set(FieldAliasDefault, k1)
	setAlias(v, 0, k1, "A", "A")
	v.Set(AliasField(0, "id"), "3")
	setAlias(v, 1, k2, "", "")
	v.Set(FieldIdentifierCount, "2")
	v.Set(IdentifierField(0, "key"), uuid.NewString())
	v.Set(IdentifierField(0, "id"), "9")
	v.Set(IdentifierField(0, "value"), "Q1")
	v.Set(IdentifierField(0, "type"), "2")
	v.Set(IdentifierField(1, "key"), uuid.NewString())
	v.Set(FieldTab, "2")
	v.Set(FieldEnded, "on")
	v.Set(FieldEndDate, "2001")
	v.Set(FieldGender, "1")

	c, err := ParseForm(model.EntityKindCreator, "bbid-1", v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Aliases.Len() != 2 || c.Aliases.Rows()[1].Key != k2 {
		t.Errorf("expected 2 alias rows with preserved keys, got %+v", c.Aliases.Rows())
	}
	if id := c.Aliases.Rows()[0].ID; id == nil || *id != 3 {
		t.Error("expected alias id to be restored")
	}
	if c.Data.Identifiers.Len() != 2 {
		t.Errorf("expected 2 identifier rows, got %d", c.Data.Identifiers.Len())
	}
	if c.Tab != TabData {
		t.Errorf("expected tab %d, got %d", TabData, c.Tab)
	}
	if !c.Data.Ended || c.Data.EndDate != "2001" || c.Data.GenderID == nil {
		t.Errorf("unexpected data form: %+v", c.Data)
	}
	if c.SubmissionURL != "/creator/bbid-1/edit/handler" {
		t.Errorf("unexpected submission url %s", c.SubmissionURL)
	}
}

// TestParseForm_ReplacesForgedKeys はUUIDでない行キーが新しいキーに置き換えられることを検証する。
func TestParseForm_ReplacesForgedKeys(t *testing.T) {
	v := url.Values{}
	v.Set(FieldAliasCount, "1")
	setAlias(v, 0, "<script>", "", "")

	c, err := ParseForm(model.EntityKindWork, "", v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(c.Aliases.Rows()[0].Key); err != nil {
		t.Errorf("expected generated uuid key, got %q", c.Aliases.Rows()[0].Key)
	}
}

// TestParseForm_InvalidCount は不正な行数を拒否することを検証する。
func TestParseForm_InvalidCount(t *testing.T) {
	for _, raw := range []string{"-1", "abc", strconv.Itoa(maxRows + 1)} {
		v := url.Values{}
		v.Set(FieldAliasCount, raw)
		if _, err := ParseForm(model.EntityKindWork, "", v); err == nil {
			t.Errorf("expected error for alias_count=%q", raw)
		}
	}
}

// TestParseForm_Languages は作品の言語が複数値から復元されることを検証する。
func TestParseForm_Languages(t *testing.T) {
	v := url.Values{}
	v[FieldLanguages] = []string{"120", "", "45"}
	v.Set(FieldType, "3")

	c, err := ParseForm(model.EntityKindWork, "", v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Data.Languages) != 2 || !c.Data.HasLanguage(45) {
		t.Errorf("unexpected languages: %v", c.Data.Languages)
	}
	p := c.Payload()
	if p.WorkTypeID == nil || *p.WorkTypeID != 3 {
		t.Error("expected work type id in payload")
	}
}

// TestApply は操作の適用を検証する。
func TestApply(t *testing.T) {
	c := New(model.EntityKindCreator, existingCreator(), "")
	removeKey := c.Aliases.Rows()[0].Key

	if err := c.Apply(ActionNext); err != nil || c.Tab != TabData {
		t.Errorf("next: tab=%d err=%v", c.Tab, err)
	}
	if err := c.Apply(ActionBack); err != nil || c.Tab != TabAliases {
		t.Errorf("back: tab=%d err=%v", c.Tab, err)
	}
	if err := c.Apply(ActionTabPrefix + "3"); err != nil || c.Tab != TabNote {
		t.Errorf("tab-3: tab=%d err=%v", c.Tab, err)
	}
	if err := c.Apply(ActionRemoveAlias + removeKey); err != nil {
		t.Fatalf("remove alias: %v", err)
	}
	if c.Aliases.IndexOf(removeKey) != -1 {
		t.Error("expected alias row to be removed")
	}
	identKey := c.Data.Identifiers.Rows()[0].Key
	if err := c.Apply(ActionRemoveIdentifier + identKey); err != nil {
		t.Fatalf("remove identifier: %v", err)
	}
	if c.Data.Identifiers.Len() != 1 {
		t.Error("expected identifier row to be removed")
	}
	if err := c.Apply(ActionTabPrefix + "x"); err == nil {
		t.Error("expected error for malformed tab action")
	}
	if err := c.Apply("explode"); err == nil {
		t.Error("expected error for unknown action")
	}
	if err := c.Apply(ActionRemoveAlias + "unknown"); err != nil {
		t.Errorf("expected unknown key removal to be ignored, got %v", err)
	}
}
