package form

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/bbeditor/internal/model"
)

// フォームのフィールド名
const (
	FieldTab             = "tab"
	FieldAction          = "action"
	FieldAliasCount      = "alias_count"
	FieldAliasDefault    = "alias_default"
	FieldIdentifierCount = "identifier_count"
	FieldBeginDate       = "begin_date"
	FieldEndDate         = "end_date"
	FieldEnded           = "ended"
	FieldType            = "type"
	FieldGender          = "gender"
	FieldLanguages       = "languages"
	FieldDisambiguation  = "disambiguation"
	FieldAnnotation      = "annotation"
	FieldNote            = "note"
)

// 操作（actionフィールドの値）
const (
	ActionNext             = "next"
	ActionBack             = "back"
	ActionSubmit           = "submit"
	ActionTabPrefix        = "tab-"
	ActionRemoveAlias      = "remove-alias:"
	ActionRemoveIdentifier = "remove-identifier:"
)

// AliasField はi番目のエイリアス行のフィールド名を返す。
func AliasField(i int, name string) string {
	return fmt.Sprintf("aliases[%d].%s", i, name)
}

// IdentifierField はi番目の識別子行のフィールド名を返す。
func IdentifierField(i int, name string) string {
	return fmt.Sprintf("identifiers[%d].%s", i, name)
}

// ParseForm は送信されたフォーム値からフォームの状態を復元する。
//
// 末尾の行は空行の状態から送信値へ変更されたものとして扱うため、
// 入力があれば新しい空行が追加される。タブの有効状態は復元後に再計算する。
func ParseForm(kind model.EntityKind, bbid string, values url.Values) (*Controller, error) {
	c := &Controller{
		Kind:          kind,
		BBID:          bbid,
		SubmissionURL: HandlerURL(kind, bbid),
		Note:          values.Get(FieldNote),
	}

	aliasCount, err := parseCount(values, FieldAliasCount)
	if err != nil {
		return nil, err
	}
	defaultKey := values.Get(FieldAliasDefault)

	var aliasRows []AliasRow
	for i := 0; i < aliasCount; i++ {
		aliasRows = append(aliasRows, AliasRow{
			Key: rowKey(values.Get(AliasField(i, "key"))),
			AliasValue: AliasValue{
				ID:       parseOptionalInt(values.Get(AliasField(i, "id"))),
				Name:     strings.TrimSpace(values.Get(AliasField(i, "name"))),
				SortName: strings.TrimSpace(values.Get(AliasField(i, "sort_name"))),
				Language: parseOptionalInt(values.Get(AliasField(i, "language"))),
				Primary:  values.Get(AliasField(i, "primary")) != "",
			},
		})
		aliasRows[i].Default = defaultKey != "" && aliasRows[i].Key == defaultKey
	}
	c.Aliases = restoreTrailingAlias(aliasRows)

	identCount, err := parseCount(values, FieldIdentifierCount)
	if err != nil {
		return nil, err
	}
	var identRows []IdentifierRow
	for i := 0; i < identCount; i++ {
		identRows = append(identRows, IdentifierRow{
			Key: rowKey(values.Get(IdentifierField(i, "key"))),
			IdentifierValue: IdentifierValue{
				ID:     parseOptionalInt(values.Get(IdentifierField(i, "id"))),
				Value:  strings.TrimSpace(values.Get(IdentifierField(i, "value"))),
				TypeID: parseOptionalInt(values.Get(IdentifierField(i, "type"))),
			},
		})
	}

	c.Data = &DataForm{
		Kind:           kind,
		BeginDate:      strings.TrimSpace(values.Get(FieldBeginDate)),
		EndDate:        strings.TrimSpace(values.Get(FieldEndDate)),
		Ended:          values.Get(FieldEnded) != "",
		TypeID:         parseOptionalInt(values.Get(FieldType)),
		GenderID:       parseOptionalInt(values.Get(FieldGender)),
		Disambiguation: strings.TrimSpace(values.Get(FieldDisambiguation)),
		Annotation:     strings.TrimSpace(values.Get(FieldAnnotation)),
		Identifiers:    restoreTrailingIdentifier(identRows),
	}
	for _, raw := range values[FieldLanguages] {
		if id := parseOptionalInt(raw); id != nil {
			c.Data.Languages = append(c.Data.Languages, *id)
		}
	}

	tab, err := strconv.Atoi(values.Get(FieldTab))
	if err != nil {
		tab = TabAliases
	}
	c.SetTab(tab)

	return c, nil
}

// restoreTrailingAlias は末尾以外の行をそのまま復元し、末尾の行は空行への変更として適用する。
// 行が1つだけの場合、その空行は新規作成時のデフォルト指定を持っていたものとみなす。
func restoreTrailingAlias(rows []AliasRow) *AliasList {
	if len(rows) == 0 {
		return NewAliasList(nil)
	}
	last := rows[len(rows)-1]
	restored := append([]AliasRow(nil), rows[:len(rows)-1]...)
	restored = append(restored, AliasRow{
		Key:        last.Key,
		AliasValue: AliasValue{Primary: true, Default: len(rows) == 1},
	})

	l := restoreAliasList(restored)
	l.Change(len(restored)-1, last.AliasValue)
	return l
}

func restoreTrailingIdentifier(rows []IdentifierRow) *IdentifierList {
	if len(rows) == 0 {
		return NewIdentifierList(nil)
	}
	last := rows[len(rows)-1]
	restored := append([]IdentifierRow(nil), rows[:len(rows)-1]...)
	restored = append(restored, IdentifierRow{Key: last.Key})

	l := restoreIdentifierList(restored)
	l.Change(len(restored)-1, last.IdentifierValue)
	return l
}

// Apply はフォーム上の操作（タブ移動、行削除）を適用する。
// submitは呼び出し元で処理するため、ここでは何もしない。
func (c *Controller) Apply(action string) error {
	switch {
	case action == "" || action == ActionSubmit:
		return nil
	case action == ActionNext:
		c.Next()
	case action == ActionBack:
		c.Back()
	case strings.HasPrefix(action, ActionTabPrefix):
		tab, err := strconv.Atoi(strings.TrimPrefix(action, ActionTabPrefix))
		if err != nil {
			return fmt.Errorf("invalid tab action %q: %w", action, err)
		}
		c.SetTab(tab)
	case strings.HasPrefix(action, ActionRemoveAlias):
		c.Aliases.Remove(c.Aliases.IndexOf(strings.TrimPrefix(action, ActionRemoveAlias)))
	case strings.HasPrefix(action, ActionRemoveIdentifier):
		c.Data.Identifiers.Remove(c.Data.Identifiers.IndexOf(strings.TrimPrefix(action, ActionRemoveIdentifier)))
	default:
		return fmt.Errorf("unknown form action %q", action)
	}
	return nil
}

func parseCount(values url.Values, field string) (int, error) {
	raw := values.Get(field)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxRows {
		return 0, fmt.Errorf("invalid %s: %q", field, raw)
	}
	return n, nil
}

// maxRows は1つの一覧で受け付ける最大行数。
const maxRows = 200

func parseOptionalInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n == 0 {
		return nil
	}
	return &n
}

func rowKey(posted string) string {
	if _, err := uuid.Parse(posted); err == nil {
		return posted
	}
	return newRowKey()
}
