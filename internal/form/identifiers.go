package form

// IdentifierValue は識別子行の入力値。
type IdentifierValue struct {
	ID     *int
	Value  string
	TypeID *int
}

// IdentifierRow は行キー付きの識別子行。
type IdentifierRow struct {
	Key string
	IdentifierValue
}

// IdentifierList は識別子一覧の編集状態。エイリアス一覧と同じく末尾に空行を持つ。
type IdentifierList struct {
	rows []IdentifierRow
}

// NewIdentifierList は既存の識別子から一覧を生成し、末尾に空行を追加する。
func NewIdentifierList(existing []IdentifierValue) *IdentifierList {
	rows := make([]IdentifierRow, 0, len(existing)+1)
	for _, v := range existing {
		rows = append(rows, IdentifierRow{Key: newRowKey(), IdentifierValue: v})
	}
	rows = append(rows, IdentifierRow{Key: newRowKey()})
	return &IdentifierList{rows: rows}
}

func restoreIdentifierList(rows []IdentifierRow) *IdentifierList {
	if len(rows) == 0 {
		return NewIdentifierList(nil)
	}
	return &IdentifierList{rows: rows}
}

// Rows は現在の行を返す。
func (l *IdentifierList) Rows() []IdentifierRow {
	return l.rows
}

// Len は行数を返す。
func (l *IdentifierList) Len() int {
	return len(l.rows)
}

// IsTrailing は指定位置が末尾の空行かどうかを返す。
func (l *IdentifierList) IsTrailing(index int) bool {
	return index == len(l.rows)-1
}

// IndexOf は行キーから位置を返す。見つからない場合は-1。
func (l *IdentifierList) IndexOf(key string) int {
	for i, r := range l.rows {
		if r.Key == key {
			return i
		}
	}
	return -1
}

// Change は指定行の値を更新する。
// 末尾の行で値の有無が変わった、またはタイプが設定された場合は新しい空行を追加してtrueを返す。
func (l *IdentifierList) Change(index int, v IdentifierValue) bool {
	if index < 0 || index >= len(l.rows) {
		return false
	}

	prev := l.rows[index].IdentifierValue
	l.rows[index].IdentifierValue = v

	if !l.IsTrailing(index) {
		return false
	}
	if (prev.Value == "") == (v.Value == "") && !(prev.TypeID == nil && v.TypeID != nil) {
		return false
	}

	l.rows = append(l.rows, IdentifierRow{Key: newRowKey()})
	return true
}

// Remove は指定行を削除する。末尾の空行は削除できない。
func (l *IdentifierList) Remove(index int) bool {
	if index < 0 || index >= len(l.rows) || l.IsTrailing(index) {
		return false
	}
	l.rows = append(l.rows[:index:index], l.rows[index+1:]...)
	return true
}

// Values は全行の値を返す。
func (l *IdentifierList) Values() []IdentifierValue {
	out := make([]IdentifierValue, len(l.rows))
	for i, r := range l.rows {
		out[i] = r.IdentifierValue
	}
	return out
}
