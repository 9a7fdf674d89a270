package model

// Option は選択肢として表示する参照データの1件。
type Option struct {
	ID    int
	Label string
}

// ReferenceData はフォーム描画に必要な参照データ一式。
// EntityTypesは種別ごとのタイプ（creator_type等）、Gendersはcreatorのみで使用する。
type ReferenceData struct {
	Languages       []Option
	Genders         []Option
	EntityTypes     []Option
	IdentifierTypes []Option
}
