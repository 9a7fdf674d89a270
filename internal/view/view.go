// Package view はHTMLページの描画を行う。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/hitoshi/bbeditor/internal/form"
	"github.com/hitoshi/bbeditor/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// ページ名
const (
	PageForm      = "form"
	PageEntity    = "entity"
	PageRevisions = "revisions"
	PageLogin     = "login"
)

var pageNames = []string{PageForm, PageEntity, PageRevisions, PageLogin}

// Page は全ページ共通の描画データ。
type Page struct {
	Title     string
	CSRFToken string
	UserName  string
}

// FormPage はエンティティ編集フォームの描画データ。
type FormPage struct {
	Page
	Form      *form.Controller
	Reference *model.ReferenceData
	Error     *model.APIError
}

// EntityPage はエンティティ表示ページの描画データ。
type EntityPage struct {
	Page
	Entity        *model.Entity
	Reference     *model.ReferenceData
	Relationships []model.Relationship
}

// RevisionsPage は変更履歴ページの描画データ。
type RevisionsPage struct {
	Page
	Kind      model.EntityKind
	BBID      string
	Revisions []model.RevisionWithUser
}

// LoginPage はログインページの描画データ。
type LoginPage struct {
	Page
	Next     string
	Username string
	Error    *model.APIError
}

// Renderer は埋め込みテンプレートからページを描画する。
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer は全ページのテンプレートを解析する。
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render はページを描画する。
// テンプレートの実行エラーで部分的な出力が書き込まれないよう、バッファに描画してからコピーする。
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page: %s", page)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

var funcs = template.FuncMap{
	"aliasField":      form.AliasField,
	"identifierField": form.IdentifierField,
	"viewURL":         form.ViewURL,
	"editURL":         form.EditURL,
	"createURL":       form.CreateURL,
	"intValue":        intValue,
	"selected":        selected,
	"optionLabel":     optionLabel,
	"tabs":            tabs,
}

// intValue は任意の整数値をフォームの値として返す。nilなら空文字列。
func intValue(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// selected は任意の整数値が選択肢のIDと一致するかを返す。
func selected(p *int, id int) bool {
	return p != nil && *p == id
}

// optionLabel は選択肢の表示名を返す。該当がなければIDをそのまま返す。
func optionLabel(options []model.Option, id int) string {
	for _, o := range options {
		if o.ID == id {
			return o.Label
		}
	}
	return strconv.Itoa(id)
}

// tabInfo はタブ見出しの描画データ。
type tabInfo struct {
	Number  int
	Label   string
	Current bool
	Invalid bool
}

func tabs(c *form.Controller) []tabInfo {
	return []tabInfo{
		{Number: form.TabAliases, Label: "Aliases", Current: c.Tab == form.TabAliases, Invalid: !c.AliasesValid},
		{Number: form.TabData, Label: "Data", Current: c.Tab == form.TabData, Invalid: !c.DataValid},
		{Number: form.TabNote, Label: "Revision Note", Current: c.Tab == form.TabNote},
	}
}
