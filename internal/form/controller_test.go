package form

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/bbeditor/internal/model"
	"github.com/hitoshi/bbeditor/internal/reconcile"
)

// mockSubmitter はSubmitterのモック。
type mockSubmitter struct {
	submitFn func(ctx context.Context, url string, payload *reconcile.Submission) (*SubmitResponse, error)
	calls    int
	waiting  bool
	form     *Controller
}

func (m *mockSubmitter) Submit(ctx context.Context, url string, payload *reconcile.Submission) (*SubmitResponse, error) {
	m.calls++
	if m.form != nil {
		m.waiting = m.form.Waiting
	}
	return m.submitFn(ctx, url, payload)
}

func existingCreator() *model.Entity {
	lang := 120
	gender := 1
	typeID := 1
	return &model.Entity{
		BBID:           "c1a2b3c4-0000-0000-0000-000000000001",
		Kind:           model.EntityKindCreator,
		DefaultAliasID: 11,
		Aliases: []model.Alias{
			{ID: 10, Name: "夏目漱石", SortName: "夏目漱石", LanguageID: &lang, Primary: true},
			{ID: 11, Name: "Natsume Soseki", SortName: "Soseki, Natsume", Primary: true},
		},
		Identifiers: []model.Identifier{{ID: 7, Value: "Q160566", TypeID: 2}},
		BeginDate:   "1867-02-09",
		EndDate:     "1916-12-09",
		Ended:       true,
		TypeID:      &typeID,
		GenderID:    &gender,
	}
}

// TestNew_Create は新規作成フォームの初期状態を検証する。
func TestNew_Create(t *testing.T) {
	c := New(model.EntityKindCreator, nil, HandlerURL(model.EntityKindCreator, ""))

	if c.Tab != TabAliases {
		t.Errorf("expected initial tab %d, got %d", TabAliases, c.Tab)
	}
	if !c.AliasesValid || !c.DataValid {
		t.Error("expected both validity flags to start true")
	}
	if c.SubmissionURL != "/creator/create/handler" {
		t.Errorf("unexpected submission URL %s", c.SubmissionURL)
	}
	if c.Aliases.Len() != 1 || c.Data.Identifiers.Len() != 1 {
		t.Error("expected single spawn rows")
	}
}

// TestNew_Edit は編集フォームが既存値で初期化されることを検証する。
func TestNew_Edit(t *testing.T) {
	e := existingCreator()
	c := New(model.EntityKindCreator, e, HandlerURL(e.Kind, e.BBID))

	if c.Aliases.Len() != 3 {
		t.Fatalf("expected 3 alias rows, got %d", c.Aliases.Len())
	}
	if c.Aliases.Rows()[0].Default || !c.Aliases.Rows()[1].Default {
		t.Error("expected default to follow DefaultAliasID")
	}
	if c.Data.Identifiers.Len() != 2 {
		t.Errorf("expected 2 identifier rows, got %d", c.Data.Identifiers.Len())
	}
	if c.SubmissionURL != "/creator/"+e.BBID+"/edit/handler" {
		t.Errorf("unexpected submission URL %s", c.SubmissionURL)
	}
}

// TestController_TabNavigation はタブ移動と範囲の丸めを検証する。
func TestController_TabNavigation(t *testing.T) {
	c := New(model.EntityKindWork, nil, "")

	c.Back()
	if c.Tab != TabAliases {
		t.Errorf("expected tab to stay at %d, got %d", TabAliases, c.Tab)
	}
	c.Next()
	c.Next()
	c.Next()
	if c.Tab != TabNote {
		t.Errorf("expected tab to stop at %d, got %d", TabNote, c.Tab)
	}
	c.SetTab(2)
	if c.Tab != TabData {
		t.Errorf("expected tab %d, got %d", TabData, c.Tab)
	}
}

// TestController_SetTabRecomputesValidity はタブ移動時に有効状態が再計算されることを検証する。
func TestController_SetTabRecomputesValidity(t *testing.T) {
	c := New(model.EntityKindCreator, existingCreator(), "")
	c.Aliases.Change(0, AliasValue{ID: intp(10), Name: "夏目漱石", SortName: ""})

	if !c.AliasesValid {
		t.Fatal("validity must not change before a tab switch")
	}
	c.SetTab(TabData)
	if c.AliasesValid {
		t.Error("expected aliases to be invalid after tab switch")
	}
	if c.SubmitEnabled() {
		t.Error("expected submit to be disabled")
	}
}

// TestController_Payload は送信ペイロードの組み立てを検証する。
func TestController_Payload(t *testing.T) {
	c := New(model.EntityKindCreator, existingCreator(), "")
	c.Note = "fix dates"
	c.Data.Disambiguation = "novelist"

	p := c.Payload()

	if len(p.Aliases) != 3 {
		t.Errorf("expected 3 aliases including spawn row, got %d", len(p.Aliases))
	}
	if len(p.Identifiers) != 2 {
		t.Errorf("expected 2 identifiers, got %d", len(p.Identifiers))
	}
	if p.Note != "fix dates" || p.Disambiguation != "novelist" {
		t.Errorf("unexpected text fields: %+v", p)
	}
	if p.CreatorTypeID == nil || *p.CreatorTypeID != 1 {
		t.Error("expected creator type id")
	}
	if p.GenderID == nil || p.EndDate != "1916-12-09" || !p.Ended {
		t.Error("expected creator-specific fields")
	}
	if p.Languages != nil {
		t.Error("expected no languages for creator")
	}
}

// TestController_SubmitSuccess は送信成功時に表示ページへ遷移することを検証する。
func TestController_SubmitSuccess(t *testing.T) {
	c := New(model.EntityKindPublisher, nil, HandlerURL(model.EntityKindPublisher, ""))
	m := &mockSubmitter{form: c}
	m.submitFn = func(_ context.Context, url string, _ *reconcile.Submission) (*SubmitResponse, error) {
		if url != "/publisher/create/handler" {
			t.Errorf("unexpected url %s", url)
		}
		return &SubmitResponse{EntityBBID: "p-1"}, nil
	}

	if err := c.Submit(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.waiting {
		t.Error("expected waiting indicator during submission")
	}
	if c.Waiting {
		t.Error("expected waiting to be cleared")
	}
	if c.Redirect != "/publisher/p-1" {
		t.Errorf("unexpected redirect %s", c.Redirect)
	}
}

// TestController_SubmitWithoutEntity はエンティティ参照のない応答でログインへ遷移することを検証する。
func TestController_SubmitWithoutEntity(t *testing.T) {
	c := New(model.EntityKindWork, nil, "")
	m := &mockSubmitter{submitFn: func(context.Context, string, *reconcile.Submission) (*SubmitResponse, error) {
		return &SubmitResponse{}, nil
	}}

	if err := c.Submit(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Redirect != LoginPath {
		t.Errorf("expected redirect to %s, got %s", LoginPath, c.Redirect)
	}
}

// TestController_SubmitFailure は送信失敗時にエラーが保持されることを検証する。
func TestController_SubmitFailure(t *testing.T) {
	c := New(model.EntityKindWork, nil, "")
	wantErr := errors.New("remote down")
	m := &mockSubmitter{submitFn: func(context.Context, string, *reconcile.Submission) (*SubmitResponse, error) {
		return nil, wantErr
	}}

	if err := c.Submit(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(c.Err, wantErr) {
		t.Errorf("expected stored error, got %v", c.Err)
	}
	if c.Redirect != "" || c.Waiting {
		t.Error("expected no redirect and no waiting after failure")
	}
	if m.calls != 1 {
		t.Errorf("expected exactly one call, got %d", m.calls)
	}
}

// TestController_SubmitDisabled は無効な状態では送信されないことを検証する。
func TestController_SubmitDisabled(t *testing.T) {
	c := New(model.EntityKindCreator, existingCreator(), "")
	for i := range c.Aliases.rows {
		c.Aliases.rows[i].Default = false
	}
	c.SetTab(TabNote)

	m := &mockSubmitter{submitFn: func(context.Context, string, *reconcile.Submission) (*SubmitResponse, error) {
		return &SubmitResponse{EntityBBID: "x"}, nil
	}}
	if err := c.Submit(context.Background(), m); !errors.Is(err, ErrSubmitDisabled) {
		t.Errorf("expected ErrSubmitDisabled, got %v", err)
	}
	if m.calls != 0 {
		t.Error("expected no remote call")
	}
}
