package bbws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/bbeditor/internal/model"
)

type aliasDoc struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	SortName string `json:"sort_name"`
	Language *struct {
		LanguageID int `json:"language_id"`
	} `json:"language"`
	Primary bool `json:"primary"`
}

type identifierDoc struct {
	ID             int    `json:"id"`
	Value          string `json:"value"`
	IdentifierType struct {
		IdentifierTypeID int `json:"identifier_type_id"`
	} `json:"identifier_type"`
}

// entityDoc はbbwsのエンティティ表現。種別固有のフィールドは種別ごとに一部だけが存在する。
type entityDoc struct {
	BBID         string `json:"bbid"`
	DefaultAlias *struct {
		AliasID int `json:"alias_id"`
	} `json:"default_alias"`
	Aliases        []aliasDoc      `json:"aliases"`
	Identifiers    []identifierDoc `json:"identifiers"`
	Disambiguation *struct {
		Comment string `json:"comment"`
	} `json:"disambiguation"`
	Annotation *struct {
		Content string `json:"content"`
	} `json:"annotation"`
	BeginDate   *string `json:"begin_date"`
	EndDate     *string `json:"end_date"`
	Ended       bool    `json:"ended"`
	CreatorType *struct {
		ID int `json:"creator_type_id"`
	} `json:"creator_type"`
	PublisherType *struct {
		ID int `json:"publisher_type_id"`
	} `json:"publisher_type"`
	WorkType *struct {
		ID int `json:"work_type_id"`
	} `json:"work_type"`
	Gender *struct {
		GenderID int `json:"gender_id"`
	} `json:"gender"`
	Languages []struct {
		LanguageID int `json:"language_id"`
	} `json:"languages"`
}

func (d *entityDoc) toModel(kind model.EntityKind) *model.Entity {
	e := &model.Entity{
		BBID:  d.BBID,
		Kind:  kind,
		Ended: d.Ended,
	}
	if d.DefaultAlias != nil {
		e.DefaultAliasID = d.DefaultAlias.AliasID
	}
	for _, a := range d.Aliases {
		alias := model.Alias{ID: a.ID, Name: a.Name, SortName: a.SortName, Primary: a.Primary}
		if a.Language != nil {
			id := a.Language.LanguageID
			alias.LanguageID = &id
		}
		e.Aliases = append(e.Aliases, alias)
	}
	for _, i := range d.Identifiers {
		e.Identifiers = append(e.Identifiers, model.Identifier{
			ID:     i.ID,
			Value:  i.Value,
			TypeID: i.IdentifierType.IdentifierTypeID,
		})
	}
	if d.Disambiguation != nil {
		e.Disambiguation = d.Disambiguation.Comment
	}
	if d.Annotation != nil {
		e.Annotation = d.Annotation.Content
	}
	if d.BeginDate != nil {
		e.BeginDate = *d.BeginDate
	}
	if d.EndDate != nil {
		e.EndDate = *d.EndDate
	}

	switch kind {
	case model.EntityKindCreator:
		if d.CreatorType != nil {
			e.TypeID = &d.CreatorType.ID
		}
		if d.Gender != nil {
			e.GenderID = &d.Gender.GenderID
		}
	case model.EntityKindPublisher:
		if d.PublisherType != nil {
			e.TypeID = &d.PublisherType.ID
		}
	case model.EntityKindWork:
		if d.WorkType != nil {
			e.TypeID = &d.WorkType.ID
		}
		for _, l := range d.Languages {
			e.LanguageIDs = append(e.LanguageIDs, l.LanguageID)
		}
	}

	return e
}

// revisionDoc はbbwsのリビジョン表現。
type revisionDoc struct {
	RevisionID int `json:"revision_id"`
	Entity     *struct {
		EntityGID string `json:"entity_gid"`
	} `json:"entity"`
	User *struct {
		UserID int `json:"user_id"`
	} `json:"user"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

func (d *revisionDoc) toModel(raw []byte) *model.Revision {
	r := &model.Revision{
		ID:        d.RevisionID,
		Note:      d.Note,
		CreatedAt: d.CreatedAt,
		Raw:       raw,
	}
	if d.Entity != nil {
		r.EntityBBID = d.Entity.EntityGID
	}
	if d.User != nil {
		r.UserID = d.User.UserID
	}
	return r
}

func entityPath(kind model.EntityKind, bbid string) string {
	return "/" + string(kind) + "/" + url.PathEscape(bbid)
}

// GetEntity はエンティティを取得する。存在しない場合はENTITY_NOT_FOUNDエラーを返す。
func (c *Client) GetEntity(ctx context.Context, kind model.EntityKind, bbid string) (*model.Entity, error) {
	var doc entityDoc
	err := c.getJSON(ctx, string(kind)+".get", entityPath(kind, bbid), "", &doc)
	if IsStatus(err, http.StatusNotFound) {
		return nil, model.NewEntityNotFoundError(kind, bbid)
	}
	if err != nil {
		return nil, err
	}
	if doc.BBID == "" {
		doc.BBID = bbid
	}
	return doc.toModel(kind), nil
}

// CreateEntity は変更セットを送信してエンティティを作成し、作成されたリビジョンを返す。
// 返却されるリビジョンのRawにはbbwsのレスポンスがそのまま入る。
func (c *Client) CreateEntity(ctx context.Context, token string, kind model.EntityKind, changes any) (*model.Revision, error) {
	return c.sendChanges(ctx, request{
		operation: string(kind) + ".create",
		method:    http.MethodPost,
		path:      "/" + string(kind),
		token:     token,
		body:      changes,
	})
}

// UpdateEntity は変更セットを送信してエンティティを更新し、作成されたリビジョンを返す。
func (c *Client) UpdateEntity(ctx context.Context, token string, kind model.EntityKind, bbid string, changes any) (*model.Revision, error) {
	return c.sendChanges(ctx, request{
		operation: string(kind) + ".update",
		method:    http.MethodPut,
		path:      entityPath(kind, bbid),
		token:     token,
		body:      changes,
	})
}

func (c *Client) sendChanges(ctx context.Context, r request) (*model.Revision, error) {
	data, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}

	var doc revisionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("bbws %s のレスポンスのパースに失敗しました: %w", r.operation, err)
	}
	return doc.toModel(data), nil
}

// ListRevisions はエンティティのリビジョン一覧を取得する。
func (c *Client) ListRevisions(ctx context.Context, kind model.EntityKind, bbid string) ([]model.Revision, error) {
	var doc struct {
		Objects []json.RawMessage `json:"objects"`
	}
	err := c.getJSON(ctx, string(kind)+".revisions", entityPath(kind, bbid)+"/revisions", "", &doc)
	if IsStatus(err, http.StatusNotFound) {
		return nil, model.NewEntityNotFoundError(kind, bbid)
	}
	if err != nil {
		return nil, err
	}

	revisions := make([]model.Revision, 0, len(doc.Objects))
	for _, raw := range doc.Objects {
		var rd revisionDoc
		if err := json.Unmarshal(raw, &rd); err != nil {
			return nil, fmt.Errorf("リビジョンのパースに失敗しました: %w", err)
		}
		r := rd.toModel(raw)
		if r.EntityBBID == "" {
			r.EntityBBID = bbid
		}
		revisions = append(revisions, *r)
	}
	return revisions, nil
}

type relationshipDoc struct {
	ID               int `json:"relationship_id"`
	RelationshipType struct {
		ID    int    `json:"relationship_type_id"`
		Label string `json:"label"`
	} `json:"relationship_type"`
	Rendered string `json:"rendered"`
}

// ListRelationships はエンティティに関係する他エンティティとの関係一覧を取得する。
// 関係は種別をまたぐため、エンティティ共通のパスで取得する。
func (c *Client) ListRelationships(ctx context.Context, bbid string) ([]model.Relationship, error) {
	var doc struct {
		Objects []relationshipDoc `json:"objects"`
	}
	err := c.getJSON(ctx, "entity.relationships", "/entity/"+url.PathEscape(bbid)+"/relationships", "", &doc)
	if err != nil {
		return nil, err
	}

	out := make([]model.Relationship, 0, len(doc.Objects))
	for _, d := range doc.Objects {
		out = append(out, model.Relationship{
			ID:       d.ID,
			TypeID:   d.RelationshipType.ID,
			Label:    d.RelationshipType.Label,
			Rendered: d.Rendered,
		})
	}
	return out, nil
}
