package bbws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/hitoshi/bbeditor/internal/model"
)

// 参照データのリソース名
const (
	ResourceLanguage       = "language"
	ResourceGender         = "gender"
	ResourceIdentifierType = "identifier_type"
)

// TypeResource は種別ごとのタイプ一覧のリソース名を返す。
func TypeResource(kind model.EntityKind) string {
	return string(kind) + "_type"
}

// ListOptions は参照データ一覧（言語、性別、タイプ、識別子タイプ）を取得する。
// 各要素は "<resource>_id" とラベル（label または name）を持つ。
func (c *Client) ListOptions(ctx context.Context, resource string) ([]model.Option, error) {
	var doc struct {
		Objects []map[string]json.RawMessage `json:"objects"`
	}
	if err := c.getJSON(ctx, resource+".list", "/"+resource, "", &doc); err != nil {
		return nil, err
	}

	idKey := resource + "_id"
	options := make([]model.Option, 0, len(doc.Objects))
	for _, obj := range doc.Objects {
		raw, ok := obj[idKey]
		if !ok {
			raw, ok = obj["id"]
		}
		if !ok {
			return nil, fmt.Errorf("%s の要素に %s がありません", resource, idKey)
		}
		var id int
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("%s のIDのパースに失敗しました: %w", resource, err)
		}

		label := stringField(obj, "label")
		if label == "" {
			label = stringField(obj, "name")
		}
		if label == "" {
			label = strconv.Itoa(id)
		}
		options = append(options, model.Option{ID: id, Label: label})
	}

	sort.SliceStable(options, func(i, j int) bool { return options[i].Label < options[j].Label })
	return options, nil
}

func stringField(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

type userDoc struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
}

// GetUser はユーザーを取得する。
func (c *Client) GetUser(ctx context.Context, id int) (*model.User, error) {
	var doc userDoc
	if err := c.getJSON(ctx, "user.get", "/user/"+strconv.Itoa(id), "", &doc); err != nil {
		return nil, err
	}
	if doc.UserID == 0 {
		doc.UserID = id
	}
	return &model.User{ID: doc.UserID, Name: doc.Name}, nil
}

// CurrentUser はアクセストークンの所有者を取得する。
func (c *Client) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	var doc userDoc
	err := c.getJSON(ctx, "user.current", "/user", token, &doc)
	if IsStatus(err, http.StatusUnauthorized) {
		return nil, model.NewUnauthorizedError()
	}
	if err != nil {
		return nil, err
	}
	return &model.User{ID: doc.UserID, Name: doc.Name}, nil
}
