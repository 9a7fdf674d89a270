// Package entity はエンティティの取得・作成・更新とリビジョン履歴のドメインロジックを提供する。
package entity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/bbeditor/internal/bbws"
	"github.com/hitoshi/bbeditor/internal/metrics"
	"github.com/hitoshi/bbeditor/internal/model"
	"github.com/hitoshi/bbeditor/internal/reconcile"
	"github.com/hitoshi/bbeditor/internal/security"
)

// maxUserLookups はリビジョン一覧でのユーザー取得の同時実行数。
const maxUserLookups = 8

// Remote はエンティティサービスが使用するbbwsの操作。
type Remote interface {
	GetEntity(ctx context.Context, kind model.EntityKind, bbid string) (*model.Entity, error)
	CreateEntity(ctx context.Context, token string, kind model.EntityKind, changes any) (*model.Revision, error)
	UpdateEntity(ctx context.Context, token string, kind model.EntityKind, bbid string, changes any) (*model.Revision, error)
	ListRevisions(ctx context.Context, kind model.EntityKind, bbid string) ([]model.Revision, error)
	ListRelationships(ctx context.Context, bbid string) ([]model.Relationship, error)
	ListOptions(ctx context.Context, resource string) ([]model.Option, error)
	GetUser(ctx context.Context, id int) (*model.User, error)
}

// Service はエンティティのサービス層。
// 送信内容の検証・サニタイズ、変更セットの組み立て、bbwsへの1回の書き込み呼び出しを行う。
type Service struct {
	remote    Remote
	sanitizer security.TextSanitizer
	strategy  reconcile.Strategy
	metrics   metrics.MetricsCollector
	cache     *cache.Cache
}

// NewService はServiceの新しいインスタンスを生成する。
// 参照データとユーザー名はcacheTTLの間キャッシュする。
func NewService(
	remote Remote,
	sanitizer security.TextSanitizer,
	strategy reconcile.Strategy,
	mc metrics.MetricsCollector,
	cacheTTL time.Duration,
) *Service {
	return &Service{
		remote:    remote,
		sanitizer: sanitizer,
		strategy:  strategy,
		metrics:   mc,
		cache:     cache.New(cacheTTL, 2*cacheTTL),
	}
}

// Load はエンティティを取得する。
func (s *Service) Load(ctx context.Context, kind model.EntityKind, bbid string) (*model.Entity, error) {
	return s.remote.GetEntity(ctx, kind, bbid)
}

// Relationships はエンティティの関係一覧を返す。
func (s *Service) Relationships(ctx context.Context, bbid string) ([]model.Relationship, error) {
	return s.remote.ListRelationships(ctx, bbid)
}

// ReferenceData はフォームの選択肢（言語、性別、タイプ、識別子タイプ）を返す。
// 性別は性別を持つ種別の場合のみ取得する。
func (s *Service) ReferenceData(ctx context.Context, kind model.EntityKind) (*model.ReferenceData, error) {
	var (
		ref model.ReferenceData
		err error
	)
	if ref.Languages, err = s.options(ctx, bbws.ResourceLanguage); err != nil {
		return nil, err
	}
	if kind.HasGender() {
		if ref.Genders, err = s.options(ctx, bbws.ResourceGender); err != nil {
			return nil, err
		}
	}
	if ref.EntityTypes, err = s.options(ctx, bbws.TypeResource(kind)); err != nil {
		return nil, err
	}
	if ref.IdentifierTypes, err = s.options(ctx, bbws.ResourceIdentifierType); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (s *Service) options(ctx context.Context, resource string) ([]model.Option, error) {
	key := "options:" + resource
	if x, found := s.cache.Get(key); found {
		return x.([]model.Option), nil
	}

	opts, err := s.remote.ListOptions(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("参照データ %s の取得に失敗しました: %w", resource, err)
	}
	s.cache.Set(key, opts, cache.DefaultExpiration)
	return opts, nil
}

// Create は新規エンティティの変更セットをbbwsへ送信し、作成されたリビジョンを返す。
func (s *Service) Create(ctx context.Context, session *model.Session, kind model.EntityKind, sub *reconcile.Submission) (*model.Revision, error) {
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}
	if err := s.prepare(kind, nil, sub); err != nil {
		return nil, err
	}

	changes := reconcile.BuildCreate(kind, sub)
	s.recordChanges(kind, changes)

	rev, err := s.remote.CreateEntity(ctx, session.AccessToken, kind, changes)
	return s.finish(kind, "", session, rev, err)
}

// Update は既存エンティティとの差分の変更セットをbbwsへ送信し、作成されたリビジョンを返す。
func (s *Service) Update(ctx context.Context, session *model.Session, prev *model.Entity, sub *reconcile.Submission) (*model.Revision, error) {
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}
	if err := s.prepare(prev.Kind, prev, sub); err != nil {
		return nil, err
	}

	changes := reconcile.BuildUpdate(prev, sub, s.strategy)
	s.recordChanges(prev.Kind, changes)

	rev, err := s.remote.UpdateEntity(ctx, session.AccessToken, prev.Kind, prev.BBID, changes)
	return s.finish(prev.Kind, prev.BBID, session, rev, err)
}

// prepare は自由入力テキストをサニタイズしてから送信内容を検証する。
// 編集時はprevの値と同じ内容になる項目をprevの値のまま残し、差分に現れないようにする。
func (s *Service) prepare(kind model.EntityKind, prev *model.Entity, sub *reconcile.Submission) error {
	if sub == nil {
		s.recordSubmission(kind, metrics.OutcomeInvalid)
		return model.NewInvalidRequestError()
	}

	if err := s.cleanSubmission(prev, sub); err != nil {
		s.recordSubmission(kind, metrics.OutcomeInvalid)
		return model.NewInvalidSubmissionError(err.Error())
	}

	if err := sub.Validate(); err != nil {
		s.recordSubmission(kind, metrics.OutcomeInvalid)
		return model.NewInvalidSubmissionError(err.Error())
	}
	return nil
}

func (s *Service) cleanSubmission(prev *model.Entity, sub *reconcile.Submission) error {
	prevAliases := map[int]model.Alias{}
	prevIdentifiers := map[int]model.Identifier{}
	var prevDisambiguation, prevAnnotation string
	if prev != nil {
		for _, a := range prev.Aliases {
			prevAliases[a.ID] = a
		}
		for _, id := range prev.Identifiers {
			prevIdentifiers[id.ID] = id
		}
		prevDisambiguation = prev.Disambiguation
		prevAnnotation = prev.Annotation
	}

	for i := range sub.Aliases {
		a := &sub.Aliases[i]
		var old model.Alias
		if a.ID != nil {
			old = prevAliases[*a.ID]
		}
		name, ok := s.clean(a.Name, old.Name)
		if !ok {
			return fmt.Errorf("alias %d name contains only markup", i)
		}
		sortName, ok := s.clean(a.SortName, old.SortName)
		if !ok {
			return fmt.Errorf("alias %d sort name contains only markup", i)
		}
		a.Name, a.SortName = name, sortName
	}
	for i := range sub.Identifiers {
		id := &sub.Identifiers[i]
		var old model.Identifier
		if id.ID != nil {
			old = prevIdentifiers[*id.ID]
		}
		value, ok := s.clean(id.Value, old.Value)
		if !ok {
			return fmt.Errorf("identifier %d value contains only markup", i)
		}
		id.Value = value
	}

	sub.Disambiguation, _ = s.clean(sub.Disambiguation, prevDisambiguation)
	sub.Annotation, _ = s.clean(sub.Annotation, prevAnnotation)
	sub.Note = s.sanitizer.Sanitize(sub.Note)
	return nil
}

// clean はrawをサニタイズする。サニタイズ後にprevRawと同じ内容ならprevRawをそのまま返す。
// 空でない入力がサニタイズで空になった場合はokがfalseになる。
func (s *Service) clean(raw, prevRaw string) (string, bool) {
	if raw == prevRaw {
		return raw, true
	}
	cleaned := s.sanitizer.Sanitize(raw)
	if prevRaw != "" && cleaned == s.sanitizer.Sanitize(prevRaw) {
		return prevRaw, true
	}
	return cleaned, cleaned != "" || strings.TrimSpace(raw) == ""
}

func (s *Service) finish(kind model.EntityKind, bbid string, session *model.Session, rev *model.Revision, err error) (*model.Revision, error) {
	if err != nil {
		outcome := metrics.OutcomeError
		if bbws.IsClientError(err) {
			outcome = metrics.OutcomeRejected
		}
		s.recordSubmission(kind, outcome)
		slog.Error("エンティティの送信に失敗しました",
			slog.String("kind", string(kind)),
			slog.String("bbid", bbid),
			slog.Int("user_id", session.UserID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.recordSubmission(kind, metrics.OutcomeSuccess)
	slog.Info("エンティティを送信しました",
		slog.String("kind", string(kind)),
		slog.String("bbid", rev.EntityBBID),
		slog.Int("revision_id", rev.ID),
		slog.Int("user_id", session.UserID),
	)
	return rev, nil
}

func (s *Service) recordChanges(kind model.EntityKind, changes reconcile.Changes) {
	summary := reconcile.Summarize(changes)
	if s.metrics != nil {
		s.metrics.RecordChanges(string(kind), summary.Added, summary.Modified, summary.Removed)
	}
}

func (s *Service) recordSubmission(kind model.EntityKind, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSubmission(string(kind), outcome)
	}
}

// Revisions はリビジョン一覧を投稿ユーザー名付きで返す。
// ユーザーはIDごとに1回だけ並行して取得し、取得結果はキャッシュする。
func (s *Service) Revisions(ctx context.Context, kind model.EntityKind, bbid string) ([]model.RevisionWithUser, error) {
	revisions, err := s.remote.ListRevisions(ctx, kind, bbid)
	if err != nil {
		return nil, err
	}

	var ids []int
	seen := make(map[int]bool)
	for _, r := range revisions {
		if r.UserID != 0 && !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}
	sort.Ints(ids)

	var mu sync.Mutex
	names := make(map[int]string, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxUserLookups)
	for _, id := range ids {
		g.Go(func() error {
			name, err := s.userName(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			names[id] = name
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("リビジョン投稿ユーザーの取得に失敗しました: %w", err)
	}

	results := make([]model.RevisionWithUser, len(revisions))
	for i, r := range revisions {
		results[i] = model.RevisionWithUser{Revision: r, UserName: names[r.UserID]}
	}
	return results, nil
}

func (s *Service) userName(ctx context.Context, id int) (string, error) {
	key := "user:" + strconv.Itoa(id)
	if x, found := s.cache.Get(key); found {
		return x.(string), nil
	}

	u, err := s.remote.GetUser(ctx, id)
	if err != nil {
		return "", err
	}
	s.cache.Set(key, u.Name, cache.DefaultExpiration)
	return u.Name, nil
}
