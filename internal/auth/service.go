// Package auth はbbwsのパスワードグラントによるログインとセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/bbeditor/internal/model"
	"github.com/hitoshi/bbeditor/internal/repository"
)

// Grant はパスワードグラントで得たアクセストークン。
// ExpiresInが0の場合は有効期限が通知されなかったことを示す。
type Grant struct {
	AccessToken string
	ExpiresIn   time.Duration
}

// TokenIssuer はアクセストークンの発行とユーザー情報の取得を行うbbwsの操作。
type TokenIssuer interface {
	// PasswordGrant はユーザー名とパスワードをアクセストークンに交換する。
	PasswordGrant(ctx context.Context, username, password string) (*Grant, error)
	// CurrentUser はアクセストークンの所有者を返す。
	CurrentUser(ctx context.Context, token string) (*model.User, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	issuer      TokenIssuer
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(issuer TokenIssuer, sessionRepo repository.SessionRepository, config ServiceConfig) *Service {
	return &Service{
		issuer:      issuer,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// Login はbbwsでユーザーを認証し、アクセストークンを保持するセッションを発行する。
// 認証情報の誤りはLOGIN_FAILEDエラーとして返す。
func (s *Service) Login(ctx context.Context, username, password string) (*model.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, model.NewLoginFailedError()
	}

	grant, err := s.issuer.PasswordGrant(ctx, username, password)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	user, err := s.issuer.CurrentUser(ctx, grant.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	session, err := s.createSession(ctx, user, grant)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in",
		slog.Int("user_id", user.ID),
		slog.String("user_name", user.Name),
	)
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetSession は有効なセッションを返す。存在しないか期限切れの場合はnilを返す。
func (s *Service) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// createSession はセッションを作成し永続化する。
// セッションの有効期限はアクセストークンの有効期限を超えない。
func (s *Service) createSession(ctx context.Context, user *model.User, grant *Grant) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	lifetime := time.Duration(s.config.SessionMaxAge) * time.Second
	if grant.ExpiresIn > 0 && grant.ExpiresIn < lifetime {
		lifetime = grant.ExpiresIn
	}
	session := &model.Session{
		ID:          sessionID,
		UserID:      user.ID,
		UserName:    user.Name,
		AccessToken: grant.AccessToken,
		ExpiresAt:   now.Add(lifetime),
		CreatedAt:   now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
