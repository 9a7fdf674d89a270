// Package bbws はBookBrainz Webサービス（bbws）のクライアントを提供する。
// エンティティの取得・作成・更新、リビジョン一覧、参照データ、ユーザー、OAuthトークン取得を扱う。
// すべての呼び出しはサーキットブレーカーを経由する。
package bbws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/hitoshi/bbeditor/internal/metrics"
	"github.com/hitoshi/bbeditor/internal/model"
)

const (
	userAgent = "bbeditor/1.0"
	// maxErrorBody はエラーレスポンスから保持する本文の最大バイト数。
	maxErrorBody = 2048
)

// Config はクライアントの設定。
type Config struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	MaxFailures    uint32
	BreakerTimeout time.Duration
}

// StatusError はbbwsが2xx以外のステータスを返した場合のエラー。
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("bbws %s がステータス %d を返しました", e.Operation, e.StatusCode)
}

// Client はbbwsのHTTPクライアント。
type Client struct {
	httpClient   *http.Client
	logger       *slog.Logger
	metrics      metrics.MetricsCollector
	breaker      *gobreaker.CircuitBreaker
	baseURL      string // テスト用に差し替え可能
	clientID     string
	clientSecret string
}

// NewClient はClientの新しいインスタンスを生成する。mcはnilでもよい。
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger, mc metrics.MetricsCollector) *Client {
	c := &Client{
		httpClient:   httpClient,
		logger:       logger,
		metrics:      mc,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}

	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "bbws",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// 4xxは呼び出し側の問題のためブレーカーの失敗に数えない
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("サーキットブレーカーの状態が変化しました",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			if c.metrics != nil {
				c.metrics.RecordBreakerState(to.String())
			}
		},
	})

	return c
}

// BreakerState はサーキットブレーカーの現在の状態（closed, half-open, open）を返す。
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// request は1回のbbws呼び出しの内容。
type request struct {
	operation   string
	method      string
	path        string
	token       string
	body        any       // JSONとして送信する
	form        io.Reader // フォームとして送信する（bodyより優先）
	contentType string
}

// do はサーキットブレーカー経由でリクエストを実行し、レスポンス本文を返す。
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, r)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("サーキットブレーカーが開いているためbbws呼び出しを中止しました",
			slog.String("operation", r.operation),
		)
		return nil, model.NewRemoteUnavailableError()
	}
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (c *Client) roundTrip(ctx context.Context, r request) ([]byte, error) {
	var body io.Reader
	contentType := r.contentType
	switch {
	case r.form != nil:
		body = r.form
	case r.body != nil:
		buf, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.record(r.operation, 0, elapsed)
		c.logger.Error("bbwsの呼び出しに失敗しました",
			slog.String("operation", r.operation),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("bbws %s の呼び出しに失敗しました: %w", r.operation, err)
	}
	defer resp.Body.Close()
	c.record(r.operation, resp.StatusCode, elapsed)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		level := slog.LevelWarn
		if resp.StatusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		c.logger.Log(ctx, level, "bbwsがエラーステータスを返しました",
			slog.String("operation", r.operation),
			slog.Int("http_status", resp.StatusCode),
		)
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, &StatusError{Operation: r.operation, StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

func (c *Client) record(operation string, status int, d time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordRemoteCall(operation, status, d)
	}
}

// getJSON はGETリクエストを実行し、レスポンスをoutにデコードする。
func (c *Client) getJSON(ctx context.Context, operation, path, token string, out any) error {
	data, err := c.do(ctx, request{operation: operation, method: http.MethodGet, path: path, token: token})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("bbws %s のレスポンスのパースに失敗しました: %w", operation, err)
	}
	return nil
}

// IsStatus はerrがbbwsの指定ステータスのエラーかどうかを返す。
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == status
}

// IsClientError はerrがbbwsの4xxエラーかどうかを返す。
func IsClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500
}
