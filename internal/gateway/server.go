package gateway

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/nao1215/sportgw/internal/config"
	"github.com/nao1215/sportgw/internal/queue"
	"github.com/nao1215/sportgw/pkg/correlation"
	"github.com/nao1215/sportgw/pkg/httpclient"
	"github.com/nao1215/sportgw/pkg/middleware"
)

// Server はコンポジットAPI GatewayのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// db はSQLiteデータベース接続。
	db *sql.DB
	// users はgatewayローカルのユーザーストア。
	users *userStore
	// jwtSecret はJWT署名用の秘密鍵。
	jwtSecret string
	// jwtTTL はJWTトークンの有効期間。
	jwtTTL time.Duration
	// orderClient は注文サービスへの通信クライアント。
	orderClient *httpclient.Client
	// reviewClient はレビューサービスへの通信クライアント。
	reviewClient *httpclient.Client
	// weatherClient は外部天気プロバイダへの通信クライアント。
	weatherClient *httpclient.Client
	// weather は天気プロバイダの設定（APIキー・都市ID）。
	weather config.WeatherConfig
	// publisher は注文完了イベントの発行先キュー。
	publisher queue.Publisher
	// logger は構造化ログの出力先。
	logger zerolog.Logger
}

// NewServer は新しいGatewayサーバーを生成する。
// SQLiteデータベースの初期化とルーティングの設定を行う。
func NewServer(cfg *config.Config, publisher queue.Publisher, logger zerolog.Logger) (*Server, error) {
	sqlDB, err := sql.Open("sqlite", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Correlation(logger))
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	s := &Server{
		router:        router,
		port:          cfg.Port,
		db:            sqlDB,
		users:         &userStore{db: sqlDB},
		jwtSecret:     cfg.JWTSecret,
		jwtTTL:        time.Duration(cfg.JWTExpireMinutes) * time.Minute,
		orderClient:   httpclient.New(cfg.OrderServiceURL),
		reviewClient:  httpclient.New(cfg.ReviewServiceURL),
		weatherClient: httpclient.New(cfg.Weather.BaseURL),
		weather:       cfg.Weather,
		publisher:     publisher,
		logger:        logger,
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証エンドポイント（認証不要）
	auth := s.router.Group("/auth")
	{
		// 開発用トークン発行
		auth.POST("/dev-token", s.handleDevToken())
	}

	// ユーザー情報
	s.router.GET("/users/me", middleware.JWTAuth(s.jwtSecret), s.handleGetCurrentUser())
	s.router.GET("/users/first_user", s.handleFirstUser())

	// コンポジットAPI
	composite := s.router.Group("/composite")
	{
		// 天気情報（認証不要）
		composite.GET("/weather", s.handleWeather())

		// 静的カタログ（認証不要）
		composite.GET("/available-options", s.handleAvailableOptions())

		// 注文（認証は任意。資格情報が提示された場合のみ検証する）
		orders := composite.Group("", middleware.OptionalJWTAuth(s.jwtSecret))
		{
			orders.GET("/orders", s.handleListOrders())
			orders.GET("/orders/:id", s.handleGetOrder())
			orders.POST("/orders", s.handleCreateOrder())
			orders.PUT("/orders/:id", s.handleUpdateOrder())
			orders.DELETE("/orders/:id", s.handleDeleteOrder())
			orders.POST("/orders/finish/:id", s.handleFinishOrder())
			orders.POST("/submit-order", s.handleSubmitOrder())
		}

		// レビュー（認証不要）
		composite.POST("/reviews/order", s.handleCreateOrderReview())
		composite.GET("/reviews/order/:id", s.handleListOrderReviews())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})
}

// renderError はエラーをHTTPレスポンスへ変換する共通処理。
// バックエンド由来のエラーはステータスコードとメッセージをそのまま透過し、
// それ以外の想定外のエラーは原因をログに残したうえで一般的な500を返す。
func (s *Server) renderError(c *gin.Context, err error) {
	var backendErr *httpclient.Error
	if errors.As(err, &backendErr) {
		c.JSON(backendErr.StatusCode, gin.H{"detail": backendErr.Message})
		return
	}

	logEvent := s.logger.Error().Err(err)
	if id, ok := correlationID(c); ok {
		logEvent = logEvent.Str("correlation_id", id)
	}
	logEvent.Msg("unexpected error")
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "内部エラーが発生しました"})
}

// correlationID はリクエストコンテキストから相関IDを取得する。
func correlationID(c *gin.Context) (string, bool) {
	return correlation.FromContext(c.Request.Context())
}

// decodeObject はバックエンドのJSONレスポンスをオブジェクトとしてデコードする。
func decodeObject(raw json.RawMessage) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("バックエンドレスポンスのデシリアライズに失敗: %w", err)
	}
	return m, nil
}
