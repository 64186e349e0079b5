// コンポジットAPI Gatewayのエントリポイント。
// インバウンドリクエストの認証、バックエンドサービスへの振り分け、
// レスポンスの集約、注文完了イベントのキューへの発行を担当する。
package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nao1215/sportgw/internal/config"
	"github.com/nao1215/sportgw/internal/gateway"
	"github.com/nao1215/sportgw/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("設定の読み込みに失敗")
	}

	logger := newLogger(cfg.Env)

	publisher, err := queue.Connect(cfg.Queue.URL, cfg.Queue.QueueName)
	if err != nil {
		logger.Fatal().Err(err).Msg("メッセージキューへの接続に失敗")
	}
	defer publisher.Close()

	server, err := gateway.NewServer(cfg, publisher, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Gatewayサーバーの初期化に失敗")
	}

	logger.Info().Str("port", cfg.Port).Msg("Gatewayサービスを起動します")
	if err := server.Run(); err != nil {
		logger.Fatal().Err(err).Msg("Gatewayサービスの起動に失敗")
	}
}

// newLogger は実行環境に応じたロガーを生成する。
// 開発環境では人間が読みやすいコンソール形式、それ以外ではJSON形式で出力する。
func newLogger(env string) zerolog.Logger {
	var logger zerolog.Logger
	if strings.EqualFold(env, "development") || strings.EqualFold(env, "dev") {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.With().Timestamp().Str("service", "gateway").Logger()
}
