// Package reset は掲示板データを初期状態に戻すジョブを提供する。
// 全データを初期データで置き換え、発行済みトークンをすべて失効させる。
// POST /api/reset からの即時実行と、RESET_INTERVAL による定期実行の両方で使われる。
package reset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/mockboard/internal/model"
	"github.com/hitoshi/mockboard/internal/seed"
)

// Replacer はストア全体を置き換えるインターフェース。
// *store.Store が実装する。
type Replacer interface {
	Replace(users []*model.User, posts []*model.Post, comments []*model.Comment) error
}

// TokenRevoker は全トークンを失効させるインターフェース。
// *auth.Service が実装する。
type TokenRevoker interface {
	Reset()
}

// ResetJob は初期データの再投入ジョブ。
// 何度実行しても同じ状態になる（冪等）。
type ResetJob struct {
	store   Replacer
	tokens  TokenRevoker
	dataset *seed.Dataset
	logger  *slog.Logger
	now     func() time.Time
}

// NewResetJob は新しいResetJobを生成する。tokensはnilでもよい。
func NewResetJob(store Replacer, tokens TokenRevoker, dataset *seed.Dataset, logger *slog.Logger) *ResetJob {
	return &ResetJob{
		store:   store,
		tokens:  tokens,
		dataset: dataset,
		logger:  logger,
		now:     time.Now,
	}
}

// Run は初期データで全データを置き換え、トークンを失効させる。
// 作成日時は実行時刻を基準に再計算される。
func (j *ResetJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	ents, err := j.dataset.Build(j.now())
	if err != nil {
		j.logger.Error("初期データの構築に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("初期データの構築に失敗: %w", err)
	}

	if err := j.store.Replace(ents.Users, ents.Posts, ents.Comments); err != nil {
		j.logger.Error("ストアの置き換えに失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("ストアの置き換えに失敗: %w", err)
	}

	if j.tokens != nil {
		j.tokens.Reset()
	}

	j.logger.Info("ストアを初期状態に戻しました",
		slog.Int("user_count", len(ents.Users)),
		slog.Int("post_count", len(ents.Posts)),
		slog.Int("comment_count", len(ents.Comments)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start はinterval間隔でRunを繰り返す。コンテキストがキャンセルされるまで戻らない。
// intervalが0以下の場合は何もせずに戻る。
func (j *ResetJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("定期リセットを開始しました", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("定期リセットを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("定期リセットの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
