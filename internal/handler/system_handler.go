package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/mockboard/internal/store"
)

// CountSource はエンティティ件数を返す。
type CountSource interface {
	Counts() store.Counts
}

// SessionCounter は有効なトークン数を返す。
type SessionCounter interface {
	SessionCount() int
}

// Resetter はストアを初期データに戻す。
type Resetter interface {
	Run(ctx context.Context) error
}

// SystemHandler はヘルスチェックとリセットのHTTPハンドラー。
type SystemHandler struct {
	counts   CountSource
	sessions SessionCounter
	resetter Resetter
	now      func() time.Time
}

// NewSystemHandler はSystemHandlerを生成する。
func NewSystemHandler(counts CountSource, sessions SessionCounter, resetter Resetter) *SystemHandler {
	return &SystemHandler{
		counts:   counts,
		sessions: sessions,
		resetter: resetter,
		now:      time.Now,
	}
}

type healthCounts struct {
	Users    int `json:"users"`
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
	Sessions int `json:"sessions"`
}

type healthResponse struct {
	Status    string       `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Counts    healthCounts `json:"counts"`
}

// Health はサーバーの稼働状態と件数を返す。
// GET /api/health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	c := h.counts.Counts()
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC(),
		Counts: healthCounts{
			Users:    c.Users,
			Posts:    c.Posts,
			Comments: c.Comments,
		},
	}
	if h.sessions != nil {
		resp.Counts.Sessions = h.sessions.SessionCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reset はストアを初期データに戻し、全トークンを失効させる。
// POST /api/reset
func (h *SystemHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.resetter.Run(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Store reset to initial state"})
}
