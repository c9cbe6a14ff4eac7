package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"GuessFM/cache"
	"GuessFM/catalog"
	"GuessFM/config"
	"GuessFM/core/audio"
	"GuessFM/core/game"
	"GuessFM/logger"
)

// sessionCookieName 是承载会话令牌的Cookie名
const sessionCookieName = "id"

// APIHandler 处理所有API请求
type APIHandler struct {
	catalog  *catalog.Catalog
	cache    *game.MusicCache
	registry *game.SessionRegistry
	exporter audio.Exporter
	cfg      *config.Config
	segCfg   game.SegmentConfig
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	cat *catalog.Catalog,
	musicCache *game.MusicCache,
	registry *game.SessionRegistry,
	exporter audio.Exporter,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		catalog:  cat,
		cache:    musicCache,
		registry: registry,
		exporter: exporter,
		cfg:      cfg,
		segCfg: game.SegmentConfig{
			SkipStart:    cfg.SegmentSkipStart,
			SkipEnd:      cfg.SegmentSkipEnd,
			ClipLength:   cfg.SegmentLength,
			ExportFormat: cfg.ExportFormat,
			PreloadCount: cfg.PreloadCount,
		},
	}
}

// sessionFromRequest 从Cookie中解析会话令牌并查找会话
func (h *APIHandler) sessionFromRequest(r *http.Request) (*game.Session, string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, "", false
	}
	session, ok := h.registry.Get(cookie.Value)
	return session, cookie.Value, ok
}

// setSessionCookie 下发会话Cookie
func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// deleteSessionCookie 删除会话Cookie
func deleteSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// respondJSON 序列化并写出JSON响应
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("写出JSON响应失败", logger.ErrorField(err))
	}
}

// LoginHandler 注册会话
// 已持有效Cookie时复用现有会话，否则创建新会话并下发Cookie
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.sessionFromRequest(r); ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	session := game.NewSession(h.catalog, h.cache, h.exporter, h.segCfg)
	token := h.registry.Create(session)
	setSessionCookie(w, token)
	w.WriteHeader(http.StatusNoContent)
}

// LogoutHandler 注销会话并释放其缓存引用
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	_, token, ok := h.sessionFromRequest(r)
	if !ok {
		http.Error(w, "No active session", http.StatusForbidden)
		return
	}

	h.registry.Remove(token)
	deleteSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// writeAudio 写出编码后的音频字节
func (h *APIHandler) writeAudio(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "audio/"+h.cfg.ExportFormat)
	if _, err := w.Write(data); err != nil {
		logger.Error("写出音频数据失败", logger.ErrorField(err))
	}
}

// writeAudioError 将会话音频操作的错误映射为HTTP状态码
func writeAudioError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrNoCurrentTrack):
		http.Error(w, "No current track", http.StatusNotFound)
	case errors.Is(err, game.ErrNotLoaded):
		// 会话持有窗口引用时不应出现，属于内部不变量被破坏
		logger.Error("缓存条目缺失", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	default:
		logger.Error("曲目不可用", logger.ErrorField(err))
		http.Error(w, "Track unavailable", http.StatusBadGateway)
	}
}

// TestMusicHandler 返回当前曲目的试听片段
func (h *APIHandler) TestMusicHandler(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.sessionFromRequest(r)
	if !ok {
		http.Error(w, "No active session", http.StatusForbidden)
		return
	}

	// 片段起点已选定时，同一片段的编码结果可以直接复用
	var clipKey string
	if start, drawn := session.SliceStart(); drawn {
		if window := session.ActiveWindow(); len(window) > 0 {
			clipKey = cache.ClipKey(window[0].ID, start, h.cfg.SegmentLength, h.cfg.ExportFormat)
			if data := cache.GetClipCache(clipKey); data != nil {
				h.writeAudio(w, data)
				return
			}
		}
	}

	data, err := session.SlicedSegment(r.Context())
	if err != nil {
		writeAudioError(w, err)
		return
	}

	if clipKey == "" {
		// 首次调用刚选定起点，此时才能得到完整的缓存键
		if start, drawn := session.SliceStart(); drawn {
			if window := session.ActiveWindow(); len(window) > 0 {
				clipKey = cache.ClipKey(window[0].ID, start, h.cfg.SegmentLength, h.cfg.ExportFormat)
			}
		}
	}
	if clipKey != "" {
		cache.SetClipCache(clipKey, data, h.cfg.ClipCacheTTL)
	}

	h.writeAudio(w, data)
}

// FullMusicHandler 返回当前曲目的完整音频
// 请求完整曲目视为放弃本曲
func (h *APIHandler) FullMusicHandler(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.sessionFromRequest(r)
	if !ok {
		http.Error(w, "No active session", http.StatusForbidden)
		return
	}

	data, err := session.RevealFull(r.Context())
	if err != nil {
		writeAudioError(w, err)
		return
	}

	h.writeAudio(w, data)
}

// AnswerHandler 返回当前曲目的答案ID
// 查看答案视为放弃本曲
func (h *APIHandler) AnswerHandler(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.sessionFromRequest(r)
	if !ok {
		http.Error(w, "No active session", http.StatusForbidden)
		return
	}

	answer, err := session.Answer()
	if err != nil {
		http.Error(w, "No current track", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// GuessRequest represents the guess request body
type GuessRequest struct {
	GuessID string `json:"guess_id"`
}

// GuessHandler 处理玩家的猜测
func (h *APIHandler) GuessHandler(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.sessionFromRequest(r)
	if !ok {
		http.Error(w, "No active session", http.StatusForbidden)
		return
	}

	var req GuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("解析猜测请求体失败", logger.ErrorField(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result := session.Guess(req.GuessID)
	respondJSON(w, http.StatusOK, map[string]bool{"result": result})
}

// NextHandler 推进会话到下一首曲目
// 全部曲目完成时返回最终汇总并注销会话
func (h *APIHandler) NextHandler(w http.ResponseWriter, r *http.Request) {
	session, token, ok := h.sessionFromRequest(r)
	if !ok {
		http.Error(w, "No active session", http.StatusForbidden)
		return
	}

	session.Step()

	if session.Finished() {
		summary := session.Summarize()
		h.registry.Remove(token)
		deleteSessionCookie(w)
		respondJSON(w, http.StatusOK, summary)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SummarizeHandler 返回会话当前进度
func (h *APIHandler) SummarizeHandler(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.sessionFromRequest(r)
	if !ok {
		http.Error(w, "No active session", http.StatusForbidden)
		return
	}

	respondJSON(w, http.StatusOK, session.Summarize())
}

// CandidatesHandler 返回候选答案列表
func (h *APIHandler) CandidatesHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Candidates())
}
