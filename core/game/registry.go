package game

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"GuessFM/logger"
)

// SessionRegistry 维护会话令牌到会话的映射
// 表示层用不可猜测的随机令牌把无状态请求路由到有状态会话
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry 创建空的会话注册表
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
	}
}

// Create 注册一个新会话并返回其令牌
func (r *SessionRegistry) Create(session *Session) string {
	token := strings.ReplaceAll(uuid.New().String(), "-", "")

	r.mu.Lock()
	r.sessions[token] = session
	count := len(r.sessions)
	r.mu.Unlock()

	logger.Info("会话已创建",
		logger.String("token", token[:8]),
		logger.Int("sessionCount", count))

	return token
}

// Get 按令牌查找会话
func (r *SessionRegistry) Get(token string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[token]
	return session, ok
}

// Remove 注销会话，先释放其持有的全部缓存引用
func (r *SessionRegistry) Remove(token string) {
	r.mu.Lock()
	session, ok := r.sessions[token]
	if ok {
		delete(r.sessions, token)
	}
	count := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return
	}

	session.Logout()
	logger.Info("会话已注销",
		logger.String("token", token[:8]),
		logger.Int("sessionCount", count))
}

// Len 返回当前会话数量
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
