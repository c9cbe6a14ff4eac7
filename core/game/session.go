package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"GuessFM/catalog"
	"GuessFM/core/audio"
	"GuessFM/logger"
	"GuessFM/model"
)

// ErrNoCurrentTrack 表示会话已走完全部曲目，没有可操作的当前曲目
var ErrNoCurrentTrack = errors.New("game: no current track in session")

// SegmentConfig 控制试听片段的选取方式
type SegmentConfig struct {
	SkipStart    float64       // 曲目开头跳过的比例 [0,1)
	SkipEnd      float64       // 曲目结尾跳过的比例 [0,1)
	ClipLength   time.Duration // 试听片段时长
	ExportFormat string        // 导出容器格式
	PreloadCount int           // 预加载窗口大小
}

// Session 是一个玩家对整个曲目目录的一轮游玩
//
// 会话持有对目录下标的一个固定随机排列，始终只向前推进。当前及其后
// 若干首曲目构成活跃窗口，窗口内每首曲目在共享缓存中占一个引用。
// 会话操作由单个客户端顺序驱动，这里的互斥锁只为了让进度推送等旁路
// 读取可以安全地并发访问
type Session struct {
	mu sync.Mutex

	catalog  *catalog.Catalog
	cache    *MusicCache
	exporter audio.Exporter
	cfg      SegmentConfig

	playOrder []int // 目录下标的随机排列，创建后不变
	nextPos   int   // playOrder中下一个待进入窗口的位置
	active    []*model.TrackRecord

	finalized  bool
	guessed    int
	correct    int
	sliceStart time.Duration
	sliceDrawn bool

	rng *rand.Rand
}

// NewSession 创建会话并预加载活跃窗口
func NewSession(cat *catalog.Catalog, cache *MusicCache, exporter audio.Exporter, cfg SegmentConfig) *Session {
	if cfg.PreloadCount <= 0 {
		cfg.PreloadCount = 3
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := &Session{
		catalog:   cat,
		cache:     cache,
		exporter:  exporter,
		cfg:       cfg,
		playOrder: rng.Perm(cat.Len()),
		rng:       rng,
	}

	for i := 0; i < cfg.PreloadCount; i++ {
		s.activateNext()
	}
	return s
}

// activateNext 从排列中取下一首曲目进入活跃窗口并预加载
// 目录耗尽时为空操作。调用方需持有锁（或在构造期独占）
func (s *Session) activateNext() {
	if s.nextPos >= len(s.playOrder) {
		return
	}
	track := s.catalog.Track(s.playOrder[s.nextPos])
	s.nextPos++
	s.cache.Load(track)
	s.active = append(s.active, track)
}

// current 返回当前曲目，窗口为空时返回nil。调用方需持有锁
func (s *Session) current() *model.TrackRecord {
	if len(s.active) == 0 {
		return nil
	}
	return s.active[0]
}

// Guess 检查候选答案是否命中当前曲目
//
// 候选答案等于曲目ID或任一候选名称即视为命中。只有每首曲目的第一次
// 判定（猜测或查看答案/完整曲目）影响计分：首次调用无条件锁定结果，
// 此后的调用只报告命中与否，不再改动计数
func (s *Session) Guess(candidate string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	track := s.current()
	if track == nil {
		return false
	}

	result := candidate == track.ID
	if !result {
		for _, name := range track.Names {
			if candidate == name {
				result = true
				break
			}
		}
	}

	if !s.finalized {
		if result {
			s.correct++
		}
		s.finalized = true
	}

	return result
}

// Answer 返回当前曲目的ID
// 查看答案视为放弃本曲，未锁定时锁定结果但不计分
func (s *Session) Answer() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	track := s.current()
	if track == nil {
		return "", ErrNoCurrentTrack
	}

	if !s.finalized {
		s.finalized = true
	}
	return track.ID, nil
}

// RevealFull 返回当前曲目完整的编码音频
// 与Answer相同，未锁定时锁定结果但不计分
// 解码仍在进行时阻塞等待
func (s *Session) RevealFull(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	track := s.current()
	if track == nil {
		return nil, ErrNoCurrentTrack
	}

	if !s.finalized {
		s.finalized = true
	}

	buf, err := s.cache.Get(track.ID)
	if err != nil {
		return nil, err
	}
	return s.exporter.Export(ctx, buf, s.cfg.ExportFormat)
}

// SlicedSegment 返回当前曲目的试听片段
//
// 每首曲目第一次调用时在 [skipStart*L, min((1-skipEnd)*L, L-clipLen)]
// 内随机选取起点，之后复用同一起点，保证重复播放的片段完全一致。
// 该操作不锁定结果。解码仍在进行时阻塞等待
func (s *Session) SlicedSegment(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	track := s.current()
	if track == nil {
		return nil, ErrNoCurrentTrack
	}

	buf, err := s.cache.Get(track.ID)
	if err != nil {
		return nil, err
	}

	if !s.sliceDrawn {
		s.sliceStart = s.drawSliceStart(buf.Duration())
		s.sliceDrawn = true
		logger.Debug("选取试听片段起点",
			logger.String("trackId", track.ID),
			logger.Duration("start", s.sliceStart),
			logger.Duration("total", buf.Duration()))
	}

	clip := buf.Slice(s.sliceStart, s.sliceStart+s.cfg.ClipLength)
	return s.exporter.Export(ctx, clip, s.cfg.ExportFormat)
}

// drawSliceStart 在允许范围内随机选取片段起点
// 曲目过短导致上下界交叉时，上界收敛到下界，避免负区间随机数
func (s *Session) drawSliceStart(total time.Duration) time.Duration {
	lower := time.Duration(float64(total) * s.cfg.SkipStart)
	upper := time.Duration(float64(total) * (1 - s.cfg.SkipEnd))
	if end := total - s.cfg.ClipLength; end < upper {
		upper = end
	}
	if upper < lower {
		upper = lower
	}
	if upper == lower {
		return lower
	}
	return lower + time.Duration(s.rng.Int63n(int64(upper-lower)+1))
}

// SliceStart 返回当前曲目已选定的片段起点
// 尚未选取时第二个返回值为false
func (s *Session) SliceStart() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sliceStart, s.sliceDrawn
}

// Step 推进到下一首曲目
//
// 依次：从共享缓存卸载当前曲目、移出活跃窗口、补充下一首进入窗口、
// 重置片段起点、累计已猜数量、清除锁定状态。窗口为空时为空操作
func (s *Session) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	track := s.current()
	if track == nil {
		return
	}

	s.cache.Unload(track.ID)
	s.active = s.active[1:]
	s.activateNext()
	s.sliceDrawn = false
	s.sliceStart = 0
	s.guessed++
	s.finalized = false
}

// Logout 释放会话持有的全部缓存引用，此后会话不可再用
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, track := range s.active {
		s.cache.Unload(track.ID)
	}
	s.active = nil
}

// Finished 判断会话是否已走完全部曲目
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guessed == s.catalog.Len()
}

// Summarize 汇总当前进度
func (s *Session) Summarize() model.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.catalog.Len()
	currentIndex := s.guessed + 1
	if currentIndex > total {
		currentIndex = total
	}

	guessed := s.guessed
	if s.finalized {
		guessed++
	}

	return model.Summary{
		Total:        total,
		CurrentIndex: currentIndex,
		Guessed:      guessed,
		Correct:      s.correct,
	}
}

// ActiveWindow 返回活跃窗口中的曲目（按播放顺序）
func (s *Session) ActiveWindow() []*model.TrackRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := make([]*model.TrackRecord, len(s.active))
	copy(window, s.active)
	return window
}
