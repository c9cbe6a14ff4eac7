package game

import (
	"context"
	"errors"
	"sync"

	"GuessFM/core/audio"
	"GuessFM/logger"
	"GuessFM/model"
)

// ErrNotLoaded 表示在没有有效Load的情况下调用了Get
// 正常的会话流程不会触发该错误，出现即为调用方的使用错误
var ErrNotLoaded = errors.New("game: track not loaded in cache")

// cacheEntry 是缓存中一条曲目的内部状态
// ready在解码结束（无论成败）时关闭；buf/err在关闭前由解码协程写入
type cacheEntry struct {
	refs  int
	ready chan struct{}
	buf   *audio.Buffer
	err   error
}

// MusicCache 是进程级共享的已解码音频缓存
//
// 每个会话最多预加载若干首曲目，多个会话需要同一首曲目时通过引用计数
// 共享一次解码结果。引用计数归零的条目立即删除，未被引用的在途解码结果
// 在完成时被丢弃（尽力而为，不做主动取消）。
type MusicCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	decoder audio.Decoder
}

// NewMusicCache 创建空缓存
func NewMusicCache(decoder audio.Decoder) *MusicCache {
	return &MusicCache{
		entries: make(map[string]*cacheEntry),
		decoder: decoder,
	}
}

// Load 声明对一首曲目的需求
// 已有条目（无论是否解码完成）时只增加引用计数；否则创建条目并启动异步解码
func (c *MusicCache) Load(track *model.TrackRecord) {
	c.mu.Lock()
	if entry, ok := c.entries[track.ID]; ok {
		entry.refs++
		c.mu.Unlock()
		return
	}

	entry := &cacheEntry{
		refs:  1,
		ready: make(chan struct{}),
	}
	c.entries[track.ID] = entry
	c.mu.Unlock()

	go c.decode(track.ID, track.Path, entry)
}

// decode 在独立协程中执行解码并回填条目
func (c *MusicCache) decode(trackID, path string, entry *cacheEntry) {
	buf, err := c.decoder.Decode(context.Background(), path)

	c.mu.Lock()
	current, ok := c.entries[trackID]
	if ok && current == entry {
		entry.buf = buf
		entry.err = err
	} else {
		// 条目在解码期间已被卸载（或被新条目替换），结果直接丢弃。
		// 仍持有旧条目指针的Get以ErrNotLoaded结束
		entry.err = ErrNotLoaded
		logger.Debug("解码结果已无引用，丢弃",
			logger.String("trackId", trackID))
	}
	c.mu.Unlock()

	close(entry.ready)

	if err != nil {
		logger.Error("曲目解码失败",
			logger.String("trackId", trackID),
			logger.String("path", path),
			logger.ErrorField(err))
	}
}

// Get 获取已解码的音频数据
// 条目不存在返回ErrNotLoaded；解码未完成时阻塞等待（这是缓存唯一的阻塞点）；
// 解码失败时返回解码错误，条目仍按正常引用计数规则卸载
func (c *MusicCache) Get(trackID string) (*audio.Buffer, error) {
	c.mu.Lock()
	entry, ok := c.entries[trackID]
	c.mu.Unlock()

	if !ok {
		return nil, ErrNotLoaded
	}

	<-entry.ready

	if entry.err != nil {
		return nil, entry.err
	}
	return entry.buf, nil
}

// Unload 释放对一首曲目的需求
// 条目不存在时为空操作；引用计数归零的条目立即删除
func (c *MusicCache) Unload(trackID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[trackID]
	if !ok {
		return
	}

	entry.refs--
	if entry.refs == 0 {
		delete(c.entries, trackID)
	}
}

// Refs 返回一首曲目当前的引用计数，不存在时为0
func (c *MusicCache) Refs(trackID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[trackID]; ok {
		return entry.refs
	}
	return 0
}

// Len 返回缓存中的条目数量
func (c *MusicCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
