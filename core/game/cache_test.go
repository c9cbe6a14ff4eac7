package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"GuessFM/core/audio"
	"GuessFM/model"
)

// fakeDecoder 以可控方式产生固定参数的PCM缓冲区
// block不为nil时，解码协程会阻塞到该通道关闭为止
type fakeDecoder struct {
	calls int32
	block chan struct{}
	fail  map[string]bool
	sizes map[string]int // 指定路径的PCM字节数，默认20000（10秒）
}

func (d *fakeDecoder) Decode(ctx context.Context, path string) (*audio.Buffer, error) {
	atomic.AddInt32(&d.calls, 1)
	if d.block != nil {
		<-d.block
	}
	if d.fail[path] {
		return nil, errors.New("decode failed")
	}
	size := 20000
	if s, ok := d.sizes[path]; ok {
		size = s
	}
	// 1000帧/秒、单声道、16bit：每毫秒2字节
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	return &audio.Buffer{
		Data:        data,
		SampleWidth: 2,
		Channels:    1,
		FrameRate:   1000,
	}, nil
}

func (d *fakeDecoder) decodeCalls() int {
	return int(atomic.LoadInt32(&d.calls))
}

func testTrack(id string) *model.TrackRecord {
	return &model.TrackRecord{
		ID:    id,
		Path:  "/music/" + id + ".mp3",
		Names: []string{id},
	}
}

func TestCacheReferenceCounting(t *testing.T) {
	c := NewMusicCache(&fakeDecoder{})
	track := testTrack("t1")

	c.Load(track)
	c.Load(track)
	c.Load(track)

	if got := c.Refs(track.ID); got != 3 {
		t.Fatalf("Refs after 3 loads = %d, want 3", got)
	}

	c.Unload(track.ID)
	c.Unload(track.ID)
	if got := c.Refs(track.ID); got != 1 {
		t.Fatalf("Refs after 2 unloads = %d, want 1", got)
	}
	if got := c.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}

	c.Unload(track.ID)
	if got := c.Len(); got != 0 {
		t.Fatalf("entry not removed when refs reached zero, Len = %d", got)
	}

	// 多余的Unload是空操作
	c.Unload(track.ID)
	if got := c.Len(); got != 0 {
		t.Fatalf("Unload on absent entry changed cache, Len = %d", got)
	}
}

func TestCacheConcurrentLoadSingleDecode(t *testing.T) {
	decoder := &fakeDecoder{}
	c := NewMusicCache(decoder)
	track := testTrack("t1")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Load(track)
		}()
	}
	wg.Wait()

	if _, err := c.Get(track.ID); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got := decoder.decodeCalls(); got != 1 {
		t.Fatalf("decode invoked %d times for concurrent loads, want 1", got)
	}
	if got := c.Refs(track.ID); got != 16 {
		t.Fatalf("Refs = %d, want 16", got)
	}
}

func TestCacheGetBlocksUntilDecodeCompletes(t *testing.T) {
	decoder := &fakeDecoder{block: make(chan struct{})}
	c := NewMusicCache(decoder)
	track := testTrack("t1")

	c.Load(track)

	got := make(chan error, 1)
	go func() {
		_, err := c.Get(track.ID)
		got <- err
	}()

	select {
	case <-got:
		t.Fatal("Get returned before decode completed")
	case <-time.After(50 * time.Millisecond):
	}

	close(decoder.block)

	select {
	case err := <-got:
		if err != nil {
			t.Fatalf("Get failed after decode: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Get did not return after decode completed")
	}
}

func TestCacheGetWithoutLoad(t *testing.T) {
	c := NewMusicCache(&fakeDecoder{})

	if _, err := c.Get("absent"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Get on absent entry = %v, want ErrNotLoaded", err)
	}
}

func TestCachePendingEntryRemovedOnUnload(t *testing.T) {
	decoder := &fakeDecoder{block: make(chan struct{})}
	c := NewMusicCache(decoder)
	track := testTrack("t1")

	c.Load(track)
	c.Unload(track.ID)

	if got := c.Len(); got != 0 {
		t.Fatalf("pending entry not removed on unload, Len = %d", got)
	}

	// 在途解码完成后结果被丢弃，不会复活条目
	close(decoder.block)
	time.Sleep(50 * time.Millisecond)
	if got := c.Len(); got != 0 {
		t.Fatalf("discarded decode revived entry, Len = %d", got)
	}
}

func TestCacheDecodeFailure(t *testing.T) {
	decoder := &fakeDecoder{fail: map[string]bool{"/music/bad.mp3": true}}
	c := NewMusicCache(decoder)
	track := testTrack("bad")

	c.Load(track)

	if _, err := c.Get(track.ID); err == nil {
		t.Fatal("Get did not propagate decode failure")
	}

	// 失败的条目不会卡死，按正常流程卸载
	c.Unload(track.ID)
	if got := c.Len(); got != 0 {
		t.Fatalf("failed entry stuck in cache, Len = %d", got)
	}
}

func TestCacheSharedAcrossLoaders(t *testing.T) {
	decoder := &fakeDecoder{}
	c := NewMusicCache(decoder)

	tracks := make([]*model.TrackRecord, 5)
	for i := range tracks {
		tracks[i] = testTrack(fmt.Sprintf("t%d", i))
		c.Load(tracks[i])
	}

	// 第二个使用者加载同一批曲目，不触发新的解码
	for _, track := range tracks {
		c.Load(track)
	}
	for _, track := range tracks {
		if _, err := c.Get(track.ID); err != nil {
			t.Fatalf("Get(%s) failed: %v", track.ID, err)
		}
	}

	if got := decoder.decodeCalls(); got != 5 {
		t.Fatalf("decode invoked %d times, want 5", got)
	}
}
