package audio

import "time"

// Buffer 保存一条已解码曲目的原始PCM数据及其参数
// 切片操作以毫秒为单位，始终对齐到完整的采样帧
type Buffer struct {
	Data        []byte // 交错的原始PCM
	SampleWidth int    // 单个采样的字节数
	Channels    int
	FrameRate   int // 每秒采样帧数
}

// frameSize 返回一帧（全部声道各一个采样）占用的字节数
func (b *Buffer) frameSize() int {
	return b.SampleWidth * b.Channels
}

// Duration 返回音频总时长
func (b *Buffer) Duration() time.Duration {
	if b.FrameRate <= 0 || b.frameSize() <= 0 {
		return 0
	}
	frames := len(b.Data) / b.frameSize()
	return time.Duration(frames) * time.Second / time.Duration(b.FrameRate)
}

// offsetBytes 将时间偏移换算为帧对齐的字节偏移，并收敛到有效范围内
func (b *Buffer) offsetBytes(at time.Duration) int {
	if at < 0 {
		at = 0
	}
	frames := int(at.Milliseconds()) * b.FrameRate / 1000
	offset := frames * b.frameSize()
	if offset > len(b.Data) {
		offset = len(b.Data)
	}
	return offset
}

// Slice 返回 [from, to) 时间区间的子缓冲区
// 区间越界时收敛到音频实际范围，数据与原缓冲区共享
func (b *Buffer) Slice(from, to time.Duration) *Buffer {
	start := b.offsetBytes(from)
	end := b.offsetBytes(to)
	if end < start {
		end = start
	}
	return &Buffer{
		Data:        b.Data[start:end],
		SampleWidth: b.SampleWidth,
		Channels:    b.Channels,
		FrameRate:   b.FrameRate,
	}
}
