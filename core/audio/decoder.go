package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"GuessFM/logger"
)

// Decoder 将音频文件解码为原始PCM缓冲区
type Decoder interface {
	Decode(ctx context.Context, path string) (*Buffer, error)
}

// Exporter 将PCM缓冲区重新编码为指定容器格式
type Exporter interface {
	Export(ctx context.Context, buf *Buffer, format string) ([]byte, error)
}

// FFmpegCodec implements Decoder and Exporter using ffmpeg/ffprobe.
// 所有解码统一输出s16le，保留源文件的采样率和声道数
type FFmpegCodec struct {
	ffmpegPath string
}

// NewFFmpegCodec creates a new FFmpegCodec.
func NewFFmpegCodec(ffmpegPath string) *FFmpegCodec {
	return &FFmpegCodec{ffmpegPath: ffmpegPath}
}

// probeStream defines the structure for ffprobe JSON output.
type probeStream struct {
	Streams []struct {
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// probe 获取音频流的采样率和声道数
func (c *FFmpegCodec) probe(ctx context.Context, path string) (rate, channels int, err error) {
	ffprobePath := strings.Replace(c.ffmpegPath, "ffmpeg", "ffprobe", 1)

	args := []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels",
		"-of", "json",
		path,
	}

	cmd := exec.CommandContext(ctx, ffprobePath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, 0, fmt.Errorf("ffprobe execution failed for %s: %w\nFFprobe Error: %s", path, err, stderr.String())
	}

	var probeData probeStream
	if err := json.Unmarshal(out.Bytes(), &probeData); err != nil {
		return 0, 0, fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}

	if len(probeData.Streams) == 0 {
		return 0, 0, fmt.Errorf("no audio streams found in %s", path)
	}

	var sampleRate int
	if _, err := fmt.Sscanf(probeData.Streams[0].SampleRate, "%d", &sampleRate); err != nil {
		return 0, 0, fmt.Errorf("invalid sample rate %q for %s: %w", probeData.Streams[0].SampleRate, path, err)
	}

	if sampleRate <= 0 || probeData.Streams[0].Channels <= 0 {
		return 0, 0, fmt.Errorf("invalid stream parameters for %s: rate=%d channels=%d",
			path, sampleRate, probeData.Streams[0].Channels)
	}

	return sampleRate, probeData.Streams[0].Channels, nil
}

// Decode 将文件解码为s16le原始PCM
func (c *FFmpegCodec) Decode(ctx context.Context, path string) (*Buffer, error) {
	rate, channels, err := c.probe(ctx, path)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-v", "error",
		"-i", path,
		"-map", "0:a:0",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", rate),
		"-ac", fmt.Sprintf("%d", channels),
		"-f", "s16le",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed for %s: %w\nFFmpeg Error: %s", path, err, stderr.String())
	}

	buf := &Buffer{
		Data:        out.Bytes(),
		SampleWidth: 2,
		Channels:    channels,
		FrameRate:   rate,
	}

	logger.Debug("音频解码完成",
		logger.String("path", path),
		logger.Int("frameRate", rate),
		logger.Int("channels", channels),
		logger.Duration("duration", buf.Duration()))

	return buf, nil
}

// Export 将PCM缓冲区编码为指定容器格式的字节流
func (c *FFmpegCodec) Export(ctx context.Context, buf *Buffer, format string) ([]byte, error) {
	sampleFormat, err := rawSampleFormat(buf.SampleWidth)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-v", "error",
		"-f", sampleFormat,
		"-ar", fmt.Sprintf("%d", buf.FrameRate),
		"-ac", fmt.Sprintf("%d", buf.Channels),
		"-i", "pipe:0",
		"-f", format,
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	cmd.Stdin = bytes.NewReader(buf.Data)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg export to %s failed: %w\nFFmpeg Error: %s", format, err, stderr.String())
	}

	return out.Bytes(), nil
}

// rawSampleFormat 将采样宽度映射为ffmpeg的原始采样格式名
func rawSampleFormat(sampleWidth int) (string, error) {
	switch sampleWidth {
	case 1:
		return "u8", nil
	case 2:
		return "s16le", nil
	case 4:
		return "s32le", nil
	default:
		return "", fmt.Errorf("unsupported sample width: %d", sampleWidth)
	}
}
