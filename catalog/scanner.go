package catalog

import (
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"GuessFM/logger"
	"GuessFM/model"
)

func init() {
	// Go内置的MIME表不含部分常见音频格式，这里补齐
	mime.AddExtensionType(".flac", "audio/flac")
	mime.AddExtensionType(".ogg", "audio/ogg")
	mime.AddExtensionType(".oga", "audio/ogg")
	mime.AddExtensionType(".opus", "audio/opus")
	mime.AddExtensionType(".m4a", "audio/mp4")
	mime.AddExtensionType(".wma", "audio/x-ms-wma")
	mime.AddExtensionType(".aiff", "audio/aiff")
}

// Scan 递归扫描根目录，构建不可变的曲目目录
// 仅收录MIME类型为 audio/* 的文件；单个文件的元数据读取失败不会中断扫描，
// 该文件退化为只用文件名作为候选名称
func Scan(root string) (*Catalog, error) {
	var tracks []*model.TrackRecord

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// 单个目录不可读时跳过，不中断整体扫描
			logger.Warn("扫描目录失败，已跳过",
				logger.String("path", path),
				logger.ErrorField(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if !isAudioFile(path) {
			return nil
		}

		stem := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		record := &model.TrackRecord{
			ID:    strings.ReplaceAll(uuid.New().String(), "-", ""),
			Path:  path,
			Names: []string{stem},
		}

		// 元数据标题为尽力读取，失败时只保留文件名
		if title, ok := readTitle(path); ok {
			record.Names = append(record.Names, title)
		}

		tracks = append(tracks, record)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("扫描音乐目录 %s 失败: %w", root, err)
	}

	logger.Info("音乐目录扫描完成",
		logger.String("root", root),
		logger.Int("trackCount", len(tracks)))

	return New(tracks), nil
}

// isAudioFile 通过扩展名对应的MIME类型判断是否为音频文件
func isAudioFile(path string) bool {
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	return strings.HasPrefix(mimeType, "audio/")
}

// readTitle 读取文件内嵌的标题标签
func readTitle(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		logger.Debug("打开文件读取元数据失败",
			logger.String("path", path),
			logger.ErrorField(err))
		return "", false
	}
	defer f.Close()

	metadata, err := tag.ReadFrom(f)
	if err != nil {
		logger.Debug("读取音频元数据失败",
			logger.String("path", path),
			logger.ErrorField(err))
		return "", false
	}

	title := strings.TrimSpace(metadata.Title())
	if title == "" {
		return "", false
	}
	return title, true
}
