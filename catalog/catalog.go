package catalog

import (
	"fmt"
	"strings"

	"GuessFM/model"
)

// Catalog 是启动时扫描得到的不可变曲目列表
// 构建完成后只读，会话只持有对其下标的随机排列
type Catalog struct {
	tracks []*model.TrackRecord
	byID   map[string]*model.TrackRecord
}

// New 从曲目记录构建目录
func New(tracks []*model.TrackRecord) *Catalog {
	byID := make(map[string]*model.TrackRecord, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}
	return &Catalog{tracks: tracks, byID: byID}
}

// Len 返回曲目数量
func (c *Catalog) Len() int {
	return len(c.tracks)
}

// Track 按下标返回曲目
func (c *Catalog) Track(i int) *model.TrackRecord {
	return c.tracks[i]
}

// ByID 按曲目ID查找
func (c *Catalog) ByID(id string) (*model.TrackRecord, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// Candidates 返回提供给前端选择器的候选答案列表
func (c *Catalog) Candidates() []model.Candidate {
	candidates := make([]model.Candidate, 0, len(c.tracks))
	for _, t := range c.tracks {
		candidates = append(candidates, model.Candidate{
			Name: DisplayName(t),
			ID:   t.ID,
		})
	}
	return candidates
}

// DisplayName 将曲目的全部候选名称拼接为展示名
func DisplayName(t *model.TrackRecord) string {
	parts := make([]string, 0, len(t.Names))
	for _, name := range t.Names {
		parts = append(parts, fmt.Sprintf("[%s]", name))
	}
	return strings.Join(parts, " or ")
}
