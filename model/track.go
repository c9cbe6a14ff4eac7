package model

// TrackRecord represents one audio file discovered in the music library.
// Records are built once at catalog scan time and never mutated afterwards:
// the ID must stay constant for the life of the process because it is used
// both as the cache key and as the guess target.
type TrackRecord struct {
	ID    string   `json:"id"`
	Path  string   `json:"-"` // Path to the audio file, not exposed in API directly
	Names []string `json:"names"`
}

// Candidate 表示提供给前端选择器的一个候选答案
type Candidate struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Summary 表示一个会话的当前进度
type Summary struct {
	Total        int `json:"total"`
	CurrentIndex int `json:"current_index"`
	Guessed      int `json:"guessed"`
	Correct      int `json:"correct"`
}
