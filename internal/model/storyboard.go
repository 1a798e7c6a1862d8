package model

import "sort"

// Asset 라이브러리 에셋 (생성 후 불변)
type Asset struct {
	ID           string `json:"id" yaml:"id"`
	SourceURL    string `json:"url" yaml:"url"`
	DisplayName  string `json:"name" yaml:"name"`
	Filename     string `json:"filename" yaml:"filename"`
	ThumbnailURL string `json:"thumbnail" yaml:"thumbnail"`
}

// PlacedAsset 스테이지 위에 배치된 에셋 인스턴스
type PlacedAsset struct {
	ID         string         `json:"id"`
	AssetURL   string         `json:"assetUrl"`
	Filename   string         `json:"filename"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Rotation   int            `json:"rotation"`
	LayerOrder int            `json:"layerOrder"`
	Animation  AnimationStyle `json:"animationStyle"`
}

// Stage 스토리보드의 한 장면
type Stage struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Placements []PlacedAsset `json:"placedAssets"`
}

// Clone returns a copy that shares no memory with s.
func (s Stage) Clone() Stage {
	out := s
	out.Placements = make([]PlacedAsset, len(s.Placements))
	copy(out.Placements, s.Placements)
	return out
}

// Find returns the index of the placement with the given id, or -1.
func (s Stage) Find(placedID string) int {
	for i := range s.Placements {
		if s.Placements[i].ID == placedID {
			return i
		}
	}
	return -1
}

// PaintOrder returns the placements sorted by LayerOrder, bottom first.
// Ties keep insertion order.
func (s Stage) PaintOrder() []PlacedAsset {
	out := s.Clone().Placements
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LayerOrder < out[j].LayerOrder
	})
	return out
}

// Storyboard 스테이지 목록과 활성 스테이지
type Storyboard struct {
	ID            string  `json:"id"`
	Stages        []Stage `json:"stages"`
	ActiveStageID string  `json:"activeStageId"`
}

// Clone returns a deep copy of sb.
func (sb Storyboard) Clone() Storyboard {
	out := sb
	out.Stages = make([]Stage, len(sb.Stages))
	for i, st := range sb.Stages {
		out.Stages[i] = st.Clone()
	}
	return out
}

// StageIndex returns the index of the stage with the given id, or -1.
func (sb Storyboard) StageIndex(stageID string) int {
	for i := range sb.Stages {
		if sb.Stages[i].ID == stageID {
			return i
		}
	}
	return -1
}
