package export

import (
	"fmt"
	"time"

	"storyboard-backend/internal/model"
)

// Options controls a single projection.
type Options struct {
	At time.Time
	// IncludeAnimation adds animationStyle to every asset; the render path sets it.
	IncludeAnimation bool
}

// Build projects sb into a document. It only reads sb.
func Build(sb model.Storyboard, opts Options) *Document {
	doc := &Document{
		Version:    Version,
		ExportedAt: opts.At.UTC().Format(TimeLayout),
		Artboard:   Artboard{Width: model.ArtboardWidth, Height: model.ArtboardHeight},
		Stages:     make([]Stage, 0, len(sb.Stages)),
	}

	for _, st := range sb.Stages {
		out := Stage{
			ID:     st.ID,
			Name:   st.Name,
			Assets: make([]Asset, 0, len(st.Placements)),
		}
		for _, pa := range st.Placements {
			a := Asset{
				ID:         pa.ID,
				AssetURL:   pa.AssetURL,
				Filename:   pa.Filename,
				Position:   Position{X: pa.X, Y: pa.Y},
				Size:       Size{Width: pa.Width, Height: pa.Height},
				Rotation:   pa.Rotation,
				LayerOrder: pa.LayerOrder,
			}
			if opts.IncludeAnimation {
				style := pa.Animation.String()
				a.AnimationStyle = &style
			}
			out.Assets = append(out.Assets, a)
		}
		doc.Stages = append(doc.Stages, out)
	}
	return doc
}

// Snapshotter is anything that can hand out a point-in-time copy of a storyboard.
type Snapshotter interface {
	Snapshot() model.Storyboard
}

// Exporter stamps documents with its clock.
type Exporter struct {
	Clock func() time.Time
}

// NewExporter returns an Exporter on the wall clock.
func NewExporter() *Exporter {
	return &Exporter{Clock: time.Now}
}

func (x *Exporter) now() time.Time {
	if x.Clock == nil {
		return time.Now()
	}
	return x.Clock()
}

// Export builds the download document.
func (x *Exporter) Export(src Snapshotter) *Document {
	return Build(src.Snapshot(), Options{At: x.now()})
}

// ForRender builds the document handed to the renderer, animation included.
func (x *Exporter) ForRender(src Snapshotter) *Document {
	return Build(src.Snapshot(), Options{At: x.now(), IncludeAnimation: true})
}

// Filename is the download name for a document exported at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("storyboard-export-%d.json", t.UnixMilli())
}
