// Package export projects a storyboard into the versioned interchange
// document consumed by the renderer, and reads such documents back.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"storyboard-backend/internal/model"
)

// Version is the interchange format version written and accepted.
const Version = "1.0"

// TimeLayout matches ISO-8601 UTC timestamps with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

var ErrInvalidDocument = errors.New("invalid interchange document")

// Document is the interchange document.
type Document struct {
	Version    string   `json:"version"`
	ExportedAt string   `json:"exportedAt"`
	Artboard   Artboard `json:"artboard"`
	Stages     []Stage  `json:"stages"`
}

// Artboard carries the fixed canvas size.
type Artboard struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Stage is one exported stage with its placements in stored order.
type Stage struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Assets []Asset `json:"assets"`
}

// Asset is one exported placement.
type Asset struct {
	ID             string   `json:"id"`
	AssetURL       string   `json:"assetUrl"`
	Filename       string   `json:"filename"`
	Position       Position `json:"position"`
	Size           Size     `json:"size"`
	Rotation       int      `json:"rotation"`
	LayerOrder     int      `json:"layerOrder"`
	AnimationStyle *string  `json:"animationStyle,omitempty"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Decode reads a document and validates it.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the structural rules a renderer relies on.
func (d *Document) Validate() error {
	if d.Version != Version {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidDocument, d.Version)
	}
	if d.Artboard.Width <= 0 || d.Artboard.Height <= 0 {
		return fmt.Errorf("%w: artboard size must be positive", ErrInvalidDocument)
	}
	if len(d.Stages) == 0 {
		return fmt.Errorf("%w: no stages", ErrInvalidDocument)
	}
	for _, st := range d.Stages {
		if st.ID == "" {
			return fmt.Errorf("%w: stage without id", ErrInvalidDocument)
		}
		for _, a := range st.Assets {
			if a.ID == "" {
				return fmt.Errorf("%w: asset without id in stage %s", ErrInvalidDocument, st.ID)
			}
			if a.Size.Width <= 0 || a.Size.Height <= 0 {
				return fmt.Errorf("%w: asset %s has non-positive size", ErrInvalidDocument, a.ID)
			}
			if a.Rotation < 0 || a.Rotation >= 360 {
				return fmt.Errorf("%w: asset %s rotation %d out of range", ErrInvalidDocument, a.ID, a.Rotation)
			}
			if a.AnimationStyle != nil && !model.AnimationStyle(*a.AnimationStyle).Valid() {
				return fmt.Errorf("%w: asset %s has unknown animation style %q", ErrInvalidDocument, a.ID, *a.AnimationStyle)
			}
		}
	}
	return nil
}

// Time parses ExportedAt. The zero time is returned when it is malformed.
func (d *Document) Time() time.Time {
	t, err := time.Parse(TimeLayout, d.ExportedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AssetCount returns the number of placements across all stages.
func (d *Document) AssetCount() int {
	n := 0
	for _, st := range d.Stages {
		n += len(st.Assets)
	}
	return n
}

// Marshal renders the document as indented JSON, as the download does.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
