package model

// 아트보드 고정 크기 및 배치 기본값
const (
	ArtboardWidth  = 360.0
	ArtboardHeight = 640.0

	// DefaultPlacementSize 새로 배치된 에셋의 기본 가로/세로 크기
	DefaultPlacementSize = 120.0
)

// AnimationStyle 배치된 에셋의 등장 애니메이션
type AnimationStyle string

const (
	AnimationFadeIn          AnimationStyle = "fade_in"
	AnimationSlideFromBottom AnimationStyle = "slide_from_bottom"
	AnimationSlideFromSide   AnimationStyle = "slide_from_side"
	AnimationScaleUp         AnimationStyle = "scale_up"
	AnimationWipeReveal      AnimationStyle = "wipe_reveal"

	// DefaultAnimation 생성 시 기본 애니메이션
	DefaultAnimation = AnimationFadeIn
)

// AnimationStyles lists every known style in menu order.
var AnimationStyles = []AnimationStyle{
	AnimationFadeIn,
	AnimationSlideFromBottom,
	AnimationSlideFromSide,
	AnimationScaleUp,
	AnimationWipeReveal,
}

// String 메서드
func (a AnimationStyle) String() string {
	return string(a.Normalize())
}

// Valid reports whether a is one of the known styles.
func (a AnimationStyle) Valid() bool {
	for _, s := range AnimationStyles {
		if a == s {
			return true
		}
	}
	return false
}

// Normalize maps the zero value to the default style so unset and default
// can never be told apart.
func (a AnimationStyle) Normalize() AnimationStyle {
	if a == "" {
		return DefaultAnimation
	}
	return a
}

// ParseAnimationStyle returns the style named by s. Unknown names yield the
// default with ok=false.
func ParseAnimationStyle(s string) (AnimationStyle, bool) {
	a := AnimationStyle(s)
	if a.Valid() {
		return a, true
	}
	return DefaultAnimation, false
}
