package endpoint

import (
	"fmt"
	"strings"
)

// Mode selects between a pre-supplied static descriptor and one derived
// from the release feed.
type Mode string

const (
	// ModeAuto uses the static descriptor when one is configured and derives
	// one dynamically otherwise.
	ModeAuto Mode = "auto"

	// ModeStatic always uses the static descriptor.
	ModeStatic Mode = "static"

	// ModeDynamic always derives the descriptor from the feed, keeping the
	// static descriptor only as a fallback.
	ModeDynamic Mode = "dynamic"
)

// ParseMode parses a mode name. The empty string is ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeStatic:
		return ModeStatic, nil
	case ModeDynamic:
		return ModeDynamic, nil
	default:
		return "", fmt.Errorf("unknown endpoint mode: %q (available: auto, static, dynamic)", s)
	}
}

func (m Mode) String() string {
	if m == "" {
		return string(ModeAuto)
	}
	return string(m)
}
