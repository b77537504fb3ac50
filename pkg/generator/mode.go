package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/autodoc/pkg/levenshtein"
	"github.com/Sumatoshi-tech/autodoc/pkg/observability"
)

// ErrUnknownMode indicates a comment mode name other than complete, replace,
// or keep.
var ErrUnknownMode = errors.New("unknown comment mode")

// Mode controls which declarations receive generated comments.
type Mode int

// Comment modes.
const (
	// ModeComplete adds comments to undocumented declarations only.
	ModeComplete Mode = iota
	// ModeReplace regenerates every comment that differs.
	ModeReplace
	// ModeKeep reports without editing.
	ModeKeep
)

var modeNames = [...]string{"complete", "replace", "keep"}

// String returns the mode name used in configuration.
func (m Mode) String() string {
	if m < ModeComplete || m > ModeKeep {
		return fmt.Sprintf("mode(%d)", int(m))
	}

	return modeNames[m]
}

// ParseMode maps a mode name to its Mode.
func ParseMode(name string) (Mode, error) {
	needle := strings.ToLower(strings.TrimSpace(name))

	for idx, candidate := range modeNames {
		if candidate == needle {
			return Mode(idx), nil
		}
	}

	return 0, fmt.Errorf("%w: %q%s", ErrUnknownMode, name, levenshtein.Hint(needle, modeNames[:]))
}

// Action is what happened to one declaration.
type Action int

// Declaration actions.
const (
	ActionAdd Action = iota
	ActionReplace
	ActionKeep
	ActionUnmatched
)

// String returns the outcome name, shared with the generation metrics.
func (a Action) String() string {
	switch a {
	case ActionAdd:
		return observability.OutcomeAdded
	case ActionReplace:
		return observability.OutcomeReplaced
	case ActionKeep:
		return observability.OutcomeKept
	case ActionUnmatched:
		return observability.OutcomeUnmatched
	}

	return fmt.Sprintf("action(%d)", int(a))
}

// MarshalText implements [encoding.TextMarshaler].
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
