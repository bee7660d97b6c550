package types

// ButtonID identifies one of the four badge buttons.
type ButtonID uint8

const (
	ButtonNone ButtonID = iota
	ButtonNext          // next / increase
	ButtonPrev          // previous / decrease
	ButtonSelect
	ButtonBack
)

func (b ButtonID) String() string {
	switch b {
	case ButtonNext:
		return "next"
	case ButtonPrev:
		return "prev"
	case ButtonSelect:
		return "select"
	case ButtonBack:
		return "back"
	}
	return "none"
}

// ButtonAction distinguishes the edge kinds a button can report.
type ButtonAction uint8

const (
	ActionPress ButtonAction = iota
	ActionRepeat
	ActionRelease
)

func (a ButtonAction) String() string {
	switch a {
	case ActionPress:
		return "press"
	case ActionRepeat:
		return "repeat"
	case ActionRelease:
		return "release"
	}
	return "?"
}

// ButtonEvent is published on input/button.
type ButtonEvent struct {
	Button ButtonID
	Action ButtonAction
	TimeMs int64
}
