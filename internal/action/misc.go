package action

// ToastLevel tags the severity of a ShowToastAction.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastWarning
	ToastError
)

type TickAction struct{ Base }

func NewTickAction() TickAction { return TickAction{NewBase(TypeTick)} }

type QuitAction struct{ Base }

func NewQuitAction() QuitAction { return QuitAction{NewBase(TypeQuit)} }

type ShowToastAction struct {
	Base
	Message string
	Level   ToastLevel
}

func NewShowToastAction(message string, level ToastLevel) ShowToastAction {
	return ShowToastAction{Base: NewBase(TypeShowToast), Message: message, Level: level}
}

type ClearErrorAction struct{ Base }

func NewClearErrorAction() ClearErrorAction { return ClearErrorAction{NewBase(TypeClearError)} }
