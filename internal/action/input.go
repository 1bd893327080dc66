package action

// InputModeKind tags the variant of the transient input mode.
type InputModeKind int

const (
	InputModeNone InputModeKind = iota
	InputModeTextPrompt
	InputModeConfirm
	InputModeBrowseTasks
	InputModeTaskStatusPicker
	InputModeSubtaskStatusPicker
)

// InputMode is the tagged variant carried by EnterInputModeAction. Kind
// selects which of Prompt/Confirm is meaningful.
type InputMode struct {
	Kind    InputModeKind
	Prompt  string // TextPrompt/Confirm kind label, e.g. "branch name"
	AgentID string // the agent this mode applies to, if any
}

type EnterInputModeAction struct {
	Base
	Mode InputMode
}

func NewEnterInputModeAction(mode InputMode) EnterInputModeAction {
	return EnterInputModeAction{Base: NewBase(TypeEnterInputMode), Mode: mode}
}

type UpdateInputAction struct {
	Base
	Text string
}

func NewUpdateInputAction(text string) UpdateInputAction {
	return UpdateInputAction{Base: NewBase(TypeUpdateInput), Text: text}
}

type SubmitInputAction struct{ Base }

func NewSubmitInputAction() SubmitInputAction { return SubmitInputAction{NewBase(TypeSubmitInput)} }

type ExitInputModeAction struct{ Base }

func NewExitInputModeAction() ExitInputModeAction {
	return ExitInputModeAction{NewBase(TypeExitInputMode)}
}
