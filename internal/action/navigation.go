package action

// SelectNextAction, SelectPreviousAction, SelectFirstAction, and
// SelectLastAction move the current selection. They clear any toast and
// republish the selection to watchers.

type SelectNextAction struct{ Base }

func NewSelectNextAction() SelectNextAction { return SelectNextAction{NewBase(TypeSelectNext)} }

type SelectPreviousAction struct{ Base }

func NewSelectPreviousAction() SelectPreviousAction {
	return SelectPreviousAction{NewBase(TypeSelectPrevious)}
}

type SelectFirstAction struct{ Base }

func NewSelectFirstAction() SelectFirstAction { return SelectFirstAction{NewBase(TypeSelectFirst)} }

type SelectLastAction struct{ Base }

func NewSelectLastAction() SelectLastAction { return SelectLastAction{NewBase(TypeSelectLast)} }
