package workflow

import (
	"fmt"
	"strings"

	"github.com/chrisedwards/discord-archive/internal/channels"
)

// Plan is the set of actions taken on a member and chat after a user search.
type Plan int

const (
	PlanRemoveOnly Plan = iota + 1
	PlanRemoveArchiveDM
	PlanRemoveArchiveDMNotify
	PlanRemoveArchiveUploadNotify
	PlanNone
)

// DefaultPlan is chosen on empty input.
const DefaultPlan = PlanRemoveArchiveDMNotify

// Plans lists all plans in menu order.
func Plans() []Plan {
	return []Plan{
		PlanRemoveOnly,
		PlanRemoveArchiveDM,
		PlanRemoveArchiveDMNotify,
		PlanRemoveArchiveUploadNotify,
		PlanNone,
	}
}

func (p Plan) String() string {
	switch p {
	case PlanRemoveOnly:
		return "Remove user only"
	case PlanRemoveArchiveDM:
		return "Remove user, archive, and DM"
	case PlanRemoveArchiveDMNotify:
		return "Remove user, archive, DM, and notify channel"
	case PlanRemoveArchiveUploadNotify:
		return "Remove user, archive, save to archive channel, and notify"
	case PlanNone:
		return "None"
	}
	return fmt.Sprintf("Plan(%d)", int(p))
}

// Archives reports whether the plan exports the chat first.
func (p Plan) Archives() bool {
	return p == PlanRemoveArchiveDM || p == PlanRemoveArchiveDMNotify || p == PlanRemoveArchiveUploadNotify
}

// SendsToMember reports whether the archive is sent to the member.
func (p Plan) SendsToMember() bool {
	return p == PlanRemoveArchiveDM || p == PlanRemoveArchiveDMNotify
}

// Removes reports whether the member is removed from the chat.
func (p Plan) Removes() bool {
	return p >= PlanRemoveOnly && p <= PlanRemoveArchiveUploadNotify
}

// Notifies reports whether the chat is told about the removal.
func (p Plan) Notifies() bool {
	return p == PlanRemoveArchiveDMNotify || p == PlanRemoveArchiveUploadNotify
}

// Uploads reports whether the archive goes to the archive channel.
func (p Plan) Uploads() bool {
	return p == PlanRemoveArchiveUploadNotify
}

// ParsePlan parses the operator's choice. Empty input selects DefaultPlan.
func ParsePlan(input string) (Plan, error) {
	if strings.TrimSpace(input) == "" {
		return DefaultPlan, nil
	}
	i, err := channels.ParseIndex(input, len(Plans()))
	if err != nil {
		return 0, err
	}
	return Plan(i), nil
}

// Outcome is the overall result of Dispatch.
type Outcome int

const (
	Completed Outcome = iota // every applicable stage ran, some may have failed
	Aborted                  // archiving failed, nothing else ran
	NoAction                 // the plan had nothing to do
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	case NoAction:
		return "no action"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}
