package report

import "github.com/trezcool/sauti/core/user"

// Action drives a Report from one status to the next.
type Action string

// Actions
const (
	ActionSubmit         Action = "submit"
	ActionAssign         Action = "assign"
	ActionAccept         Action = "accept"
	ActionResolve        Action = "resolve"
	ActionApprove        Action = "approve"
	ActionRequestChanges Action = "request-changes"
)

// fixed audit messages
const (
	msgSubmitted        = "Report submitted"
	msgAccepted         = "Report accepted by department"
	msgResolutionPrefix = "Resolution: "
	msgApproved         = "Resolution approved"
	msgChangesPrefix    = "Changes requested: "
)

type rule struct {
	from         Status
	to           Status
	role         user.Role
	assigneeOnly bool // the actor must be the report's assignee
}

var rules = map[Action]rule{
	ActionSubmit:         {from: "", to: StatusSubmitted, role: user.RoleStudent},
	ActionAssign:         {from: StatusSubmitted, to: StatusAssignedToDepartment, role: user.RoleDSWAdmin},
	ActionAccept:         {from: StatusAssignedToDepartment, to: StatusInProgress, role: user.RoleDeptAdmin, assigneeOnly: true},
	ActionResolve:        {from: StatusInProgress, to: StatusResolved, role: user.RoleDeptAdmin, assigneeOnly: true},
	ActionApprove:        {from: StatusResolved, to: StatusCompleted, role: user.RoleDSWAdmin},
	ActionRequestChanges: {from: StatusResolved, to: StatusInProgress, role: user.RoleDSWAdmin},
}

// Next returns the status a Report in status `from` moves to when `action` is applied.
func Next(from Status, action Action) (Status, error) {
	r, ok := rules[action]
	if !ok || r.from != from {
		return "", ErrInvalidTransition
	}
	return r.to, nil
}

// Can reports whether `actor` may apply `action` to `rpt` in its current status.
func Can(actor user.User, action Action, rpt Report) bool {
	if authorizeRole(actor, action) != nil || authorizeActor(actor, action, rpt) != nil {
		return false
	}
	_, err := Next(rpt.Status, action)
	return err == nil
}

// authorizeRole checks the exact role `action` requires.
func authorizeRole(actor user.User, action Action) error {
	r, ok := rules[action]
	if !ok || actor.Role != r.role {
		return ErrForbidden
	}
	return nil
}

// authorizeActor checks that department admins only act on reports assigned to them.
func authorizeActor(actor user.User, action Action, rpt Report) error {
	if r := rules[action]; r.assigneeOnly && (rpt.AssignedToID == "" || rpt.AssignedToID != actor.ID) {
		return ErrForbidden
	}
	return nil
}

// Actions returns the actions `actor` may currently apply to `rpt`.
func Actions(actor user.User, rpt Report) []Action {
	var actions []Action
	for _, action := range []Action{ActionAssign, ActionAccept, ActionResolve, ActionApprove, ActionRequestChanges} {
		if Can(actor, action, rpt) {
			actions = append(actions, action)
		}
	}
	return actions
}
