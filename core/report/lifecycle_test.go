package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/sauti/core/user"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		action  Action
		want    Status
		wantErr error
	}{
		{name: "assign", from: StatusSubmitted, action: ActionAssign, want: StatusAssignedToDepartment},
		{name: "accept", from: StatusAssignedToDepartment, action: ActionAccept, want: StatusInProgress},
		{name: "resolve", from: StatusInProgress, action: ActionResolve, want: StatusResolved},
		{name: "approve", from: StatusResolved, action: ActionApprove, want: StatusCompleted},
		{name: "request changes", from: StatusResolved, action: ActionRequestChanges, want: StatusInProgress},
		{name: "assign twice", from: StatusAssignedToDepartment, action: ActionAssign, wantErr: ErrInvalidTransition},
		{name: "resolve before accept", from: StatusAssignedToDepartment, action: ActionResolve, wantErr: ErrInvalidTransition},
		{name: "approve in progress", from: StatusInProgress, action: ActionApprove, wantErr: ErrInvalidTransition},
		{name: "completed is terminal", from: StatusCompleted, action: ActionRequestChanges, wantErr: ErrInvalidTransition},
		{name: "legacy approved is terminal", from: StatusApproved, action: ActionApprove, wantErr: ErrInvalidTransition},
		{name: "unknown action", from: StatusSubmitted, action: "close", wantErr: ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.from, tt.action)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	for _, s := range Statuses {
		var hasExit bool
		for action := range rules {
			if _, err := Next(s, action); err == nil {
				hasExit = true
			}
		}
		assert.Equal(t, s.IsTerminal(), !hasExit, s)
	}
}

func TestActions(t *testing.T) {
	student := user.User{ID: "s1", Role: user.RoleStudent}
	dsw := user.User{ID: "d1", Role: user.RoleDSWAdmin}
	dept := user.User{ID: "p1", Role: user.RoleDeptAdmin}
	otherDept := user.User{ID: "p2", Role: user.RoleDeptAdmin}

	tests := []struct {
		name   string
		actor  user.User
		report Report
		want   []Action
	}{
		{name: "student never acts", actor: student, report: Report{Status: StatusSubmitted, StudentID: student.ID}},
		{name: "DSW assigns submitted", actor: dsw, report: Report{Status: StatusSubmitted}, want: []Action{ActionAssign}},
		{name: "dept cannot assign", actor: dept, report: Report{Status: StatusSubmitted}},
		{
			name: "assignee accepts", actor: dept, want: []Action{ActionAccept},
			report: Report{Status: StatusAssignedToDepartment, AssignedToID: dept.ID},
		},
		{name: "other dept cannot accept", actor: otherDept, report: Report{Status: StatusAssignedToDepartment, AssignedToID: dept.ID}},
		{
			name: "assignee resolves", actor: dept, want: []Action{ActionResolve},
			report: Report{Status: StatusInProgress, AssignedToID: dept.ID},
		},
		{
			name: "DSW reviews resolution", actor: dsw, want: []Action{ActionApprove, ActionRequestChanges},
			report: Report{Status: StatusResolved, AssignedToID: dept.ID},
		},
		{name: "nothing after completion", actor: dsw, report: Report{Status: StatusCompleted, AssignedToID: dept.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Actions(tt.actor, tt.report))
		})
	}
}
