// Package guard is the pure authorization check for recovery transitions. It
// maps (operation, caller, participants, current status) to an allow/deny
// decision with a specific reason. No I/O: the service evaluates it before
// invoking an atomic operation so callers get a precise fast-failing error,
// and the atomic operation independently re-verifies state because this read
// can be stale by the time the mutation executes.
package guard

import (
	"discrescue/internal/recovery/models"
	id "discrescue/pkg/domain"
)

// Operation names a recovery transition for authorization purposes.
type Operation string

const (
	OpProposeMeetup    Operation = "propose-meetup"
	OpAcceptMeetup     Operation = "accept-meetup"
	OpCreateDropOff    Operation = "create-drop-off"
	OpCompleteRecovery Operation = "complete-recovery"
	OpMarkRetrieved    Operation = "mark-retrieved"
	OpAbandon          Operation = "abandon-disc"
	OpSurrender        Operation = "surrender-disc"
	OpRelinquish       Operation = "relinquish-disc"
)

// Reason explains a denial.
type Reason string

const (
	ReasonNotParticipant Reason = "not_participant"
	ReasonWrongRole      Reason = "wrong_role"
	ReasonWrongState     Reason = "wrong_state"
)

// Decision is the guard verdict. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Reason: r} }

// role requirements per operation. ownerOnly/finderOnly are exclusive; when
// both are false either participant may act.
var rules = map[Operation]struct {
	ownerOnly  bool
	finderOnly bool
	states     []models.Status
}{
	OpProposeMeetup:    {states: []models.Status{models.StatusFound, models.StatusMeetupProposed}},
	OpAcceptMeetup:     {ownerOnly: true, states: []models.Status{models.StatusMeetupProposed}},
	OpCreateDropOff:    {finderOnly: true, states: []models.Status{models.StatusFound}},
	OpCompleteRecovery: {states: []models.Status{models.StatusMeetupConfirmed}},
	OpMarkRetrieved:    {ownerOnly: true, states: []models.Status{models.StatusDroppedOff}},
	OpAbandon:          {ownerOnly: true, states: []models.Status{models.StatusFound, models.StatusMeetupProposed, models.StatusMeetupConfirmed}},
	OpSurrender:        {ownerOnly: true, states: []models.Status{models.StatusFound}},
	OpRelinquish:       {ownerOnly: true, states: []models.Status{models.StatusMeetupConfirmed, models.StatusDroppedOff}},
}

// Check evaluates the transition table for an existing recovery event.
// Participation is checked before role and role before state, so an unrelated
// third user is always denied as not_participant regardless of status.
func Check(op Operation, caller id.UserID, event *models.RecoveryEvent) Decision {
	rule, ok := rules[op]
	if !ok {
		return deny(ReasonWrongRole)
	}

	if !event.IsParticipant(caller) {
		return deny(ReasonNotParticipant)
	}
	if rule.ownerOnly && caller != event.OwnerID {
		return deny(ReasonWrongRole)
	}
	if rule.finderOnly && caller != event.FinderID {
		return deny(ReasonWrongRole)
	}

	for _, s := range rule.states {
		if event.Status == s {
			return allow()
		}
	}
	return deny(ReasonWrongState)
}
