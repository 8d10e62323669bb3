// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

//go:generate go tool stringer -type=Phase -trimprefix=Phase
//go:generate go tool stringer -type=State -trimprefix=State

// Phase is the protocol phase carried by the baton.
// Exactly one party is eligible to act in each phase; see [Phase.Actor].
type Phase uint16

const (
	// PhaseReadyForRequest: the requester may write a request.
	PhaseReadyForRequest Phase = iota
	// PhaseRequestPending: a request is in the region for the responder.
	PhaseRequestPending
	// PhaseReadyForResponse: a response is in the region for the requester.
	PhaseReadyForResponse
	// PhaseResponsePending: the responder holds the turn and owes a response.
	// No semaphore carries this phase; it is the gap between taking
	// RequestPending and posting ReadyForResponse.
	PhaseResponsePending
)

// phaseSlots is the number of phases backed by a kernel semaphore.
const phaseSlots = int(PhaseResponsePending)

// posted reports whether p is represented by a semaphore in the baton set.
func (p Phase) posted() bool {
	return int(p) < phaseSlots
}

// Next returns the phase the holder of p hands the turn to.
func (p Phase) Next() Phase {
	switch p {
	case PhaseReadyForRequest:
		return PhaseRequestPending
	case PhaseRequestPending, PhaseResponsePending:
		return PhaseReadyForResponse
	default:
		return PhaseReadyForRequest
	}
}

// Actor returns the only role allowed to act while p is current.
func (p Phase) Actor() Role {
	switch p {
	case PhaseRequestPending, PhaseResponsePending:
		return RoleResponder
	default:
		return RoleRequester
	}
}

// Role selects which side of the channel an endpoint plays.
type Role uint8

const (
	RoleRequester Role = iota
	RoleResponder
)

func (r Role) String() string {
	if r == RoleResponder {
		return "responder"
	}
	return "requester"
}

// State is the position of an endpoint in its role's state machine.
//
// Requester: Idle → AwaitingTurn → WritingRequest → AwaitingResponse →
// ReadingResponse → Idle, or WritingRequest → Done after the sentinel.
//
// Responder: Idle → ReadingRequest → Computing → WritingResponse → Idle,
// or ReadingRequest → Terminating → Done after the sentinel.
type State uint8

const (
	StateIdle State = iota
	StateAwaitingTurn
	StateWritingRequest
	StateAwaitingResponse
	StateReadingResponse
	StateReadingRequest
	StateComputing
	StateWritingResponse
	StateTerminating
	StateDone
)
