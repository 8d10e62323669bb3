// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import (
	"code.hybscloud.com/kont"
)

// Send is the effect operation for writing a payload into the region.
// Perform(Send{Value: v}) hands v to the peer.
//
// On a requester it waits for ReadyForRequest and posts RequestPending;
// when v is the sentinel the endpoint is Done afterwards.
// On a responder it posts ReadyForResponse.
type Send struct {
	kont.Phantom[struct{}]
	Value string
}

// DispatchSession handles Send on the shared region.
func (s Send) DispatchSession(ctx *sessionContext) (kont.Resumed, error) {
	var err error
	if ctx.role == RoleRequester {
		err = ctx.sendRequest(s.Value)
	} else {
		err = ctx.sendResponse(s.Value)
	}
	if err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// Recv is the effect operation for reading the peer's payload.
// Perform(Recv{}) resumes with the text found in the region.
//
// On a requester it waits for ReadyForResponse and returns the turn with
// ReadyForRequest. On a responder it waits for RequestPending and keeps
// the turn until the matching Send.
type Recv struct {
	kont.Phantom[string]
}

// DispatchSession handles Recv on the shared region.
func (Recv) DispatchSession(ctx *sessionContext) (kont.Resumed, error) {
	var (
		s   string
		err error
	)
	if ctx.role == RoleRequester {
		s, err = ctx.recvResponse()
	} else {
		s, err = ctx.recvRequest()
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Close is the effect operation for finishing the session.
// Perform(Close{}) moves the endpoint to Done. Never blocks.
// Shared objects are released by [Endpoint.Close].
type Close struct {
	kont.Phantom[struct{}]
}

// DispatchSession handles Close.
func (Close) DispatchSession(ctx *sessionContext) (kont.Resumed, error) {
	ctx.state = StateDone
	return struct{}{}, nil
}
