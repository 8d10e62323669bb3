// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package shmsess provides a request/response channel between two local
// processes over a POSIX-style shared-memory region, with turns handed over
// by a System V semaphore "phase baton". Protocols are written as algebraic
// effects on [code.hybscloud.com/kont].
//
// # Architecture
//
//   - Region: a fixed-capacity named object under /dev/shm. [CreateOrAttach] sizes it once; [Region.Map] returns a [Buffer] that stores terminator-delimited text and zero-fills behind it.
//   - Baton: one semaphore per posted [Phase] and a single token. [Baton.WaitFor] takes the token in one kernel operation; [Baton.AdvanceTo] hands it on and refuses any transition the phase enumeration does not allow.
//   - Endpoint: [Open] joins a session as [RoleRequester] or [RoleResponder]. The winner of the baton creation race sizes and clears the region before posting the first token.
//   - Teardown: the responder observes the sentinel and owns destruction of both objects in [Endpoint.Close]; the requester only detaches. [Remove] cleans up after a crashed session.
//
// # API Topologies
//
//   - Operations: [Send], [Recv], [Close]. Their meaning follows the endpoint's role.
//   - Cont-world: [SendThen], [RecvBind], [CloseDone], [Request], [Hangup], [Requests], [Serve].
//   - Expr-world: [ExprSendThen], [ExprRecvBind], [ExprCloseDone], [ExprRequests], [ExprServe]. Bridge via [Reify] and [Reflect].
//   - Recursive: [Loop] and [ExprLoop] for trampoline-based iterative protocols.
//
// # Integration
//
//   - Blocking: [Exec], [ExecError] and their Expr variants wait in the kernel, bounded by [Config].Timeout.
//   - Stepping: [Step] and [Advance] (or [StepError]/[AdvanceError]) never block; [code.hybscloud.com/iox.ErrWouldBlock] means it is the peer's turn. [AdvanceWait] performs a single blocking step.
//   - In-process: [Run] interleaves both roles on one goroutine; [RunConcurrent] runs them on two.
//
// # Example
//
//	cfg := shmsess.DefaultConfig()
//	ep, err := shmsess.Open(cfg, shmsess.RoleResponder)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ep.Close()
//	n, err := shmsess.Exec(ep, shmsess.Serve(cfg.Sentinel, shmsess.Length))
package shmsess
