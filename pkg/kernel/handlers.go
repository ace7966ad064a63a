// Copyright 2025 The Ferrite Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kernel

import (
	"gvisor.dev/gvisor/pkg/hostarch"
	"gvisor.dev/gvisor/pkg/log"

	"ferrite.dev/ferrite/pkg/esr"
	"ferrite.dev/ferrite/pkg/fault"
	"ferrite.dev/ferrite/pkg/trap"
)

// The four logical handlers. Every handler fully classifies before acting;
// an unrecognized case increments a statistic and is routed to a tier,
// never dropped.

// HandleSync implements trap.Handler.HandleSync.
func (k *Kernel) HandleSync(ctx *trap.Context, origin trap.Origin) {
	k.exc.Sync.Add(1)

	// The kernel never runs on SP_EL0 and never hosts 32-bit tasks; traps
	// through those vector groups indicate corrupted state.
	if origin == trap.OriginCurrentSp0 || origin == trap.OriginLower32 {
		k.exc.UnhandledSync.Add(1)
		k.fatal(ctx, "sync exception from unsupported origin %v", origin)
		return
	}

	cause := esr.Decode(ctx.Esr)
	switch {
	case cause.Class == esr.ClassSVC64:
		if origin != trap.OriginLower64 {
			// A service call is the one sanctioned ring transition,
			// and it only exists from the lower ring. SVC out of
			// kernel code is a bug, not a syscall.
			k.exc.ProtectionViolations.Add(1)
			k.fatal(ctx, "SVC from the kernel ring (imm=%d)", cause.Imm)
			return
		}
		k.doSyscall(ctx, cause)

	case cause.Class == esr.ClassSVC32:
		k.exc.ProtectionViolations.Add(1)
		k.fatal(ctx, "32-bit SVC (imm=%d)", cause.Imm)

	case cause.IsAbort():
		k.handleMemoryFault(ctx, origin, cause)

	case cause.Class == esr.ClassIllegalState || cause.Class == esr.ClassERET:
		// Attempted ring transition outside the service-call path.
		k.exc.ProtectionViolations.Add(1)
		k.fatal(ctx, "privilege violation: %v from %v", cause, origin)

	default:
		// Recognized-but-unrouted and unrecognized causes end the same
		// way; the distinction is only in the report.
		k.exc.UnhandledSync.Add(1)
		k.fatal(ctx, "unhandled sync exception: %v from %v", cause, origin)
	}
}

// handleMemoryFault classifies an abort and escalates it. There is no
// resolver yet: a lower-ring fault is fatal to the faulting task, a
// kernel-ring fault is fatal to the machine.
func (k *Kernel) handleMemoryFault(ctx *trap.Context, origin trap.Origin, cause esr.Cause) {
	k.exc.MemoryFaults.Add(1)

	access := hostarch.AccessType{
		Read:    !cause.Write && !cause.IsInstructionAbort(),
		Write:   cause.Write,
		Execute: cause.IsInstructionAbort(),
	}
	f := fault.Classify(cause.FaultStatus, ctx.Far, access)

	if origin == trap.OriginLower64 {
		t := k.current
		if t == nil {
			k.fatal(ctx, "lower-ring %v before the scheduler started", f)
			return
		}
		log.Warningf("tid %d (%q): unresolvable %v at pc %#x", t.ID(), t.Name(), f, ctx.Pc)
		k.killCurrent(ctx)
		return
	}
	k.fatal(ctx, "kernel %v", f)
}

// killCurrent terminates the faulting task and schedules the next runnable
// one into ctx. Fatal if the machine is left with nothing to run.
func (k *Kernel) killCurrent(ctx *trap.Context) {
	out := k.current
	flags := trap.DisableInterrupts()
	next := k.popFront()
	trap.RestoreInterrupts(flags)

	out.state = TaskTerminated
	k.current = nil
	k.sched.Exits.Add(1)

	if next == nil {
		k.fatal(ctx, "sched: ready collection empty after killing %q", out.name)
		return
	}
	k.install(ctx, next)
}

// HandleIRQ implements trap.Handler.HandleIRQ. It acknowledges the source
// with the external controller and runs the scheduler on timer ticks;
// servicing any other device is the driver's job.
func (k *Kernel) HandleIRQ(ctx *trap.Context, origin trap.Origin) {
	k.exc.IRQ.Add(1)
	if origin == trap.OriginCurrentSp0 || origin == trap.OriginLower32 {
		// Same corruption test as HandleSync: these vector groups have
		// no legitimate producer.
		k.fatal(ctx, "IRQ from unsupported origin %v", origin)
		return
	}
	src := k.irq.AckAndIdentify()
	if src == k.timerSource {
		k.tick(ctx)
		return
	}
	k.exc.incSource(src)
}

// HandleFIQ implements trap.Handler.HandleFIQ. No fast-interrupt sources
// are in use; any FIQ is fatal.
func (k *Kernel) HandleFIQ(ctx *trap.Context, origin trap.Origin) {
	k.exc.FIQ.Add(1)
	k.fatal(ctx, "unexpected FIQ from %v", origin)
}

// HandleSError implements trap.Handler.HandleSError. SError signals an
// uncorrectable hardware-level error; always fatal.
func (k *Kernel) HandleSError(ctx *trap.Context, origin trap.Origin) {
	k.exc.SError.Add(1)
	k.fatal(ctx, "SError from %v: %v", origin, esr.Decode(ctx.Esr))
}
