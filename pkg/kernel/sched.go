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
	"gvisor.dev/gvisor/pkg/log"

	"ferrite.dev/ferrite/pkg/trap"
)

// The scheduler: strict FIFO round-robin over the ready collection, driven
// by the timer interrupt. No priorities.
//
// The state machine over TaskState:
//
//	Ready -> Running            selection
//	Running -> Ready            quantum expiry or yield
//	Running -> Blocked          voluntary wait
//	Running -> Terminated       exit (absorbing)
//	Blocked -> Ready            external wake
//
// Exactly one task is Running at any time; the current task is never also
// present in the ready collection. Ready-collection mutation happens under
// a DAIF critical section (see the nested-interrupt note in DESIGN.md).

// popFront removes and returns the head of the ready collection, or nil.
// Caller holds the DAIF critical section.
func (k *Kernel) popFront() *Task {
	e := k.runQueue.Front()
	if e == nil {
		return nil
	}
	k.runQueue.Remove(e)
	return e.(*Task)
}

// Start selects the first task to run and writes its state into ctx, which
// the boot path hands to the context-restore step. Fatal if nothing is
// runnable.
func (k *Kernel) Start(ctx *trap.Context) {
	flags := trap.DisableInterrupts()
	t := k.popFront()
	trap.RestoreInterrupts(flags)
	if t == nil {
		k.fatal(nil, "sched: nothing to run at boot")
		return
	}
	t.state = TaskRunning
	t.quantum = k.quantum
	k.current = t
	t.restoreInto(ctx)
	log.Infof("sched: starting %q (tid %d)", t.name, t.id)
}

// Current returns the running task, nil before Start.
func (k *Kernel) Current() *Task {
	return k.current
}

// tick is invoked from the IRQ path on every timer interrupt. It decrements
// the running task's quantum and rotates on expiry.
func (k *Kernel) tick(ctx *trap.Context) {
	k.sched.Ticks.Add(1)
	t := k.current
	if t == nil {
		k.fatal(ctx, "sched: timer tick with no running task")
		return
	}
	if t.quantum > 0 {
		t.quantum--
	}
	if t.quantum > 0 {
		return
	}
	if k.rotate(ctx, TaskReady) {
		k.sched.Preemptions.Add(1)
	}
}

// rotate moves the current task off the CPU with the given next state and
// installs the head of the ready collection into ctx. If the ready
// collection is empty the current task simply continues with a fresh
// quantum and rotate reports false: a lone runnable context must not be
// copied out and back (its live state is already in ctx).
func (k *Kernel) rotate(ctx *trap.Context, state TaskState) bool {
	out := k.current
	flags := trap.DisableInterrupts()
	if k.runQueue.Empty() {
		trap.RestoreInterrupts(flags)
		out.quantum = k.quantum
		return false
	}
	out.captureFrom(ctx)
	out.state = state
	k.runQueue.PushBack(out)
	in := k.popFront()
	trap.RestoreInterrupts(flags)

	k.install(ctx, in)
	return true
}

// install makes in the Running task and stages its context for restore.
func (k *Kernel) install(ctx *trap.Context, in *Task) {
	in.state = TaskRunning
	in.quantum = k.quantum
	k.current = in
	in.restoreInto(ctx)
	k.sched.Switches.Add(1)
}

// yield reschedules voluntarily: the current task goes to the tail of the
// ready collection. With an empty ready collection it just keeps running.
func (k *Kernel) yield(ctx *trap.Context) {
	k.sched.Yields.Add(1)
	k.rotate(ctx, TaskReady)
}

// block parks the current task as Blocked and switches to the next runnable
// task. Fatal if nothing else is runnable: with no wake source, a lone
// blocked task is a hung machine.
func (k *Kernel) block(ctx *trap.Context) {
	out := k.current
	flags := trap.DisableInterrupts()
	next := k.popFront()
	trap.RestoreInterrupts(flags)
	if next == nil {
		k.fatal(ctx, "sched: last runnable task %q blocked", out.name)
		return
	}
	k.sched.Blocks.Add(1)
	out.captureFrom(ctx)
	out.state = TaskBlocked
	k.install(ctx, next)
}

// Unblock moves a Blocked task back to the tail of the ready collection.
// The wake mechanism (IPC, device completion) is external to this core.
func (k *Kernel) Unblock(t *Task) {
	if t.state != TaskBlocked {
		return
	}
	k.sched.Wakes.Add(1)
	t.state = TaskReady
	k.enqueue(t)
}

// exit terminates the current task and switches to the next runnable one.
// The terminated task is only detached; its storage is the owner's to
// reclaim. Fatal if the ready collection is empty.
func (k *Kernel) exit(ctx *trap.Context, code uint64) {
	out := k.current
	flags := trap.DisableInterrupts()
	next := k.popFront()
	trap.RestoreInterrupts(flags)

	out.state = TaskTerminated
	k.current = nil
	k.sched.Exits.Add(1)
	log.Infof("sched: task %q (tid %d) exited with code %d", out.name, out.id, code)

	if next == nil {
		k.fatal(ctx, "sched: ready collection empty after exit of %q", out.name)
		return
	}
	k.install(ctx, next)
}
