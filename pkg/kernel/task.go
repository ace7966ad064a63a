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
	"gvisor.dev/gvisor/pkg/ilist"

	"ferrite.dev/ferrite/pkg/trap"
)

// TaskID identifies a task.
type TaskID int32

// TaskState is the scheduling state of a task.
type TaskState uint8

const (
	// TaskReady: eligible to run, present in the ready collection.
	TaskReady TaskState = iota

	// TaskRunning: the one task owning the CPU.
	TaskRunning

	// TaskBlocked: waiting on an external wake.
	TaskBlocked

	// TaskTerminated: absorbing; storage is reclaimed by the owner.
	TaskTerminated
)

// String implements fmt.Stringer.String.
func (s TaskState) String() string {
	switch s {
	case TaskReady:
		return "Ready"
	case TaskRunning:
		return "Running"
	case TaskBlocked:
		return "Blocked"
	case TaskTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// StackPair is the pair of initial stack pointers for a task, one per
// privilege ring. The kernel stack is never exposed to the lower ring: it
// exists only in the Task, and nothing on the syscall or fault path copies
// it into the restorable context of a lower-ring task.
type StackPair struct {
	// Kernel is the higher-ring stack top (SP_EL1 while servicing this
	// task's traps).
	Kernel uint64

	// User is the lower-ring stack top (SP_EL0).
	User uint64
}

// Task is one logical execution context. It owns a saved machine-state
// snapshot, a privilege tag, the per-ring stack pointers, a scheduling
// state and a remaining quantum.
//
// Task embeds ilist.Entry so the scheduler can link it into the ready
// collection without allocation.
type Task struct {
	ilist.Entry

	id   TaskID
	name string

	// ctx is the saved register snapshot. Valid only while the task is
	// not Running; the Running task's state lives in the machine (and in
	// the live trap frame during a trap). Its Pstate mode field is the
	// task's privilege tag.
	ctx trap.Context

	// stacks are the per-ring stack pointers.
	stacks StackPair

	state   TaskState
	quantum uint32
}

// ID returns the task ID.
func (t *Task) ID() TaskID {
	return t.id
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// State returns the scheduling state.
func (t *Task) State() TaskState {
	return t.state
}

// KernelStack returns the higher-ring stack pointer. Kernel-internal
// consumers only; no syscall exposes this value.
func (t *Task) KernelStack() uint64 {
	return t.stacks.Kernel
}

// captureFrom snapshots a live trap frame into the task.
func (t *Task) captureFrom(ctx *trap.Context) {
	t.ctx = *ctx
}

// restoreInto copies the task's saved snapshot over a live trap frame, so
// the next exception return resumes this task.
func (t *Task) restoreInto(ctx *trap.Context) {
	*ctx = t.ctx
}

// SpawnUser creates a lower-ring task. The saved snapshot is prepared so the
// first restore lands at entry, on the user stack, in user mode: the next
// exception return is the privilege-ring transition. The task joins the tail
// of the ready collection.
//
// All tasks run in the lower ring. The kernel ring hosts no schedulable
// contexts: the restore path switches stacks through SP_EL0 only, so a
// kernel-target frame always resumes the interrupted kernel code itself.
func (k *Kernel) SpawnUser(name string, entry uint64, stacks StackPair) *Task {
	t := &Task{
		id:      k.allocID(),
		name:    name,
		stacks:  stacks,
		state:   TaskReady,
		quantum: k.quantum,
	}
	t.ctx.Pc = entry
	t.ctx.Sp = stacks.User
	t.ctx.Pstate = trap.UserFlagsSet
	k.enqueue(t)
	return t
}

func (k *Kernel) allocID() TaskID {
	id := k.nextID
	k.nextID++
	return id
}

// enqueue appends t to the ready collection under the queue discipline.
func (k *Kernel) enqueue(t *Task) {
	flags := trap.DisableInterrupts()
	k.runQueue.PushBack(t)
	trap.RestoreInterrupts(flags)
}
