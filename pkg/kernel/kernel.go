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

// Package kernel implements the trap-driven core of the kernel: exception
// handlers, the system-call dispatcher, the task/privilege manager and the
// round-robin scheduler.
//
// All mutable state lives in a single Kernel object constructed once at
// boot and installed as the trap.Handler. There are no package-level
// globals; mutation happens only inside the handler entry points, which the
// hardware serializes (same/lower-priority traps stay masked for the
// duration of a handler).
package kernel

import (
	"fmt"

	"gvisor.dev/gvisor/pkg/ilist"
	"gvisor.dev/gvisor/pkg/log"

	"ferrite.dev/ferrite/pkg/trap"
)

// SourceID identifies an interrupt source, as reported by the interrupt
// controller.
type SourceID uint32

// IRQController is the interrupt-controller collaborator. The kernel only
// consumes identification and acknowledgement; source enumeration and
// priority live in the driver.
type IRQController interface {
	// AckAndIdentify acknowledges the highest-priority pending interrupt
	// and returns its source.
	AckAndIdentify() SourceID
}

// Timer is the system-timer collaborator.
type Timer interface {
	// ElapsedTicks returns the number of timer ticks since boot.
	ElapsedTicks() uint64
}

// ConsoleWriter is the diagnostic byte sink used by the kwrite syscall.
type ConsoleWriter interface {
	WriteByte(c byte) error
}

// Hooks are the escalation points of the kernel. The default implementation
// halts the processor; tests substitute a recorder.
type Hooks interface {
	// Halt stops the machine after a fatal report. It should not return;
	// if it does (tests), the handler unwinds without further action.
	Halt()
}

// DefaultQuantum is the number of timer ticks a task runs before mandatory
// preemption, unless Options overrides it.
const DefaultQuantum = 10

// Options configures a Kernel. IRQ, Timer and Hooks are required.
type Options struct {
	// Hooks receives fatal escalations.
	Hooks Hooks

	// IRQ is the interrupt controller.
	IRQ IRQController

	// Timer is the system timer. TimerSource is its interrupt source ID.
	Timer       Timer
	TimerSource SourceID

	// Console, if set, backs the kwrite syscall. A nil console makes
	// kwrite fail with ENODEV.
	Console ConsoleWriter

	// Quantum is the scheduling quantum in ticks; 0 means DefaultQuantum.
	Quantum uint32

	// Table is the syscall table; nil means the default Ferrite table.
	Table *SyscallTable
}

// Kernel is the process-wide state object. It is constructed once at boot,
// installed via trap.Install, and owns every piece of mutable trap-path
// state: statistics, the ready queue and the running task.
//
// Kernel implements trap.Handler.
type Kernel struct {
	hooks       Hooks
	irq         IRQController
	timer       Timer
	console     ConsoleWriter
	timerSource SourceID
	quantum     uint32
	table       *SyscallTable

	// exc and sched are the statistics families. Incremented only by the
	// owning handlers; everyone else reads snapshots.
	exc   ExceptionStats
	sched SchedStats

	// runQueue is the ready collection: Tasks eligible to run, in strict
	// FIFO order. Mutated only under a DAIF critical section.
	runQueue ilist.List

	// current is the one Running task, nil only mid-switch or before
	// Start.
	current *Task

	// nextID feeds Task IDs.
	nextID TaskID
}

// New creates a Kernel. It does not install it; the boot path calls
// trap.Install(k) followed by trap.Init once spawning is done.
func New(opts Options) (*Kernel, error) {
	if opts.Hooks == nil || opts.IRQ == nil || opts.Timer == nil {
		return nil, fmt.Errorf("kernel: Hooks, IRQ and Timer are required")
	}
	quantum := opts.Quantum
	if quantum == 0 {
		quantum = DefaultQuantum
	}
	table := opts.Table
	if table == nil {
		table = Ferrite
	}
	return &Kernel{
		hooks:       opts.Hooks,
		irq:         opts.IRQ,
		timer:       opts.Timer,
		console:     opts.Console,
		timerSource: opts.TimerSource,
		quantum:     quantum,
		table:       table,
		nextID:      1,
	}, nil
}

// ExceptionSnapshot returns a read-only copy of the exception counters.
func (k *Kernel) ExceptionSnapshot() ExceptionSnapshot {
	return k.exc.snapshot()
}

// SchedSnapshot returns a read-only copy of the scheduler counters.
func (k *Kernel) SchedSnapshot() SchedSnapshot {
	return k.sched.snapshot()
}

// fatal produces the full register/context report through the diagnostic
// output path and halts. Correctness over availability: nothing continues
// after an unclassified trap.
func (k *Kernel) fatal(ctx *trap.Context, format string, args ...any) {
	log.Warningf("FATAL: "+format, args...)
	if ctx != nil {
		log.Warningf("%v", ctx)
	}
	k.hooks.Halt()
}
