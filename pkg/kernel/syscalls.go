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

	"ferrite.dev/ferrite/pkg/esr"
	"ferrite.dev/ferrite/pkg/trap"
)

// Syscall convention: the call number is the SVC immediate, arguments travel
// in the first eight saved general-purpose registers, the result is written
// back into saved x0 only. A bad number or bad argument is the caller's
// problem, reported through the return register; it is never fatal to the
// kernel.

// SyscallArgument is one argument register of a service call.
type SyscallArgument struct {
	Value uint64
}

// Uint64 returns the argument as a uint64.
func (a SyscallArgument) Uint64() uint64 {
	return a.Value
}

// Int returns the argument as an int.
func (a SyscallArgument) Int() int {
	return int(a.Value)
}

// SyscallArguments are the eight argument registers, by convention.
type SyscallArguments [8]SyscallArgument

// SyscallControl lets a syscall drive the scheduler after its result is
// written back.
type SyscallControl struct {
	// Yield reschedules: the caller resumes later, after its turn comes
	// round again.
	Yield bool

	// Block parks the caller until an external wake.
	Block bool

	// Exit terminates the caller; ExitCode is its exit status.
	Exit     bool
	ExitCode uint64
}

// SyscallFn is the signature of a syscall implementation.
type SyscallFn func(k *Kernel, t *Task, args SyscallArguments) (uint64, *SyscallControl, error)

// Syscall is one allocated syscall number.
type Syscall struct {
	// Name is the syscall name, for diagnostics.
	Name string

	// Fn is the implementation.
	Fn SyscallFn
}

// Supported returns a table entry for an implemented syscall.
func Supported(name string, fn SyscallFn) Syscall {
	return Syscall{Name: name, Fn: fn}
}

// Error returns a table entry that always fails with err.
func Error(name string, err Errno) Syscall {
	return Syscall{
		Name: name,
		Fn: func(_ *Kernel, t *Task, _ SyscallArguments) (uint64, *SyscallControl, error) {
			logUnimplemented(t, name)
			return 0, nil, err
		},
	}
}

// SyscallTable maps allocated numbers to operations. The table is sparse;
// lookups of unallocated numbers fail closed.
type SyscallTable struct {
	Table map[uint16]Syscall
}

// Lookup returns the syscall for nr.
func (s *SyscallTable) Lookup(nr uint16) (Syscall, bool) {
	sc, ok := s.Table[nr]
	return sc, ok
}

// MaxSyscall returns the highest allocated number.
func (s *SyscallTable) MaxSyscall() uint16 {
	var max uint16
	for nr := range s.Table {
		if nr > max {
			max = nr
		}
	}
	return max
}

// doSyscall dispatches one decoded service call against the saved context.
// It mutates exactly one register slot of ctx (the return value) and,
// through SyscallControl, possibly the scheduler.
func (k *Kernel) doSyscall(ctx *trap.Context, cause esr.Cause) {
	t := k.current
	if t == nil {
		// No lower-ring code can run before Start; a syscall without a
		// current task means the boot sequence is broken.
		k.fatal(ctx, "syscall %d before the scheduler started", cause.Imm)
		return
	}
	sc, ok := k.table.Lookup(cause.Imm)
	if !ok {
		// Out-of-range or unallocated number: explicit error return,
		// nothing else happens.
		k.exc.InvalidSyscall.Add(1)
		ctx.SetSyscallReturn(errnoReturn(ENOSYS))
		return
	}

	var args SyscallArguments
	for i := range args {
		args[i].Value = ctx.Regs[i]
	}

	ret, ctl, err := sc.Fn(k, t, args)
	if err != nil {
		ctx.SetSyscallReturn(errorReturn(err))
	} else {
		ctx.SetSyscallReturn(ret)
	}

	if ctl == nil {
		return
	}
	switch {
	case ctl.Exit:
		k.exit(ctx, ctl.ExitCode)
	case ctl.Block:
		k.block(ctx)
	case ctl.Yield:
		k.yield(ctx)
	}
}

// logUnimplemented records a syscall that exists in name only.
func logUnimplemented(t *Task, name string) {
	if t != nil {
		log.Debugf("tid %d: unimplemented syscall %s", t.ID(), name)
	}
}
