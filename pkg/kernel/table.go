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

// Ferrite is the default syscall table. Sparse: number 3 is unallocated and
// dispatches to ENOSYS like every other hole.
var Ferrite = &SyscallTable{
	Table: map[uint16]Syscall{
		0: Supported("getpid", sysGetpid),
		1: Supported("uptime", sysUptime),
		2: Supported("yield", sysYield),
		4: Supported("exit", sysExit),
		5: Supported("kwrite", sysKwrite),
	},
}

// sysGetpid returns the caller's task ID.
func sysGetpid(k *Kernel, t *Task, args SyscallArguments) (uint64, *SyscallControl, error) {
	return uint64(t.ID()), nil, nil
}

// sysUptime returns elapsed timer ticks since boot, from the timer
// collaborator.
func sysUptime(k *Kernel, t *Task, args SyscallArguments) (uint64, *SyscallControl, error) {
	return k.timer.ElapsedTicks(), nil, nil
}

// sysYield gives up the remainder of the quantum.
func sysYield(k *Kernel, t *Task, args SyscallArguments) (uint64, *SyscallControl, error) {
	return 0, &SyscallControl{Yield: true}, nil
}

// sysExit terminates the caller. It never returns to the caller; the
// written return value is unobservable.
func sysExit(k *Kernel, t *Task, args SyscallArguments) (uint64, *SyscallControl, error) {
	return 0, &SyscallControl{Exit: true, ExitCode: args[0].Uint64()}, nil
}

// sysKwrite writes one byte to the diagnostic console. The argument must be
// a byte value; anything wider fails validation. Tasks have no mapped
// shared memory yet, so kwrite is the lower ring's only output path.
func sysKwrite(k *Kernel, t *Task, args SyscallArguments) (uint64, *SyscallControl, error) {
	c := args[0].Uint64()
	if c > 0xff {
		return 0, nil, EINVAL
	}
	if k.console == nil {
		return 0, nil, ENODEV
	}
	if err := k.console.WriteByte(byte(c)); err != nil {
		return 0, nil, EIO
	}
	return 1, nil, nil
}
