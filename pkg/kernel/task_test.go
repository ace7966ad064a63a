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
	"testing"

	"github.com/google/go-cmp/cmp"

	"ferrite.dev/ferrite/pkg/trap"
)

func TestSpawnUser(t *testing.T) {
	m := newTestMachine(t, Options{})
	stacks := StackPair{Kernel: 0xffff_0000_0020_0000, User: 0x4000_0000}
	task := m.k.SpawnUser("init", 0x8_0000, stacks)

	if task.ID() != 1 {
		t.Errorf("ID = %d, want 1", task.ID())
	}
	if task.Name() != "init" {
		t.Errorf("Name = %q", task.Name())
	}
	if task.State() != TaskReady {
		t.Errorf("State = %v, want Ready", task.State())
	}
	if task.ctx.Pc != 0x8_0000 {
		t.Errorf("saved pc = %#x, want entry", task.ctx.Pc)
	}
	if task.ctx.Sp != stacks.User {
		t.Errorf("saved sp = %#x, want the user stack", task.ctx.Sp)
	}
	if task.ctx.Pstate != trap.UserFlagsSet {
		t.Errorf("saved pstate = %#x, want %#x", task.ctx.Pstate, trap.UserFlagsSet)
	}
	if !task.ctx.LowerRing() {
		t.Errorf("first restore would not land in the lower ring")
	}
	if task.KernelStack() != stacks.Kernel {
		t.Errorf("KernelStack = %#x", task.KernelStack())
	}
}

// TestInstalledFramesTargetLowerRing checks that every frame the scheduler
// stages for restore pairs a lower-ring pstate with that task's own user
// stack. The restore path moves the stack pointer through the lower-ring
// stack register only, so a switched-in frame targeting the kernel ring
// would resume on the wrong stack.
func TestInstalledFramesTargetLowerRing(t *testing.T) {
	m := newTestMachine(t, Options{Quantum: 1})
	tasks := make([]*Task, 3)
	for i := range tasks {
		tasks[i] = m.spawn(t, "worker", uint64(0x1000*(i+1)))
	}

	var ctx trap.Context
	m.k.Start(&ctx)
	for i := 0; i < 3*len(tasks); i++ {
		cur := m.k.Current()
		if !ctx.LowerRing() {
			t.Fatalf("step %d: staged pstate %#x targets the kernel ring", i, ctx.Pstate)
		}
		if ctx.Sp != cur.stacks.User {
			t.Fatalf("step %d: staged sp = %#x, want %q's user stack %#x",
				i, ctx.Sp, cur.Name(), cur.stacks.User)
		}
		m.timerTick(&ctx)
	}
}

func TestTaskIDsAreUnique(t *testing.T) {
	m := newTestMachine(t, Options{})
	seen := make(map[TaskID]bool)
	for i := 0; i < 10; i++ {
		task := m.spawn(t, "w", 0x1000)
		if seen[task.ID()] {
			t.Fatalf("duplicate task ID %d", task.ID())
		}
		seen[task.ID()] = true
	}
}

func TestCaptureRestoreRoundTrip(t *testing.T) {
	task := &Task{}
	var live trap.Context
	for i := range live.Regs {
		live.Regs[i] = 0xab00_0000 + uint64(i)
	}
	live.Sp, live.Pc, live.Pstate = 0x4000, 0x8000, trap.UserFlagsSet
	live.Esr, live.Far = 0x5600_0001, 0xdead

	task.captureFrom(&live)
	var restored trap.Context
	task.restoreInto(&restored)
	if diff := cmp.Diff(live, restored); diff != "" {
		t.Errorf("capture/restore round trip (-want +got):\n%s", diff)
	}
}

// TestKernelStackNeverRestorable checks the ring isolation property: at no
// point on the syscall or preemption path does a lower-ring task's
// restorable state come to hold the kernel stack pointer.
func TestKernelStackNeverRestorable(t *testing.T) {
	m := newTestMachine(t, Options{Quantum: 1})
	stacks := StackPair{Kernel: 0xffff_0000_0040_0000, User: 0x4000_0000}
	a := m.k.SpawnUser("a", 0x1000, stacks)
	m.spawn(t, "b", 0x2000)

	var ctx trap.Context
	m.k.Start(&ctx)

	check := func(step string) {
		t.Helper()
		if ctx.Sp == stacks.Kernel {
			t.Errorf("%s: live frame holds the kernel stack", step)
		}
		if a.ctx.Sp == stacks.Kernel {
			t.Errorf("%s: saved snapshot holds the kernel stack", step)
		}
	}

	check("after start")
	svc(m, &ctx, 0) // getpid
	check("after syscall")
	m.timerTick(&ctx) // a -> b
	check("after preemption out")
	m.timerTick(&ctx) // b -> a
	check("after preemption back")
	if ctx.Sp != stacks.User {
		t.Errorf("restored sp = %#x, want the user stack", ctx.Sp)
	}
	if !ctx.LowerRing() {
		t.Errorf("restored pstate leaves the lower ring")
	}
}

func TestTaskStateString(t *testing.T) {
	for s, want := range map[TaskState]string{
		TaskReady:      "Ready",
		TaskRunning:    "Running",
		TaskBlocked:    "Blocked",
		TaskTerminated: "Terminated",
		TaskState(99):  "Unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}
