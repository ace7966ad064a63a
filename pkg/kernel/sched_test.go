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

func TestStartEmpty(t *testing.T) {
	m := newTestMachine(t, Options{})
	var ctx trap.Context
	m.k.Start(&ctx)
	if m.hooks.halts != 1 {
		t.Errorf("halts = %d, want 1 for an empty boot", m.hooks.halts)
	}
}

func TestStartInstallsFirstSpawned(t *testing.T) {
	m := newTestMachine(t, Options{})
	a := m.spawn(t, "a", 0x1000)
	m.spawn(t, "b", 0x2000)

	var ctx trap.Context
	m.k.Start(&ctx)
	if m.k.Current() != a {
		t.Fatalf("Current() = %v, want first spawned task", m.k.Current())
	}
	if a.State() != TaskRunning {
		t.Errorf("a.State() = %v, want Running", a.State())
	}
	if ctx.Pc != 0x1000 || ctx.Sp != a.stacks.User {
		t.Errorf("boot frame pc=%#x sp=%#x, want a's entry and user stack", ctx.Pc, ctx.Sp)
	}
	if ctx.Pstate != trap.UserFlagsSet {
		t.Errorf("boot pstate = %#x, want lower-ring flags %#x", ctx.Pstate, trap.UserFlagsSet)
	}
}

// TestPreemptionRotation runs two tasks with a quantum of one tick and
// checks the rotation order across three expiries: a, b, then a again.
func TestPreemptionRotation(t *testing.T) {
	m := newTestMachine(t, Options{Quantum: 1})
	a := m.spawn(t, "a", 0x1000)
	b := m.spawn(t, "b", 0x2000)

	var ctx trap.Context
	m.k.Start(&ctx)

	want := []*Task{b, a, b}
	for i, next := range want {
		prev := m.k.Current()
		m.timerTick(&ctx)
		if m.k.Current() != next {
			t.Fatalf("tick %d: Current() = %q, want %q", i, m.k.Current().Name(), next.Name())
		}
		if prev.State() != TaskReady {
			t.Errorf("tick %d: preempted task state = %v, want Ready", i, prev.State())
		}
		if ctx.Pc != next.ctx.Pc {
			t.Errorf("tick %d: frame pc = %#x, want %#x", i, ctx.Pc, next.ctx.Pc)
		}
	}

	s := m.k.SchedSnapshot()
	if s.Ticks != 3 || s.Preemptions != 3 || s.Switches != 3 {
		t.Errorf("stats = ticks %d preemptions %d switches %d, want 3/3/3",
			s.Ticks, s.Preemptions, s.Switches)
	}
}

// TestQuantumSpansTicks checks a task is preempted only after its full
// quantum, not on every tick.
func TestQuantumSpansTicks(t *testing.T) {
	m := newTestMachine(t, Options{Quantum: 3})
	a := m.spawn(t, "a", 0x1000)
	b := m.spawn(t, "b", 0x2000)

	var ctx trap.Context
	m.k.Start(&ctx)

	m.timerTick(&ctx)
	m.timerTick(&ctx)
	if m.k.Current() != a {
		t.Fatalf("preempted after %d ticks, quantum is 3", 2)
	}
	m.timerTick(&ctx)
	if m.k.Current() != b {
		t.Fatalf("not preempted after a full quantum")
	}
	if got := m.k.SchedSnapshot().Preemptions; got != 1 {
		t.Errorf("Preemptions = %d, want 1", got)
	}
}

// TestFairness runs N tasks through N*rounds expiries and checks every task
// gets exactly the same number of turns.
func TestFairness(t *testing.T) {
	const n, rounds = 5, 4
	m := newTestMachine(t, Options{Quantum: 1})
	tasks := make([]*Task, n)
	for i := range tasks {
		tasks[i] = m.spawn(t, "worker", uint64(0x1000*(i+1)))
	}

	var ctx trap.Context
	m.k.Start(&ctx)

	turns := make(map[*Task]int)
	for i := 0; i < n*rounds; i++ {
		turns[m.k.Current()]++
		m.timerTick(&ctx)
	}
	for i, task := range tasks {
		if turns[task] != rounds {
			t.Errorf("task %d got %d turns, want %d", i, turns[task], rounds)
		}
	}
}

// TestLoneTaskTick checks the no-copy fast path: with an empty ready
// collection a quantum expiry must not capture or restore the running
// context, only reset the quantum.
func TestLoneTaskTick(t *testing.T) {
	m := newTestMachine(t, Options{Quantum: 1})
	a := m.spawn(t, "a", 0x1000)

	var ctx trap.Context
	m.k.Start(&ctx)

	saved := a.ctx
	ctx.Regs[5] = 0xfeedface // live-only state, must survive untouched
	for i := 0; i < 5; i++ {
		m.timerTick(&ctx)
	}

	if m.k.Current() != a {
		t.Fatalf("lone task descheduled")
	}
	if a.quantum != m.k.quantum {
		t.Errorf("quantum = %d, want reset to %d", a.quantum, m.k.quantum)
	}
	if ctx.Regs[5] != 0xfeedface {
		t.Errorf("live frame mutated by lone-task expiry")
	}
	if diff := cmp.Diff(saved, a.ctx); diff != "" {
		t.Errorf("stale snapshot rewritten (-want +got):\n%s", diff)
	}
	s := m.k.SchedSnapshot()
	if s.Ticks != 5 || s.Switches != 0 || s.Preemptions != 0 {
		t.Errorf("stats = ticks %d switches %d preemptions %d, want 5/0/0",
			s.Ticks, s.Switches, s.Preemptions)
	}
}

func TestTickWithoutCurrent(t *testing.T) {
	m := newTestMachine(t, Options{})
	var ctx trap.Context
	m.k.tick(&ctx)
	if m.hooks.halts != 1 {
		t.Errorf("halts = %d, want 1 for a tick before Start", m.hooks.halts)
	}
}

// TestSwitchPreservesContext checks a full out-and-back rotation restores
// the first task's registers exactly.
func TestSwitchPreservesContext(t *testing.T) {
	m := newTestMachine(t, Options{Quantum: 1})
	a := m.spawn(t, "a", 0x1000)
	m.spawn(t, "b", 0x2000)

	var ctx trap.Context
	m.k.Start(&ctx)
	for i := range ctx.Regs {
		ctx.Regs[i] = 0x1234_0000 + uint64(i)
	}
	ctx.Pstate = trap.UserFlagsSet
	want := ctx

	m.timerTick(&ctx) // a -> b
	m.timerTick(&ctx) // b -> a
	if m.k.Current() != a {
		t.Fatalf("rotation did not come back to a")
	}
	if diff := cmp.Diff(want, ctx); diff != "" {
		t.Errorf("context lost across a switch cycle (-want +got):\n%s", diff)
	}
}

func TestBlockAndUnblock(t *testing.T) {
	m := newTestMachine(t, Options{})
	a := m.spawn(t, "a", 0x1000)
	b := m.spawn(t, "b", 0x2000)

	var ctx trap.Context
	m.k.Start(&ctx)

	m.k.block(&ctx)
	if a.State() != TaskBlocked {
		t.Errorf("a.State() = %v, want Blocked", a.State())
	}
	if m.k.Current() != b {
		t.Fatalf("block did not install b")
	}

	// A blocked task must not come back on its own.
	m.timerTick(&ctx)
	if m.k.Current() != b {
		t.Fatalf("blocked task was scheduled")
	}

	m.k.Unblock(a)
	if a.State() != TaskReady {
		t.Errorf("a.State() = %v after Unblock, want Ready", a.State())
	}
	// Unblock of a non-blocked task is a no-op.
	m.k.Unblock(b)

	m.k.yield(&ctx)
	if m.k.Current() != a {
		t.Fatalf("woken task not scheduled after yield")
	}

	s := m.k.SchedSnapshot()
	if s.Blocks != 1 || s.Wakes != 1 {
		t.Errorf("stats = blocks %d wakes %d, want 1/1", s.Blocks, s.Wakes)
	}
}

func TestBlockLastRunnable(t *testing.T) {
	m := newTestMachine(t, Options{})
	_, ctx := startOne(t, m)
	m.k.block(ctx)
	if m.hooks.halts != 1 {
		t.Errorf("halts = %d, want 1 when the last runnable task blocks", m.hooks.halts)
	}
}
