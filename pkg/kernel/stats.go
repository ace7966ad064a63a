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
	"gvisor.dev/gvisor/pkg/atomicbitops"
)

// MaxTrackedIRQSources is the number of interrupt sources with individual
// counters; higher source IDs share the overflow counter.
const MaxTrackedIRQSources = 64

// ExceptionStats are the trap-path counters. Monotonic, incremented only by
// the owning handlers, safe against the limited nesting higher-priority
// traps can cause. Diagnostics read snapshots, never the live table.
type ExceptionStats struct {
	// Per-category entry counts.
	Sync   atomicbitops.Uint64
	IRQ    atomicbitops.Uint64
	FIQ    atomicbitops.Uint64
	SError atomicbitops.Uint64

	// UnhandledSync counts synchronous exceptions with no recognized
	// route. Always followed by a fatal report.
	UnhandledSync atomicbitops.Uint64

	// InvalidSyscall counts service calls with unallocated numbers.
	InvalidSyscall atomicbitops.Uint64

	// MemoryFaults counts classified aborts.
	MemoryFaults atomicbitops.Uint64

	// ProtectionViolations counts attempted ring transitions outside the
	// service-call path.
	ProtectionViolations atomicbitops.Uint64

	// Sources counts non-timer interrupts per source; SourceOverflow takes
	// IDs at or beyond MaxTrackedIRQSources.
	Sources        [MaxTrackedIRQSources]atomicbitops.Uint64
	SourceOverflow atomicbitops.Uint64
}

// incSource bumps the counter for one non-timer interrupt source.
func (s *ExceptionStats) incSource(src SourceID) {
	if src < MaxTrackedIRQSources {
		s.Sources[src].Add(1)
		return
	}
	s.SourceOverflow.Add(1)
}

// ExceptionSnapshot is a plain copy of ExceptionStats for diagnostics.
type ExceptionSnapshot struct {
	Sync                 uint64
	IRQ                  uint64
	FIQ                  uint64
	SError               uint64
	UnhandledSync        uint64
	InvalidSyscall       uint64
	MemoryFaults         uint64
	ProtectionViolations uint64
	Sources              [MaxTrackedIRQSources]uint64
	SourceOverflow       uint64
}

func (s *ExceptionStats) snapshot() ExceptionSnapshot {
	out := ExceptionSnapshot{
		Sync:                 s.Sync.Load(),
		IRQ:                  s.IRQ.Load(),
		FIQ:                  s.FIQ.Load(),
		SError:               s.SError.Load(),
		UnhandledSync:        s.UnhandledSync.Load(),
		InvalidSyscall:       s.InvalidSyscall.Load(),
		MemoryFaults:         s.MemoryFaults.Load(),
		ProtectionViolations: s.ProtectionViolations.Load(),
		SourceOverflow:       s.SourceOverflow.Load(),
	}
	for i := range s.Sources {
		out.Sources[i] = s.Sources[i].Load()
	}
	return out
}

// SchedStats are the scheduler counters.
type SchedStats struct {
	// Ticks counts timer ticks delivered to the scheduler.
	Ticks atomicbitops.Uint64

	// Switches counts context switches of any cause.
	Switches atomicbitops.Uint64

	// Preemptions counts quantum-expiry switches.
	Preemptions atomicbitops.Uint64

	// Yields counts voluntary reschedules.
	Yields atomicbitops.Uint64

	// Blocks and Wakes count Blocked transitions and their reversals.
	Blocks atomicbitops.Uint64
	Wakes  atomicbitops.Uint64

	// Exits counts task terminations.
	Exits atomicbitops.Uint64
}

// SchedSnapshot is a plain copy of SchedStats for diagnostics.
type SchedSnapshot struct {
	Ticks       uint64
	Switches    uint64
	Preemptions uint64
	Yields      uint64
	Blocks      uint64
	Wakes       uint64
	Exits       uint64
}

func (s *SchedStats) snapshot() SchedSnapshot {
	return SchedSnapshot{
		Ticks:       s.Ticks.Load(),
		Switches:    s.Switches.Load(),
		Preemptions: s.Preemptions.Load(),
		Yields:      s.Yields.Load(),
		Blocks:      s.Blocks.Load(),
		Wakes:       s.Wakes.Load(),
		Exits:       s.Exits.Load(),
	}
}
