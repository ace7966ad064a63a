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

package trap

import (
	"math/rand"
	"strings"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
)

// TestContextLayout pins the Context layout to the offsets the entry
// assembly uses. A failure here means the trap ABI was broken.
func TestContextLayout(t *testing.T) {
	var c Context
	for _, tc := range []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"Regs", unsafe.Offsetof(c.Regs), CtxRegs},
		{"Sp", unsafe.Offsetof(c.Sp), CtxSp},
		{"Pc", unsafe.Offsetof(c.Pc), CtxPc},
		{"Pstate", unsafe.Offsetof(c.Pstate), CtxPstate},
		{"Esr", unsafe.Offsetof(c.Esr), CtxEsr},
		{"Far", unsafe.Offsetof(c.Far), CtxFar},
		{"size", unsafe.Sizeof(c), ContextSize},
	} {
		if tc.got != tc.want {
			t.Errorf("%s at %#x, ABI requires %#x", tc.name, tc.got, tc.want)
		}
	}
}

// TestContextRoundTrip checks that a copy-out/copy-in cycle with no handler
// mutation reproduces the original state exactly, for arbitrary register
// patterns. This is the host-visible half of the capture/restore contract;
// the assembly halves are straight block moves over the same layout.
func TestContextRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		var orig Context
		for j := range orig.Regs {
			orig.Regs[j] = rng.Uint64()
		}
		orig.Sp = rng.Uint64()
		orig.Pc = rng.Uint64()
		orig.Pstate = rng.Uint64()
		orig.Esr = rng.Uint64()
		orig.Far = rng.Uint64()

		saved := orig  // capture
		live := saved  // restore
		if diff := cmp.Diff(orig, live); diff != "" {
			t.Fatalf("round trip mutated state (-want +got):\n%s", diff)
		}
	}
}

func TestLowerRing(t *testing.T) {
	c := Context{Pstate: UserFlagsSet}
	if !c.LowerRing() {
		t.Errorf("EL0t pstate not detected as lower ring")
	}
	c.Pstate = KernelFlagsSet
	if c.LowerRing() {
		t.Errorf("EL1h pstate detected as lower ring")
	}
	c.Pstate = PsrModeEL1t
	if c.LowerRing() {
		t.Errorf("EL1t pstate detected as lower ring")
	}
}

func TestSetSyscallReturn(t *testing.T) {
	var c Context
	for i := range c.Regs {
		c.Regs[i] = 0x1111111111111111 * uint64(i%9)
	}
	want := c
	c.SetSyscallReturn(0xfeed)
	want.Regs[0] = 0xfeed
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("SetSyscallReturn touched more than x0 (-want +got):\n%s", diff)
	}
}

func TestContextString(t *testing.T) {
	c := Context{Pc: 0x80000, Esr: 0x56000003}
	s := c.String()
	for _, want := range []string{"pc  = 0x0000000000080000", "esr = 0x0000000056000003", "x30"} {
		if !strings.Contains(s, want) {
			t.Errorf("dump missing %q:\n%s", want, s)
		}
	}
}
