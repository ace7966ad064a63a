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

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"ferrite.dev/ferrite/pkg/trap"
)

// vectorsCmd implements subcommands.Command for the "vectors" command.
type vectorsCmd struct{}

// Name implements subcommands.Command.Name.
func (*vectorsCmd) Name() string {
	return "vectors"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*vectorsCmd) Synopsis() string {
	return "print the vector-table and context-frame layout"
}

// Usage implements subcommands.Command.Usage.
func (*vectorsCmd) Usage() string {
	return `vectors

Prints each vector slot's offset from VBAR_EL1 and the byte offsets of the
saved context frame, as pushed by the trap entry path.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*vectorsCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*vectorsCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	fmt.Printf("vector table: %d slots, %#x stride, %#x alignment\n\n",
		trap.VectorCount, trap.VectorStride, trap.TableAlign)
	for v := trap.Vector(0); v < trap.VectorCount; v++ {
		fmt.Printf("  %#05x  %v\n", uint(v)*trap.VectorStride, v)
	}

	fmt.Printf("\ncontext frame (%#x bytes):\n\n", trap.ContextSize)
	fmt.Printf("  %#05x  x0-x30\n", trap.CtxRegs)
	fmt.Printf("  %#05x  sp\n", trap.CtxSp)
	fmt.Printf("  %#05x  pc (ELR_EL1)\n", trap.CtxPc)
	fmt.Printf("  %#05x  pstate (SPSR_EL1)\n", trap.CtxPstate)
	fmt.Printf("  %#05x  esr (ESR_EL1)\n", trap.CtxEsr)
	fmt.Printf("  %#05x  far (FAR_EL1)\n", trap.CtxFar)
	return subcommands.ExitSuccess
}
