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

	"ferrite.dev/ferrite/pkg/kernel"
)

// tableCmd implements subcommands.Command for the "table" command.
type tableCmd struct{}

// Name implements subcommands.Command.Name.
func (*tableCmd) Name() string {
	return "table"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*tableCmd) Synopsis() string {
	return "print the syscall table"
}

// Usage implements subcommands.Command.Usage.
func (*tableCmd) Usage() string {
	return `table

Prints every syscall number up to the highest allocated one, with its name or
"unallocated" for the holes that dispatch to ENOSYS.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*tableCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*tableCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	table := kernel.Ferrite
	for nr := uint16(0); nr <= table.MaxSyscall(); nr++ {
		if sc, ok := table.Lookup(nr); ok {
			fmt.Printf("  %3d  %s\n", nr, sc.Name)
		} else {
			fmt.Printf("  %3d  unallocated\n", nr)
		}
	}
	return subcommands.ExitSuccess
}
