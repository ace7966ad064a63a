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

// Package fault classifies memory aborts.
//
// Classification is deliberately separated from resolution: this package
// only names the fault. No resolver exists yet, so every classified fault is
// currently escalated by the caller; a future demand-paging resolver slots
// in between without touching this code.
package fault

import (
	"fmt"

	"gvisor.dev/gvisor/pkg/hostarch"
)

// Kind is the classification of a memory abort.
type Kind uint8

const (
	// KindUnknown covers fault status codes with no classification here,
	// including address-size and access-flag faults.
	KindUnknown Kind = iota

	// KindTranslation is a translation fault: no mapping at any level.
	KindTranslation

	// KindPermission is a permission fault: mapped, access not allowed.
	KindPermission

	// KindAlignment is an alignment fault.
	KindAlignment
)

// String implements fmt.Stringer.String.
func (k Kind) String() string {
	switch k {
	case KindTranslation:
		return "translation fault"
	case KindPermission:
		return "permission fault"
	case KindAlignment:
		return "alignment fault"
	default:
		return "unknown fault"
	}
}

// Fault status codes (DFSC/IFSC), low 6 bits of the abort ISS.
const (
	fscTranslationL0 = 0x04
	fscTranslationL3 = 0x07
	fscAccessFlagL1  = 0x09
	fscAccessFlagL3  = 0x0b
	fscPermissionL1  = 0x0d
	fscPermissionL3  = 0x0f
	fscAlignment     = 0x21
)

// Fault is one classified memory abort.
type Fault struct {
	// Kind is the classification.
	Kind Kind

	// Addr is the faulting address.
	Addr uint64

	// Access is the kind of access that faulted.
	Access hostarch.AccessType

	// Status is the raw fault status code, kept for reporting.
	Status uint8
}

// String implements fmt.Stringer.String.
func (f Fault) String() string {
	return fmt.Sprintf("%v at %#x (%v, fsc %#02x)", f.Kind, f.Addr, f.Access, f.Status)
}

// Classify maps a fault status code, faulting address and access kind onto a
// Fault. Total: unmatched status codes classify as KindUnknown.
func Classify(status uint8, addr uint64, access hostarch.AccessType) Fault {
	f := Fault{
		Kind:   KindUnknown,
		Addr:   addr,
		Access: access,
		Status: status,
	}
	switch {
	case status >= fscTranslationL0 && status <= fscTranslationL3:
		f.Kind = KindTranslation
	case status >= fscPermissionL1 && status <= fscPermissionL3:
		f.Kind = KindPermission
	case status == fscAlignment:
		f.Kind = KindAlignment
	}
	return f
}
