// Copyright 2025 Zintix Labs
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

package errs

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWrapInheritsLevelAndKind(t *testing.T) {
	base := NotFoundf("session %s", "abc")
	w := Wrap(base, "lookup")
	if w.ErrLv != Warn || w.Kind != KindNotFound {
		t.Fatalf("wrap should inherit warn/not_found, got %s/%s", ErrLv(w.ErrLv), w.Kind)
	}
	if !errors.Is(w, base) {
		t.Fatalf("errors.Is should find the cause")
	}
	if !IsKind(w, KindNotFound) || IsConfig(w) {
		t.Fatalf("kind lookup broken")
	}
}

func TestWrapForeignErrorIsFatal(t *testing.T) {
	w := Wrap(io.EOF, "read")
	if w.ErrLv != Fatal || w.Kind != KindNone {
		t.Fatalf("foreign cause should be fatal without kind, got %s/%s", ErrLv(w.ErrLv), w.Kind)
	}
	c := WrapConfig(io.EOF, "decode")
	if !IsConfig(c) || c.ErrLv != Fatal {
		t.Fatalf("WrapConfig should mark config/fatal")
	}
}

func TestIsKindWalksChain(t *testing.T) {
	inner := Configf("pitch %v", 0)
	outer := Wrap(Wrap(inner, "strip"), "machine")
	if !IsConfig(outer) {
		t.Fatalf("config kind not found through chain")
	}
	if IsKind(nil, KindConfig) || IsKind(io.EOF, KindConfig) {
		t.Fatalf("non *E errors must not match")
	}
}

func TestErrorString(t *testing.T) {
	e := Statef("no stop after %d frames", 10)
	s := e.Error()
	for _, want := range []string{"errlv=fatal", "kind=state", "no stop after 10 frames"} {
		if !strings.Contains(s, want) {
			t.Fatalf("%q missing %q", s, want)
		}
	}
	if ErrLv(ErrLevel(99)) != "" || Kind(99).String() != "" {
		t.Fatalf("unknown level/kind should render empty")
	}
}
