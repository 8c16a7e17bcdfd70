package pathname

import "testing"

func TestIsdotIsdotdot(t *testing.T) {
	if !Mk(".").Isdot() {
		t.Fatalf(`"." should be Isdot`)
	}
	if Mk("..").Isdot() {
		t.Fatalf(`".." should not be Isdot`)
	}
	if !Mk("..").Isdotdot() {
		t.Fatalf(`".." should be Isdotdot`)
	}
	if Mk("a").Isdotdot() {
		t.Fatalf(`"a" should not be Isdotdot`)
	}
}

func TestIsAbsolute(t *testing.T) {
	if !MkRoot().IsAbsolute() {
		t.Fatalf("/ should be absolute")
	}
	if Mk("rel/path").IsAbsolute() {
		t.Fatalf("rel/path should not be absolute")
	}
}

func TestExtend(t *testing.T) {
	got := Mk("/a").ExtendStr("b")
	if got.String() != "/a/b" {
		t.Fatalf("Extend = %q, want /a/b", got.String())
	}
}

func TestComponentsCollapsesSeparators(t *testing.T) {
	comps := Mk("/a//b/c/").Components()
	if len(comps) != 3 || comps[0].String() != "a" || comps[1].String() != "b" || comps[2].String() != "c" {
		t.Fatalf("Components = %v, want [a b c]", comps)
	}
}

func TestTrailingSlash(t *testing.T) {
	if !Mk("/a/b/").TrailingSlash() {
		t.Fatalf("/a/b/ should report a trailing slash")
	}
	if Mk("/a/b").TrailingSlash() {
		t.Fatalf("/a/b should not report a trailing slash")
	}
	if Mk("/").TrailingSlash() {
		t.Fatalf("/ alone should not count as a trailing slash")
	}
}

func TestDirname(t *testing.T) {
	dir, base, ok := Dirname(Mk("/a/b/c"))
	if !ok || dir.String() != "/a/b" || base.String() != "c" {
		t.Fatalf("Dirname(/a/b/c) = (%q, %q, %v), want (/a/b, c, true)", dir, base, ok)
	}

	dir, base, ok = Dirname(Mk("c"))
	if !ok || dir.String() != "" || base.String() != "c" {
		t.Fatalf("Dirname(c) = (%q, %q, %v), want (\"\", c, true)", dir, base, ok)
	}

	_, _, ok = Dirname(Mk(""))
	if ok {
		t.Fatalf("Dirname(\"\") should report ok=false")
	}
}

func TestEq(t *testing.T) {
	if !Mk("/a/b").Eq(Mk("/a/b")) {
		t.Fatalf("identical paths should compare equal")
	}
	if Mk("/a/b").Eq(Mk("/a/c")) {
		t.Fatalf("differing paths should not compare equal")
	}
}
