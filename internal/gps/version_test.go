package gps

import "testing"

func TestCompareVersions(t *testing.T) {
	table := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "2.0", -1},
		{"2.0", "1.0", 1},
		{"1.10", "1.9", 1},
		{"1.01", "1.1", 0},
		{"1.0a", "1.0", 1},
		{"1.0", "1.0.1", -1},
		{"1.0~rc1", "1.0", -1},
		{"1.0~rc1", "1.0~rc2", -1},
		{"1.0~~", "1.0~", -1},
		{"1.0^", "1.0", 1},
		{"1.0^git1", "1.0.1", -1},
		{"1", "a", 1},
		{"a", "b", -1},
		{"1.0_0", "1.0.0", 0},
		{"1:1.0", "2.0", 1},
		{"0:1.0", "1.0", 0},
		{"1.0-1", "1.0-2", -1},
		{"1.0-10", "1.0-9", 1},
		{"2.0-1", "2.0", 1},
		{"1.0-1@x86_64", "1.0-1@i686", 0},
		{"1:2.3-4@noarch", "1:2.3-4", 0},
	}

	for _, c := range table {
		if got := CompareVersions(c.a, c.b); got != c.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
		if got := CompareVersions(c.b, c.a); got != -c.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", c.b, c.a, got, -c.want)
		}
	}
}

func TestCompareVersionsTransitive(t *testing.T) {
	// Ascending order; every pair must compare consistently with it.
	ordered := []string{
		"0.9",
		"1.0~alpha",
		"1.0~rc1",
		"1.0",
		"1.0-1",
		"1.0-2",
		"1.0^post",
		"1.0a",
		"1.0.1",
		"1.2",
		"1.10",
		"2",
		"1:0.1",
	}

	for i := range ordered {
		for j := range ordered {
			want := 0
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			if got := CompareVersions(ordered[i], ordered[j]); got != want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", ordered[i], ordered[j], got, want)
			}
		}
	}
}

func TestSplitArch(t *testing.T) {
	evr, arch := SplitArch("1:2.0-3@x86_64")
	if evr != "1:2.0-3" || arch != "x86_64" {
		t.Errorf("SplitArch = %q, %q", evr, arch)
	}
	evr, arch = SplitArch("2.0")
	if evr != "2.0" || arch != "" {
		t.Errorf("SplitArch = %q, %q", evr, arch)
	}
	if v := JoinArch("2.0-1", "noarch"); v != "2.0-1@noarch" {
		t.Errorf("JoinArch = %q", v)
	}
	if v := JoinArch("2.0-1", ""); v != "2.0-1" {
		t.Errorf("JoinArch without arch = %q", v)
	}
}

func TestMatchVersion(t *testing.T) {
	table := []struct {
		have string
		op   Op
		want string
		ok   bool
	}{
		{"1.0", OpNone, "", true},
		{"1.0-3", OpEQ, "1.0", true},
		{"1.0-3", OpEQ, "1.0-2", false},
		{"1.0-3", OpGT, "1.0-2", true},
		{"1.0-3", OpGT, "1.0", false},
		{"1.0-3", OpGE, "1.0", true},
		{"1.0-3", OpLE, "1.0", true},
		{"1.0", OpLT, "1.0.1", true},
		{"2:1.0", OpGT, "5.0", true},
		{"0.9@i686", OpLT, "1.0", true},
		{"1.0~rc1", OpGE, "1.0", false},
	}

	for _, c := range table {
		if got := MatchVersion(c.have, c.op, c.want); got != c.ok {
			t.Errorf("MatchVersion(%q, %q, %q) = %v, want %v", c.have, c.op, c.want, got, c.ok)
		}
	}
}
