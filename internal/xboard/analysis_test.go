package xboard

import (
	"reflect"
	"testing"
)

func TestFoldThinkingLine(t *testing.T) {
	var s Snapshot
	if !s.Fold("12 145 1234 567890 e2e4 e7e5", 9, 10) {
		t.Fatal("thinking line not recognized")
	}
	if s.Depth != 12 || s.Score != 145 || s.TimeMS != 12340 || s.Nodes != 567890 {
		t.Fatalf("snapshot = %+v", s)
	}
	if !reflect.DeepEqual(s.PV, []string{"e2e4", "e7e5"}) {
		t.Fatalf("pv = %v", s.PV)
	}
	if s.NPS <= 0 {
		t.Fatalf("nps = %d, want > 0", s.NPS)
	}
}

func TestFoldReplacesPrincipalLine(t *testing.T) {
	var s Snapshot
	if !s.Fold("4 10 50 1000 a1a2 a10a9 b1c3", 9, 10) {
		t.Fatal("first line not recognized")
	}
	if !s.Fold("5 -20 80 2500 h3e3", 9, 10) {
		t.Fatal("second line not recognized")
	}
	if s.Depth != 5 || s.Score != -20 {
		t.Fatalf("snapshot = %+v", s)
	}
	if !reflect.DeepEqual(s.PV, []string{"h3e3"}) {
		t.Fatalf("pv not replaced: %v", s.PV)
	}
}

func TestFoldExcludesNonMoveTokens(t *testing.T) {
	var s Snapshot
	if !s.Fold("8 33 100 9999 e2e4 (h4!) j9j8 e7e5", 9, 10) {
		t.Fatal("line not recognized")
	}
	if !reflect.DeepEqual(s.PV, []string{"e2e4", "e7e5"}) {
		t.Fatalf("pv = %v", s.PV)
	}
}

func TestFoldIgnoresOtherShapes(t *testing.T) {
	var s Snapshot
	for _, line := range []string{
		"move e2e4",
		"Hint: e7e5",
		"feature ping=1 done=1",
		"-1 5 5 5",
		"12 abc 5 5",
		"tellics noise",
		"",
	} {
		if s.Fold(line, 9, 10) {
			t.Fatalf("line %q treated as thinking output", line)
		}
	}
}

func TestFoldZeroElapsed(t *testing.T) {
	var s Snapshot
	if !s.Fold("1 0 0 100", 9, 10) {
		t.Fatal("line not recognized")
	}
	if s.NPS != 0 {
		t.Fatalf("nps = %d with zero elapsed time", s.NPS)
	}
}

func TestMateEncoding(t *testing.T) {
	if !IsMateScore(9998) || !IsMateScore(-9000) || IsMateScore(8999) {
		t.Fatal("mate threshold misapplied")
	}
	if got := MateIn(9998); got != 1 {
		t.Fatalf("MateIn(9998) = %d, want 1", got)
	}
	if got := MateIn(-9996); got != -2 {
		t.Fatalf("MateIn(-9996) = %d, want -2", got)
	}
}

func TestFormatScore(t *testing.T) {
	cases := map[int]string{
		9998:  "#1",
		-9998: "#-1",
		120:   "+1.20",
		-35:   "-0.35",
		0:     "+0.00",
	}
	for score, want := range cases {
		if got := FormatScore(score); got != want {
			t.Fatalf("FormatScore(%d) = %q, want %q", score, got, want)
		}
	}
}
