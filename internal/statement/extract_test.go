package statement

import (
	"reflect"
	"testing"
)

func TestExtractKeepsOrderAcrossLines(t *testing.T) {
	raw := "Here you go:\nselect a from t;\nand then SELECT b\nFROM u\nWHERE c = 1;\nThanks!"
	got := Extract(raw)
	want := []string{"select a from t;", "SELECT b\nFROM u\nWHERE c = 1;"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract() = %#v, want %#v", got, want)
	}
}

func TestExtractTwoStatementsOnOneLine(t *testing.T) {
	got := Extract("SELECT a; SELECT b;")
	want := []string{"SELECT a;", "SELECT b;"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract() = %#v, want %#v", got, want)
	}
}

func TestExtractIsIdempotentOnCleanStatement(t *testing.T) {
	stmt := "SELECT batch_id, status FROM batch WHERE status = 'FAILURE';"
	first := Extract(stmt)
	if !reflect.DeepEqual(first, []string{stmt}) {
		t.Fatalf("Extract() = %#v", first)
	}
	second := Extract(first[0])
	if !reflect.DeepEqual(second, first) {
		t.Fatalf("Extract(Extract()) = %#v, want %#v", second, first)
	}
}

func TestExtractReturnsEmptyWithoutSelect(t *testing.T) {
	for _, raw := range []string{"", "I cannot answer that.", "UPDATE t SET a = 1;"} {
		got := Extract(raw)
		if got == nil || len(got) != 0 {
			t.Fatalf("Extract(%q) = %#v, want empty slice", raw, got)
		}
	}
}

func TestExtractDropsUnterminatedSelect(t *testing.T) {
	got := Extract("SELECT a FROM t; SELECT b FROM u")
	if !reflect.DeepEqual(got, []string{"SELECT a FROM t;"}) {
		t.Fatalf("Extract() = %#v", got)
	}
}

func TestExtractSkipsQuotedAndCommentedSemicolons(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "SELECT * FROM t WHERE note = 'a;b';", want: "SELECT * FROM t WHERE note = 'a;b';"},
		{raw: "SELECT * FROM t WHERE note = 'it''s; fine';", want: "SELECT * FROM t WHERE note = 'it''s; fine';"},
		{raw: `SELECT "odd;name" FROM t;`, want: `SELECT "odd;name" FROM t;`},
		{raw: "SELECT `odd;name` FROM t;", want: "SELECT `odd;name` FROM t;"},
		{raw: "SELECT 1 -- one; two\n;", want: "SELECT 1 -- one; two\n;"},
		{raw: "SELECT /* ; */ 2;", want: "SELECT /* ; */ 2;"},
	}
	for _, tc := range tests {
		got := Extract(tc.raw)
		if !reflect.DeepEqual(got, []string{tc.want}) {
			t.Fatalf("Extract(%q) = %#v, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestExtractFallsBackToFirstSemicolonOnUnbalancedQuote(t *testing.T) {
	got := Extract("SELECT * FROM t WHERE name = 'O''Brien; it's here")
	want := []string{"SELECT * FROM t WHERE name = 'O''Brien;"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract() = %#v, want %#v", got, want)
	}
}

func TestIsRead(t *testing.T) {
	if !IsRead("  select 1;") {
		t.Fatal("IsRead(select) = false")
	}
	if IsRead("WITH x AS (SELECT 1) SELECT * FROM x") {
		t.Fatal("IsRead(with) = true")
	}
	if IsRead("sel") {
		t.Fatal("IsRead(sel) = true")
	}
}
