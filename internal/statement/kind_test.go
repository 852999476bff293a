package statement

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		stmt string
		want Kind
	}{
		{stmt: "SELECT 1;", want: KindRead},
		{stmt: "select * from batch where status = 'FAILURE';", want: KindRead},
		{stmt: "SELECT a FROM t UNION SELECT b FROM u", want: KindRead},
		{stmt: "WITH x AS (SELECT 1 AS a) SELECT a FROM x", want: KindRead},
		{stmt: "SHOW TABLES", want: KindRead},
		{stmt: "EXPLAIN SELECT 1", want: KindRead},
		{stmt: "DESCRIBE batch", want: KindRead},
		{stmt: "UPDATE batch SET status = 'SUCCESS'", want: KindWrite},
		{stmt: "DELETE FROM batch", want: KindWrite},
		{stmt: "EXPLAIN ANALYZE DELETE FROM batch", want: KindWrite},
		{stmt: "SELECT * INTO OUTFILE '/tmp/batch.csv' FROM batch", want: KindWrite},
		{stmt: "SELECT 1; DROP TABLE batch;", want: KindWrite},
		{stmt: "SELECT 1::int", want: KindUnknown},
		{stmt: "this is not sql", want: KindUnknown},
	}
	for _, tc := range tests {
		if got := KindOf(tc.stmt); got != tc.want {
			t.Fatalf("KindOf(%q) = %s, want %s", tc.stmt, got, tc.want)
		}
	}
}
