package statement

import (
	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindRead
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	default:
		return "unknown"
	}
}

// KindOf parses stmt with the MySQL-dialect TiDB parser. Text the parser
// rejects, such as dialect-specific syntax, is KindUnknown. A text holding
// several statements is a write as soon as one of them is.
func KindOf(stmt string) Kind {
	nodes, _, err := parser.New().Parse(stmt, "", "")
	if err != nil || len(nodes) == 0 {
		return KindUnknown
	}
	kind := KindRead
	for _, node := range nodes {
		if kindOfNode(node) == KindWrite {
			kind = KindWrite
		}
	}
	return kind
}

func kindOfNode(node ast.StmtNode) Kind {
	switch n := node.(type) {
	case *ast.SelectStmt:
		if n.SelectIntoOpt != nil {
			return KindWrite
		}
		return KindRead
	case *ast.SetOprStmt, *ast.ShowStmt:
		return KindRead
	case *ast.ExplainStmt:
		if n.Analyze && n.Stmt != nil {
			return kindOfNode(n.Stmt)
		}
		return KindRead
	default:
		return KindWrite
	}
}
