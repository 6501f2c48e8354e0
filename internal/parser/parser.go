// Package parser reads MySQL-flavoured schema dumps into the core schema
// model. It uses TiDB's parser, so MySQL syntax and TiDB-specific options
// are both accepted. The parsed schema powers schema-only inspection:
// structure and foreign keys without a live connection.
package parser

import (
	"fmt"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/Fran-cois/MATILDA/internal/core"
)

type Parser struct {
	p *parser.Parser
}

func NewParser() *Parser {
	return &Parser{p: parser.New()}
}

// Parse converts every CREATE TABLE statement of a dump into the schema
// model. Statements other than CREATE TABLE are ignored.
func (p *Parser) Parse(sql string) (*core.Database, error) {
	stmtNodes, _, err := p.p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	db := &core.Database{Tables: []*core.Table{}}
	for _, stmt := range stmtNodes {
		if create, ok := stmt.(*ast.CreateTableStmt); ok {
			db.Tables = append(db.Tables, p.convertCreateTable(create))
		}
	}

	db.SortTables()
	db.ClassifyColumns()
	return db, nil
}

func (p *Parser) convertCreateTable(stmt *ast.CreateTableStmt) *core.Table {
	table := &core.Table{
		Name:    stmt.Table.Name.O,
		Columns: []*core.Column{},
	}
	p.parseColumns(stmt.Cols, table)
	p.parseConstraints(stmt.Constraints, table)
	return table
}

func (p *Parser) parseColumns(cols []*ast.ColumnDef, table *core.Table) {
	for _, colDef := range cols {
		col := &core.Column{
			Name:    colDef.Name.Name.O,
			RawType: colDef.Tp.String(),
		}

		for _, opt := range colDef.Options {
			switch opt.Tp {
			case ast.ColumnOptionPrimaryKey:
				col.PrimaryKey = true
			case ast.ColumnOptionReference:
				fk := &core.ForeignKey{
					Column:          col.Name,
					ReferencedTable: opt.Refer.Table.Name.O,
				}
				for _, spec := range opt.Refer.IndexPartSpecifications {
					if spec.Column != nil {
						fk.ReferencedColumn = spec.Column.Name.O
						break
					}
				}
				table.ForeignKeys = append(table.ForeignKeys, fk)
			}
		}

		table.Columns = append(table.Columns, col)
	}
}

func (p *Parser) parseConstraints(constraints []*ast.Constraint, table *core.Table) {
	for _, constraint := range constraints {
		switch constraint.Tp {
		case ast.ConstraintPrimaryKey:
			for _, key := range constraint.Keys {
				if col := table.FindColumn(key.Column.Name.O); col != nil {
					col.PrimaryKey = true
				}
			}

		case ast.ConstraintForeignKey:
			refCols := make([]string, 0, len(constraint.Refer.IndexPartSpecifications))
			for _, spec := range constraint.Refer.IndexPartSpecifications {
				if spec.Column != nil {
					refCols = append(refCols, spec.Column.Name.O)
				}
			}
			for i, key := range constraint.Keys {
				fk := &core.ForeignKey{
					Column:          key.Column.Name.O,
					ReferencedTable: constraint.Refer.Table.Name.O,
				}
				if i < len(refCols) {
					fk.ReferencedColumn = refCols[i]
				}
				table.ForeignKeys = append(table.ForeignKeys, fk)
			}
		}
	}
}
