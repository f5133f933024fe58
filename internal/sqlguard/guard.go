// Package sqlguard validates and rewrites model-generated SQL before the
// ledger executes it. The generated text is untrusted input: it is parsed
// into an AST, constrained to a single SELECT over the permitted inventory
// views, and the per-character scope predicate is conjoined as an AST
// transformation rather than string splicing.
package sqlguard

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	rsql "github.com/rqlite/sql"
)

// ErrQueryRejected marks a statement that is not a single plain SELECT over
// the permitted views. Callers must not echo the wrapped detail to the model.
var ErrQueryRejected = errors.New("query rejected")

// permittedRelations are the only relations a generated query may read.
var permittedRelations = map[string]bool{
	"CHARACTER_INVENTORY_DETAILS":         true,
	"CHARACTER_INVENTORY_HISTORY_DETAILS": true,
}

// RewriteSelect validates query and returns it with
// Campaign_ID = campaignID AND Character_ID = characterID conjoined onto its
// WHERE clause (added as the whole clause if the query had none).
func RewriteSelect(query string, campaignID, characterID int64) (string, error) {
	parser := rsql.NewParser(strings.NewReader(query))

	stmt, err := parser.ParseStatement()
	if err != nil {
		return "", fmt.Errorf("%w: unparseable statement: %v", ErrQueryRejected, err)
	}

	// A second statement behind the first is how "SELECT ...; DELETE ..."
	// sneaks a write in.
	if _, err := parser.ParseStatement(); err != io.EOF {
		return "", fmt.Errorf("%w: multiple statements", ErrQueryRejected)
	}

	sel, ok := stmt.(*rsql.SelectStatement)
	if !ok {
		return "", fmt.Errorf("%w: not a SELECT statement", ErrQueryRejected)
	}

	if err := checkSelect(sel); err != nil {
		return "", err
	}

	scope := scopeExpr(campaignID, characterID)
	if sel.WhereExpr != nil {
		sel.WhereExpr = &rsql.BinaryExpr{
			X:  &rsql.ParenExpr{X: sel.WhereExpr},
			Op: rsql.AND,
			Y:  scope,
		}
	} else {
		sel.WhereExpr = scope
	}

	return sel.String(), nil
}

// checkSelect vets the whole statement, not just the outer FROM clause.
// The scope rewrite is only sound for a single plain SELECT, so anything
// that can smuggle an unscoped read past it is rejected: compound arms
// (UNION and friends only rewrite the first arm), CTEs (a WITH can shadow
// a permitted view name with an arbitrary select), and nested SELECTs in
// any expression position.
func checkSelect(sel *rsql.SelectStatement) error {
	if sel.WithClause != nil {
		return fmt.Errorf("%w: WITH clause not permitted", ErrQueryRejected)
	}
	if sel.Compound != nil {
		return fmt.Errorf("%w: compound select not permitted", ErrQueryRejected)
	}

	if err := checkSource(sel.Source); err != nil {
		return err
	}

	for _, col := range sel.Columns {
		if err := checkExpr(col.Expr); err != nil {
			return err
		}
	}
	if err := checkExpr(sel.WhereExpr); err != nil {
		return err
	}
	for _, e := range sel.GroupByExprs {
		if err := checkExpr(e); err != nil {
			return err
		}
	}
	if err := checkExpr(sel.HavingExpr); err != nil {
		return err
	}
	for _, term := range sel.OrderingTerms {
		if err := checkExpr(term.X); err != nil {
			return err
		}
	}
	if err := checkExpr(sel.LimitExpr); err != nil {
		return err
	}
	return checkExpr(sel.OffsetExpr)
}

// checkSource walks the FROM clause and rejects any relation outside the
// permitted inventory views. FROM-subqueries are rejected: their inner
// statement would escape the scope rewrite.
func checkSource(src rsql.Source) error {
	switch s := src.(type) {
	case *rsql.QualifiedTableName:
		name := strings.ToUpper(s.Name.Name)
		if !permittedRelations[name] {
			return fmt.Errorf("%w: relation %q not permitted", ErrQueryRejected, s.Name.Name)
		}
		return nil
	case *rsql.JoinClause:
		if err := checkSource(s.X); err != nil {
			return err
		}
		if err := checkSource(s.Y); err != nil {
			return err
		}
		return checkJoinConstraint(s.Constraint)
	case *rsql.ParenSource:
		return checkSource(s.X)
	case nil:
		return fmt.Errorf("%w: statement has no FROM clause", ErrQueryRejected)
	default:
		// Subqueries and anything unrecognized.
		return fmt.Errorf("%w: unsupported source", ErrQueryRejected)
	}
}

func checkJoinConstraint(c rsql.JoinConstraint) error {
	switch jc := c.(type) {
	case nil:
		return nil
	case *rsql.OnConstraint:
		return checkExpr(jc.X)
	case *rsql.UsingConstraint:
		return nil
	default:
		return fmt.Errorf("%w: unsupported join constraint", ErrQueryRejected)
	}
}

// checkExpr accepts only the closed set of expression forms the scope
// rewrite is sound under. Everything else, nested SELECTs and EXISTS
// included, is rejected. Deny-by-default: an expression type this switch
// does not name does not pass.
func checkExpr(e rsql.Expr) error {
	switch x := e.(type) {
	case nil:
		return nil
	case *rsql.Ident, *rsql.QualifiedRef, *rsql.NumberLit, *rsql.StringLit, *rsql.NullLit:
		return nil
	case *rsql.UnaryExpr:
		return checkExpr(x.X)
	case *rsql.ParenExpr:
		return checkExpr(x.X)
	case *rsql.BinaryExpr:
		if err := checkExpr(x.X); err != nil {
			return err
		}
		return checkExpr(x.Y)
	case *rsql.Call:
		for _, arg := range x.Args {
			if err := checkExpr(arg); err != nil {
				return err
			}
		}
		return nil
	case *rsql.ExprList:
		for _, el := range x.Exprs {
			if err := checkExpr(el); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported expression", ErrQueryRejected)
	}
}

func scopeExpr(campaignID, characterID int64) rsql.Expr {
	return &rsql.BinaryExpr{
		X: &rsql.BinaryExpr{
			X:  &rsql.Ident{Name: "Campaign_ID"},
			Op: rsql.EQ,
			Y:  &rsql.NumberLit{Value: strconv.FormatInt(campaignID, 10)},
		},
		Op: rsql.AND,
		Y: &rsql.BinaryExpr{
			X:  &rsql.Ident{Name: "Character_ID"},
			Op: rsql.EQ,
			Y:  &rsql.NumberLit{Value: strconv.FormatInt(characterID, 10)},
		},
	}
}
