package sqlguard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteSelect_AppendsWhereClause(t *testing.T) {
	got, err := RewriteSelect("SELECT Quantity, Weapon_Name FROM CHARACTER_INVENTORY_DETAILS", 0, 0)
	require.NoError(t, err)
	assert.Contains(t, got, "WHERE")
	assert.Contains(t, got, "Campaign_ID = 0")
	assert.Contains(t, got, "Character_ID = 0")
}

func TestRewriteSelect_ConjoinsExistingWhere(t *testing.T) {
	got, err := RewriteSelect("SELECT * FROM CHARACTER_INVENTORY_DETAILS WHERE Quantity > 1 OR Quantity = 0", 3, 7)
	require.NoError(t, err)

	// The original predicate must be parenthesized so the OR cannot
	// escape the scope conjunction.
	assert.Contains(t, got, "(")
	assert.Contains(t, got, "Campaign_ID = 3")
	assert.Contains(t, got, "Character_ID = 7")
}

func TestRewriteSelect_RejectsWrites(t *testing.T) {
	cases := []string{
		"DROP TABLE WORLD_ITEMS",
		"DELETE FROM CHARACTER_INVENTORY",
		"UPDATE CHARACTER_INVENTORY SET Total_Quantity = 99",
		"INSERT INTO CHARACTER_INVENTORY VALUES (0, 0, 1, 1)",
	}
	for _, q := range cases {
		_, err := RewriteSelect(q, 0, 0)
		assert.ErrorIs(t, err, ErrQueryRejected, "query %q", q)
	}
}

func TestRewriteSelect_RejectsMultiStatement(t *testing.T) {
	_, err := RewriteSelect("SELECT * FROM CHARACTER_INVENTORY_DETAILS; DELETE FROM CHARACTER_INVENTORY", 0, 0)
	assert.ErrorIs(t, err, ErrQueryRejected)
}

func TestRewriteSelect_RejectsUnknownRelations(t *testing.T) {
	cases := []string{
		"SELECT * FROM WORLD_ITEMS",
		"SELECT * FROM sqlite_master",
		"SELECT * FROM CHARACTER_INVENTORY_DETAILS JOIN CAMPAIGN ON 1 = 1",
		"SELECT 1",
	}
	for _, q := range cases {
		_, err := RewriteSelect(q, 0, 0)
		assert.ErrorIs(t, err, ErrQueryRejected, "query %q", q)
	}
}

func TestRewriteSelect_AllowsHistoryView(t *testing.T) {
	got, err := RewriteSelect("SELECT Quantity_Delta FROM CHARACTER_INVENTORY_HISTORY_DETAILS", 0, 0)
	require.NoError(t, err)
	assert.True(t, strings.Contains(got, "CHARACTER_INVENTORY_HISTORY_DETAILS"))
}

func TestRewriteSelect_RejectsGarbage(t *testing.T) {
	_, err := RewriteSelect("not sql at all", 0, 0)
	assert.ErrorIs(t, err, ErrQueryRejected)
}

func TestRewriteSelect_RejectsCompoundSelects(t *testing.T) {
	cases := []string{
		// Only the first arm would receive the scope predicate.
		"SELECT Quantity FROM CHARACTER_INVENTORY_DETAILS UNION SELECT Total_Quantity FROM CHARACTER_INVENTORY",
		"SELECT Quantity FROM CHARACTER_INVENTORY_DETAILS UNION ALL SELECT Total_Quantity FROM CHARACTER_INVENTORY",
		"SELECT Weapon_Name FROM CHARACTER_INVENTORY_DETAILS EXCEPT SELECT Weapon_Name FROM CHARACTER_INVENTORY_DETAILS",
	}
	for _, q := range cases {
		_, err := RewriteSelect(q, 0, 0)
		assert.ErrorIs(t, err, ErrQueryRejected, "query %q", q)
	}
}

func TestRewriteSelect_RejectsExpressionSubqueries(t *testing.T) {
	cases := []string{
		// An inner SELECT is never relation-checked or scoped, wherever
		// it appears.
		"SELECT Quantity FROM CHARACTER_INVENTORY_DETAILS WHERE EXISTS (SELECT 1 FROM CHARACTER_INVENTORY WHERE Character_ID = 5)",
		"SELECT Quantity FROM CHARACTER_INVENTORY_DETAILS WHERE Weapon_Name IN (SELECT Weapon_Name FROM WORLD_ITEMS)",
		"SELECT (SELECT COUNT(*) FROM WORLD_ITEMS) FROM CHARACTER_INVENTORY_DETAILS",
		"SELECT Quantity FROM CHARACTER_INVENTORY_DETAILS WHERE Quantity > (SELECT MAX(Total_Quantity) FROM CHARACTER_INVENTORY)",
	}
	for _, q := range cases {
		_, err := RewriteSelect(q, 0, 0)
		assert.ErrorIs(t, err, ErrQueryRejected, "query %q", q)
	}
}

func TestRewriteSelect_RejectsFromSubquery(t *testing.T) {
	_, err := RewriteSelect("SELECT * FROM (SELECT * FROM CHARACTER_INVENTORY) AS x", 0, 0)
	assert.ErrorIs(t, err, ErrQueryRejected)
}

func TestRewriteSelect_RejectsCTEShadowingPermittedView(t *testing.T) {
	// A WITH clause can rebind a permitted view name to an arbitrary
	// select over a base table.
	_, err := RewriteSelect(
		"WITH CHARACTER_INVENTORY_DETAILS AS (SELECT * FROM CHARACTER_INVENTORY) SELECT * FROM CHARACTER_INVENTORY_DETAILS", 0, 0)
	assert.ErrorIs(t, err, ErrQueryRejected)
}

func TestRewriteSelect_AllowsAggregatesAndOrdering(t *testing.T) {
	got, err := RewriteSelect(
		"SELECT Weapon_Name, SUM(Quantity) FROM CHARACTER_INVENTORY_DETAILS WHERE Quantity > 0 GROUP BY Weapon_Name ORDER BY Weapon_Name LIMIT 10", 0, 0)
	require.NoError(t, err)
	assert.Contains(t, got, "Campaign_ID = 0")
	assert.Contains(t, got, "GROUP BY")
}
