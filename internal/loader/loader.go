// Package loader seeds the ledger database from the campaign workbook.
// Each sheet becomes a table named after the sheet (uppercased, spaces
// to underscores). The world item sheet feeds the typed WORLD_ITEMS
// table; every other sheet becomes a generated text table.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const worldItemsTable = "WORLD_ITEMS"

// WorldItemsEmpty reports whether the item catalog has no rows yet.
func WorldItemsEmpty(ctx context.Context, db *sql.DB) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM WORLD_ITEMS").Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count world items: %w", err)
	}
	return count == 0, nil
}

// LoadWorkbook reads every sheet of the workbook into the database.
// Sheets without a header row are skipped.
func LoadWorkbook(ctx context.Context, db *sql.DB, path string, logger *slog.Logger) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.Warn("failed to close workbook", "error", cerr)
		}
	}()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if len(rows) < 1 || len(rows[0]) == 0 {
			logger.Debug("skipping empty sheet", "sheet", sheet)
			continue
		}

		table := tableName(sheet)
		if table == worldItemsTable {
			err = loadWorldItems(ctx, db, rows[1:], rows[0])
		} else {
			err = loadGenericSheet(ctx, db, table, rows[1:], rows[0])
		}
		if err != nil {
			return fmt.Errorf("failed to load sheet %s: %w", sheet, err)
		}
		logger.Info("sheet loaded", "sheet", sheet, "table", table, "rows", len(rows)-1)
	}
	return nil
}

// tableName derives the table name the same way the workbook sheets are
// named in the database: uppercased, trimmed, spaces to underscores.
func tableName(sheet string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(sheet), " ", "_"))
}

// columnName sanitizes a header cell into a safe SQL identifier.
func columnName(header string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(header), " ", "_")
	var b strings.Builder
	for _, r := range cleaned {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// loadWorldItems inserts rows into the typed item catalog. Item_ID comes
// from the matching column if the sheet has one, otherwise from the row
// position.
func loadWorldItems(ctx context.Context, db *sql.DB, rows [][]string, header []string) error {
	idCol, nameCol, descCol := -1, -1, -1
	for i, h := range header {
		switch columnName(h) {
		case "Item_ID":
			idCol = i
		case "Weapon_Name":
			nameCol = i
		case "Weapon_Description":
			descCol = i
		}
	}
	if nameCol < 0 {
		return fmt.Errorf("world item sheet has no Weapon_Name column")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO WORLD_ITEMS (Item_ID, Weapon_Name, Weapon_Description) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		name := cell(row, nameCol)
		if name == "" {
			continue
		}

		itemID := int64(i)
		if idCol >= 0 {
			parsed, err := strconv.ParseInt(cell(row, idCol), 10, 64)
			if err != nil {
				return fmt.Errorf("bad item id in row %d: %w", i+2, err)
			}
			itemID = parsed
		}

		if _, err := stmt.ExecContext(ctx, itemID, name, cell(row, descCol)); err != nil {
			return fmt.Errorf("failed to insert item %q: %w", name, err)
		}
	}
	return tx.Commit()
}

// loadGenericSheet creates a text table shaped by the header row and
// bulk-inserts the sheet contents. Rows get a positional id column named
// after the table.
func loadGenericSheet(ctx context.Context, db *sql.DB, table string, rows [][]string, header []string) error {
	cols := make([]string, 0, len(header))
	for _, h := range header {
		cols = append(cols, columnName(h))
	}

	defs := []string{fmt.Sprintf("%q INTEGER", table+"_ID")}
	placeholders := []string{"?"}
	for _, col := range cols {
		defs = append(defs, fmt.Sprintf("%q TEXT", col))
		placeholders = append(placeholders, "?")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)", table, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	insert := fmt.Sprintf("INSERT INTO %q VALUES (%s)", table, strings.Join(placeholders, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for rowIdx, row := range rows {
		values := make([]any, 0, len(cols)+1)
		values = append(values, int64(rowIdx))
		for i := range cols {
			values = append(values, cell(row, i))
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
