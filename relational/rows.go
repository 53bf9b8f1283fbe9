package relational

import (
	"database/sql"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// Rows is a fully read result set.
type Rows []Row

// scanRows drains rows into memory. Byte slices are copied to strings since
// text columns arrive as []byte from most drivers and the buffer is reused.
func scanRows(rows *sql.Rows) (Rows, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := Rows{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
