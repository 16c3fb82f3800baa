package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxInParams keeps IN lists under driver placeholder limits.
const maxInParams = 500

// refRow is the id and raw JSON reference list of one row.
type refRow struct {
	ID   string
	Refs sql.NullString
}

func decodeRefs(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return []string{}, nil
	}
	var refs []string
	if err := json.Unmarshal([]byte(raw.String), &refs); err != nil {
		return nil, fmt.Errorf("decode reference list: %w", err)
	}
	if refs == nil {
		refs = []string{}
	}
	return refs, nil
}

func encodeRefs(refs []string) (string, error) {
	if refs == nil {
		refs = []string{}
	}
	b, err := json.Marshal(refs)
	if err != nil {
		return "", fmt.Errorf("encode reference list: %w", err)
	}
	return string(b), nil
}

// mutateRefs rewrites column on every row in ids with fn, one transaction per
// call. On PostgreSQL the rows are locked for the read-modify-write; SQLite
// serializes writers on its own. Rows whose list is unchanged are not written.
func mutateRefs(ctx context.Context, db *gorm.DB, table, column string, ids []string, fn func([]string) []string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, batch := range chunk(ids, maxInParams) {
			q := tx.Table(table).Select("id, " + column + " AS refs").Where("id IN ?", batch)
			if tx.Dialector.Name() == "postgres" {
				q = q.Clauses(clause.Locking{Strength: "UPDATE"})
			}
			var rows []refRow
			if err := q.Scan(&rows).Error; err != nil {
				return err
			}
			for _, row := range rows {
				refs, err := decodeRefs(row.Refs)
				if err != nil {
					return err
				}
				next := fn(slices.Clone(refs))
				if slices.Equal(next, refs) {
					continue
				}
				encoded, err := encodeRefs(next)
				if err != nil {
					return err
				}
				if err := tx.Table(table).Where("id = ?", row.ID).Update(column, encoded).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// addRef appends ref unless already present.
func addRef(ref string) func([]string) []string {
	return func(refs []string) []string {
		if slices.Contains(refs, ref) {
			return refs
		}
		return append(refs, ref)
	}
}

func pullRefs(drop []string) func([]string) []string {
	set := make(map[string]struct{}, len(drop))
	for _, id := range drop {
		set[id] = struct{}{}
	}
	return func(refs []string) []string {
		return slices.DeleteFunc(refs, func(id string) bool {
			_, ok := set[id]
			return ok
		})
	}
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// likePattern escapes LIKE wildcards so s matches literally as a substring.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// applyDirectory adds the search, exclusion and ordering shared by user and
// community listings.
func applyDirectory(db *gorm.DB, opts ListOptions) *gorm.DB {
	if search := strings.TrimSpace(opts.Search); search != "" {
		pattern := likePattern(search)
		db = db.Where(`(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if opts.ExcludeExternalID != "" {
		db = db.Where("external_id <> ?", opts.ExcludeExternalID)
	}
	return db
}

func directoryOrder(opts ListOptions) string {
	if opts.SortDesc {
		return "created_at DESC, id DESC"
	}
	return "created_at ASC, id ASC"
}
