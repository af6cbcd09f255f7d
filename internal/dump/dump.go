// Package dump serializes the whole event log into a replayable SQL script
// and restores such scripts into a store.
package dump

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/josuejuca/analytics-imogo/internal/models"
	"github.com/josuejuca/analytics-imogo/internal/repository"
)

// ErrImportFailure wraps the first statement that fails during a replay.
// Statements already applied stay applied; there is no rollback.
var ErrImportFailure = errors.New("import failed")

// Export writes the schema followed by one INSERT per row, in insertion
// order. Rows are streamed straight from the store to w; the dump is never
// materialized in memory. Ids are deliberately left out: the importing store
// assigns fresh ones, so a dump can be replayed into a non-empty store
// without colliding on the primary key (rows duplicate instead).
func Export(repo repository.AccessLogRepository, w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "-- analytics access_logs backup")
	fmt.Fprintln(bw, "BEGIN TRANSACTION;")
	fmt.Fprint(bw, repository.Schema)

	err := repo.ForEach(func(e models.AccessEvent) error {
		_, werr := fmt.Fprintf(bw,
			"INSERT INTO access_logs (user_id, page, ip, browser, timestamp) VALUES (%s, %s, %s, %s, %s);\n",
			quote(e.UserID), quote(e.Page), quote(e.IP), quote(e.Browser), quote(e.Timestamp))
		return werr
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(bw, "COMMIT;")
	return bw.Flush()
}

// Import replays a dump against the store, one statement at a time. The
// first failing statement aborts the rest and is reported wrapped in
// ErrImportFailure. Returns the number of statements applied.
//
// BEGIN/COMMIT markers in the script are skipped: statements run on pooled
// connections, so a script-level transaction cannot be honored here and the
// contract makes no partial-apply guarantee anyway.
func Import(repo repository.AccessLogRepository, r io.Reader) (int, error) {
	applied := 0
	err := forEachStatement(r, func(stmt string) error {
		upper := strings.ToUpper(stmt)
		if upper == "BEGIN" || upper == "BEGIN TRANSACTION" || upper == "COMMIT" {
			return nil
		}
		if err := repo.Exec(stmt); err != nil {
			return fmt.Errorf("%w: statement %d: %v", ErrImportFailure, applied+1, err)
		}
		applied++
		return nil
	})
	return applied, err
}

// quote produces a single-quoted SQL literal, doubling embedded quotes.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// forEachStatement splits the stream on semicolons outside string literals,
// dropping "--" line comments. Feeding statements one by one keeps import
// memory bounded by the largest statement, not the whole dump.
func forEachStatement(r io.Reader, fn func(stmt string) error) error {
	br := bufio.NewReader(r)
	var sb strings.Builder
	inQuote := false

	flush := func() error {
		stmt := strings.TrimSpace(sb.String())
		sb.Reset()
		if stmt == "" {
			return nil
		}
		return fn(stmt)
	}

	for {
		ch, _, err := br.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrImportFailure, err)
		}

		if !inQuote && ch == '-' {
			if next, _, err := br.ReadRune(); err == nil {
				if next == '-' {
					for {
						c, _, err := br.ReadRune()
						if err != nil || c == '\n' {
							break
						}
					}
					continue
				}
				br.UnreadRune()
			}
		}

		switch {
		case ch == '\'':
			inQuote = !inQuote
			sb.WriteRune(ch)
		case ch == ';' && !inQuote:
			if err := flush(); err != nil {
				return err
			}
		default:
			sb.WriteRune(ch)
		}
	}
	return flush()
}
