// Package delimited splits and joins single lines of delimiter-separated
// text with RFC 4180 style quoting.
//
// encoding/csv is not used for reading: Split must accept a stray quote in
// the middle of a field, trim every field after extraction and always
// return at least one field, which csv.Reader does not do.
package delimited

import "strings"

// Split tokenizes one line into fields separated by delim.
//
// A double quote toggles quoted mode; inside quotes a doubled quote yields a
// literal quote and delim is ordinary content. Each field is trimmed of
// surrounding whitespace. An empty line yields a single empty field.
func Split(line string, delim rune) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))

	return fields
}

// Quote wraps field in double quotes, doubling any quote it contains.
func Quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// JoinQuoted quotes every field and joins them with delim. Split on the
// result returns the original fields, provided they carry no surrounding
// whitespace.
func JoinQuoted(fields []string, delim rune) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = Quote(f)
	}
	return strings.Join(quoted, string(delim))
}

// DetectDelimiter returns ';' when header contains one, otherwise ','.
func DetectDelimiter(header string) rune {
	if strings.ContainsRune(header, ';') {
		return ';'
	}
	return ','
}
