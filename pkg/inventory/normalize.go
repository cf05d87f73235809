package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/agentstation/sightline/pkg/constants"
	"github.com/agentstation/sightline/pkg/dateformat"
	"github.com/agentstation/sightline/pkg/logging"
	"github.com/agentstation/sightline/pkg/records"
)

// CanonicalName splits a raw machine name into name and domain.
//
// "DOMAIN\name" takes the domain from before the first backslash;
// otherwise "name.domain.tld" takes the name from before the first dot.
// One leading and one trailing "/" are stripped from the name. Without
// caseSensitive both parts are lowercased.
func CanonicalName(raw string, caseSensitive bool) (name, domain string) {
	if raw == "" {
		raw = constants.UnknownMachineName
	}
	name = raw

	if before, after, ok := strings.Cut(raw, `\`); ok {
		domain, name = before, after
	} else if before, after, ok := strings.Cut(raw, "."); ok {
		name, domain = before, after
	}

	name = strings.TrimPrefix(name, "/")
	name = strings.TrimSuffix(name, "/")

	if !caseSensitive {
		name = strings.ToLower(name)
		domain = strings.ToLower(domain)
	}
	return name, domain
}

// Normalize reduces one row to a Record. Date cells that fail to parse
// leave the record undated and are logged at debug level from ctx.
func Normalize(ctx context.Context, row records.Row, mapping Mapping, sourceFile string, settings Settings) Record {
	name, domain := CanonicalName(row[mapping.NameColumn], settings.CaseSensitive)
	rec := Record{
		Name:       name,
		Domain:     domain,
		SourceFile: sourceFile,
		Raw:        row,
	}
	if !mapping.HasDateColumn() {
		return rec
	}

	value := row[mapping.DateColumn]
	if value == "" {
		return rec
	}

	t, ok := parseDate(value, mapping.DateFormat, settings)
	if !ok {
		logging.FromContext(ctx).Debug().
			Str("source_file", sourceFile).
			Str("column", mapping.DateColumn).
			Str("value", value).
			Str("format", mapping.DateFormat).
			Msg("Unparseable date, treating record as undated")
		return rec
	}
	rec.LastSeen = t
	return rec
}

func parseDate(value, format string, settings Settings) (time.Time, bool) {
	opts := []dateformat.Option{dateformat.WithLocation(settings.Location)}
	if format != "" {
		t, err := dateformat.Parse(value, format, opts...)
		return t, err == nil
	}
	return dateformat.ParseAny(value, opts...)
}

// NormalizeSource normalizes every row of a configured source in row
// order. Unconfigured sources yield no records.
func NormalizeSource(ctx context.Context, src *Source, settings Settings) []Record {
	if !src.Configured() {
		return nil
	}
	ctx = logging.WithSourceFile(ctx, src.FileName)
	out := make([]Record, 0, len(src.Rows))
	for i, row := range src.Rows {
		rec := Normalize(ctx, row, src.Mapping, src.FileName, settings)
		rec.Row = i
		out = append(out, rec)
	}
	return out
}

// UniqueNames returns the distinct names of records in first-occurrence
// order.
func UniqueNames(recs []Record) []string {
	seen := make(map[string]struct{}, len(recs))
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		if _, ok := seen[r.Name]; ok {
			continue
		}
		seen[r.Name] = struct{}{}
		out = append(out, r.Name)
	}
	return out
}
