// Package dateformat infers the timestamp layout of a column from a handful
// of sample values and parses values against such layouts.
//
// Layouts use the token syntax common to inventory tools rather than Go's
// reference-time syntax:
//
//	yyyy  four-digit year        yy  two-digit year (70-99 => 19yy, else 20yy)
//	MM    month (1 or 2 digits)  dd  day of month
//	HH    hour 0-23              mm  minute
//	ss    second                 SSS milliseconds (1 to 3 digits)
//	'...' quoted literal text, e.g. 'T' or 'Z'
//
// Any other character matches itself. A layout ending in the literal 'Z' is
// interpreted in UTC; every other layout in the configured location.
package dateformat

// catalog is the ordered list of candidate layouts. Order is the tie-break
// when two layouts parse the same number of samples.
var catalog = []string{
	"dd/MM/yyyy HH:mm:ss",
	"dd/MM/yyyy HH:mm",
	"dd/MM/yyyy",
	"MM/dd/yyyy HH:mm:ss",
	"MM/dd/yyyy HH:mm",
	"MM/dd/yyyy",
	"yyyy-MM-dd HH:mm:ss",
	"yyyy-MM-dd HH:mm",
	"yyyy-MM-dd",
	"dd-MM-yyyy HH:mm:ss",
	"dd-MM-yyyy HH:mm",
	"dd-MM-yyyy",
	"dd.MM.yyyy HH:mm:ss",
	"dd.MM.yyyy",
	"yyyy/MM/dd HH:mm:ss",
	"yyyy/MM/dd",
	"yyyy-MM-dd'T'HH:mm:ss.SSS'Z'",
	"yyyy-MM-dd'T'HH:mm:ss'Z'",
	"yyyy-MM-dd'T'HH:mm:ss",
}

// Catalog returns a copy of the candidate layouts in tie-break order.
func Catalog() []string {
	out := make([]string, len(catalog))
	copy(out, catalog)
	return out
}
