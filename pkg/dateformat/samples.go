package dateformat

import (
	"strings"

	"github.com/agentstation/sightline/pkg/constants"
	"github.com/agentstation/sightline/pkg/records"
)

// Samples returns up to n non-blank values of column in row order. A
// non-positive n uses the default sample size.
func Samples(rows []records.Row, column string, n int) []string {
	if n <= 0 {
		n = constants.DefaultSampleSize
	}
	out := make([]string, 0, n)
	for _, row := range rows {
		if len(out) == n {
			break
		}
		if v := strings.TrimSpace(row[column]); v != "" {
			out = append(out, v)
		}
	}
	return out
}
