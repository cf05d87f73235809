package records_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/sightline/pkg/records"
)

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n", " \r\n \t\n"} {
		table := records.Parse(input)
		require.NotNil(t, table)
		assert.Empty(t, table.Headers, "input %q", input)
		assert.Empty(t, table.Rows, "input %q", input)
		assert.Equal(t, 0, table.Len())
	}
}

func TestParse_HeadersTrimmed(t *testing.T) {
	table := records.Parse(" Name , Last Seen ,OS\nPC01,2024-01-01,win")
	assert.Equal(t, []string{"Name", "Last Seen", "OS"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "2024-01-01", table.Rows[0]["Last Seen"])
}

func TestParse_FirstNonEmptyLineIsHeader(t *testing.T) {
	table := records.Parse("\n\n  \nName,Date\npc1,2024-01-01\n")
	assert.Equal(t, []string{"Name", "Date"}, table.Headers)
	assert.Equal(t, 1, table.Len())
}

func TestParse_ShortAndLongRows(t *testing.T) {
	table := records.Parse("a,b,c\n1\n1,2,3,4,5")
	require.Len(t, table.Rows, 2)

	assert.Equal(t, records.Row{"a": "1", "b": "", "c": ""}, table.Rows[0])
	assert.Equal(t, records.Row{"a": "1", "b": "2", "c": "3"}, table.Rows[1])
}

func TestParse_CRLF(t *testing.T) {
	table := records.Parse("Name,Date\r\npc1,2024-01-01\r\npc2,2024-02-01\r\n")
	assert.Equal(t, []string{"Name", "Date"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "2024-02-01", table.Rows[1]["Date"])
}

func TestParse_QuotedDelimiterIsNotSpecial(t *testing.T) {
	table := records.Parse(`Name,Note` + "\n" + `pc1,"a,b"`)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, `"a`, table.Rows[0]["Note"])
}

func TestParse_RectangularRoundTrip(t *testing.T) {
	headers := []string{"Host", "Seen", "Owner"}
	for _, n := range []int{1, 7, 50} {
		var sb strings.Builder
		sb.WriteString(strings.Join(headers, ","))
		for i := 0; i < n; i++ {
			fmt.Fprintf(&sb, "\n  host%d , 2024-01-%02d,owner%d ", i, i%28+1, i)
		}

		table := records.Parse(sb.String())
		require.Len(t, table.Rows, n)
		for i, row := range table.Rows {
			assert.Len(t, row, len(headers))
			assert.Equal(t, fmt.Sprintf("host%d", i), row.Get("Host"))
			assert.Equal(t, fmt.Sprintf("owner%d", i), row.Get("Owner"))
		}
	}
}

func TestTable_Column(t *testing.T) {
	table := records.Parse("Name,Date\npc1,x\npc2,\npc3,y")
	assert.Equal(t, []string{"x", "", "y"}, table.Column("Date"))
	assert.True(t, table.HasColumn("Name"))
	assert.False(t, table.HasColumn("Missing"))
	assert.Equal(t, []string{"", "", ""}, table.Column("Missing"))
}
