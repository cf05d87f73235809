package reconcile

import (
	"fmt"
	"time"

	"github.com/agentstation/sightline/pkg/inventory"
)

// DescribeLayout is the date layout used by Describe.
const DescribeLayout = "2006-01-02"

// Describe renders a slot as a sentence for display next to a cell.
func Describe(slot inventory.Slot, sourceFile string, staleBoundary time.Time) string {
	switch Classify(slot, staleBoundary) {
	case StatusMissing:
		return fmt.Sprintf("Not present in %s", sourceFile)
	case StatusNoDate:
		return fmt.Sprintf("Present in %s (No date info)", sourceFile)
	case StatusStale:
		return fmt.Sprintf("Last seen in %s on %s (This record is stale)", sourceFile, slot.At.Format(DescribeLayout))
	default:
		return fmt.Sprintf("Last seen in %s on %s", sourceFile, slot.At.Format(DescribeLayout))
	}
}
