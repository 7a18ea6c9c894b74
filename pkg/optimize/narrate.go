package optimize

import (
	"fmt"
	"strings"
)

// Narrate returns the sentence shown under the summary table. When the
// selected plant is already the cheapest there is nothing to relocate.
func Narrate(r Result) string {
	if r.AlreadyOptimal() {
		return fmt.Sprintf("%s is already the lowest-cost plant for this selection; no relocation is needed.", r.SelectedPlant)
	}
	return fmt.Sprintf("By relocating production from %s to the %s, the estimated cost savings are $%d/ton",
		r.SelectedPlant, r.DestinationPlant, r.CostDifference)
}

// Itemize lists the components of a breakdown on one line.
func Itemize(b Breakdown) string {
	if len(b.Components) == 0 {
		return ""
	}
	parts := make([]string, len(b.Components))
	for i, c := range b.Components {
		parts[i] = fmt.Sprintf("%s $%d", c.Name, c.Value)
	}
	return fmt.Sprintf("Consumption cost at %s: %s (total $%d/ton)", b.Plant, strings.Join(parts, ", "), b.Total())
}
