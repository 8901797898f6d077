package analysis

import "fmt"

// validateShape checks the invariants every PartyAnalysis must satisfy
// before it reaches the caller.
func validateShape(a PartyAnalysis) error {
	if a.Agreement < 0 || a.Agreement > 100 {
		return fmt.Errorf("agreement %d out of range [0,100]", a.Agreement)
	}
	if a.Explanation == "" {
		return fmt.Errorf("empty explanation")
	}
	for i, c := range a.Citations {
		if c.Text == "" {
			return fmt.Errorf("citation %d has empty text", i)
		}
	}
	return nil
}
