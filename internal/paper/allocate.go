package paper

import "sort"

// Allocation assigns a number of questions to a mark size.
type Allocation struct {
	// Marks is the value of each question in this bucket.
	Marks int `json:"marks"`
	// Count is how many questions of this size to generate.
	Count int `json:"count"`
}

// Allocate distributes totalMarks across the given question sizes, smallest
// first. Short questions are capped at 3 per size, five-markers at 2, and
// long-form questions at 1, so papers keep a sensible shape. The allocated
// sum never exceeds totalMarks; leftover marks that fit no remaining size are
// simply not allocated.
func Allocate(totalMarks int, sizes []int) []Allocation {
	sorted := make([]int, len(sizes))
	copy(sorted, sizes)
	sort.Ints(sorted)

	var out []Allocation
	remaining := totalMarks

	for _, marks := range sorted {
		if remaining <= 0 || marks <= 0 {
			break
		}
		count := remaining / marks
		switch {
		case marks <= 3:
			count = min(count, 3)
		case marks <= 5:
			count = min(count, 2)
		default:
			count = min(count, 1)
		}
		if count > 0 {
			out = append(out, Allocation{Marks: marks, Count: count})
			remaining -= marks * count
		}
	}

	return out
}

// allocatedTotal sums the marks covered by an allocation.
func allocatedTotal(allocs []Allocation) int {
	total := 0
	for _, a := range allocs {
		total += a.Marks * a.Count
	}
	return total
}
