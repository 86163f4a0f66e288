package services

// safetyTag is the one problem tag that always escalates to high priority.
const safetyTag = "safety"

// ClassifyPriority maps a rating and the reported problem tags to a severity
// tier. Rules are checked in precedence order: a very low rating or a safety
// report is always high; a mediocre rating or three and more problems is
// medium; everything else is low. Pure; the result is stored once at creation
// and never recomputed.
func ClassifyPriority(rating int, problems []string) Priority {
	if rating <= 2 || containsTag(problems, safetyTag) {
		return PriorityHigh
	}
	if rating <= 3 || len(problems) >= 3 {
		return PriorityMedium
	}
	return PriorityLow
}

func containsTag(problems []string, tag string) bool {
	for _, p := range problems {
		if p == tag {
			return true
		}
	}
	return false
}
