package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// SystemPrompt frames every scoring request
const SystemPrompt = "You are a legal case management assistant that assesses the scheduling priority of court cases. Respond with a single JSON object only."

const responseInstructions = `Return ONLY a JSON object with exactly these fields and no other text:
{
  "priorityScore": <integer 0-100>,
  "complexityScore": <integer 0-100>,
  "urgencyFactors": ["<factor>", ...],
  "delayRiskFactors": ["<risk>", ...],
  "estimatedDuration": <positive integer, days to completion>,
  "successProbability": <integer 0-100>,
  "similarCasesCount": <non-negative integer>,
  "reasoning": "<one or two sentences>"
}

Priority score guidance:
- 80-100: critical or urgent, needs immediate attention
- 60-79: medium-high priority
- 40-59: medium priority
- 20-39: low-medium priority
- 0-19: low priority`

// RenderPrompt writes the case summary and the response contract as the user prompt
func RenderPrompt(s Summary) string {
	var b strings.Builder

	b.WriteString("Analyze the following legal case and assess its scheduling priority.\n\n")
	fmt.Fprintf(&b, "Case Number: %s\n", s.CaseNumber)
	fmt.Fprintf(&b, "Title: %s\n", s.Title)
	fmt.Fprintf(&b, "Case Type: %s\n", orUnknown(s.CaseType))
	if s.SubCategory != "" {
		fmt.Fprintf(&b, "Sub-category: %s\n", s.SubCategory)
	}
	fmt.Fprintf(&b, "Status: %s\n", s.Status)
	fmt.Fprintf(&b, "Case Age: %d days\n", s.AgeDays)
	fmt.Fprintf(&b, "Court Level: %s\n", orUnknown(s.CourtLevel))
	fmt.Fprintf(&b, "Estimated Value: %s\n", formatValue(s.EstimatedValue))

	if s.DaysUntilHearing != nil {
		fmt.Fprintf(&b, "Days Until Hearing: %d\n", *s.DaysUntilHearing)
	} else {
		b.WriteString("Days Until Hearing: not scheduled\n")
	}
	fmt.Fprintf(&b, "Hard Deadline: %s\n", yesNo(s.HasDeadline))

	if s.LawyerAssigned {
		fmt.Fprintf(&b, "Lawyer Experience: %d years\n", s.LawyerExperience)
		fmt.Fprintf(&b, "Lawyer Specialization: %s\n", orUnknown(s.LawyerSpecialization))
	} else {
		b.WriteString("Lawyer: not assigned\n")
	}

	fmt.Fprintf(&b, "Currently Delayed: %s (%d days)\n", yesNo(s.IsDelayed), s.DelayDays)
	fmt.Fprintf(&b, "Documents: %d\n", s.DocumentCount)
	fmt.Fprintf(&b, "Milestones Completed: %d/%d\n", s.MilestonesCompleted, s.MilestonesTotal)
	if s.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", s.Description)
	}

	b.WriteString("\n")
	b.WriteString(responseInstructions)
	return b.String()
}

func formatValue(v float64) string {
	if v <= 0 {
		return "not specified"
	}
	return "₹" + humanize.Comma(int64(math.Round(v)))
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
