package scoring

import (
	"strings"
	"time"

	"github.com/linesmerrill/legal-case-api/models"
)

// Summary is the bounded view of a case sent to the model
type Summary struct {
	CaseNumber  string
	Title       string
	CaseType    string
	SubCategory string
	Status      string
	Description string

	AgeDays          int
	CourtLevel       string
	EstimatedValue   float64
	DaysUntilHearing *int
	HasDeadline      bool

	LawyerAssigned       bool
	LawyerExperience     int
	LawyerSpecialization string

	IsDelayed bool
	DelayDays int

	DocumentCount       int
	MilestonesCompleted int
	MilestonesTotal     int
}

// Summarize extracts the scheduling-relevant facts of a case at now. lawyer
// may be nil when the case is unassigned or the lawyer could not be loaded.
func Summarize(c models.Case, lawyer *models.User, now time.Time, descriptionLimit int) Summary {
	d := c.Details
	s := Summary{
		CaseNumber:          d.CaseNumber,
		Title:               d.Title,
		CaseType:            d.CaseType,
		SubCategory:         d.SubCategory,
		Status:              d.Status,
		Description:         truncate(strings.TrimSpace(d.Description), descriptionLimit),
		AgeDays:             d.AgeDays(now),
		CourtLevel:          d.CourtLevel,
		EstimatedValue:      d.EstimatedValue,
		HasDeadline:         d.Deadline != nil,
		IsDelayed:           d.DelayInfo.IsDelayed,
		DelayDays:           d.DelayInfo.DelayDays,
		DocumentCount:       len(d.Documents),
		MilestonesCompleted: d.CompletedMilestones(),
		MilestonesTotal:     len(d.Milestones),
	}

	if d.HearingDate != nil {
		days := int(d.HearingDate.Sub(now).Hours() / 24)
		s.DaysUntilHearing = &days
	}

	if lawyer != nil {
		s.LawyerAssigned = true
		if p := lawyer.Details.LawyerProfile; p != nil {
			s.LawyerExperience = p.YearsOfExperience
			s.LawyerSpecialization = strings.Join(p.Specialization, ", ")
		}
	}
	return s
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit < 1 || len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
