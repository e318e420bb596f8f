package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Case statuses
const (
	StatusPendingAssignment = "pending_assignment"
	StatusAssigned          = "assigned"
	StatusInProgress        = "in_progress"
	StatusUnderReview       = "under_review"
	StatusAwaitingHearing   = "awaiting_hearing"
	StatusInCourt           = "in_court"
	StatusCompleted         = "completed"
	StatusDismissed         = "dismissed"
	StatusSettled           = "settled"
	StatusAppealed          = "appealed"
)

// Priority labels, derived from the priority score
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityUrgent   = "urgent"
	PriorityCritical = "critical"
)

// Delay impact labels, derived from delay days
const (
	DelayImpactLow      = "low"
	DelayImpactMedium   = "medium"
	DelayImpactHigh     = "high"
	DelayImpactCritical = "critical"
)

// DefaultPriorityScore is the score a case carries before its first analysis
const DefaultPriorityScore = 50

// TerminalStatuses are excluded from (re)scoring, workload counts and queries
var TerminalStatuses = []string{StatusCompleted, StatusDismissed, StatusSettled}

// ActiveManagementStatuses are re-analyzed whenever the case changes after its last analysis
var ActiveManagementStatuses = []string{StatusAssigned, StatusInProgress, StatusAwaitingHearing}

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseDetails        `json:"case" bson:"case"`
	Version int32              `json:"__v" bson:"__v"`
}

// CaseDetails holds the structure for the inner case details
type CaseDetails struct {
	CaseNumber     string     `json:"caseNumber" bson:"caseNumber"`
	Title          string     `json:"title" bson:"title"`
	Description    string     `json:"description" bson:"description"`
	CaseType       string     `json:"caseType" bson:"caseType"`
	SubCategory    string     `json:"subCategory" bson:"subCategory"`
	CourtLevel     string     `json:"courtLevel" bson:"courtLevel"`
	EstimatedValue float64    `json:"estimatedValue" bson:"estimatedValue"`
	FilingDate     time.Time  `json:"filingDate" bson:"filingDate"`
	HearingDate    *time.Time `json:"hearingDate,omitempty" bson:"hearingDate,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty" bson:"deadline,omitempty"`

	// Status is one of the Status* constants
	Status string `json:"status" bson:"status"`

	ClientID         primitive.ObjectID  `json:"client" bson:"client"`
	AssignedLawyerID *primitive.ObjectID `json:"assignedLawyer,omitempty" bson:"assignedLawyer,omitempty"`

	// Scheduling fields, only written by the priority scheduler
	PriorityScore          int         `json:"priorityScore" bson:"priorityScore"`
	Priority               string      `json:"priority" bson:"priority"`
	AIAnalysis             *AIAnalysis `json:"aiAnalysis,omitempty" bson:"aiAnalysis,omitempty"`
	ExpectedCompletionDate *time.Time  `json:"expectedCompletionDate,omitempty" bson:"expectedCompletionDate,omitempty"`
	DelayInfo              DelayInfo   `json:"delayInfo" bson:"delayInfo"`

	Documents  []Document  `json:"documents" bson:"documents"`
	Notes      []Note      `json:"notes" bson:"notes"`
	Milestones []Milestone `json:"milestones" bson:"milestones"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// AIAnalysis is the persisted part of the most recent analysis result
type AIAnalysis struct {
	ComplexityScore    int       `json:"complexityScore" bson:"complexityScore"`
	UrgencyFactors     []string  `json:"urgencyFactors" bson:"urgencyFactors"`
	DelayRiskFactors   []string  `json:"delayRiskFactors" bson:"delayRiskFactors"`
	EstimatedDuration  int       `json:"estimatedDuration" bson:"estimatedDuration"` // days
	SimilarCasesCount  int       `json:"similarCasesCount" bson:"similarCasesCount"`
	SuccessProbability int       `json:"successProbability" bson:"successProbability"`
	LastAnalyzed       time.Time `json:"lastAnalyzed" bson:"lastAnalyzed"`
}

// DelayInfo is derived from the expected completion or hearing date on every save
type DelayInfo struct {
	IsDelayed   bool   `json:"isDelayed" bson:"isDelayed"`
	DelayDays   int    `json:"delayDays" bson:"delayDays"`
	DelayImpact string `json:"delayImpact" bson:"delayImpact"`
}

// Document is an uploaded file attached to a case
type Document struct {
	Name       string    `json:"name" bson:"name"`
	URL        string    `json:"url" bson:"url"`
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt"`
}

// Note is a free text entry on the case timeline
type Note struct {
	Content   string              `json:"content" bson:"content"`
	AuthorID  *primitive.ObjectID `json:"author,omitempty" bson:"author,omitempty"`
	System    bool                `json:"isSystem" bson:"isSystem"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
}

// Milestone is a tracked step of the case
type Milestone struct {
	Title       string     `json:"title" bson:"title"`
	DueDate     *time.Time `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Completed   bool       `json:"completed" bson:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// IsTerminalStatus reports whether status ends scheduling analysis
func IsTerminalStatus(status string) bool {
	for _, s := range TerminalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsActiveManagementStatus reports whether status is re-analyzed on every change
func IsActiveManagementStatus(status string) bool {
	for _, s := range ActiveManagementStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// PriorityLabel maps a priority score to its categorical label
func PriorityLabel(score int) string {
	switch {
	case score >= 90:
		return PriorityCritical
	case score >= 75:
		return PriorityUrgent
	case score >= 60:
		return PriorityHigh
	case score >= 40:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// DelayImpactFor maps delay days to the delay impact label
func DelayImpactFor(delayDays int) string {
	switch {
	case delayDays >= 180:
		return DelayImpactCritical
	case delayDays >= 90:
		return DelayImpactHigh
	case delayDays >= 30:
		return DelayImpactMedium
	default:
		return DelayImpactLow
	}
}

// RefreshDelayInfo recomputes DelayInfo against now. The reference date is the
// expected completion date, falling back to the hearing date.
func (d *CaseDetails) RefreshDelayInfo(now time.Time) {
	ref := d.ExpectedCompletionDate
	if ref == nil {
		ref = d.HearingDate
	}

	info := DelayInfo{DelayImpact: DelayImpactLow}
	if ref != nil && ref.Before(now) && !IsTerminalStatus(d.Status) {
		info.IsDelayed = true
		info.DelayDays = int(now.Sub(*ref).Hours() / 24)
		info.DelayImpact = DelayImpactFor(info.DelayDays)
	}
	d.DelayInfo = info
}

// NeedsAnalysis reports whether the case is due for (re)scoring at now.
// A case qualifies when it is not terminal and it was never analyzed, its
// analysis is older than staleAfter, or it is under active management and
// was modified after its last analysis.
func (d CaseDetails) NeedsAnalysis(now time.Time, staleAfter time.Duration) bool {
	if IsTerminalStatus(d.Status) {
		return false
	}
	if d.AIAnalysis == nil || d.AIAnalysis.LastAnalyzed.IsZero() {
		return true
	}
	last := d.AIAnalysis.LastAnalyzed
	if last.Before(now.Add(-staleAfter)) {
		return true
	}
	return IsActiveManagementStatus(d.Status) && d.UpdatedAt.After(last)
}

// IsUrgent reports whether the case belongs in the urgent queue: a priority
// score of at least 80, a delay of at least 30 days or a hearing within 7 days.
func (d CaseDetails) IsUrgent(now time.Time) bool {
	if IsTerminalStatus(d.Status) {
		return false
	}
	if d.PriorityScore >= UrgentScoreThreshold {
		return true
	}
	if d.DelayInfo.IsDelayed && d.DelayInfo.DelayDays >= UrgentDelayDays {
		return true
	}
	if d.HearingDate != nil {
		h := *d.HearingDate
		return !h.Before(now) && !h.After(now.Add(UrgentHearingWindow))
	}
	return false
}

// Urgent queue thresholds
const (
	UrgentScoreThreshold = 80
	UrgentDelayDays      = 30
	UrgentHearingWindow  = 7 * 24 * time.Hour
)

// AgeDays returns whole days since filing, never negative
func (d CaseDetails) AgeDays(now time.Time) int {
	if d.FilingDate.IsZero() || now.Before(d.FilingDate) {
		return 0
	}
	return int(now.Sub(d.FilingDate).Hours() / 24)
}

// CompletedMilestones counts milestones marked complete
func (d CaseDetails) CompletedMilestones() int {
	n := 0
	for _, m := range d.Milestones {
		if m.Completed {
			n++
		}
	}
	return n
}
