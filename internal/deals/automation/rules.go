// Package automation decides which follow-up task, if any, a scored deal
// should generate. It is pure: task history comes in as a value and new tasks
// go out as values for the caller to persist.
package automation

import (
	"sort"
	"time"

	"dealflow_backend/internal/deals/domain"
)

// Kind is the dedup key of a rule, paired with the deal id.
type Kind string

const (
	KindHotLead      Kind = "hot_lead"
	KindWarmFollowUp Kind = "warm_follow_up"
	KindColdNurture  Kind = "cold_nurture"
)

// DefaultCooldown is the minimum time between two tasks of the same kind on
// one deal.
const DefaultCooldown = 4 * time.Hour

// Rule fires when MinScore <= score < MaxScore.
//
// Title and Description are templates; {deal}, {score}, {temperature} and
// {insights} are substituted.
type Rule struct {
	Kind        Kind                `koanf:"kind" json:"kind"`
	MinScore    int                 `koanf:"min_score" json:"minScore"`
	MaxScore    int                 `koanf:"max_score" json:"maxScore"`
	TaskType    domain.TaskType     `koanf:"task_type" json:"taskType"`
	Priority    domain.TaskPriority `koanf:"priority" json:"priority"`
	DueIn       time.Duration       `koanf:"due_in" json:"dueIn"`
	Title       string              `koanf:"title" json:"title"`
	Description string              `koanf:"description" json:"description"`
}

// Matches reports whether score falls within the rule's range.
func (r Rule) Matches(score int) bool {
	return score >= r.MinScore && score < r.MaxScore
}

// Policy is the declarative rule table plus its cooldown.
type Policy struct {
	Rules    []Rule        `koanf:"rules" json:"rules"`
	Cooldown time.Duration `koanf:"cooldown" json:"cooldown"`
}

// DefaultPolicy returns the production rule table, highest threshold first.
func DefaultPolicy() Policy {
	return Policy{
		Cooldown: DefaultCooldown,
		Rules: []Rule{
			{
				Kind:        KindHotLead,
				MinScore:    80,
				MaxScore:    101,
				TaskType:    domain.TaskTypeImmediateOutreach,
				Priority:    domain.TaskPriorityHigh,
				DueIn:       2 * time.Hour,
				Title:       "Hot lead: contact {deal} now",
				Description: "Engagement score {score} ({temperature}). {insights}",
			},
			{
				Kind:        KindWarmFollowUp,
				MinScore:    50,
				MaxScore:    80,
				TaskType:    domain.TaskTypeScheduledFollowUp,
				Priority:    domain.TaskPriorityMedium,
				DueIn:       24 * time.Hour,
				Title:       "Schedule a follow-up for {deal}",
				Description: "Engagement score {score} ({temperature}). {insights}",
			},
			{
				Kind:        KindColdNurture,
				MinScore:    1,
				MaxScore:    50,
				TaskType:    domain.TaskTypeNurtureCampaign,
				Priority:    domain.TaskPriorityLow,
				DueIn:       7 * 24 * time.Hour,
				Title:       "Enroll {deal} in a nurture campaign",
				Description: "Engagement score {score} ({temperature}). {insights}",
			},
		},
	}
}

// Validate returns a non-empty reason when the table is unusable.
func (p Policy) Validate() string {
	if p.Cooldown < 0 {
		return "cooldown must not be negative"
	}
	seen := make(map[Kind]bool, len(p.Rules))
	for _, r := range p.Rules {
		switch {
		case r.Kind == "":
			return "rule kind is required"
		case seen[r.Kind]:
			return "duplicate rule kind " + string(r.Kind)
		case r.MinScore < 1:
			return "rule " + string(r.Kind) + " must not fire on a zero score"
		case r.MaxScore <= r.MinScore:
			return "rule " + string(r.Kind) + " has an empty score range"
		case !domain.IsKnownTaskPriority(r.Priority):
			return "rule " + string(r.Kind) + " has an unknown priority"
		case r.TaskType == "":
			return "rule " + string(r.Kind) + " has no task type"
		case r.DueIn <= 0:
			return "rule " + string(r.Kind) + " must have a positive due offset"
		case r.Title == "":
			return "rule " + string(r.Kind) + " has no title"
		}
		seen[r.Kind] = true
	}
	return ""
}

// ordered returns the rules sorted most specific (highest threshold) first.
func (p Policy) ordered() []Rule {
	out := make([]Rule, len(p.Rules))
	copy(out, p.Rules)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MinScore > out[j].MinScore
	})
	return out
}
