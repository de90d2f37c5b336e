// Package rubric implements the ten-criterion scoring scheme experts
// apply to projects: canonical criterion order, per-review totals,
// project-level summaries, and submission validation.
//
// Everything here is a pure function over already-fetched data; the
// stores and handlers own all I/O.
package rubric

import (
	"fmt"
	"strings"

	"github.com/ChasovDS/konkursant-grants/internal/domain/models"
)

// The ten fixed criteria, in canonical display order. The set is not
// user-extensible; both validation and summation iterate this list.
const (
	TeamExperience  = "team_experience_competencies"
	Relevance       = "project_relevance_social_significance"
	Uniqueness      = "solution_uniqueness_addressing_problem"
	Scale           = "project_scale"
	Perspective     = "project_perspective_potential"
	Transparency    = "project_information_transparency"
	Feasibility     = "project_feasibility_effectiveness"
	OwnContribution = "own_contribution_additional_resources"
	PlannedExpenses = "planned_project_expenses"
	BudgetRealism   = "project_budget_realism"
)

// Criteria lists the criterion keys in canonical order.
var Criteria = []string{
	TeamExperience,
	Relevance,
	Uniqueness,
	Scale,
	Perspective,
	Transparency,
	Feasibility,
	OwnContribution,
	PlannedExpenses,
	BudgetRealism,
}

// Score bounds for a single criterion.
const (
	MinScore = 1
	MaxScore = 10
)

// NumCriteria is the size of the fixed criterion set.
const NumCriteria = 10

// MaxTotal is the highest total a single review can reach.
const MaxTotal = MaxScore * NumCriteria

// Total sums the ten criteria of one score map in canonical order.
// A missing criterion contributes 0; Total never panics on sparse input.
func Total(criteria map[string]int) int {
	sum := 0
	for _, key := range Criteria {
		sum += criteria[key]
	}
	return sum
}

// Row is one review's line in a project summary table.
type Row struct {
	ReviewID     string `json:"review_id"`
	ReviewerID   string `json:"reviewer_id"`
	ReviewerName string `json:"reviewer_full_name,omitempty"`
	// Scores holds the per-criterion values in canonical order
	// (0 for a criterion the review does not carry).
	Scores []int `json:"scores"`
	// MissingCriteria lists criterion keys absent from the review, so a
	// renderer can distinguish a hole from a genuine low score. Empty
	// for any review that passed submission validation.
	MissingCriteria []string `json:"missing_criteria"`
	Total           int      `json:"total"`
	Comment         string   `json:"expert_comment,omitempty"`
}

// Summary aggregates all reviews of one project for tabular display.
type Summary struct {
	Rows []Row `json:"rows"`
	// GrandAverage is the arithmetic mean of row totals, nil when there
	// are no reviews ("no scores yet" — never a division by zero).
	GrandAverage *float64 `json:"grand_average"`
}

// Summarize turns raw reviews into a display summary. Pure; the input
// order is preserved.
func Summarize(reviews []models.Review) Summary {
	rows := make([]Row, 0, len(reviews))
	sum := 0
	for _, rv := range reviews {
		row := Row{
			ReviewID:        rv.ID.Hex(),
			ReviewerID:      rv.ReviewerID.Hex(),
			ReviewerName:    rv.ReviewerName,
			Scores:          make([]int, 0, NumCriteria),
			MissingCriteria: []string{},
			Comment:         rv.Comment,
		}
		for _, key := range Criteria {
			score, ok := rv.Criteria[key]
			if !ok {
				row.MissingCriteria = append(row.MissingCriteria, key)
				score = 0
			}
			row.Scores = append(row.Scores, score)
			row.Total += score
		}
		sum += row.Total
		rows = append(rows, row)
	}

	s := Summary{Rows: rows}
	if len(rows) > 0 {
		avg := float64(sum) / float64(len(rows))
		s.GrandAverage = &avg
	}
	return s
}

// FieldError describes one invalid or absent rubric field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks a submission: all ten criteria present with scores in
// [MinScore, MaxScore], no unknown criterion keys, and a comment that is
// non-empty after trimming. A nil return means the review may be
// persisted.
func Validate(criteria map[string]int, comment string) []FieldError {
	var errs []FieldError
	for _, key := range Criteria {
		score, ok := criteria[key]
		switch {
		case !ok:
			errs = append(errs, FieldError{Field: key, Message: "criterion is required"})
		case score < MinScore || score > MaxScore:
			errs = append(errs, FieldError{
				Field:   key,
				Message: fmt.Sprintf("score must be between %d and %d", MinScore, MaxScore),
			})
		}
	}
	for key := range criteria {
		if !isCriterion(key) {
			errs = append(errs, FieldError{Field: key, Message: "unknown criterion"})
		}
	}
	if strings.TrimSpace(comment) == "" {
		errs = append(errs, FieldError{Field: "expert_comment", Message: "comment must not be empty"})
	}
	return errs
}

func isCriterion(key string) bool {
	for _, k := range Criteria {
		if k == key {
			return true
		}
	}
	return false
}
