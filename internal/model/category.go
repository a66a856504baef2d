package model

import (
	"encoding/json"
	"fmt"
)

// Category is one of the fixed life-domain tags a habit belongs to.
//
// It is an int enum (not a free-form string) so that per-category scores can
// live in a fixed-size array: CategoryScores always holds exactly
// NumCategories values, and the compiler rejects any attempt to build one
// with a missing slot.
type Category int

const (
	CategoryPhysicalTraining Category = iota
	CategoryNutrition
	CategorySleepRecovery
	CategoryMindfulness
	CategoryReflection
	CategoryRelationships
	CategoryPersonalGrowth
	CategoryEnvironment

	// NumCategories must stay last.
	NumCategories
)

var categoryNames = [NumCategories]string{
	CategoryPhysicalTraining: "PHYSICAL_TRAINING",
	CategoryNutrition:        "NUTRITION",
	CategorySleepRecovery:    "SLEEP_RECOVERY",
	CategoryMindfulness:      "MINDFULNESS",
	CategoryReflection:       "REFLECTION",
	CategoryRelationships:    "RELATIONSHIPS",
	CategoryPersonalGrowth:   "PERSONAL_GROWTH",
	CategoryEnvironment:      "ENVIRONMENT",
}

// scoreKeys are the JSON keys and column prefixes used for per-category sub-scores.
var scoreKeys = [NumCategories]string{
	CategoryPhysicalTraining: "physical",
	CategoryNutrition:        "nutrition",
	CategorySleepRecovery:    "sleep",
	CategoryMindfulness:      "mindfulness",
	CategoryReflection:       "reflection",
	CategoryRelationships:    "relationships",
	CategoryPersonalGrowth:   "growth",
	CategoryEnvironment:      "environment",
}

// AllCategories lists every category in declaration order.
func AllCategories() []Category {
	out := make([]Category, 0, NumCategories)
	for c := Category(0); c < NumCategories; c++ {
		out = append(out, c)
	}
	return out
}

func (c Category) Valid() bool {
	return c >= 0 && c < NumCategories
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// ScoreColumn is the daily_scores column holding this category's sub-score.
func (c Category) ScoreColumn() string {
	return scoreKeys[c] + "_score"
}

// ParseCategory converts "NUTRITION" etc. back into a Category.
func ParseCategory(s string) (Category, error) {
	for c, name := range categoryNames {
		if name == s {
			return Category(c), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid category %d", int(c))
	}
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CategoryScores holds one sub-score per category. The zero value is all zeros.
type CategoryScores [NumCategories]int

// Total sums every category.
func (s CategoryScores) Total() int {
	total := 0
	for _, v := range s {
		total += v
	}
	return total
}

// MarshalJSON writes every category, including zero ones:
//
//	{"physicalScore":5,"nutritionScore":3,"sleepScore":0,...}
func (s CategoryScores) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, NumCategories)
	for c, v := range s {
		m[scoreKeys[c]+"Score"] = v
	}
	return json.Marshal(m)
}

func (s *CategoryScores) UnmarshalJSON(b []byte) error {
	var m map[string]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var out CategoryScores
	for c := range out {
		out[c] = m[scoreKeys[c]+"Score"]
	}
	*s = out
	return nil
}
