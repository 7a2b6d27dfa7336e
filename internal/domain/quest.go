package domain

import "time"

type Category string

const (
	CategoryAdventure   Category = "Adventure"
	CategoryCultural    Category = "Cultural"
	CategoryHistorical  Category = "Historical"
	CategoryNature      Category = "Nature"
	CategoryFood        Category = "Food"
	CategoryEducational Category = "Educational"
)

// Categories lists the selectable quest categories in display order.
var Categories = []Category{
	CategoryAdventure,
	CategoryCultural,
	CategoryHistorical,
	CategoryNature,
	CategoryFood,
	CategoryEducational,
}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

const (
	DifficultyMin     = 1
	DifficultyMax     = 5
	DefaultDifficulty = 2

	PointsMin     = 50
	PointsMax     = 500
	PointsStep    = 50
	DefaultPoints = 100
)

func ValidDifficulty(d int) bool {
	return d >= DifficultyMin && d <= DifficultyMax
}

func ValidPoints(p int) bool {
	return p >= PointsMin && p <= PointsMax && p%PointsStep == 0
}

// PlaceRef is a resolved, named geographic point selected from search
// results. It is immutable once selected; replacing a draft endpoint
// invalidates any computed route.
type PlaceRef struct {
	Name      string
	Latitude  float64
	Longitude float64
	// Pin is the vendor place-pin identifier; nil means unset.
	Pin *string
}

// RouteResult is the outcome of one route-calculation call.
type RouteResult struct {
	DistanceMeters  float64
	DurationMinutes int
	// Polyline is the encoded route path; nil means the vendor did not return one.
	Polyline *string
}

// QuestDraft is the in-progress, unsaved quest being built by the wizard.
// It has no identity until persistence succeeds.
type QuestDraft struct {
	Title       string
	Description string
	Category    Category
	Difficulty  int
	PointsValue int
	IsPublic    bool

	Start         *PlaceRef
	End           *PlaceRef
	Intermediates []PlaceRef

	// Route is nil whenever start, end, or the intermediate set changed
	// after the last calculation.
	Route *RouteResult
}

// NewQuestDraft returns a draft with the wizard defaults.
func NewQuestDraft() QuestDraft {
	return QuestDraft{
		Category:    CategoryAdventure,
		Difficulty:  DefaultDifficulty,
		PointsValue: DefaultPoints,
		IsPublic:    true,
	}
}

// Quest is the persisted, immutable quest record.
type Quest struct {
	ID        QuestID
	CreatorID UserID

	Title       string
	Description string
	Category    Category
	Difficulty  int
	PointsValue int
	IsPublic    bool

	Start         PlaceRef
	End           PlaceRef
	Intermediates []PlaceRef

	DistanceMeters  float64
	DurationMinutes int
	Polyline        *string

	CompletionCount int
	AverageRating   float32

	CreatedAt time.Time
	UpdatedAt time.Time
}
