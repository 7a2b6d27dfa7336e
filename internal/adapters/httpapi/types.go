package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/sair-explore/quest-api/internal/app/wizard"
	"github.com/sair-explore/quest-api/internal/domain"
	"github.com/sair-explore/quest-api/internal/ports/out/placesearch"
)

// Place is the wire shape of a selected location.
type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Pin       *string `json:"pin,omitempty"`
}

// Route carries both the raw measurements and the display strings so the
// client never re-implements formatting.
type Route struct {
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationMinutes int     `json:"durationMinutes"`
	DistanceText    string  `json:"distanceText"`
	DurationText    string  `json:"durationText"`
	Polyline        *string `json:"polyline,omitempty"`
}

// Suggestion is one place-search result.
type Suggestion struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Pin       *string `json:"pin,omitempty"`
}

// Draft is the wire shape of the in-progress quest.
type Draft struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Difficulty    int     `json:"difficulty"`
	PointsValue   int     `json:"pointsValue"`
	IsPublic      bool    `json:"isPublic"`
	Start         *Place  `json:"start,omitempty"`
	End           *Place  `json:"end,omitempty"`
	Intermediates []Place `json:"intermediates"`
	Route         *Route  `json:"route,omitempty"`
}

// DraftSnapshot is the full wizard state returned by every draft endpoint.
type DraftSnapshot struct {
	Step             string       `json:"step"`
	Focus            string       `json:"focus"`
	Draft            Draft        `json:"draft"`
	Results          []Suggestion `json:"results"`
	Searching        bool         `json:"searching"`
	CalculatingRoute bool         `json:"calculatingRoute"`
	RouteCalculated  bool         `json:"routeCalculated"`
	CanAdvance       bool         `json:"canAdvance"`
	Saving           bool         `json:"saving"`
	ErrorMessage     string       `json:"errorMessage,omitempty"`
	Created          *Quest       `json:"created,omitempty"`
}

// Quest is the wire shape of a persisted quest.
type Quest struct {
	ID        string `json:"id"`
	CreatorID string `json:"creatorId"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  int    `json:"difficulty"`
	PointsValue int    `json:"pointsValue"`
	IsPublic    bool   `json:"isPublic"`

	Start         Place   `json:"start"`
	End           Place   `json:"end"`
	Intermediates []Place `json:"intermediates"`

	DistanceMeters  float64 `json:"distanceMeters"`
	DurationMinutes int     `json:"durationMinutes"`
	DistanceText    string  `json:"distanceText"`
	DurationText    string  `json:"durationText"`
	Polyline        *string `json:"polyline,omitempty"`

	CompletionCount int     `json:"completionCount"`
	AverageRating   float32 `json:"averageRating"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile is the wire shape of a user profile.
type Profile struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Gender          string    `json:"gender"`
	TotalPoints     int       `json:"totalPoints"`
	QuestsCompleted int       `json:"questsCompleted"`
	QuestsCreated   int       `json:"questsCreated"`
	CreatedAt       time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Username string               `json:"username"`
	Email    *openapi_types.Email `json:"email,omitempty"`
	Gender   string               `json:"gender,omitempty"`
}

// UpdateDraftRequest is the tri-state PATCH body: an absent field is left
// untouched, an explicit null clears title/description (and is rejected for
// the others), a value is applied.
type UpdateDraftRequest struct {
	Title       nullable.Nullable[string] `json:"title,omitempty"`
	Description nullable.Nullable[string] `json:"description,omitempty"`
	Category    nullable.Nullable[string] `json:"category,omitempty"`
	Difficulty  nullable.Nullable[int]    `json:"difficulty,omitempty"`
	PointsValue nullable.Nullable[int]    `json:"pointsValue,omitempty"`
	IsPublic    nullable.Nullable[bool]   `json:"isPublic,omitempty"`
	Focus       nullable.Nullable[string] `json:"focus,omitempty"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Focus string `json:"focus,omitempty"`
}

type SelectRequest struct {
	Index int `json:"index"`
}

type CreateDraftResponse struct {
	DraftID  string        `json:"draftId"`
	Snapshot DraftSnapshot `json:"snapshot"`
}

type SearchResponse struct {
	Results []Suggestion `json:"results"`
}

type QuestList struct {
	Quests []Quest `json:"quests"`
}

var stepNames = map[wizard.Step]string{
	wizard.StepDetails: "details",
	wizard.StepStart:   "start",
	wizard.StepEnd:     "end",
	wizard.StepRoute:   "route",
	wizard.StepFinish:  "finish",
}

func toPlace(p domain.PlaceRef) Place {
	return Place{Name: p.Name, Latitude: p.Latitude, Longitude: p.Longitude, Pin: p.Pin}
}

func toPlacePtr(p *domain.PlaceRef) *Place {
	if p == nil {
		return nil
	}
	out := toPlace(*p)
	return &out
}

func toRoutePtr(r *domain.RouteResult) *Route {
	if r == nil {
		return nil
	}
	return &Route{
		DistanceMeters:  r.DistanceMeters,
		DurationMinutes: r.DurationMinutes,
		DistanceText:    domain.FormatDistance(r.DistanceMeters),
		DurationText:    domain.FormatDuration(r.DurationMinutes),
		Polyline:        r.Polyline,
	}
}

func toSuggestions(in []placesearch.Suggestion) []Suggestion {
	out := make([]Suggestion, 0, len(in))
	for _, s := range in {
		out = append(out, Suggestion{
			Name:      s.Name,
			Address:   s.Address,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			Pin:       s.Pin,
		})
	}
	return out
}

func toQuest(q domain.Quest) Quest {
	places := make([]Place, 0, len(q.Intermediates))
	for _, p := range q.Intermediates {
		places = append(places, toPlace(p))
	}
	return Quest{
		ID:        string(q.ID),
		CreatorID: string(q.CreatorID),

		Title:       q.Title,
		Description: q.Description,
		Category:    string(q.Category),
		Difficulty:  q.Difficulty,
		PointsValue: q.PointsValue,
		IsPublic:    q.IsPublic,

		Start:         toPlace(q.Start),
		End:           toPlace(q.End),
		Intermediates: places,

		DistanceMeters:  q.DistanceMeters,
		DurationMinutes: q.DurationMinutes,
		DistanceText:    domain.FormatDistance(q.DistanceMeters),
		DurationText:    domain.FormatDuration(q.DurationMinutes),
		Polyline:        q.Polyline,

		CompletionCount: q.CompletionCount,
		AverageRating:   q.AverageRating,

		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}

func toQuestPtr(q *domain.Quest) *Quest {
	if q == nil {
		return nil
	}
	out := toQuest(*q)
	return &out
}

func toProfile(p domain.UserProfile) Profile {
	return Profile{
		ID:              string(p.ID),
		Username:        p.Username,
		Email:           p.Email,
		Gender:          string(p.Gender),
		TotalPoints:     p.TotalPoints,
		QuestsCompleted: p.QuestsCompleted,
		QuestsCreated:   p.QuestsCreated,
		CreatedAt:       p.CreatedAt,
	}
}

func toSnapshot(snap wizard.Snapshot, canAdvance bool) DraftSnapshot {
	intermediates := make([]Place, 0, len(snap.Draft.Intermediates))
	for _, p := range snap.Draft.Intermediates {
		intermediates = append(intermediates, toPlace(p))
	}
	return DraftSnapshot{
		Step:  stepNames[snap.Step],
		Focus: string(snap.Focus),
		Draft: Draft{
			Title:         snap.Draft.Title,
			Description:   snap.Draft.Description,
			Category:      string(snap.Draft.Category),
			Difficulty:    snap.Draft.Difficulty,
			PointsValue:   snap.Draft.PointsValue,
			IsPublic:      snap.Draft.IsPublic,
			Start:         toPlacePtr(snap.Draft.Start),
			End:           toPlacePtr(snap.Draft.End),
			Intermediates: intermediates,
			Route:         toRoutePtr(snap.Draft.Route),
		},
		Results:          toSuggestions(snap.Results),
		Searching:        snap.Searching,
		CalculatingRoute: snap.CalculatingRoute,
		RouteCalculated:  snap.RouteCalculated,
		CanAdvance:       canAdvance,
		Saving:           snap.Saving,
		ErrorMessage:     snap.ErrorMessage,
		Created:          toQuestPtr(snap.Created),
	}
}
