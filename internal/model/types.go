package model

import "time"

// API request and read models.

type SolveRequest struct {
	TenantID     string   `json:"tenantId,omitempty"`
	Scenario     Scenario `json:"scenario" validate:"-"`
	Level        int      `json:"level,omitempty" validate:"gte=0"`
	Strategy     string   `json:"strategy,omitempty" validate:"omitempty,oneof=auto greedy multi segmented avoid cluster"`
	Seed         int64    `json:"seed,omitempty"`
	TwoOptPasses int      `json:"twoOptPasses,omitempty" validate:"gte=0,lte=50"`
	Async        bool     `json:"async,omitempty"`
}

const (
	PlanRunning   = "running"
	PlanCompleted = "completed"
	PlanFailed    = "failed"
)

type Plan struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenantId"`
	Name        string         `json:"name,omitempty"`
	Strategy    string         `json:"strategy"`
	Seed        int64          `json:"seed,omitempty"`
	Status      string         `json:"status"`
	Trips       []Trip         `json:"trips"`
	Credited    []int          `json:"credited"`
	Distance    float64        `json:"distance"`
	Importance  float64        `json:"importance"`
	Score       float64        `json:"score"`
	Stats       map[string]int `json:"stats,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

type Trip struct {
	Stops    []StopOut `json:"stops"`
	Distance float64   `json:"distance"`
}

type StopOut struct {
	Kind   string  `json:"kind"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Diet   string  `json:"diet,omitempty"`
	Target *int    `json:"target,omitempty"`
}

// TripOut converts a planned route into its read model.
func TripOut(r Route, distance float64) Trip {
	out := Trip{Stops: make([]StopOut, len(r.Stops)), Distance: distance}
	for i, s := range r.Stops {
		so := StopOut{Kind: s.Kind.String(), X: s.Pos.X, Y: s.Pos.Y, Z: s.Pos.Z, Diet: string(s.Diet)}
		if s.Kind == StopTarget {
			id := int(s.Target)
			so.Target = &id
		}
		out.Stops[i] = so
	}
	return out
}

// XY projects a stored trip onto the ground plane.
func (t Trip) XY() [][2]float64 {
	out := make([][2]float64, len(t.Stops))
	for i, s := range t.Stops {
		out[i] = [2]float64{s.X, s.Y}
	}
	return out
}

type SubscriptionRequest struct {
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url" validate:"required,url"`
	Events   []string `json:"events" validate:"required,min=1,dive,oneof=trip.planned plan.completed plan.failed"`
	Secret   string   `json:"secret"`
}

type Subscription struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret,omitempty"`
}
