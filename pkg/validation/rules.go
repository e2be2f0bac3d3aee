package validation

// Request bodies accepted by the HTTP surface.

// Coordinate is a WGS84 point as sent by clients.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// LoopRouteRequest asks for a loop of the given length from Start.
type LoopRouteRequest struct {
	Start         Coordinate `json:"start"`
	DistanceMiles float64    `json:"distance_miles" validate:"gt=0,lte=100"`
	Preset        string     `json:"preset,omitempty" validate:"omitempty,max=64"`
	Environment   string     `json:"environment,omitempty" validate:"omitempty,route_environment"`
	MaxAttempts   int        `json:"max_attempts,omitempty" validate:"omitempty,gte=1,lte=20"`
}

// LoopDestinationRequest is a loop that must pass through Destination.
type LoopDestinationRequest struct {
	LoopRouteRequest
	Destination Coordinate `json:"destination"`
}

// OutAndBackRequest biases the turnaround point towards Direction.
type OutAndBackRequest struct {
	Start         Coordinate `json:"start"`
	DistanceMiles float64    `json:"distance_miles" validate:"gt=0,lte=100"`
	Direction     string     `json:"direction" validate:"required,direction"`
	Environment   string     `json:"environment,omitempty" validate:"omitempty,route_environment"`
	MaxAttempts   int        `json:"max_attempts,omitempty" validate:"omitempty,gte=1,lte=20"`
}

// ExtendedDestinationRequest runs a warm-up loop before heading to Destination.
type ExtendedDestinationRequest struct {
	Start         Coordinate `json:"start"`
	Destination   Coordinate `json:"destination"`
	DistanceMiles float64    `json:"distance_miles" validate:"gt=0,lte=100"`
	Environment   string     `json:"environment,omitempty" validate:"omitempty,route_environment"`
	MaxAttempts   int        `json:"max_attempts,omitempty" validate:"omitempty,gte=1,lte=20"`
}

// DestinationRequest is a plain A to B (or A to B to A) request.
type DestinationRequest struct {
	Start       Coordinate `json:"start"`
	Destination Coordinate `json:"destination"`
}

// PathRequest carries an already generated route, e.g. for export or
// elevation lookups.
type PathRequest struct {
	Name string       `json:"name,omitempty" validate:"omitempty,max=128"`
	Path []Coordinate `json:"path" validate:"required,min=1,max=20000,dive"`
}

// PlaceQuery is the query string of the places endpoints.
type PlaceQuery struct {
	Query string `form:"q" validate:"required,min=2,max=256"`
}

// TrainingQuery selects the plan start date.
type TrainingQuery struct {
	Start string `form:"start" validate:"required,datetime=2006-01-02"`
}
