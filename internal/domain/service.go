package domain

import "time"

// ServiceCategory classifies the kind of service point a queue belongs to.
type ServiceCategory string

const (
	CategoryAdministration ServiceCategory = "ADMINISTRATION"
	CategoryBank           ServiceCategory = "BANK"
	CategoryHealth         ServiceCategory = "HEALTH"
	CategoryPost           ServiceCategory = "POST"
	CategoryTelecom        ServiceCategory = "TELECOM"
	CategoryOther          ServiceCategory = "OTHER"
)

// ServiceStatus enumerates opening states for a service point.
type ServiceStatus string

const (
	ServiceStatusOpen   ServiceStatus = "OPEN"
	ServiceStatusClosed ServiceStatus = "CLOSED"
	ServiceStatusPaused ServiceStatus = "PAUSED"
)

// AffluenceLevel is a categorical crowding indicator derived from the
// queue fill ratio.
type AffluenceLevel string

const (
	AffluenceLow      AffluenceLevel = "LOW"
	AffluenceModerate AffluenceLevel = "MODERATE"
	AffluenceHigh     AffluenceLevel = "HIGH"
	AffluenceVeryHigh AffluenceLevel = "VERY_HIGH"
)

// defaultReferenceCapacity is used as the fill-ratio denominator for
// services without an explicit queue cap.
const defaultReferenceCapacity = 50

// Service is the aggregate owning one queue: its size, crowding level and
// opening state. CurrentQueueSize must always equal the number of tickets
// in WAITING, CALLED or SERVING for this service.
type Service struct {
	ID                 string
	Name               string
	Code               string
	Category           ServiceCategory
	Status             ServiceStatus
	AffluenceLevel     AffluenceLevel
	CurrentQueueSize   int
	MaxQueueSize       int // 0 means uncapped
	AvgServiceMinutes  int
	EstimatedWaitTime  int
	TotalTicketsServed int
	RequiresValidation bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Open marks the service as accepting tickets.
func (s *Service) Open() {
	s.Status = ServiceStatusOpen
}

// Close stops ticket admission.
func (s *Service) Close() {
	s.Status = ServiceStatusClosed
}

// Pause temporarily stops admission without closing the service.
func (s *Service) Pause() {
	s.Status = ServiceStatusPaused
}

// CanAdmit reports whether a new ticket may join the queue.
func (s *Service) CanAdmit() error {
	if s.Status != ServiceStatusOpen {
		return ErrServiceUnavailable
	}
	if s.MaxQueueSize > 0 && s.CurrentQueueSize >= s.MaxQueueSize {
		return ErrQueueFull
	}
	return nil
}

// IncrementQueue grows the queue by one and recomputes the affluence level
// in the same step so callers never observe a stale level.
func (s *Service) IncrementQueue() {
	s.CurrentQueueSize++
	s.recomputeAffluence()
	s.RecomputeWaitTime()
}

// DecrementQueue shrinks the queue by one, clamping at zero, and
// recomputes the affluence level.
func (s *Service) DecrementQueue() {
	if s.CurrentQueueSize > 0 {
		s.CurrentQueueSize--
	}
	s.recomputeAffluence()
	s.RecomputeWaitTime()
}

// RecomputeWaitTime refreshes the baseline estimate. The richer
// calendar-aware estimate lives in the estimator package; this keeps the
// aggregate self-consistent for snapshot reads.
func (s *Service) RecomputeWaitTime() {
	s.EstimatedWaitTime = s.CurrentQueueSize * s.AvgServiceMinutes
}

// FillRate returns queue occupancy in [0,1+). Uncapped services use a
// fixed reference capacity so affluence still moves with demand.
func (s *Service) FillRate() float64 {
	capacity := s.MaxQueueSize
	if capacity <= 0 {
		capacity = defaultReferenceCapacity
	}
	return float64(s.CurrentQueueSize) / float64(capacity)
}

func (s *Service) recomputeAffluence() {
	s.AffluenceLevel = AffluenceForFillRate(s.FillRate())
}

// AffluenceForFillRate maps a fill ratio onto the crowding scale with
// breakpoints at 0.3, 0.6 and 0.8.
func AffluenceForFillRate(rate float64) AffluenceLevel {
	switch {
	case rate < 0.3:
		return AffluenceLow
	case rate < 0.6:
		return AffluenceModerate
	case rate < 0.8:
		return AffluenceHigh
	default:
		return AffluenceVeryHigh
	}
}

// BaseMinutesPerPerson returns the per-person service duration used by the
// heuristic estimator for this category.
func (c ServiceCategory) BaseMinutesPerPerson() int {
	switch c {
	case CategoryAdministration:
		return 15
	case CategoryBank:
		return 10
	case CategoryHealth:
		return 20
	case CategoryPost:
		return 8
	case CategoryTelecom:
		return 12
	default:
		return 10
	}
}
