package domain

type OccupancyStats struct {
	TotalSlots       int     `json:"totalSlots"`
	AvailableSlots   int     `json:"availableSlots"`
	BookedSlots      int     `json:"bookedSlots"`
	MaintenanceSlots int     `json:"maintenanceSlots"`
	ActiveBookings   int     `json:"activeBookings"`
	OccupancyRate    float64 `json:"occupancyRate"` // percent of slots not available
}

// ComputeRate fills OccupancyRate from the slot counts. An empty inventory has rate 0.
func (s *OccupancyStats) ComputeRate() {
	if s.TotalSlots == 0 {
		s.OccupancyRate = 0
		return
	}
	s.OccupancyRate = float64(s.TotalSlots-s.AvailableSlots) / float64(s.TotalSlots) * 100
}
