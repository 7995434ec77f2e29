package model

// TimeSlot is a recurring weekly pickup/return window with a fixed
// capacity. Start and end are display labels exactly as the partner
// entered them; they are not parsed as times.
type TimeSlot struct {
	ID          int64  `json:"id"`
	PartnerID   int64  `json:"partner_id"`
	DayOfWeek   string `json:"day_of_week"` // "Monday" .. "Sunday"
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	MaxCapacity int    `json:"max_capacity"` // 0 disables the slot
}

// SlotAvailability is one row of an availability query: a slot that
// still has room on the requested date.
type SlotAvailability struct {
	SlotID            int64  `json:"id"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	AvailableCapacity int    `json:"available_capacity"`
}
