package models

import "time"

// StructuredEvent is one ANPR detection decoded from a camera's event XML.
// All values are kept as the camera sent them.
type StructuredEvent struct {
	IPAddress    string `json:"ip_address" bson:"ip_address"`
	DateTime     string `json:"date_time" bson:"date_time"`
	EventType    string `json:"event_type" bson:"event_type"`
	LicensePlate string `json:"license_plate" bson:"license_plate"`
	VehicleType  string `json:"vehicle_type" bson:"vehicle_type"`
	VehicleColor string `json:"vehicle_color" bson:"vehicle_color"`
	VehicleSpeed string `json:"vehicle_speed" bson:"vehicle_speed"`
}

// Fields returns the event as a flat map keyed by the JSON field names.
func (e StructuredEvent) Fields() map[string]string {
	return map[string]string{
		"ip_address":    e.IPAddress,
		"date_time":     e.DateTime,
		"event_type":    e.EventType,
		"license_plate": e.LicensePlate,
		"vehicle_type":  e.VehicleType,
		"vehicle_color": e.VehicleColor,
		"vehicle_speed": e.VehicleSpeed,
	}
}

// EventRecord is the stored form of a StructuredEvent.
type EventRecord struct {
	ID         string    `json:"id" bson:"_id"`
	ReceivedAt time.Time `json:"received_at" bson:"received_at"`
	StructuredEvent `bson:",inline"`
}

func NewEventRecord(id string, event StructuredEvent, receivedAt time.Time) EventRecord {
	return EventRecord{
		ID:              id,
		ReceivedAt:      receivedAt,
		StructuredEvent: event,
	}
}
