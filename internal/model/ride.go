package model

import (
	"time"
)

type RideStatus string

const (
	RideStatusScheduled RideStatus = "scheduled"
	RideStatusAssigned  RideStatus = "assigned"
	RideStatusEnRoute   RideStatus = "en_route"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

var RideStatuses = []string{
	string(RideStatusScheduled),
	string(RideStatusAssigned),
	string(RideStatusEnRoute),
	string(RideStatusCompleted),
	string(RideStatusCancelled),
}

type Ride struct {
	ID             string     `db:"id" json:"id"`
	PassengerName  string     `db:"passenger_name" json:"passengerName"`
	PartnerID      *string    `db:"partner_id" json:"partnerId,omitempty"`
	DriverID       *string    `db:"driver_id" json:"driverId,omitempty"`
	PickupAddress  string     `db:"pickup_address" json:"pickupAddress"`
	PickupLat      *float64   `db:"pickup_lat" json:"pickupLat,omitempty"`
	PickupLon      *float64   `db:"pickup_lon" json:"pickupLon,omitempty"`
	DropoffAddress string     `db:"dropoff_address" json:"dropoffAddress"`
	DropoffLat     *float64   `db:"dropoff_lat" json:"dropoffLat,omitempty"`
	DropoffLon     *float64   `db:"dropoff_lon" json:"dropoffLon,omitempty"`
	ScheduledAt    time.Time  `db:"scheduled_at" json:"scheduledAt"`
	Status         RideStatus `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

type CreateRideParams struct {
	ID             string
	PassengerName  string
	PartnerID      *string
	PickupAddress  string
	PickupLat      *float64
	PickupLon      *float64
	DropoffAddress string
	DropoffLat     *float64
	DropoffLon     *float64
	ScheduledAt    time.Time
}

type UpdateRideParams struct {
	PassengerName  *string
	DriverID       *string
	PickupAddress  *string
	DropoffAddress *string
	ScheduledAt    *time.Time
	Status         *RideStatus
}
