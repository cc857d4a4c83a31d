package models

import "time"

// Ticket is one weighbridge transaction. Date is a calendar date
// (YYYY-MM-DD) and the clock fields are local HH:MM without a date.
type Ticket struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	TimeIn      string  `json:"time_in"`
	TimeOut     string  `json:"time_out"`
	PlateNumber string  `json:"plate_number"`
	Location    string  `json:"location"`
	NetWeight   float64 `json:"net_weight"`
	BunchCount  float64 `json:"bunch_count"`
}

type WeatherCondition string

const (
	WeatherSunny   WeatherCondition = "sunny"
	WeatherCloudy  WeatherCondition = "cloudy"
	WeatherRain    WeatherCondition = "rain"
	WeatherStorm   WeatherCondition = "storm"
	WeatherUnknown WeatherCondition = "unknown"
)

type WeatherRecord struct {
	Date       string           `json:"date"`
	Condition  WeatherCondition `json:"condition"`
	RainfallMM float64          `json:"rainfall_mm"`
}

type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

type ImportRun struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Status     string     `json:"status"`
	Summary    []byte     `json:"summary"`
}
