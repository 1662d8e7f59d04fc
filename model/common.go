package model

import (
	"time"
)

// DateLayout is the calendar date format used in forms, messages and events
const DateLayout = "2006-01-02"

// Option is an {id, label} pair used to populate drop-downs
type Option struct {
	ID    uint
	Label string
}

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse represents error responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
