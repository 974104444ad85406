package loadsavingscatalog

import "savings-workers/internal/models"

type Input struct {
	// Refresh drops the cached catalog before reading the source.
	Refresh bool `json:"refresh,omitempty"`
}

type Output struct {
	Products     []models.SavingsProduct `json:"products"`
	ProductCount int                     `json:"productCount"`
	Source       string                  `json:"source"`
}
