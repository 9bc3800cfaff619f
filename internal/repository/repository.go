package repository

import "gorm.io/gorm"

// Repository aggregates every data-access interface.
type Repository struct {
	Order       OrderRepository
	Pass        PassRepository
	WorkSession WorkSessionRepository
	Aggregation AggregationRepository
}

// NewRepository builds the repository aggregate over one DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Order:       NewOrderRepo(db),
		Pass:        NewPassRepo(db),
		WorkSession: NewWorkSessionRepo(db),
		Aggregation: NewAggregationRepo(db),
	}
}
