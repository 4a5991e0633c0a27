// Package models holds the GORM table mappings. Domain types carry no ORM
// tags; each model converts to and from its aggregate with ToDomain and a
// ...ModelFromDomain constructor.
package models
