package models

import (
	"time"

	"github.com/calibra/backend/internal/domain/identity"
	"github.com/calibra/backend/internal/domain/shared"
)

// TenantModel is the persistence model for the Tenant aggregate root.
type TenantModel struct {
	AggregateModel
	Name     string `gorm:"type:varchar(200);not null"`
	Slug     string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Timezone string `gorm:"type:varchar(64);not null;default:'America/Sao_Paulo'"`
	Active   bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant entity.
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.entity(),
			Version:    m.Version,
		},
		Name:     m.Name,
		Slug:     m.Slug,
		Timezone: m.Timezone,
		Active:   m.Active,
	}
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant entity.
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{
		Name:     t.Name,
		Slug:     t.Slug,
		Timezone: t.Timezone,
		Active:   t.Active,
	}
	m.setAggregate(t.BaseAggregateRoot)
	return m
}

// UserModel is the persistence model for the User aggregate root.
type UserModel struct {
	TenantAggregateModel
	Name           string   `gorm:"type:varchar(200);not null"`
	Email          string   `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash   string   `gorm:"type:varchar(255);not null"`
	Roles          []string `gorm:"type:jsonb;serializer:json"`
	Permissions    []string `gorm:"type:jsonb;serializer:json"`
	Active         bool     `gorm:"not null;default:true"`
	LastLoginAt    *time.Time
	FailedAttempts int `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	roles := m.Roles
	if roles == nil {
		roles = []string{}
	}
	return &identity.User{
		TenantAggregateRoot: m.tenantRoot(),
		Name:                m.Name,
		Email:               m.Email,
		PasswordHash:        m.PasswordHash,
		Roles:               roles,
		Permissions:         m.Permissions,
		Active:              m.Active,
		LastLoginAt:         m.LastLoginAt,
		FailedAttempts:      m.FailedAttempts,
		LockedUntil:         m.LockedUntil,
	}
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Name:           u.Name,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Roles:          u.Roles,
		Permissions:    u.Permissions,
		Active:         u.Active,
		LastLoginAt:    u.LastLoginAt,
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
	}
	m.setTenantRoot(u.TenantAggregateRoot)
	return m
}
