package customer

import (
	"regexp"
	"strings"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// Customer is a company or person the tenant services
type Customer struct {
	shared.TenantAggregateRoot
	Name     string `json:"name"`
	Document string `json:"document,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Active   bool   `json:"active"`
}

// NewCustomer creates an active customer
func NewCustomer(tenantID uuid.UUID, name, document string) (*Customer, error) {
	c := &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Active:              true,
	}
	if err := c.apply(name, document, "", ""); err != nil {
		return nil, err
	}
	c.AddDomainEvent(NewCreatedEvent(c))
	return c, nil
}

// Update replaces the identifying fields
func (c *Customer) Update(name, document, email, phone string) error {
	if err := c.apply(name, document, email, phone); err != nil {
		return err
	}
	c.Touch()
	return nil
}

func (c *Customer) apply(name, document, email, phone string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("name", "Name is required")
	}
	if len(name) > 255 {
		return shared.NewValidationError("name", "Name cannot exceed 255 characters")
	}
	email = strings.TrimSpace(email)
	if email != "" && !emailPattern.MatchString(email) {
		return shared.NewValidationError("email", "Invalid email format")
	}
	c.Name = name
	c.Document = NormalizeDocument(document)
	c.Email = strings.ToLower(email)
	c.Phone = strings.TrimSpace(phone)
	return nil
}

// SetAddress updates the location fields
func (c *Customer) SetAddress(address, city, state string) {
	c.Address = strings.TrimSpace(address)
	c.City = strings.TrimSpace(city)
	c.State = strings.ToUpper(strings.TrimSpace(state))
	c.Touch()
}

// NormalizeDocument keeps only the digits of a CPF/CNPJ
func NormalizeDocument(doc string) string {
	return nonDigits.ReplaceAllString(doc, "")
}
