package customer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	c, err := NewCustomer(uuid.New(), "  Acme Balanças  ", "12.345.678/0001-90")
	require.NoError(t, err)
	assert.Equal(t, "Acme Balanças", c.Name)
	assert.Equal(t, "12345678000190", c.Document)
	assert.True(t, c.Active)
	require.Len(t, c.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeCustomerCreated, c.GetDomainEvents()[0].EventType())

	_, err = NewCustomer(uuid.New(), " ", "")
	assert.Error(t, err)
}

func TestCustomer_Update(t *testing.T) {
	c, err := NewCustomer(uuid.New(), "Acme", "")
	require.NoError(t, err)
	assert.Error(t, c.Update("Acme", "", "not-an-email", ""))
	require.NoError(t, c.Update("Acme", "", "Contato@Acme.com.br", "11 99999-0000"))
	assert.Equal(t, "contato@acme.com.br", c.Email)

	c.SetAddress("Rua A, 1", "Campinas", "sp")
	assert.Equal(t, "SP", c.State)
}

func TestNewEquipment(t *testing.T) {
	_, err := NewEquipment(uuid.New(), uuid.Nil, "SN1", "", "")
	assert.Error(t, err)
	_, err = NewEquipment(uuid.New(), uuid.New(), "  ", "", "")
	assert.Error(t, err)

	e, err := NewEquipment(uuid.New(), uuid.New(), " SN-001 ", "BP-30", "Toledo")
	require.NoError(t, err)
	assert.Equal(t, "SN-001", e.SerialNumber)
}
