package importapp

import (
	"context"
	"errors"
	"regexp"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/customer"
	"github.com/calibra/backend/internal/domain/importing"
	"github.com/calibra/backend/internal/domain/shared"
	csvimport "github.com/calibra/backend/internal/infrastructure/import"
	"github.com/google/uuid"
)

var statePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)

// rowOutcome is what happened to a valid row
type rowOutcome struct {
	id      uuid.UUID
	created bool
	reject  *csvimport.RowError
}

// sheet knows the columns of one entity type and how to store a row
type sheet struct {
	aliases map[string]string
	rules   func() []csvimport.FieldRule
	store   func(ctx context.Context, repos txn.Repositories, tenantID uuid.UUID, mode ConflictMode, row *csvimport.Row) (rowOutcome, error)
}

var sheets = map[importing.EntityType]sheet{
	importing.EntityCustomers: {
		aliases: map[string]string{
			"nome":         "name",
			"razao_social": "name",
			"documento":    "document",
			"cpf_cnpj":     "document",
			"cnpj":         "document",
			"cpf":          "document",
			"e_mail":       "email",
			"telefone":     "phone",
			"endereco":     "address",
			"cidade":       "city",
			"uf":           "state",
			"estado":       "state",
			"codigo":       "external_id",
			"id_externo":   "external_id",
		},
		rules: func() []csvimport.FieldRule {
			return []csvimport.FieldRule{
				csvimport.Field("name").Required().MaxLength(255).Build(),
				csvimport.Field("document").MaxLength(20).Unique(customer.NormalizeDocument).Build(),
				csvimport.Field("email").Email().MaxLength(255).Build(),
				csvimport.Field("phone").MaxLength(50).Build(),
				csvimport.Field("state").Pattern(statePattern).Build(),
				csvimport.Field("external_id").MaxLength(100).Unique(nil).Build(),
			}
		},
		store: storeCustomer,
	},
	importing.EntityEquipments: {
		aliases: map[string]string{
			"numero_de_serie":   "serial_number",
			"serie":             "serial_number",
			"serial":            "serial_number",
			"modelo":            "model",
			"fabricante":        "manufacturer",
			"descricao":         "description",
			"documento_cliente": "customer_document",
			"cliente_documento": "customer_document",
			"cnpj_cliente":      "customer_document",
			"cliente_id":        "customer_id",
			"codigo":            "external_id",
			"id_externo":        "external_id",
		},
		rules: func() []csvimport.FieldRule {
			return []csvimport.FieldRule{
				csvimport.Field("serial_number").Required().MaxLength(100).Unique(nil).Build(),
				csvimport.Field("model").MaxLength(100).Build(),
				csvimport.Field("manufacturer").MaxLength(100).Build(),
				csvimport.Field("external_id").MaxLength(100).Unique(nil).Build(),
			}
		},
		store: storeEquipment,
	},
}

func storeCustomer(ctx context.Context, repos txn.Repositories, tenantID uuid.UUID, mode ConflictMode, row *csvimport.Row) (rowOutcome, error) {
	name, doc := row.Get("name"), row.Get("document")
	if doc != "" {
		existing, err := repos.Customers().FindByDocument(ctx, tenantID, doc)
		switch {
		case err == nil:
			if mode == ConflictUpdate {
				if err := existing.Update(name, doc, row.Get("email"), row.Get("phone")); err != nil {
					return rejected(row, "", err)
				}
				existing.SetAddress(row.Get("address"), row.Get("city"), row.Get("state"))
				if err := repos.Customers().Save(ctx, existing); err != nil {
					return rowOutcome{}, err
				}
			}
			return rowOutcome{id: existing.ID}, nil
		case !errors.Is(err, shared.ErrNotFound):
			return rowOutcome{}, err
		}
	}

	c, err := customer.NewCustomer(tenantID, name, doc)
	if err != nil {
		return rejected(row, "", err)
	}
	if err := c.Update(name, doc, row.Get("email"), row.Get("phone")); err != nil {
		return rejected(row, "", err)
	}
	c.SetAddress(row.Get("address"), row.Get("city"), row.Get("state"))
	if err := repos.Customers().Save(ctx, c); err != nil {
		return rowOutcome{}, err
	}
	return rowOutcome{id: c.ID, created: true}, nil
}

func storeEquipment(ctx context.Context, repos txn.Repositories, tenantID uuid.UUID, mode ConflictMode, row *csvimport.Row) (rowOutcome, error) {
	owner, reject, err := resolveOwner(ctx, repos, tenantID, row)
	if err != nil || reject != nil {
		return rowOutcome{reject: reject}, err
	}

	serial := row.Get("serial_number")
	existing, err := repos.Equipments().FindBySerial(ctx, tenantID, serial)
	switch {
	case err == nil:
		if mode == ConflictUpdate {
			existing.CustomerID = owner
			existing.Model = row.Get("model")
			existing.Manufacturer = row.Get("manufacturer")
			existing.Description = row.Get("description")
			existing.Touch()
			if err := repos.Equipments().Save(ctx, existing); err != nil {
				return rowOutcome{}, err
			}
		}
		return rowOutcome{id: existing.ID}, nil
	case !errors.Is(err, shared.ErrNotFound):
		return rowOutcome{}, err
	}

	e, err := customer.NewEquipment(tenantID, owner, serial, row.Get("model"), row.Get("manufacturer"))
	if err != nil {
		return rejected(row, "serial_number", err)
	}
	e.Description = row.Get("description")
	if err := repos.Equipments().Save(ctx, e); err != nil {
		return rowOutcome{}, err
	}
	return rowOutcome{id: e.ID, created: true}, nil
}

// resolveOwner finds the customer of an equipment row by id or by document
func resolveOwner(ctx context.Context, repos txn.Repositories, tenantID uuid.UUID, row *csvimport.Row) (uuid.UUID, *csvimport.RowError, error) {
	var (
		c      *customer.Customer
		err    error
		column = "customer_document"
		value  = row.Get("customer_document")
	)
	switch {
	case row.Get("customer_id") != "":
		column, value = "customer_id", row.Get("customer_id")
		id, perr := uuid.Parse(value)
		if perr != nil {
			return uuid.Nil, &csvimport.RowError{Row: row.Line, Column: column, Code: csvimport.CodeInvalid,
				Message: "Invalid customer id", Value: value}, nil
		}
		c, err = repos.Customers().FindByID(ctx, tenantID, id)
	case value != "":
		c, err = repos.Customers().FindByDocument(ctx, tenantID, value)
	default:
		return uuid.Nil, &csvimport.RowError{Row: row.Line, Column: column, Code: csvimport.CodeRequired,
			Message: "customer_id or customer_document is required"}, nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return uuid.Nil, &csvimport.RowError{Row: row.Line, Column: column, Code: csvimport.CodeNotFound,
			Message: "Customer not found", Value: value}, nil
	}
	if err != nil {
		return uuid.Nil, nil, err
	}
	return c.ID, nil, nil
}

// rejected turns a domain validation error into a row error
func rejected(row *csvimport.Row, column string, err error) (rowOutcome, error) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return rowOutcome{}, err
	}
	if field, ok := de.Details["field"].(string); ok && field != "" {
		column = field
	}
	return rowOutcome{reject: &csvimport.RowError{
		Row:     row.Line,
		Column:  column,
		Code:    csvimport.CodeRejected,
		Message: de.Message,
		Value:   row.Get(column),
	}}, nil
}
