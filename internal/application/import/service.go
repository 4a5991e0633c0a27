// Package importapp loads customers and equipments from CSV files and undoes
// completed imports.
package importapp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/importing"
	"github.com/calibra/backend/internal/domain/shared"
	csvimport "github.com/calibra/backend/internal/infrastructure/import"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles CSV imports and their rollback
type Service struct {
	tx     txn.TransactionScope
	repos  txn.Repositories
	logger *zap.Logger
}

// NewService creates a new import service
func NewService(tx txn.TransactionScope, repos txn.Repositories, logger *zap.Logger) *Service {
	return &Service{tx: tx, repos: repos, logger: logger}
}

// Import parses content and stores every valid row in one transaction.
// Rows that fail validation are recorded on the import and do not stop the others.
func (s *Service) Import(ctx context.Context, tenantID, userID uuid.UUID, req ImportRequest, content io.Reader) (*importing.Import, error) {
	imp, err := importing.NewImport(tenantID, req.EntityType, req.FileName, userID)
	if err != nil {
		return nil, err
	}
	sh, ok := sheets[req.EntityType]
	if !ok {
		return nil, shared.NewValidationError("entity_type",
			fmt.Sprintf("CSV import is not available for %s", req.EntityType))
	}
	mode := req.ConflictMode
	if mode == "" {
		mode = ConflictSkip
	}
	if !mode.IsValid() {
		return nil, shared.NewValidationError("conflict_mode", "Conflict mode must be skip or update")
	}

	parser, err := csvimport.NewParser(content, csvimport.WithAliases(sh.aliases))
	if err != nil {
		return nil, fileError(err)
	}
	validator := csvimport.NewValidator(sh.rules()...)
	if err := parser.RequireColumns(validator.Columns()...); err != nil {
		return nil, fileError(err)
	}
	rows, err := parser.ReadAll()
	if err != nil {
		return nil, fileError(err)
	}
	if len(rows) == 0 {
		return nil, shared.NewValidationError("file", "CSV file contains no data rows")
	}
	if err := imp.Start(len(rows)); err != nil {
		return nil, err
	}

	rejected := csvimport.NewErrorCollection()
	err = s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var mappings []importing.IDMapping
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if errs := validator.ValidateRow(row); len(errs) > 0 {
				rejected.AddAll(errs)
				continue
			}
			out, err := sh.store(ctx, repos, tenantID, mode, row)
			if err != nil {
				return fmt.Errorf("row %d: %w", row.Line, err)
			}
			switch {
			case out.reject != nil:
				rejected.Add(*out.reject)
			case out.created:
				imp.RecordInserted(out.id)
				if ext := row.Get("external_id"); ext != "" {
					mappings = append(mappings, importing.IDMapping{
						BaseEntity: shared.NewBaseEntity(),
						TenantID:   tenantID,
						ImportID:   imp.ID,
						EntityType: imp.EntityType,
						ExternalID: ext,
						LocalID:    out.id,
					})
				}
			default:
				imp.RecordSkipped()
			}
		}

		for _, e := range rejected.Errors() {
			imp.RecordError(importing.RowError{Row: e.Row, Column: e.Column, Message: e.Message, Value: e.Value})
		}
		// error_count counts rejected rows, including those past the kept errors
		imp.ErrorCount = rejected.FailedRows()
		if err := imp.Finish(); err != nil {
			return err
		}
		if err := repos.Imports().Save(ctx, imp); err != nil {
			return err
		}
		return repos.Imports().SaveMappings(ctx, mappings)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("csv import finished",
		zap.String("tenant_id", tenantID.String()),
		zap.String("import_id", imp.ID.String()),
		zap.String("entity_type", string(imp.EntityType)),
		zap.Int("total", imp.TotalRows),
		zap.Int("inserted", imp.Inserted),
		zap.Int("skipped", imp.Skipped),
		zap.Int("errors", imp.ErrorCount))
	return imp, nil
}

// fileError reports an unreadable file as a validation error on "file"
func fileError(err error) error {
	for _, known := range []error{
		csvimport.ErrEmptyFile, csvimport.ErrFileTooLarge, csvimport.ErrInvalidEncoding,
		csvimport.ErrMissingHeader, csvimport.ErrMissingColumns, csvimport.ErrMalformedFile,
	} {
		if errors.Is(err, known) {
			return shared.NewValidationError("file", err.Error())
		}
	}
	return err
}

// Rollback soft-deletes every record created by a completed import and drops
// its id mappings. Records already gone are reported as failed.
func (s *Service) Rollback(ctx context.Context, tenantID, id uuid.UUID) (importing.RollbackResult, error) {
	var (
		result importing.RollbackResult
		mapped int64
	)
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		imp, err := repos.Imports().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := imp.EnsureRollbackable(); err != nil {
			return err
		}

		var failed []uuid.UUID
		for _, recordID := range imp.ImportedIDs {
			removed, err := repos.Records().SoftDelete(ctx, tenantID, imp.EntityType, recordID)
			if err != nil {
				return err
			}
			if !removed {
				failed = append(failed, recordID)
			}
		}
		if mapped, err = repos.Imports().DeleteMappings(ctx, tenantID, imp.ID); err != nil {
			return err
		}
		result = imp.CompleteRollback(failed)
		return repos.Imports().Save(ctx, imp)
	})
	if err != nil {
		return importing.RollbackResult{}, err
	}

	s.logger.Info("import rolled back",
		zap.String("tenant_id", tenantID.String()),
		zap.String("import_id", id.String()),
		zap.Int("deleted", result.Deleted),
		zap.Int("failed", result.Failed),
		zap.Int64("mappings_deleted", mapped))
	return result, nil
}

// Get returns one import
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*importing.Import, error) {
	return s.repos.Imports().FindByID(ctx, tenantID, id)
}

// Mappings returns the external id mappings of an import
func (s *Service) Mappings(ctx context.Context, tenantID, id uuid.UUID) ([]importing.IDMapping, error) {
	if _, err := s.repos.Imports().FindByID(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.repos.Imports().FindMappings(ctx, tenantID, id)
}

// List returns the import history of the tenant
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, f ListFilter) (shared.Paginated[importing.Import], error) {
	var entityType *importing.EntityType
	if f.EntityType != "" {
		et := importing.EntityType(f.EntityType)
		if !et.IsValid() {
			return shared.Paginated[importing.Import]{}, shared.NewValidationError("entity_type", "Invalid entity type")
		}
		entityType = &et
	}
	filter := shared.Filter{Page: f.Page, PageSize: f.PageSize, Search: f.Search}
	rows, total, err := s.repos.Imports().FindAll(ctx, tenantID, entityType, filter)
	if err != nil {
		return shared.Paginated[importing.Import]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), filter.Limit()), nil
}

// Template returns a sample header line for an entity type
func Template(entityType importing.EntityType) (string, error) {
	switch entityType {
	case importing.EntityCustomers:
		return "name,document,email,phone,address,city,state,external_id\n", nil
	case importing.EntityEquipments:
		return "serial_number,customer_document,customer_id,model,manufacturer,description,external_id\n", nil
	}
	return "", shared.NewValidationError("entity_type", "No template for this entity type")
}
