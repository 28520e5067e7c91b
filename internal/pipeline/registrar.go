package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/dataset-loader/internal/catalog"
	ingesterrors "github.com/dvloznov/dataset-loader/internal/errors"
)

// Registrar registers the annotation table in the catalog, refusing names
// that are already taken.
type Registrar struct {
	catalog Catalog
}

// NewRegistrar creates a Registrar.
func NewRegistrar(c Catalog) *Registrar {
	return &Registrar{catalog: c}
}

// Register looks the table up once and creates it with the annotation
// schema when absent. An existing table, including one created by a
// concurrent caller between lookup and creation, yields
// ErrTableAlreadyExists and leaves the catalog untouched.
func (r *Registrar) Register(ctx context.Context, info catalog.TableInfo) (*catalog.TableEntry, error) {
	existing, err := r.catalog.GetTable(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("look up table %s: %w", info, err)
	}
	if existing != nil {
		return nil, tableExists(info)
	}

	entry, err := r.catalog.CreateTable(ctx, info, catalog.AnnotationColumns(), catalog.TableTypeStructuredData)
	if ingesterrors.Is(err, catalog.ErrTableExists) {
		return nil, tableExists(info)
	}
	if err != nil {
		return nil, fmt.Errorf("create table %s: %w", info, err)
	}
	return entry, nil
}

func tableExists(info catalog.TableInfo) error {
	return fmt.Errorf("%s already exists: %w", info, ingesterrors.ErrTableAlreadyExists)
}
