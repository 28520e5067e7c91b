package bigquery

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/dataset-loader/internal/catalog"
	"github.com/dvloznov/dataset-loader/internal/storage"
	"google.golang.org/api/googleapi"
)

func toFieldType(t catalog.ColumnType) (bigquery.FieldType, error) {
	switch t {
	case catalog.ColumnTypeText:
		return bigquery.StringFieldType, nil
	case catalog.ColumnTypeInteger:
		return bigquery.IntegerFieldType, nil
	case catalog.ColumnTypeFloat:
		return bigquery.FloatFieldType, nil
	default:
		return "", fmt.Errorf("unsupported column type %q", t)
	}
}

func fromFieldType(t bigquery.FieldType) (catalog.ColumnType, error) {
	switch t {
	case bigquery.StringFieldType:
		return catalog.ColumnTypeText, nil
	case bigquery.IntegerFieldType:
		return catalog.ColumnTypeInteger, nil
	case bigquery.FloatFieldType:
		return catalog.ColumnTypeFloat, nil
	default:
		return "", fmt.Errorf("unsupported field type %q", t)
	}
}

func toSchema(columns []catalog.ColumnDefinition) (bigquery.Schema, error) {
	if err := catalog.ValidateColumns(columns); err != nil {
		return nil, err
	}
	schema := make(bigquery.Schema, len(columns))
	for i, c := range columns {
		ft, err := toFieldType(c.Type)
		if err != nil {
			return nil, err
		}
		schema[i] = &bigquery.FieldSchema{Name: c.Name, Type: ft}
	}
	return schema, nil
}

func fromSchema(schema bigquery.Schema) ([]catalog.ColumnDefinition, error) {
	cols := make([]catalog.ColumnDefinition, len(schema))
	for i, f := range schema {
		ct, err := fromFieldType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.Name, err)
		}
		cols[i] = catalog.ColumnDefinition{Name: f.Name, Type: ct}
	}
	return cols, nil
}

// tableTypeLabel lowercases the type; label values cannot hold capitals.
func tableTypeLabel(t catalog.TableType) string {
	return strings.ToLower(string(t))
}

func entryFromMetadata(info catalog.TableInfo, fullName string, md *bigquery.TableMetadata) (*catalog.TableEntry, error) {
	cols, err := fromSchema(md.Schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", info, err)
	}

	id := md.Labels[labelEntryID]
	if id == "" {
		id = md.FullID
	}
	tableType := catalog.TableTypeStructuredData
	if v := md.Labels[labelTableType]; v != "" {
		tableType = catalog.TableType(strings.ToUpper(v))
	}

	return &catalog.TableEntry{
		ID:        id,
		Info:      info,
		Columns:   cols,
		Type:      tableType,
		Location:  strings.ReplaceAll(fullName, ":", "."),
		CreatedAt: md.CreationTime,
	}, nil
}

// rowSaver implements bigquery.ValueSaver for one batch row.
type rowSaver struct {
	columns []string
	values  []any
}

// Save implements bigquery.ValueSaver. Rows carry no insert id, so retried
// inserts are not deduplicated.
func (r rowSaver) Save() (map[string]bigquery.Value, string, error) {
	row := make(map[string]bigquery.Value, len(r.columns))
	for i, col := range r.columns {
		row[col] = r.values[i]
	}
	return row, bigquery.NoDedupeID, nil
}

func valueSavers(batch *storage.Batch) []bigquery.ValueSaver {
	savers := make([]bigquery.ValueSaver, len(batch.Rows))
	for i, row := range batch.Rows {
		savers[i] = rowSaver{columns: batch.Columns, values: row}
	}
	return savers
}

func apiErrorCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

func isNotFound(err error) bool {
	return err != nil && apiErrorCode(err) == http.StatusNotFound
}

func isConflict(err error) bool {
	return err != nil && apiErrorCode(err) == http.StatusConflict
}
