package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/carbocation/pfx"
)

// DrugSpecification is one row of the drug specification table.
type DrugSpecification struct {
	Identifier string `csv:"Identifier"`
	Name       string `csv:"Name"`
}

// ReadDrugSpecifications loads a delimited or .xls drug specification table.
func ReadDrugSpecifications(ctx context.Context, path string) ([]DrugSpecification, error) {
	rows := []DrugSpecification{}
	if err := ReadTable(ctx, path, AutoDelimiter, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DrugName returns the name of the first drug whose identifier matches id.
// Spreadsheets sometimes store integer identifiers as floats, so "1003.0"
// matches "1003".
func DrugName(rows []DrugSpecification, id string) (string, error) {
	for _, row := range rows {
		candidate := strings.TrimSuffix(strings.TrimSpace(row.Identifier), ".0")
		if candidate == id {
			return row.Name, nil
		}
	}

	return "", pfx.Err(fmt.Errorf("drug %s is not in the drug specification table", id))
}
