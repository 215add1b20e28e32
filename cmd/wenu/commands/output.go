package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/fivetwenty-io/wenu-client/internal/constants"
	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultJSONIndent = "  "

// encodeStructured writes value as json or yaml when that output format is
// selected. It reports false for table output so the caller renders a table.
func encodeStructured(w io.Writer, value interface{}) (bool, error) {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", defaultJSONIndent)

		return true, encoder.Encode(value)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return true, encoder.Encode(value)
	default:
		return false, nil
	}
}

// renderEntities prints rows with one column per field. _id comes first, the
// other fields follow sorted; remaining metadata is left out of tables.
func renderEntities(w io.Writer, entities []*wenu.Entity) error {
	rows := make([]wenu.Fields, 0, len(entities))
	for _, entity := range entities {
		rows = append(rows, entity.Fields())
	}

	handled, err := encodeStructured(w, rows)
	if handled {
		return err
	}

	if len(entities) == 0 {
		_, _ = io.WriteString(w, "No rows found.\n")

		return nil
	}

	columns := columnsOf(entities)

	header := make([]any, 0, len(columns))
	for _, column := range columns {
		header = append(header, column)
	}

	table := tablewriter.NewWriter(w)
	table.Header(header...)

	for _, entity := range entities {
		row := make([]string, 0, len(columns))
		for _, column := range columns {
			value, _ := entity.Lookup(column)
			row = append(row, formatCell(value))
		}

		_ = table.Append(row)
	}

	err = table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderDocument prints a single row or server response as property/value
// pairs.
func renderDocument(w io.Writer, doc map[string]interface{}) error {
	handled, err := encodeStructured(w, doc)
	if handled {
		return err
	}

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.Header("Field", "Value")

	for _, key := range keys {
		_ = table.Append([]string{key, formatCell(doc[key])})
	}

	err = table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func columnsOf(entities []*wenu.Entity) []string {
	seen := make(map[string]bool)

	var columns []string

	for _, entity := range entities {
		for name := range entity.RegularFields() {
			if !seen[name] {
				seen[name] = true

				columns = append(columns, name)
			}
		}
	}

	sort.Strings(columns)

	return append([]string{constants.IDField}, columns...)
}

func formatCell(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return constants.NotAvailable
	case string:
		return v
	case map[string]interface{}, []interface{}:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(encoded)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
