package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/eleven-am/fiadb/internal/validate"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate TABLE [FILE]",
		Short: "Validate JSON rows against a table definition",
		Long: `Reads a JSON object, or an array of objects, from FILE or stdin and checks
every row against the column types and primary key of TABLE. Every violation
is printed and the command fails when any row is invalid.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			var data []byte
			if len(args) == 2 && args[1] != "-" {
				data, err = os.ReadFile(args[1])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read rows: %w", err)
			}

			rows, err := decodeRows(data)
			if err != nil {
				return err
			}

			invalid, err := newValidator(reg).ValidateRows(args[0], rows)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(invalid) == 0 {
				fmt.Fprintf(out, "%d rows valid\n", len(rows))
				return nil
			}

			indexes := make([]int, 0, len(invalid))
			for i := range invalid {
				indexes = append(indexes, i)
			}
			sort.Ints(indexes)
			for _, i := range indexes {
				for _, v := range invalid[i] {
					fmt.Fprintf(out, "row %d: %s\n", i, v)
				}
			}
			return fmt.Errorf("%d of %d rows invalid", len(invalid), len(rows))
		},
	}
}

// decodeRows accepts one JSON object or an array of objects. Numbers are kept
// as json.Number so their digits are checked exactly.
func decodeRows(data []byte) ([]validate.Row, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("no rows given")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var rows []validate.Row
		if err := dec.Decode(&rows); err != nil {
			return nil, fmt.Errorf("failed to decode rows: %w", err)
		}
		return rows, nil
	}

	var row validate.Row
	if err := dec.Decode(&row); err != nil {
		return nil, fmt.Errorf("failed to decode row: %w", err)
	}
	return []validate.Row{row}, nil
}
