package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/KaramelBytes/propdash-cli/internal/utils"
)

// WriteCSV writes the rows as UTF-8 CSV with a byte order mark so
// spreadsheet tools detect the encoding.
func WriteCSV(path string, s Rows) error {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")
	w := csv.NewWriter(&buf)
	if err := w.Write(s.Headers()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < s.Len(); i++ {
		if err := w.Write(s.Text(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
