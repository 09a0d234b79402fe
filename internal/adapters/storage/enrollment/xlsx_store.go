package enrollment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	domain "barreltech/internal/domain/enrollment"
)

// SheetName is the worksheet holding enrollment rows.
const SheetName = "Enrollments"

// Header is the fixed first row of the sheet.
var Header = []string{"ID", "Full Name", "Email", "Course", "Registration Date"}

type xlsxStore struct {
	path string
	now  func() time.Time
}

// NewXLSXStore returns a Store appending rows to the workbook at path.
// The file is created on first use if absent.
func NewXLSXStore(path string) Store {
	return &xlsxStore{path: path, now: time.Now}
}

// InitWorkbook creates the workbook with its header row if the file does not exist.
// PRE: parent directory of path exists
// POST: file exists; an existing file is never touched
func InitWorkbook(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat workbook: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (s *xlsxStore) Name() string { return domain.BackendExcel }

// Persist reads the whole sheet, appends one row and rewrites the file.
// The new id is the row count before the append (header included), so the
// first data row gets 1.
// PRE: none
// POST: file holds one more data row. Concurrent calls are NOT serialized and
// may overwrite each other.
func (s *xlsxStore) Persist(_ context.Context, e domain.Enrollment) (domain.Receipt, error) {
	if err := InitWorkbook(s.path); err != nil {
		return domain.Receipt{}, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("read sheet: %w", err)
	}
	id := len(rows)

	if e.Date.IsZero() {
		e.Date = s.now()
	}
	cell, err := excelize.CoordinatesToCellName(1, id+1)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("row %d: %w", id+1, err)
	}
	row := []any{id, e.FullName, e.Email, e.Course, e.ISODate()}
	if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
		return domain.Receipt{}, fmt.Errorf("write row: %w", err)
	}
	if err := f.Save(); err != nil {
		return domain.Receipt{}, fmt.Errorf("save workbook: %w", err)
	}
	return domain.Receipt{Backend: s.Name(), ID: int64(id), HasID: true}, nil
}

func (s *xlsxStore) Status() string {
	if _, err := os.Stat(s.path); err == nil {
		return StatusReady
	}
	return StatusNotInitialized
}
