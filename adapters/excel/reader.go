package excel

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"startupstats/adapters/datareadiness/coercer"
	"startupstats/domain/dataset"
	"startupstats/internal/errors"
	"startupstats/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// RawData is a header row plus string cells, before type inference
type RawData struct {
	Headers []string
	Rows    [][]string
}

// DataReader handles reading Excel and CSV files into a dataset.Table
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	coercer  *coercer.TypeCoercer
	log      *logrus.Entry
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, logger logrus.FieldLogger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" || ext == ".xlsm" {
		fileType = "xlsx"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		coercer:  coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()),
		log:      logging.Component(logger, "loader"),
	}
}

// ReadTable loads the file and infers a kind for every column
func (r *DataReader) ReadTable() (*dataset.Table, error) {
	raw, err := r.ReadData()
	if err != nil {
		return nil, err
	}

	columns := make([]*dataset.Column, len(raw.Headers))
	for j, header := range raw.Headers {
		cells := make([]string, len(raw.Rows))
		for i, row := range raw.Rows {
			cells[i] = row[j]
		}
		columns[j] = r.coercer.BuildColumn(header, cells)
	}

	table, err := dataset.NewTable(columns...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build table from %s", r.filePath)
	}

	r.log.WithFields(logrus.Fields{
		"rows":    table.Rows(),
		"columns": table.Width(),
	}).Info("table loaded")
	return table, nil
}

// ReadData reads data from Excel or CSV files into raw string rows
func (r *DataReader) ReadData() (*RawData, error) {
	r.log.WithField("path", r.filePath).Debugf("reading %s file", r.fileType)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.FileNotFound(r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, errors.MalformedData(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
}

// readExcelData reads the first sheet of a workbook
func (r *DataReader) readExcelData() (*RawData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.WithCode(errors.CodeMalformedData, errors.Wrapf(err, "failed to open Excel file %s", r.filePath))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.MalformedData(fmt.Sprintf("%s has no sheets", r.filePath))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.WithCode(errors.CodeMalformedData, errors.Wrapf(err, "failed to read sheet %s", sheets[0]))
	}
	r.log.Debugf("sheet %s read in %.2fms (%d rows)", sheets[0], float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	// excelize drops trailing empty cells, so short rows are padded
	if len(rows) > 0 {
		width := len(rows[0])
		for i := 1; i < len(rows); i++ {
			for len(rows[i]) < width {
				rows[i] = append(rows[i], "")
			}
		}
	}

	return r.processRows(rows)
}

// readCSVData reads CSV data; every record must match the header width
func (r *DataReader) readCSVData() (*RawData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.WithCode(errors.CodeFileNotFound, errors.Wrapf(err, "failed to open CSV file %s", r.filePath))
	}
	defer file.Close()

	return r.parseCSV(file)
}

func (r *DataReader) parseCSV(in io.Reader) (*RawData, error) {
	reader := csv.NewReader(in)
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if stderrors.As(err, &parseErr) {
			return nil, errors.MalformedData(fmt.Sprintf("%s line %d: %v", r.filePath, parseErr.Line, parseErr.Err))
		}
		return nil, errors.WithCode(errors.CodeMalformedData, errors.Wrapf(err, "failed to read CSV file %s", r.filePath))
	}
	r.log.Debugf("CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// processRows splits the header from the data rows and validates widths
func (r *DataReader) processRows(rows [][]string) (*RawData, error) {
	if len(rows) < 2 {
		return nil, errors.MalformedData(fmt.Sprintf("%s must have a header row and at least one data row", r.filePath))
	}

	headers := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(rows[0]))
	for i, header := range rows[0] {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if header == "" {
			header = fmt.Sprintf("Unnamed: %d", i)
		}
		if seen[header] {
			return nil, errors.MalformedData(fmt.Sprintf("%s: duplicate column %q", r.filePath, header))
		}
		seen[header] = true
		headers[i] = header
	}

	data := make([][]string, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) != len(headers) {
			return nil, errors.MalformedData(fmt.Sprintf("%s row %d: expected %d fields, got %d",
				r.filePath, i+1, len(headers), len(rows[i])))
		}
		row := make([]string, len(headers))
		for j, cell := range rows[i] {
			row[j] = strings.TrimSpace(cell)
		}
		data = append(data, row)
	}

	return &RawData{Headers: headers, Rows: data}, nil
}
