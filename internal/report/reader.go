package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/alibedirhan/Bup-Yonetim-sub000/internal/errors"
)

// Reader loads raw workbook rows and enforces the input gates: extension,
// existence and file size.
type Reader struct {
	logger      *slog.Logger
	maxFileSize int64
}

// NewReader creates a workbook reader. maxFileSize is in bytes; zero or
// negative disables the size gate.
func NewReader(logger *slog.Logger, maxFileSize int64) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger, maxFileSize: maxFileSize}
}

// Read opens the workbook at path and returns the raw rows of its first
// sheet. All rejections are typed as InputRejected.
func (r *Reader) Read(path string) ([][]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, apperrors.NewInputRejected("read", fmt.Sprintf("file %s does not exist", path), err)
	}
	if err != nil {
		return nil, apperrors.NewInputRejected("read", fmt.Sprintf("failed to stat %s", path), err)
	}
	if info.IsDir() {
		return nil, apperrors.NewInputRejected("read", fmt.Sprintf("%s is a directory, not a file", path), nil)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xls" {
		return nil, apperrors.NewInputRejected("read", fmt.Sprintf("unsupported file extension %s", ext), nil)
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return nil, apperrors.NewInputRejected("read", "temporary Excel lock file", nil)
	}
	if r.maxFileSize > 0 && info.Size() > r.maxFileSize {
		r.logger.Warn("workbook exceeds size gate",
			slog.String("file", path),
			slog.Int64("size", info.Size()),
			slog.Int64("limit", r.maxFileSize))
		return nil, apperrors.NewInputRejected("read",
			fmt.Sprintf("file size %d exceeds limit of %d bytes", info.Size(), r.maxFileSize), nil)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewInputRejected("read", "failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewInputRejected("read", "workbook contains no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewInputRejected("read", fmt.Sprintf("failed to read sheet %s", sheets[0]), err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewInputRejected("read", "sheet is empty", nil)
	}

	r.logger.Info("workbook loaded",
		slog.String("file", path),
		slog.String("sheet", sheets[0]),
		slog.Int("row_count", len(rows)))

	return rows, nil
}
