package paging

import (
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// CountPages reads and validates a PDF and returns its page count.
func CountPages(rs io.ReadSeeker) (int, error) {
	ctx, err := api.ReadValidateAndOptimize(rs, model.NewDefaultConfiguration())
	if err != nil {
		return 0, &Error{Message: "failed to read PDF", Cause: err}
	}
	return ctx.PageCount, nil
}

// CountPDFPages counts the pages of the PDF at path.
func CountPDFPages(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &Error{Message: "failed to open PDF", Cause: err}
	}
	defer func() { _ = f.Close() }()
	return CountPages(f)
}
