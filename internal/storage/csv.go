package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/drstein77/fitstore/internal/models"
)

// CSVHeader is the column layout for catalog import and export.
var CSVHeader = []string{"nombre", "descripcion", "precio", "stock", "categoria_id", "imagen_url"}

// ImportProducts reads a CSV catalog and inserts every row in one batch.
func (s *Storage) ImportProducts(ctx context.Context, r io.Reader) (*models.ImportSummary, error) {
	inputs, err := parseProductsCSV(r)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return &models.ImportSummary{}, nil
	}

	summary, err := s.keeper.InsertProducts(ctx, inputs)
	if err != nil {
		s.log.Error("product import failed", zap.Int("rows", len(inputs)), zap.Error(err))
		return nil, err
	}
	s.invalidate(ctx)
	s.log.Info("products imported", zap.Int("rows", len(inputs)), zap.Int("catalog_size", summary.TotalItems))
	return summary, nil
}

// ExportProducts writes the catalog as CSV with CSVHeader.
func (s *Storage) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, p := range products {
		image := ""
		if p.ImageURL != nil {
			image = *p.ImageURL
		}
		record := []string{
			p.Name, p.Description, p.Price.StringFixed(2),
			strconv.Itoa(p.Stock), strconv.Itoa(p.CategoryID), image,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseProductsCSV(r io.Reader) ([]models.ProductInput, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		inputs []models.ProductInput
		line   int
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, newValidationError("invalid csv: %v", err)
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), CSVHeader[0]) {
			continue
		}

		in, err := productFromRecord(record)
		if err != nil {
			return nil, newValidationError("line %d: %v", line, err)
		}
		if err := validateNewProduct(in); err != nil {
			return nil, newValidationError("line %d: %v", line, err)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func productFromRecord(record []string) (models.ProductInput, error) {
	if len(record) < 5 {
		return models.ProductInput{}, fmt.Errorf("expected at least 5 columns, got %d", len(record))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	price, err := decimal.NewFromString(record[2])
	if err != nil {
		return models.ProductInput{}, fmt.Errorf("invalid precio %q", record[2])
	}
	stock, err := strconv.Atoi(record[3])
	if err != nil {
		return models.ProductInput{}, fmt.Errorf("invalid stock %q", record[3])
	}
	category, err := strconv.Atoi(record[4])
	if err != nil {
		return models.ProductInput{}, fmt.Errorf("invalid categoria_id %q", record[4])
	}

	in := models.ProductInput{
		Name:        &record[0],
		Description: &record[1],
		Price:       &price,
		Stock:       &stock,
		CategoryID:  &category,
	}
	if len(record) > 5 && record[5] != "" {
		in.ImageURL = &record[5]
	}
	return in, nil
}
