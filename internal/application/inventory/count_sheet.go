package inventory

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const countSheetName = "Comptage"

var countSheetHeaders = []string{"SKU", "Produit", "Stock système", "Quantité comptée", "Écart"}

// CountSheet is a rendered XLSX workbook ready to be streamed
type CountSheet struct {
	FileName string
	Content  []byte
}

// ExportSheet renders the campaign lines as an XLSX count sheet
func (s *CampaignService) ExportSheet(ctx context.Context, tenantID, campaignID uuid.UUID) (*CountSheet, error) {
	campaign, err := s.campaigns.FindByID(ctx, tenantID, campaignID)
	if err != nil {
		return nil, err
	}
	buf, err := renderCountSheet(campaign)
	if err != nil {
		return nil, fmt.Errorf("failed to render count sheet: %w", err)
	}
	return &CountSheet{
		FileName: fmt.Sprintf("inventaire-%s.xlsx", campaign.ShortReference()),
		Content:  buf.Bytes(),
	}, nil
}

func renderCountSheet(campaign *inventory.Campaign) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", countSheetName); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(countSheetName, "A1", campaign.Name); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(countSheetName, "C1", string(campaign.Status)); err != nil {
		return nil, err
	}

	for i, h := range countSheetHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(countSheetName, cell, h); err != nil {
			return nil, err
		}
	}

	for i := range campaign.Items {
		item := &campaign.Items[i]
		row := i + 4
		values := []any{item.SKU, item.Name, item.SystemQty, item.CountedQty, item.Delta()}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(countSheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	return f.WriteToBuffer()
}
