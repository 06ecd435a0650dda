package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/relicvault/storefront/internal/models"

	"github.com/go-pdf/fpdf"
)

const (
	exportFormatCSV = "csv"
	exportFormatPDF = "pdf"

	pdfRowHeight    = 7.0
	pdfHeaderHeight = 8.0
)

// ExportFile 导出文件
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportCSV 导出当前过滤后的页面为 CSV
func (s *AdminTableService) ExportCSV(ctx context.Context, actor AdminActor, resource string) (*ExportFile, error) {
	return s.export(ctx, actor, resource, exportFormatCSV)
}

// ExportPDF 导出当前过滤后的页面为 PDF 表格
func (s *AdminTableService) ExportPDF(ctx context.Context, actor AdminActor, resource string) (*ExportFile, error) {
	return s.export(ctx, actor, resource, exportFormatPDF)
}

func (s *AdminTableService) export(ctx context.Context, actor AdminActor, resource, format string) (*ExportFile, error) {
	descriptor, err := s.registry.Get(resource)
	if err != nil {
		return nil, err
	}
	if !descriptor.Export {
		return nil, fmt.Errorf("%w: export %s", ErrOperationNotAllowed, resource)
	}
	descriptor, view, unlock, err := s.currentView(ctx, actor, resource)
	if err != nil {
		return nil, err
	}
	rows := view.visibleRows(descriptor)
	unlock()

	columns := descriptor.ExportableColumns()
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s has no exportable columns", ErrExportFailed, resource)
	}

	filename := fmt.Sprintf("%s_%s.%s", descriptor.Resource, s.now().Format("20060102_150405"), format)
	switch format {
	case exportFormatCSV:
		data, err := renderCSV(columns, rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
		}
		return &ExportFile{Filename: filename, ContentType: "text/csv; charset=utf-8", Data: data}, nil
	default:
		title := strings.TrimSpace(s.exportCfg.PDFTitlePrefix + " " + descriptor.Title)
		data, err := renderPDF(title, s.exportCfg.PDFOrientation, columns, rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
		}
		return &ExportFile{Filename: filename, ContentType: "application/pdf", Data: data}, nil
	}
}

func renderCSV(columns []FieldDescriptor, rows []models.JSON) ([]byte, error) {
	builder := &strings.Builder{}
	writer := csv.NewWriter(builder)
	header := make([]string, 0, len(columns))
	for _, column := range columns {
		header = append(header, column.Label)
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := make([]string, 0, len(columns))
		for _, column := range columns {
			record = append(record, CellText(row[column.Key]))
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return []byte(builder.String()), nil
}

func renderPDF(title, orientation string, columns []FieldDescriptor, rows []models.JSON) ([]byte, error) {
	if orientation != "P" {
		orientation = "L"
	}
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, pageHeight := pdf.GetPageSize()
	left, top, right, bottom := pdf.GetMargins()
	if bottom <= 0 {
		bottom = top
	}
	cellWidth := (pageWidth - left - right) / float64(len(columns))

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, column := range columns {
			pdf.CellFormat(cellWidth, pdfHeaderHeight, fitText(pdf, tr(column.Label), cellWidth), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(pdfHeaderHeight)
		pdf.SetFont("Helvetica", "", 8)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	writeHeader()

	for _, row := range rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-bottom {
			pdf.AddPage()
			writeHeader()
		}
		for _, column := range columns {
			pdf.CellFormat(cellWidth, pdfRowHeight, fitText(pdf, tr(CellText(row[column.Key])), cellWidth), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(pdfRowHeight)
	}

	if pdf.Err() {
		return nil, pdf.Error()
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitText 截断超出单元格宽度的文本（输入已转为单字节编码）
func fitText(pdf *fpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	cut := []byte(text)
	for len(cut) > 0 && pdf.GetStringWidth(string(cut)+"...") > limit {
		cut = cut[:len(cut)-1]
	}
	return string(cut) + "..."
}
