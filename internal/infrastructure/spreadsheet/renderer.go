package spreadsheet

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/view"
)

const (
	OrderSheetName = "발주서"
	BoardSheetName = "발주목록"

	dateLayout = "2006-01-02"

	// first row of the order line table
	orderTableRow = 9
)

var orderColumns = []string{"번호", "품명", "규격", "수량", "단가", "금액", "비고"}

var boardColumns = []string{
	"발주번호", "요청자", "업체", "품명", "규격", "수량", "단가", "금액",
	"통화", "청구일", "중간승인", "최종승인", "구매완료", "입고완료",
}

// Renderer builds order and board spreadsheets with excelize
type Renderer struct {
	logger *zap.Logger
}

// NewRenderer creates a new Renderer
func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// RenderOrder lays out one purchase order: header block, line table, total
// row and the total spelled out in Korean.
func (r *Renderer) RenderOrder(sheet *port.OrderSheet) ([]byte, error) {
	if sheet == nil || sheet.Header == nil {
		return nil, fmt.Errorf("order sheet has no header line")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", OrderSheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	name := OrderSheetName
	h := sheet.Header

	if err := f.MergeCell(name, "A1", "G1"); err != nil {
		return nil, fmt.Errorf("failed to merge title: %w", err)
	}
	r.setCell(f, name, "A1", "발 주 서")
	if titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 18},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err == nil {
		r.setStyle(f, name, "A1", "A1", titleStyle)
	}

	vendorName := h.VendorName
	if sheet.Vendor != nil {
		vendorName = sheet.Vendor.Name
	}
	contact := ""
	if sheet.Contact != nil {
		contact = sheet.Contact.Name
		if sheet.Contact.Email != "" {
			contact += " (" + sheet.Contact.Email + ")"
		}
	}

	r.setCell(f, name, "A3", "발주번호")
	r.setCell(f, name, "B3", h.OrderNumber)
	r.setCell(f, name, "A4", "업체명")
	r.setCell(f, name, "B4", vendorName)
	r.setCell(f, name, "A5", "담당자")
	r.setCell(f, name, "B5", contact)
	r.setCell(f, name, "A6", "요청자")
	r.setCell(f, name, "B6", h.RequesterName)

	r.setCell(f, name, "E3", "청구일")
	r.setCell(f, name, "F3", formatDate(&h.RequestDate))
	r.setCell(f, name, "E4", "입고요청일")
	r.setCell(f, name, "F4", formatDate(h.DeliveryRequestDate))
	r.setCell(f, name, "E5", "통화")
	r.setCell(f, name, "F5", h.Currency)
	r.setCell(f, name, "E6", "발주처")
	r.setCell(f, name, "F6", sheet.CompanyName)

	r.writeHeaderRow(f, name, orderTableRow-1, orderColumns)

	row := orderTableRow
	for _, line := range sheet.Lines {
		r.setRow(f, name, row, []interface{}{
			line.LineNumber,
			line.ItemName,
			line.Specification,
			line.Quantity,
			line.UnitPrice.InexactFloat64(),
			line.Amount.InexactFloat64(),
			line.Remark,
		})
		row++
	}

	if numStyle, err := f.NewStyle(&excelize.Style{NumFmt: 3}); err == nil && row > orderTableRow {
		r.setStyle(f, name, fmt.Sprintf("E%d", orderTableRow), fmt.Sprintf("F%d", row), numStyle)
	}

	r.setCell(f, name, fmt.Sprintf("A%d", row), "합계")
	r.setCell(f, name, fmt.Sprintf("F%d", row), sheet.Total.InexactFloat64())
	r.setCell(f, name, fmt.Sprintf("A%d", row+1), "합계금액")
	r.setCell(f, name, fmt.Sprintf("B%d", row+1), AmountInWords(sheet.Total))

	r.setWidth(f, name, "B", "C", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write order sheet: %w", err)
	}

	r.logger.Debug("Order sheet rendered",
		zap.String("order_number", h.OrderNumber),
		zap.Int("lines", len(sheet.Lines)))
	return buf.Bytes(), nil
}

// RenderBoard writes one row per line of the board snapshot. Sub-rows leave
// the order-level columns blank so groups read the same as on screen.
func (r *Renderer) RenderBoard(sheet *port.BoardSheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", BoardSheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	name := BoardSheetName

	first := 1
	if sheet != nil && sheet.Title != "" {
		r.setCell(f, name, "A1", sheet.Title)
		first = 2
	}
	r.writeHeaderRow(f, name, first, boardColumns)

	if sheet != nil {
		for i, row := range sheet.Rows {
			r.setRow(f, name, first+1+i, boardRowValues(row))
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write board sheet: %w", err)
	}
	return buf.Bytes(), nil
}

func boardRowValues(row view.Row) []interface{} {
	l := row.Line
	values := []interface{}{
		l.OrderNumber, l.RequesterName, l.VendorName,
		l.ItemName, l.Specification, l.Quantity,
		l.UnitPrice.InexactFloat64(), l.Amount.InexactFloat64(),
		l.Currency, formatDate(&l.RequestDate),
		string(l.MiddleManagerStatus), string(l.FinalManagerStatus),
		yesNo(l.PaymentCompleted), yesNo(l.Received),
	}
	if row.IsSubItem {
		for _, i := range []int{0, 1, 2, 8, 9, 10, 11, 12, 13} {
			values[i] = ""
		}
	}
	return values
}

func (r *Renderer) writeHeaderRow(f *excelize.File, sheet string, row int, columns []string) {
	values := make([]interface{}, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	r.setRow(f, sheet, row, values)

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), row)
	r.setStyle(f, sheet, fmt.Sprintf("A%d", row), last, style)
}

// setRow writes values left to right starting at column A
func (r *Renderer) setRow(f *excelize.File, sheet string, row int, values []interface{}) {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		r.logger.Warn("Failed to set row",
			zap.String("sheet", sheet),
			zap.Int("row", row),
			zap.Error(err))
	}
}

// setCell sets a cell value in the Excel file
func (r *Renderer) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		r.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func (r *Renderer) setStyle(f *excelize.File, sheet, from, to string, style int) {
	if err := f.SetCellStyle(sheet, from, to, style); err != nil {
		r.logger.Warn("Failed to set cell style",
			zap.String("sheet", sheet),
			zap.String("range", from+":"+to),
			zap.Error(err))
	}
}

func (r *Renderer) setWidth(f *excelize.File, sheet, from, to string, width float64) {
	if err := f.SetColWidth(sheet, from, to, width); err != nil {
		r.logger.Warn("Failed to set column width", zap.String("sheet", sheet), zap.Error(err))
	}
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

var _ port.SheetRenderer = (*Renderer)(nil)
