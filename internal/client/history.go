package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/salesledger/internal/domain/ledger"
	"github.com/xenking/salesledger/internal/domain/period"
)

var _ ledger.Source = (*Client)(nil)

type lineDTO struct {
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

func lines(ds []lineDTO) []ledger.Line {
	if len(ds) == 0 {
		return nil
	}
	out := make([]ledger.Line, len(ds))
	for i, d := range ds {
		out[i] = ledger.Line{ProductName: d.ProductName, Quantity: d.Quantity, UnitPrice: d.UnitPrice}
	}
	return out
}

type historyRecordDTO struct {
	ID             flexID           `json:"id"`
	Date           wireTime         `json:"date"`
	Type           string           `json:"type"`
	Status         string           `json:"status"`
	ReferenceID    flexID           `json:"referenceId"`
	Description    string           `json:"description"`
	Amount         decimal.Decimal  `json:"amount"`
	Method         string           `json:"method"`
	Items          []lineDTO        `json:"items"`
	DiscountAmount decimal.Decimal  `json:"discountAmount"`
	DiscountType   string           `json:"discountType"`
	ReversalOf     flexID           `json:"reversalOf"`
	RunningBalance *decimal.Decimal `json:"runningBalance"`
}

type financialHistoryDTO struct {
	CustomerID   flexID `json:"customerId"`
	CustomerName string `json:"customerName"`
	Summary      struct {
		TotalOrders    decimal.Decimal `json:"totalOrders"`
		TotalPaid      decimal.Decimal `json:"totalPaid"`
		CurrentBalance decimal.Decimal `json:"currentBalance"`
	} `json:"summary"`
	History []historyRecordDTO `json:"history"`
}

// FinancialHistory fetches the customer's order and payment feed. Feed
// position becomes the tie-break sequence.
func (c *Client) FinancialHistory(ctx context.Context, customerID int64, r period.Range) (*ledger.History, error) {
	q := url.Values{}
	if s := r.StartString(); s != "" {
		q.Set("start_date", s)
	}
	if s := r.EndString(); s != "" {
		q.Set("end_date", s)
	}

	var d financialHistoryDTO
	if err := c.call(ctx, http.MethodGet, idPath("/customers", customerID)+"/financial-history", q, nil, &d); err != nil {
		return nil, errors.Wrapf(err, "financial history of customer %d", customerID)
	}

	h := &ledger.History{
		CustomerID:   int64(d.CustomerID),
		CustomerName: d.CustomerName,
		Summary: ledger.ReportedSummary{
			TotalOrders:    d.Summary.TotalOrders,
			TotalPaid:      d.Summary.TotalPaid,
			CurrentBalance: d.Summary.CurrentBalance,
		},
		Entries: make([]ledger.Entry, len(d.History)),
	}
	if h.CustomerID == 0 {
		h.CustomerID = customerID
	}
	for i, rec := range d.History {
		h.Entries[i] = ledger.Entry{
			ID:              int64(rec.ID),
			Kind:            ledger.Kind(rec.Type),
			ReferenceID:     int64(rec.ReferenceID),
			Seq:             int64(i + 1),
			Date:            rec.Date.Time,
			Description:     rec.Description,
			Amount:          rec.Amount,
			Status:          ledger.NormalizeStatus(rec.Status),
			Method:          rec.Method,
			Items:           lines(rec.Items),
			DiscountAmount:  rec.DiscountAmount,
			DiscountType:    rec.DiscountType,
			ReversalOf:      int64(rec.ReversalOf),
			ReportedBalance: rec.RunningBalance,
		}
	}
	return h, nil
}

type deletedRecordDTO struct {
	ID             flexID          `json:"id"`
	Type           string          `json:"type"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method"`
	Items          []lineDTO       `json:"items"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	DiscountType   string          `json:"discountType"`
	CreatedAt      wireTime        `json:"created_at"`
	DeletedAt      wireTime        `json:"deleted_at"`
	DeletedBy      *actor          `json:"deleted_by"`
}

type deletedHistoryDTO struct {
	CustomerID   flexID `json:"customerId"`
	CustomerName string `json:"customerName"`
	Summary      struct {
		TotalDeletedOrders   decimal.Decimal `json:"totalDeletedOrders"`
		TotalDeletedPayments decimal.Decimal `json:"totalDeletedPayments"`
		DeletedOrdersCount   int             `json:"deletedOrdersCount"`
		DeletedPaymentsCount int             `json:"deletedPaymentsCount"`
	} `json:"summary"`
	History []deletedRecordDTO `json:"history"`
}

// DeletedHistory fetches the soft-deleted orders and payments of a customer.
func (c *Client) DeletedHistory(ctx context.Context, customerID int64) (*ledger.DeletedHistory, error) {
	var d deletedHistoryDTO
	if err := c.call(ctx, http.MethodGet, idPath("/customers", customerID)+"/deleted-history", nil, nil, &d); err != nil {
		return nil, errors.Wrapf(err, "deleted history of customer %d", customerID)
	}

	h := &ledger.DeletedHistory{
		CustomerID:   customerID,
		CustomerName: d.CustomerName,
		Summary: ledger.DeletedSummary{
			TotalDeletedOrders:   d.Summary.TotalDeletedOrders,
			TotalDeletedPayments: d.Summary.TotalDeletedPayments,
			DeletedOrdersCount:   d.Summary.DeletedOrdersCount,
			DeletedPaymentsCount: d.Summary.DeletedPaymentsCount,
		},
		Entries: make([]ledger.Entry, len(d.History)),
	}
	for i, rec := range d.History {
		h.Entries[i] = ledger.Entry{
			ID:             int64(rec.ID),
			Kind:           ledger.Kind(rec.Type),
			ReferenceID:    int64(rec.ID),
			Seq:            int64(i + 1),
			Date:           rec.CreatedAt.Time,
			Description:    rec.Description,
			Amount:         rec.Amount,
			Status:         ledger.StatusDeleted,
			Method:         rec.Method,
			Items:          lines(rec.Items),
			DiscountAmount: rec.DiscountAmount,
			DiscountType:   rec.DiscountType,
			DeletedAt:      rec.DeletedAt.ptr(),
			DeletedBy:      rec.DeletedBy.name(),
		}
	}
	return h, nil
}

type updateRecordDTO struct {
	ID          flexID         `json:"id"`
	Type        string         `json:"type"`
	EntityID    flexID         `json:"entity_id"`
	Description string         `json:"description"`
	Changes     map[string]any `json:"changes"`
	UpdatedBy   *actor         `json:"updated_by"`
	UpdatedAt   wireTime       `json:"updated_at"`
}

// splitChanges turns the backend's {field: {old, new}} map into before and
// after snapshots. Fields without that shape only carry a new value.
func splitChanges(changes map[string]any) (before, after map[string]any) {
	before = make(map[string]any, len(changes))
	after = make(map[string]any, len(changes))
	for k, v := range changes {
		pair, ok := v.(map[string]any)
		if !ok {
			after[k] = v
			continue
		}
		oldV, hasOld := pair["old"]
		newV, hasNew := pair["new"]
		if !hasOld && !hasNew {
			after[k] = v
			continue
		}
		if hasOld {
			before[k] = oldV
		}
		if hasNew {
			after[k] = newV
		}
	}
	return before, after
}

// UpdateHistory fetches the edit trail of a customer's orders and payments.
func (c *Client) UpdateHistory(ctx context.Context, customerID int64) (*ledger.UpdateHistory, error) {
	var d struct {
		CustomerName string            `json:"customerName"`
		History      []updateRecordDTO `json:"history"`
	}
	if err := c.call(ctx, http.MethodGet, idPath("/customers", customerID)+"/update-history", nil, nil, &d); err != nil {
		return nil, errors.Wrapf(err, "update history of customer %d", customerID)
	}

	h := &ledger.UpdateHistory{
		CustomerID:   customerID,
		CustomerName: d.CustomerName,
		Changes:      make([]ledger.Change, len(d.History)),
	}
	for i, rec := range d.History {
		before, after := splitChanges(rec.Changes)
		h.Changes[i] = ledger.Change{
			ID:          int64(rec.ID),
			Kind:        ledger.Kind(rec.Type),
			EntityID:    int64(rec.EntityID),
			Description: rec.Description,
			Before:      before,
			After:       after,
			UpdatedBy:   rec.UpdatedBy.name(),
			UpdatedAt:   rec.UpdatedAt.Time,
		}
	}
	return h, nil
}
