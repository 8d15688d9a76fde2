package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"smartbudget/pkg/db"
	"smartbudget/pkg/etl"
)

// apiSourceSystem tags expenses created through POST /expenses.
const apiSourceSystem = "api"

// ExpensesHandler handles expense-related API endpoints.
type ExpensesHandler struct {
	expenses  *db.Expenses
	reference *db.Reference
}

// NewExpensesHandler creates a new ExpensesHandler.
func NewExpensesHandler(conn *db.Connection) *ExpensesHandler {
	return &ExpensesHandler{
		expenses:  db.NewExpenses(conn),
		reference: db.NewReference(conn),
	}
}

// ExpenseResponse is the JSON shape of one expense.
type ExpenseResponse struct {
	ExpenseID     int64    `json:"expense_id"`
	OccurredAt    string   `json:"occurred_at"`
	ProductName   string   `json:"product_name"`
	Quantity      *float64 `json:"quantity,omitempty"`
	UnitPrice     *float64 `json:"unit_price,omitempty"`
	Amount        float64  `json:"amount"`
	CategoryID    *int64   `json:"category_id,omitempty"`
	PaymentModeID *int64   `json:"payment_mode_id,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	SourceSystem  *string  `json:"source_system,omitempty"`
	SourceRowID   *string  `json:"source_row_id,omitempty"`
}

// CreateExpenseRequest represents the POST /expenses body. Values arrive as
// strings under the same contract as a CSV row, so quantity and price accept
// the same spellings ingest does ("2.0", "$4.50").
type CreateExpenseRequest struct {
	Date        string `json:"date"`
	Item        string `json:"item"`
	Category    string `json:"category"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
	Notes       string `json:"notes"`
	PaymentMode string `json:"payment_mode"`
}

// List handles GET /expenses.
// Query parameters: category (name), from, to (YYYY-MM-DD, to exclusive),
// limit.
func (h *ExpensesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := db.ExpenseFilter{CategoryName: query.Get("category")}

	if fromStr := query.Get("from"); fromStr != "" {
		from, err := etl.ParseDate(fromStr)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid from date")
			return
		}
		filter.From = from
	}

	if toStr := query.Get("to"); toStr != "" {
		to, err := etl.ParseDate(toStr)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid to date")
			return
		}
		filter.To = to
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	expenses, err := h.expenses.List(filter)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list expenses")
		return
	}

	items := make([]ExpenseResponse, 0, len(expenses))
	for _, exp := range expenses {
		items = append(items, toExpenseResponse(exp))
	}

	response := map[string]interface{}{
		"expenses": items,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// Create handles POST /expenses.
// The body runs through the same validation as an ingested CSV row.
func (h *ExpensesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	row, err := etl.ValidateRow(etl.RawRow{
		Date:        req.Date,
		Item:        req.Item,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Notes:       req.Notes,
		PaymentMode: req.PaymentMode,
	})
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	exp, err := h.buildExpense(row)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to build expense")
		return
	}

	if err := h.expenses.Upsert(exp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to store expense")
		return
	}

	response := map[string]interface{}{
		"expense": toExpenseResponse(exp),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(response)
}

// buildExpense maps a validated row to a canonical expense keyed by a fresh
// row id. Unlike staged rows, API entries resolve category against canonical
// category names; an unknown name stays uncategorized.
func (h *ExpensesHandler) buildExpense(row etl.Row) (db.Expense, error) {
	// The date already passed validation
	occurredAt, err := etl.ParseDate(row.Date)
	if err != nil {
		return db.Expense{}, err
	}

	rowKey := uuid.New().String()
	exp := db.Expense{
		ExpenseID:    etl.ExpenseIDFromKey(apiSourceSystem, rowKey),
		OccurredAt:   occurredAt,
		Quantity:     sql.NullFloat64{Float64: 1, Valid: true},
		SourceSystem: sql.NullString{String: apiSourceSystem, Valid: true},
		SourceRowID:  sql.NullString{String: rowKey, Valid: true},
	}

	if row.Notes != "" {
		exp.Notes = sql.NullString{String: row.Notes, Valid: true}
	}

	exp.ProductName = row.Item
	if exp.ProductName == "" {
		exp.ProductName = row.Notes
	}

	if row.Price != "" {
		price, err := etl.ParsePrice(row.Price)
		if err != nil {
			return db.Expense{}, err
		}
		amount, _ := price.Float64()
		exp.Amount = amount
		exp.UnitPrice = sql.NullFloat64{Float64: amount, Valid: true}
	}

	if row.Category != "" {
		category, err := h.reference.GetCategoryByName(row.Category)
		if err != nil {
			return db.Expense{}, err
		}
		if category != nil {
			exp.CategoryID = sql.NullInt64{Int64: category.CategoryID, Valid: true}
		}
	}

	if row.PaymentMode != "" {
		paymentModes, err := h.reference.LoadPaymentModes()
		if err != nil {
			return db.Expense{}, err
		}
		if modeID, ok := paymentModes[strings.ToLower(row.PaymentMode)]; ok {
			exp.PaymentModeID = sql.NullInt64{Int64: modeID, Valid: true}
		}
	}

	return exp, nil
}

// toExpenseResponse converts a stored expense to its JSON shape.
func toExpenseResponse(exp db.Expense) ExpenseResponse {
	return ExpenseResponse{
		ExpenseID:     exp.ExpenseID,
		OccurredAt:    exp.OccurredAt.Format(etl.DateLayout),
		ProductName:   exp.ProductName,
		Quantity:      floatPtr(exp.Quantity),
		UnitPrice:     floatPtr(exp.UnitPrice),
		Amount:        exp.Amount,
		CategoryID:    intPtr(exp.CategoryID),
		PaymentModeID: intPtr(exp.PaymentModeID),
		Notes:         stringPtr(exp.Notes),
		SourceSystem:  stringPtr(exp.SourceSystem),
		SourceRowID:   stringPtr(exp.SourceRowID),
	}
}

// Helper functions

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
