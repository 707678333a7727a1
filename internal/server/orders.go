package server

import (
	"net/http"
	"strings"

	commissiondomain "github.com/atmodecor/tally/internal/commission/domain"
	"github.com/atmodecor/tally/internal/textparse"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description"`
	TimeOfDay   string           `json:"time_of_day"`
	RawText     string           `json:"raw_text"`
}

type createOrderTextRequest struct {
	Text string `json:"text"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	receipt, err := s.sessionSvc.RecordOrder(c.Request.Context(), commissiondomain.OrderInput{
		Amount:       req.Amount,
		Description:  req.Description,
		TimeOfDay:    req.TimeOfDay,
		RawOrderText: req.RawText,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordOrder(c.Request.Context(),
		receipt.Order.IsSpecialProduct,
		receipt.Order.CountsTowardOrderTotal,
	)

	c.JSON(http.StatusCreated, receipt)
}

// CreateOrderFromText accepts a free-form order message and extracts the
// amount, time and description before recording it.
func (s *Server) CreateOrderFromText(c *gin.Context) {
	var req createOrderTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		AbortWithError(c, newValidationError("text", "invalid_text", "invalid value"))
		return
	}

	input := commissiondomain.OrderInput{
		Description:  textparse.Description(text),
		RawOrderText: text,
	}
	if amount, ok := textparse.Amount(text); ok {
		input.Amount = &amount
	} else {
		s.obsMetrics.RecordParseFailure(c.Request.Context(), "no_amount")
	}
	if timeOfDay, ok := textparse.TimeOfDay(text); ok {
		input.TimeOfDay = timeOfDay
	}

	receipt, err := s.sessionSvc.RecordOrder(c.Request.Context(), input)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordOrder(c.Request.Context(),
		receipt.Order.IsSpecialProduct,
		receipt.Order.CountsTowardOrderTotal,
	)

	c.JSON(http.StatusCreated, receipt)
}
