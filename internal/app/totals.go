package app

import (
	"log/slog"
	"net/http"

	"github.com/bizdesk/bizdesk/internal/observability"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/totals"
)

// totalsRequest is a stateless calculation request.
type totalsRequest struct {
	Items             []totals.LineItem `json:"items" validate:"required,min=1,max=500"`
	Freight           totals.Adjustment `json:"freight"`
	PackingForwarding totals.Adjustment `json:"packing_forwarding"`
	Discount          totals.Adjustment `json:"discount"`
	RoundOff          float64           `json:"round_off"`
	AutoRoundOff      bool              `json:"auto_round_off"`
	InterState        bool              `json:"inter_state"`
}

func (req totalsRequest) input() totals.Input {
	return totals.Input{
		Items:             req.Items,
		Freight:           req.Freight,
		PackingForwarding: req.PackingForwarding,
		Discount:          req.Discount,
		RoundOff:          req.RoundOff,
		InterState:        req.InterState,
	}
}

// totalsResponse adds the display form of the grand total.
type totalsResponse struct {
	totals.DocumentTotals
	GrandTotalFormatted string `json:"grand_total_formatted"`
}

// totalsHandler serves POST /api/v1/totals.
func totalsHandler(calc observability.Calculator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req totalsRequest
		if err := httpx.DecodeAndValidate(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		in := req.input()
		if req.AutoRoundOff {
			in.RoundOff = 0
			draft, err := calc.Compute(in)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			in.RoundOff = totals.SuggestRoundOff(draft.GrandTotal)
		}
		out, err := calc.Compute(in)
		if err != nil {
			logger.Debug("totals rejected", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, totalsResponse{
			DocumentTotals:      out,
			GrandTotalFormatted: totals.FormatAmount(out.GrandTotal),
		})
	}
}
