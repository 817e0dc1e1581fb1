package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// APIError — тело ошибки наружу.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope оборачивает ошибку в единый конверт ответа.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// errorResponse переводит доменную ошибку в HTTP-статус и конверт:
// нарушение формы — 400, отсутствующая ссылка — 422, нет записи — 404,
// конфликт ссылок или дубликат — 409, остальное — 500 без деталей.
func errorResponse(err error) (int, ErrorEnvelope) {
	switch {
	case domain.IsInvalid(err):
		return http.StatusBadRequest, newEnvelope("invalid_order", err)
	case domain.IsReferential(err):
		return http.StatusUnprocessableEntity, newEnvelope("missing_reference", err)
	case domain.IsNotFound(err):
		return http.StatusNotFound, newEnvelope("not_found", err)
	case errors.Is(err, domain.ErrEntityInUse):
		return http.StatusConflict, newEnvelope("entity_in_use", err)
	case errors.Is(err, domain.ErrDuplicateEntity):
		return http.StatusConflict, newEnvelope("duplicate", err)
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return http.StatusConflict, newEnvelope("idempotency_mismatch", err)
	default:
		return http.StatusInternalServerError, newEnvelope("internal", errors.New("internal error"))
	}
}

func newEnvelope(code string, err error) ErrorEnvelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	}
}

func respondError(c *gin.Context, err error) {
	status, envelope := errorResponse(err)
	c.JSON(status, envelope)
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, newEnvelope("bad_request", err))
}
