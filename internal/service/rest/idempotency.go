package rest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour
)

// withIdempotency исполняет мутацию с поддержкой заголовка Idempotency-Key.
// Повтор с тем же ключом и телом возвращает сохранённый ответ; тот же ключ
// с другим телом отклоняется.
func (h *OrderHandler) withIdempotency(c *gin.Context, body []byte, handler func([]byte) (int, any)) (int, any) {
	key := strings.TrimSpace(c.GetHeader(idempotencyKeyHeader))
	if key == "" || h.idem == nil {
		return handler(body)
	}

	hash := requestHash(c.Request.Method, c.FullPath(), body)
	record, err := h.idem.CreateProcessing(key, hash, time.Now().UTC().Add(idempotencyTTL))
	if err != nil {
		return h.replayIdempotency(record, err)
	}

	status, payload := handler(body)
	h.cacheIdempotencyResult(key, status, payload)
	return status, payload
}

func (h *OrderHandler) replayIdempotency(record domain.IdempotencyRecord, createErr error) (int, any) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		return errorResponse(domain.ErrIdempotencyHashMismatch)
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			if len(record.ResponseBody) == 0 || record.HTTPStatus == 0 {
				return http.StatusInternalServerError, newEnvelope("internal", errors.New("idempotency cache is empty"))
			}
			return record.HTTPStatus, json.RawMessage(record.ResponseBody)
		case domain.IdempotencyStatusProcessing:
			return http.StatusConflict, newEnvelope("idempotency_processing",
				errors.New("request with the same idempotency key is already processing"))
		default:
			return http.StatusInternalServerError, newEnvelope("internal", errors.New("unknown idempotency record status"))
		}
	default:
		h.logger.WithError(createErr).Warn("failed to create idempotency record")
		return http.StatusInternalServerError, newEnvelope("internal", errors.New("failed to initialize idempotency request"))
	}
}

func (h *OrderHandler) cacheIdempotencyResult(key string, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to encode idempotency response")
		data = nil
	}

	if status >= http.StatusBadRequest {
		err = h.idem.MarkFailed(key, data, status)
	} else {
		err = h.idem.MarkDone(key, data, status)
	}
	if err != nil {
		h.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotency response")
	}
}

func requestHash(method, path string, body []byte) string {
	payload := make([]byte, 0, len(method)+len(path)+len(body)+2)
	payload = append(payload, method...)
	payload = append(payload, ':')
	payload = append(payload, path...)
	payload = append(payload, ':')
	payload = append(payload, body...)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
