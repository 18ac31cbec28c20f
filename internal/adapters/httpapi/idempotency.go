package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/internal/ports/out/clock"
	"github.com/legacy-registry/profile-api/internal/ports/out/idempotency"
)

const idempotencyHeader = "Idempotency-Key"

// idempotentCall tracks one create-order request carrying an Idempotency-Key. The first payload
// pins the key; a different payload under the same key is a 409 until the replay window ends.
// While the first request runs, its response slot holds a pending reservation and retries get a
// 409 IDEMPOTENCY_IN_PROGRESS instead of opening a second gateway order.
type idempotentCall struct {
	store  idempotency.Store
	clk    clock.Clock
	logger *zap.Logger
	respFP idempotency.Fingerprint
}

// beginIdempotent returns (nil, false) when the request carries no key. When it returns
// handled=true the response has already been written.
func (s *Server) beginIdempotent(w http.ResponseWriter, r *http.Request, sub domain.SubjectID, route string, body any) (call *idempotentCall, handled bool) {
	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if key == "" || s.svc.Idem == nil {
		return nil, false
	}
	bodyHash, err := hashBody(body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil, true
	}

	ctx := r.Context()
	now := s.svc.Clock.Now()
	metaFP := idempotency.Fingerprint{
		Key:      idempotency.Key(key),
		Subject:  sub,
		Method:   r.Method,
		Route:    route,
		BodyHash: "",
	}
	pinned, err := s.svc.Idem.PutIfAbsent(ctx, metaFP, idempotency.Record{
		ContentType: "text/plain",
		Body:        []byte(bodyHash),
		CreatedAt:   now,
		ExpiresAt:   now.Add(idempotency.ReplayWindow),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil, true
	}
	if !pinned {
		meta, ok, err := s.svc.Idem.Get(ctx, metaFP)
		if err != nil {
			s.writeServiceError(w, r, err)
			return nil, true
		}
		if ok && string(meta.Body) != bodyHash {
			writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
			return nil, true
		}
	}

	respFP := metaFP
	respFP.BodyHash = bodyHash
	reserved, err := s.svc.Idem.PutIfAbsent(ctx, respFP, idempotency.Record{
		CreatedAt: now,
		ExpiresAt: now.Add(idempotency.ReservationWindow),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil, true
	}
	if !reserved {
		rec, ok, err := s.svc.Idem.Get(ctx, respFP)
		if err != nil {
			s.writeServiceError(w, r, err)
			return nil, true
		}
		switch {
		case ok && rec.Pending():
			retry := int(math.Ceil(rec.ExpiresAt.Sub(now).Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
			writeError(w, r, http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "a request with this idempotency key is still in progress", nil)
			return nil, true
		case ok && rec.StatusCode == http.StatusOK && strings.HasPrefix(rec.ContentType, "application/json"):
			w.Header().Set("Content-Type", rec.ContentType)
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.Body)
			return nil, true
		}
	}
	return &idempotentCall{store: s.svc.Idem, clk: s.svc.Clock, logger: s.logger, respFP: respFP}, false
}

// finish writes resp and stores it for replay. Safe on a nil call.
func (c *idempotentCall) finish(w http.ResponseWriter, r *http.Request, resp any) {
	b, err := json.Marshal(resp)
	if err != nil {
		c.abandon(r)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}
	if c != nil {
		now := c.clk.Now()
		if err := c.store.Put(r.Context(), c.respFP, idempotency.Record{
			StatusCode:  http.StatusOK,
			ContentType: "application/json",
			Body:        b,
			CreatedAt:   now,
			ExpiresAt:   now.Add(idempotency.ReplayWindow),
		}); err != nil {
			c.logger.Warn("store idempotent response failed", zap.String("route", c.respFP.Route), zap.Error(err))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(b, '\n'))
}

// abandon releases the reservation after a failed call so the client can retry at once.
// Safe on a nil call.
func (c *idempotentCall) abandon(r *http.Request) {
	if c == nil {
		return
	}
	if err := c.store.Delete(r.Context(), c.respFP); err != nil {
		c.logger.Warn("release idempotency reservation failed", zap.String("route", c.respFP.Route), zap.Error(err))
	}
}

func hashBody(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
