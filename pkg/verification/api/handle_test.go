package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnqc/group-verify/pkg/verification"
)

type recordingSender struct {
	codes map[string]string // email -> last code
}

func (s *recordingSender) SendCode(ctx context.Context, email, code string) error {
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[email] = code
	return nil
}

// downRepo simulates a storage outage
type downRepo struct{}

func (downRepo) Insert(context.Context, uuid.UUID, string, string) (*verification.CodeRecord, error) {
	return nil, errors.New("connection refused")
}

func (downRepo) FindRedeemable(context.Context, string, string, time.Duration) (*verification.CodeRecord, error) {
	return nil, errors.New("connection refused")
}

func (downRepo) MarkUsed(context.Context, uuid.UUID) (bool, error) {
	return false, errors.New("connection refused")
}

func (downRepo) PurgeExpired(context.Context, time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func newTestRouter(t *testing.T) (*chi.Mux, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	service := verification.NewService(verification.NewInMemCodeRepository(), sender)

	r := chi.NewRouter()
	Routes(r, NewHandler(service))
	return r, sender
}

func doJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIssueCode(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, sender := newTestRouter(t)

		w := doJSON(t, r, "/issue", `{"email":"a@b.com"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		// the response acknowledges but never contains the code
		code := sender.codes["a@b.com"]
		require.NotEmpty(t, code)
		assert.NotContains(t, w.Body.String(), code)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		r, sender := newTestRouter(t)

		w := doJSON(t, r, "/issue", `{"email":"not-an-email"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, sender.codes)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doJSON(t, r, "/issue", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("StorageDown", func(t *testing.T) {
		service := verification.NewService(downRepo{}, &recordingSender{})
		r := chi.NewRouter()
		Routes(r, NewHandler(service))

		w := doJSON(t, r, "/issue", `{"email":"a@b.com"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestRedeemCode(t *testing.T) {
	t.Run("SuccessThenReplayRejected", func(t *testing.T) {
		r, sender := newTestRouter(t)

		w := doJSON(t, r, "/issue", `{"email":"a@b.com"}`)
		require.Equal(t, http.StatusOK, w.Code)
		code := sender.codes["a@b.com"]

		w = doJSON(t, r, "/redeem", `{"email":"a@b.com","code":"`+code+`"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, r, "/redeem", `{"email":"a@b.com","code":"`+code+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MissingFields", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doJSON(t, r, "/redeem", `{"email":"a@b.com"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, r, "/redeem", `{"code":"123456"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NoOracle", func(t *testing.T) {
		r, sender := newTestRouter(t)

		w := doJSON(t, r, "/issue", `{"email":"a@b.com"}`)
		require.Equal(t, http.StatusOK, w.Code)
		code := sender.codes["a@b.com"]

		// wrong code, unknown email, and replayed code all yield the same
		// status and the same error body
		wrong := doJSON(t, r, "/redeem", `{"email":"a@b.com","code":"000000"}`)
		unknown := doJSON(t, r, "/redeem", `{"email":"x@y.com","code":"`+code+`"}`)

		ok := doJSON(t, r, "/redeem", `{"email":"a@b.com","code":"`+code+`"}`)
		require.Equal(t, http.StatusOK, ok.Code)
		replayed := doJSON(t, r, "/redeem", `{"email":"a@b.com","code":"`+code+`"}`)

		for _, w := range []*httptest.ResponseRecorder{wrong, unknown, replayed} {
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
		assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
		assert.JSONEq(t, wrong.Body.String(), replayed.Body.String())

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(wrong.Body.Bytes(), &resp))
		assert.Equal(t, "Verification code is invalid or expired", resp.Error)
	})

	t.Run("StorageDown", func(t *testing.T) {
		service := verification.NewService(downRepo{}, &recordingSender{})
		r := chi.NewRouter()
		Routes(r, NewHandler(service))

		w := doJSON(t, r, "/redeem", `{"email":"a@b.com","code":"123456"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}
