package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/localplate/waitlist/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referralRouter(h *ReferralHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/referrals/{code}", h.Stats)
	r.Get("/referrals/{code}/live", h.Live)
	return r
}

func join(t *testing.T, env *testEnv, email, referredBy string) string {
	t.Helper()
	res, err := env.service.Join(context.Background(), services.JoinInput{Email: email, ReferredBy: referredBy})
	require.NoError(t, err)
	return res.Signup.ReferralCode
}

func TestReferralHandler_Stats(t *testing.T) {
	env := newTestEnv(t)
	code := join(t, env, "user@localplate.com", "")
	join(t, env, "friend@example.com", code)
	router := referralRouter(NewReferralHandler(env.service, env.cache, nil, []string{"*"}, nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/referrals/"+strings.ToLower(code), nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decodeBody(t, rr)
	assert.Equal(t, code, body["referral_code"])
	assert.EqualValues(t, 1, body["referrals"])
	assert.EqualValues(t, 2, body["to_next_tier"])
	tier := body["tier"].(map[string]any)
	assert.Equal(t, "Early Access Badge", tier["reward"])
	shareLinks := body["share"].(map[string]any)
	assert.Contains(t, shareLinks, "whatsapp")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/referrals/nope", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/referrals/ZZZZZZZZ", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReferralHandler_Live(t *testing.T) {
	env := newTestEnv(t)
	code := join(t, env, "user@localplate.com", "")
	server := httptest.NewServer(referralRouter(NewReferralHandler(env.service, env.cache, nil, []string{"https://localplate.com"}, nil)))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/referrals/" + code + "/live"
	header := http.Header{"Origin": []string{"https://localplate.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snapshot struct {
		Type    string `json:"type"`
		Payload struct {
			ReferralCode string `json:"referral_code"`
			Referrals    int    `json:"referrals"`
		} `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, "snapshot", snapshot.Type)
	assert.Equal(t, code, snapshot.Payload.ReferralCode)
	assert.Equal(t, 0, snapshot.Payload.Referrals)
	require.Equal(t, 1, env.cache.subscribers(services.ReferralChannel(code)))

	join(t, env, "friend@example.com", code)

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var update map[string]any
	require.NoError(t, json.Unmarshal(raw, &update))
	assert.Equal(t, "update", update["type"])
	payload := update["payload"].(map[string]any)
	assert.EqualValues(t, 1, payload["referrals"])
	assert.Equal(t, "Early Access Badge", payload["tier"].(map[string]any)["reward"])
	assert.EqualValues(t, 2, payload["to_next_tier"])
}

func TestReferralHandler_LiveRejectsOrigin(t *testing.T) {
	env := newTestEnv(t)
	code := join(t, env, "user@localplate.com", "")
	server := httptest.NewServer(referralRouter(NewReferralHandler(env.service, env.cache, nil, []string{"https://localplate.com"}, nil)))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/referrals/" + code + "/live"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
