package sessions

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Desarso/babyzen/controllers"
	"github.com/Desarso/babyzen/media"
	"github.com/Desarso/babyzen/models"
)

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestHealthMetricsAndDocs(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{})

	w := srv.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]string](t, w.Body.Bytes())
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "test-model", health["model"])

	w = srv.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "babyzen_websocket_sessions")

	w = srv.do(t, http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode[map[string]any](t, w.Body.Bytes())
	assert.Equal(t, "/api/v1", doc["basePath"])
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/food/analyze")
	assert.Contains(t, paths, "/chat/{conversationID}")
}

func TestAnalyzeFood(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{imageReply: honeyJSON})

	body := multipartBody(t, "image", "honey.png", "", pngBytes, map[string]string{"age_months": "12"})
	w := srv.do(t, http.MethodPost, "/api/v1/food/analyze", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	snap := decode[controllers.FoodSnapshot](t, w.Body.Bytes())
	assert.Equal(t, controllers.FoodResultReady, snap.State)
	assert.Equal(t, 12, snap.AgeMonths)
	assert.Empty(t, snap.Preview)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "蜂蜜", snap.Result.ItemName)
	require.NotNil(t, snap.Treatment)
	assert.Equal(t, "danger", snap.Treatment.Tone)
	assert.Equal(t, 12, srv.assistant.age())

	w = srv.do(t, http.MethodGet, "/api/v1/analyses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[map[string][]models.AnalysisResponse](t, w.Body.Bytes())
	require.Len(t, list["analyses"], 1)
	got := list["analyses"][0]
	assert.Equal(t, models.AnalysisImage, got.Kind)
	assert.Equal(t, "image/png", got.MIMEType)
	assert.Equal(t, 12, got.AgeMonths)
	assert.True(t, got.Valid)
}

func TestAnalyzeFoodRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{imageReply: honeyJSON})

	cases := []struct {
		name string
		body *httptestBody
		want int
	}{
		{"missing file", multipartBody(t, "", "", "", nil, map[string]string{"age_months": "6"}), http.StatusBadRequest},
		{"not an image", multipartBody(t, "image", "notes.txt", "text/plain", []byte("hello there"), nil), http.StatusBadRequest},
		{"age not offered", multipartBody(t, "image", "a.png", "", pngBytes, map[string]string{"age_months": "13"}), http.StatusBadRequest},
		{"age not a number", multipartBody(t, "image", "a.png", "", pngBytes, map[string]string{"age_months": "six"}), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := srv.do(t, http.MethodPost, "/api/v1/food/analyze", tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
			assert.NotEmpty(t, decode[models.Error_Response](t, w.Body.Bytes()).Error)
		})
	}
}

func TestAnalyzeCry(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{audioReply: hungryJSON})

	body := multipartBody(t, "audio", "cry.webm", "audio/webm", []byte("opus-frames"), nil)
	w := srv.do(t, http.MethodPost, "/api/v1/cry/analyze", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	snap := decode[controllers.CrySnapshot](t, w.Body.Bytes())
	assert.Equal(t, controllers.CryResultReady, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "肚子餓", snap.Result.PrimaryCause)
	assert.Equal(t, []string{"先餵奶", "餵完拍嗝"}, snap.Result.AdviceSteps)

	w = srv.do(t, http.MethodGet, "/api/v1/analyses?limit=5", nil)
	list := decode[map[string][]models.AnalysisResponse](t, w.Body.Bytes())
	require.Len(t, list["analyses"], 1)
	assert.Equal(t, "audio/webm", list["analyses"][0].MIMEType)
}

func TestAnalyzeCryUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{err: &models.TransportError{Op: "analyze_audio", Err: errors.New("503 Service Unavailable")}})

	body := multipartBody(t, "audio", "cry.pcm", "", []byte("pcm"), nil)
	w := srv.do(t, http.MethodPost, "/api/v1/cry/analyze", body)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = srv.do(t, http.MethodPost, "/api/v1/cry/analyze", multipartBody(t, "audio", "empty.pcm", "", nil, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatLifecycle(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{chatReply: "**先確認**寶寶是否餓了或尿布濕了。"})

	w := srv.do(t, http.MethodPost, "/api/v1/chat", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[controllers.ChatSnapshot](t, w.Body.Bytes())
	require.NotEmpty(t, created.ConversationID)
	assert.True(t, created.Online)
	require.Len(t, created.Messages, 1)
	assert.Equal(t, controllers.WelcomeMessageID, created.Messages[0].ID)
	assert.Equal(t, 1, srv.registry.Len())

	path := "/api/v1/chat/" + created.ConversationID
	w = srv.do(t, http.MethodPost, path, jsonBody(t, models.Chat_Request{Message: "寶寶一直哭怎麼辦"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decode[controllers.ChatSnapshot](t, w.Body.Bytes())
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, "寶寶一直哭怎麼辦", snap.Messages[1].Text)
	assert.Equal(t, "先確認寶寶是否餓了或尿布濕了。", snap.Messages[2].Text)
	assert.Equal(t, controllers.ChatIdle, snap.State)

	w = srv.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[controllers.ChatSnapshot](t, w.Body.Bytes()).Messages, 3)

	w = srv.do(t, http.MethodGet, path+"/transcript", nil)
	require.Equal(t, http.StatusOK, w.Code)
	transcript := decode[map[string][]models.ChatMessageResponse](t, w.Body.Bytes())
	require.Len(t, transcript["messages"], 2)
	assert.Equal(t, models.RoleUser, transcript["messages"][0].Role)
	assert.Equal(t, 2, transcript["messages"][1].Sequence)

	w = srv.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodDelete, path, nil).Code)
}

func TestSendChatRejections(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{chatReply: "好"})
	created := decode[controllers.ChatSnapshot](t, srv.do(t, http.MethodPost, "/api/v1/chat", nil).Body.Bytes())
	path := "/api/v1/chat/" + created.ConversationID

	w := srv.do(t, http.MethodPost, path, &httptestBody{contentType: "application/json", data: []byte(`{}`)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, path, jsonBody(t, models.Chat_Request{Message: "   "}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, "/api/v1/chat/missing", jsonBody(t, models.Chat_Request{Message: "hi"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatWithoutCredentials(t *testing.T) {
	missing := &models.ConfigurationError{Key: "GEMINI_API_KEY", Message: "API Key is missing. Please check your environment configuration."}
	srv := newTestServer(t, &stubAssistant{newConvErr: missing})

	w := srv.do(t, http.MethodPost, "/api/v1/chat", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[controllers.ChatSnapshot](t, w.Body.Bytes())
	assert.False(t, created.Online)
	assert.Equal(t, missing.Message, created.InitError)

	w = srv.do(t, http.MethodPost, "/api/v1/chat/"+created.ConversationID, jsonBody(t, models.Chat_Request{Message: "hi"}))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.ErrBusy, http.StatusConflict},
		{fmt.Errorf("send: %w", models.ErrBusy), http.StatusConflict},
		{&models.ConfigurationError{Key: "GEMINI_API_KEY", Message: "missing"}, http.StatusServiceUnavailable},
		{controllers.ErrUnavailable, http.StatusServiceUnavailable},
		{&models.TransportError{Op: "chat", Err: errors.New("API key not valid")}, http.StatusServiceUnavailable},
		{&models.TransportError{Op: "chat", Err: errors.New("deadline exceeded")}, http.StatusBadGateway},
		{&models.CaptureError{Device: "camera", Err: media.ErrTooLarge}, http.StatusRequestEntityTooLarge},
		{&models.CaptureError{Device: "camera", Err: media.ErrNotImage}, http.StatusBadRequest},
		{controllers.ErrEmptyInput, http.StatusBadRequest},
		{controllers.ErrInvalidAge, http.StatusBadRequest},
		{&SessionError{Message: "bad"}, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}
