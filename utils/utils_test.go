package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestGenerateID_Ordered(t *testing.T) {
	first := GenerateID()
	second := GenerateID()

	id, err := uuid.Parse(first)
	require.NoError(t, err)
	require.Equal(t, uuid.Version(7), id.Version())
	require.Less(t, first, second)
}

func TestSetLevel(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	SetLevel("debug")
	require.Equal(t, log.DebugLevel, log.GetLevel())

	SetLevel("loud")
	require.Equal(t, log.DebugLevel, log.GetLevel())
}

func TestJSONRejection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	JSONRejection(c, http.StatusConflict, errors.New("too low"), "bid amount too low", "BidTooLow", gin.H{"floor": "50.00"})

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "BidTooLow", body["reason"])
	require.Equal(t, "50.00", body["detail"].(map[string]any)["floor"])

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	JSONRejection(c, http.StatusServiceUnavailable, errors.New("down"), "store unavailable", "StoreUnavailable", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	_, hasDetail := body["detail"]
	require.False(t, hasDetail)
}
