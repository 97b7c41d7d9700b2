package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestInFlightAcquireRelease(t *testing.T) {
	f := NewInFlight()

	assert.True(t, f.Acquire("10.0.0.1"))
	assert.False(t, f.Acquire("10.0.0.1"))
	assert.True(t, f.Acquire("10.0.0.2"))

	f.Release("10.0.0.1")
	assert.True(t, f.Acquire("10.0.0.1"))
}

func TestSingleFlightRefusesConcurrentRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	entered := make(chan struct{})
	release := make(chan struct{})
	router := gin.New()
	router.Use(SingleFlight())
	router.POST("/submit", func(c *gin.Context) {
		if c.Query("hold") == "1" {
			close(entered)
			<-release
		}
		c.Status(http.StatusCreated)
	})

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "192.0.2.7:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	first := make(chan int, 1)
	go func() { first <- do("/submit?hold=1") }()
	<-entered

	assert.Equal(t, http.StatusConflict, do("/submit"))

	close(release)
	assert.Equal(t, http.StatusCreated, <-first)
	assert.Equal(t, http.StatusCreated, do("/submit"), "slot is released after the first request")
}
