package middleware

import (
	"net/http"
	"sync"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// InFlight tracks which keys have a request running.
type InFlight struct {
	mu     sync.Mutex
	active map[string]bool
}

func NewInFlight() *InFlight {
	return &InFlight{active: make(map[string]bool)}
}

// Acquire marks key busy. It returns false if key already is.
func (f *InFlight) Acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active[key] {
		return false
	}
	f.active[key] = true
	return true
}

func (f *InFlight) Release(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, key)
}

// SingleFlight refuses a request while the same client IP has one running
// through this middleware.
func SingleFlight() gin.HandlerFunc {
	inFlight := NewInFlight()

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if !inFlight.Acquire(clientIP) {
			log.Warnf("Submission already in progress for IP: %s", clientIP)
			c.JSON(http.StatusConflict, gin.H{"error": "A submission is already being analyzed"})
			c.Abort()
			return
		}
		defer inFlight.Release(clientIP)

		c.Next()
	}
}
