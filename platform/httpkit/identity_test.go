package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestGetIdentityReturnsUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	want := uuid.New()
	c.Set(ContextUserIDKey, want)

	id := GetIdentity(c)
	if id == nil {
		t.Fatal("expected an identity")
	}
	if id.UserID() != want {
		t.Fatalf("unexpected user id %s", id.UserID())
	}
}

func TestGetIdentityWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if id := GetIdentity(c); id != nil {
		t.Fatalf("expected nil identity, got %+v", id)
	}
}

func TestMustGetIdentityAbortsUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	if id := MustGetIdentity(c); id != nil {
		t.Fatalf("expected nil identity, got %+v", id)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
