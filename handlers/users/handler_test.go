package users

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"vitalis-backend/testutils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const testUserID = "22222222-2222-2222-2222-222222222222"

func TestMain(m *testing.M) {
	testutils.InitTestMain()

	log.SetOutput(io.Discard)

	exitCode := m.Run()

	log.SetOutput(os.Stdout)

	os.Exit(exitCode)
}

func authedTestRouter(userID string) *gin.Engine {
	r := testutils.SetupTestRouter()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	return r
}

func TestGetProfile_Success(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id", "email", "password", "first_name", "last_name", "age", "sex"}).
			AddRow(testUserID, "user@example.com", "some-hash", "Ada", "Lovelace", 36, "female"))

	r := authedTestRouter(testUserID)
	r.GET("/profile", GetProfile)

	req, _ := http.NewRequest(http.MethodGet, "/profile", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var respBody map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &respBody)
	assert.Equal(t, "user@example.com", respBody["email"])
	// the hash never leaves the server
	assert.Empty(t, respBody["password"])
}

func TestGetProfile_NotFound(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id"}))

	r := authedTestRouter(testUserID)
	r.GET("/profile", GetProfile)

	req, _ := http.NewRequest(http.MethodGet, "/profile", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpdateProfile_Success(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := authedTestRouter(testUserID)
	r.PUT("/profile", UpdateProfile)

	profileData := map[string]interface{}{
		"firstName":         "Ada",
		"lastName":          "Lovelace",
		"age":               36,
		"sex":               "female",
		"medicalConditions": "none",
		"medications":       "none",
	}
	jsonData, _ := json.Marshal(profileData)

	req, _ := http.NewRequest(http.MethodPut, "/profile", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var respBody map[string]string
	json.Unmarshal(resp.Body.Bytes(), &respBody)
	assert.Equal(t, "Profile updated", respBody["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
