package api

import (
	"encoding/json" // Response decoding
	"fmt"           // Body formatting
	"net/http"      // Status codes
	"testing"       // Testing framework
	"time"          // Expiry assertions

	"mapconnect/internal/domain" // Models

	"github.com/stretchr/testify/assert"  // Assertions
	"github.com/stretchr/testify/require" // Hard assertions
)

// createMarkerResponse mirrors the 201 body of POST /markers
type createMarkerResponse struct {
	Message string        `json:"message"`
	Marker  domain.Marker `json:"marker"`
}

func TestCreateMarkerExpiryComputation(t *testing.T) {
	r, db := setupTest(t)
	alice := seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)

	cases := []struct {
		visibility string
		offset     time.Duration
	}{
		{domain.VisibilityToday, 24 * time.Hour},
		{domain.VisibilityThreeDays, 72 * time.Hour},
	}
	for _, tc := range cases {
		body := fmt.Sprintf(`{"user_id":%d,"title":"t","description":"d","lat":1.0,"lng":2.0,"visibility":"%s"}`, alice.ID, tc.visibility)
		before := time.Now()
		w := performRequest(r, http.MethodPost, "/markers", []byte(body), userHeader("alice"))
		require.Equal(t, http.StatusCreated, w.Code, "visibility %s", tc.visibility)

		var resp createMarkerResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		// Expiry sits at the visibility offset from creation, give or take processing time
		assert.WithinDuration(t, before.Add(tc.offset), resp.Marker.ExpiresAt, 5*time.Second)
		assert.Equal(t, domain.StatusActive, resp.Marker.Status)
	}
}

func TestCreateMarkerCoordinateAliases(t *testing.T) {
	r, db := setupTest(t)
	alice := seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)

	// latitude/longitude take precedence over lat/lng when both are present
	body := fmt.Sprintf(`{"user_id":%d,"title":"t","description":"d","lat":9.0,"lng":9.0,"latitude":1.25,"longitude":2.5,"visibility":"today"}`, alice.ID)
	w := performRequest(r, http.MethodPost, "/markers", []byte(body), userHeader("alice"))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp createMarkerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1.25, resp.Marker.Lat)
	assert.Equal(t, 2.5, resp.Marker.Lng)
}

func TestCreateMarkerValidation(t *testing.T) {
	r, db := setupTest(t)
	alice := seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)

	cases := []string{
		`{"title":"t","description":"d","lat":1.0,"lng":2.0,"visibility":"today"}`,                                                           // missing user_id
		fmt.Sprintf(`{"user_id":%d,"description":"d","lat":1.0,"lng":2.0,"visibility":"today"}`, alice.ID),                                   // missing title
		fmt.Sprintf(`{"user_id":%d,"title":" ","description":"d","lat":1.0,"lng":2.0,"visibility":"today"}`, alice.ID),                       // blank title
		fmt.Sprintf(`{"user_id":%d,"title":"t","description":"d","lng":2.0,"visibility":"today"}`, alice.ID),                                 // missing latitude
		fmt.Sprintf(`{"user_id":%d,"title":"t","description":"d","lat":1.0,"lng":2.0,"visibility":"forever"}`, alice.ID),                     // bad visibility
		fmt.Sprintf(`{"user_id":%d,"title":"t","description":"d","lat":1.0,"lng":2.0,"visibility":"today","marker_type":"alien"}`, alice.ID), // unknown marker type
	}
	for _, body := range cases {
		w := performRequest(r, http.MethodPost, "/markers", []byte(body), userHeader("alice"))
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}
	// No partial writes happened
	var count int64
	require.NoError(t, db.Model(&domain.Marker{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreateMarkerActiveLimit(t *testing.T) {
	r, db := setupTest(t)
	alice := seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)
	future := time.Now().Add(24 * time.Hour)
	for i := 0; i < 3; i++ {
		seedMarker(t, db, alice.ID, fmt.Sprintf("m%d", i), false, domain.StatusActive, future)
	}

	body := fmt.Sprintf(`{"user_id":%d,"title":"one too many","description":"d","lat":1.0,"lng":2.0,"visibility":"today"}`, alice.ID)
	w := performRequest(r, http.MethodPost, "/markers", []byte(body), userHeader("alice"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateMarkerForAnotherUserForbidden(t *testing.T) {
	r, db := setupTest(t)
	seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)
	bob := seedUser(t, db, "bob", "pw", "b@x.com", domain.RoleUser)

	// Alice authenticates but names bob's id
	body := fmt.Sprintf(`{"user_id":%d,"title":"t","description":"d","lat":1.0,"lng":2.0,"visibility":"today"}`, bob.ID)
	w := performRequest(r, http.MethodPost, "/markers", []byte(body), userHeader("alice"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPublicListingExcludesPrivateMarkers(t *testing.T) {
	r, db := setupTest(t)
	alice := seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)
	future := time.Now().Add(24 * time.Hour)
	seedMarker(t, db, alice.ID, "public one", false, domain.StatusActive, future)
	seedMarker(t, db, alice.ID, "private one", true, domain.StatusActive, future)

	w := performRequest(r, http.MethodGet, "/markers", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listing []MarkerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing, 1)
	assert.Equal(t, "public one", listing[0].Title)
	assert.Equal(t, "alice", listing[0].UserUsername)
}

func TestUserMarkersIncludePrivate(t *testing.T) {
	r, db := setupTest(t)
	alice := seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)
	future := time.Now().Add(24 * time.Hour)
	seedMarker(t, db, alice.ID, "public one", false, domain.StatusActive, future)
	seedMarker(t, db, alice.ID, "private one", true, domain.StatusInactive, future)

	w := performRequest(r, http.MethodGet, "/markers/alice", nil, userHeader("alice"))
	require.Equal(t, http.StatusOK, w.Code)

	var listing []MarkerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Len(t, listing, 2)
}

func TestUserMarkersForbiddenForOtherUsers(t *testing.T) {
	r, db := setupTest(t)
	seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)
	seedUser(t, db, "bob", "pw", "b@x.com", domain.RoleUser)

	w := performRequest(r, http.MethodGet, "/markers/alice", nil, userHeader("bob"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserMarkersNumericSegmentNotFound(t *testing.T) {
	r, db := setupTest(t)
	seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)

	// A numeric segment is an id, not a username
	w := performRequest(r, http.MethodGet, "/markers/123", nil, userHeader("alice"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateMarkerStatusRejectsUnknownValue(t *testing.T) {
	r, db := setupTest(t)
	alice := seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)
	marker := seedMarker(t, db, alice.ID, "m", false, domain.StatusActive, time.Now().Add(24*time.Hour))

	w := performRequest(r, http.MethodPut, fmt.Sprintf("/markers/%d/status", marker.ID), []byte(`{"status":"vaporized"}`), userHeader("alice"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The row must not have been mutated
	var reloaded domain.Marker
	require.NoError(t, db.First(&reloaded, marker.ID).Error)
	assert.Equal(t, domain.StatusActive, reloaded.Status)
}

func TestUpdateMarkerStatusToggle(t *testing.T) {
	r, db := setupTest(t)
	alice := seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)
	marker := seedMarker(t, db, alice.ID, "m", false, domain.StatusActive, time.Now().Add(24*time.Hour))

	w := performRequest(r, http.MethodPut, fmt.Sprintf("/markers/%d/status", marker.ID), []byte(`{"status":"inactive"}`), userHeader("alice"))
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded domain.Marker
	require.NoError(t, db.First(&reloaded, marker.ID).Error)
	assert.Equal(t, domain.StatusInactive, reloaded.Status)
}

func TestUpdateMarkerStatusUnknownID(t *testing.T) {
	r, db := setupTest(t)
	seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)

	w := performRequest(r, http.MethodPut, "/markers/9999/status", []byte(`{"status":"inactive"}`), userHeader("alice"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateMarkerOwnershipEnforced(t *testing.T) {
	r, db := setupTest(t)
	alice := seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)
	seedUser(t, db, "bob", "pw", "b@x.com", domain.RoleUser)
	marker := seedMarker(t, db, alice.ID, "m", false, domain.StatusActive, time.Now().Add(24*time.Hour))

	w := performRequest(r, http.MethodPut, fmt.Sprintf("/markers/%d", marker.ID), []byte(`{"title":"stolen"}`), userHeader("bob"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateMarkerPartialPatch(t *testing.T) {
	r, db := setupTest(t)
	alice := seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)
	marker := seedMarker(t, db, alice.ID, "before", false, domain.StatusActive, time.Now().Add(24*time.Hour))

	w := performRequest(r, http.MethodPut, fmt.Sprintf("/markers/%d", marker.ID), []byte(`{"title":"after"}`), userHeader("alice"))
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded domain.Marker
	require.NoError(t, db.First(&reloaded, marker.ID).Error)
	assert.Equal(t, "after", reloaded.Title)
	// Untouched fields survive the patch
	assert.Equal(t, "seeded marker", reloaded.Description)
}

func TestUpdateMarkerEmptyPatchRejected(t *testing.T) {
	r, db := setupTest(t)
	alice := seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)
	marker := seedMarker(t, db, alice.ID, "m", false, domain.StatusActive, time.Now().Add(24*time.Hour))

	w := performRequest(r, http.MethodPut, fmt.Sprintf("/markers/%d", marker.ID), []byte(`{}`), userHeader("alice"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteMarkerTwice(t *testing.T) {
	r, db := setupTest(t)
	alice := seedUser(t, db, "alice", "pw", "a@x.com", domain.RoleUser)
	marker := seedMarker(t, db, alice.ID, "m", false, domain.StatusActive, time.Now().Add(24*time.Hour))

	path := fmt.Sprintf("/markers/%d", marker.ID)
	w := performRequest(r, http.MethodDelete, path, nil, userHeader("alice"))
	assert.Equal(t, http.StatusOK, w.Code)

	// The second delete finds nothing
	w = performRequest(r, http.MethodDelete, path, nil, userHeader("alice"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndToEndRegisterLoginCreateList(t *testing.T) {
	r, _ := setupTest(t)

	// Register
	w := performRequest(r, http.MethodPost, "/register", []byte(`{"username":"alice","password":"pw1","email":"a@x.com"}`), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Login returns the user object without the password hash
	w = performRequest(r, http.MethodPost, "/login", []byte(`{"username":"alice","password":"pw1"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		User map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.NotContains(t, login.User, "password")
	userID := uint(login.User["id"].(float64))

	// Create a marker as alice
	body := fmt.Sprintf(`{"user_id":%d,"title":"t","description":"d","lat":1.0,"lng":2.0,"visibility":"today"}`, userID)
	w = performRequest(r, http.MethodPost, "/markers", []byte(body), userHeader("alice"))
	require.Equal(t, http.StatusCreated, w.Code)

	// The public listing carries the marker joined with its owner
	w = performRequest(r, http.MethodGet, "/markers", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing []MarkerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing, 1)
	assert.Equal(t, "t", listing[0].Title)
	assert.Equal(t, "alice", listing[0].UserUsername)
}
