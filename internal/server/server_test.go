package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"greentrack/internal/scan"
	"greentrack/pkg/types"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validToken = "good-token"

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token string) (*Claims, error) {
	if token != validToken {
		return nil, errors.New("bad token")
	}
	return &Claims{UserID: "user-1", Email: "ada@example.com"}, nil
}

type fakeScans struct {
	mu         sync.Mutex
	submission *scan.Submission
	filter     types.ScanFilter
	timeframe  string
	err        error
}

func (f *fakeScans) Submit(_ context.Context, sub *scan.Submission) (*types.ScanOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submission = sub
	if f.err != nil {
		return nil, f.err
	}
	return &types.ScanOutcome{
		Scan:         &types.Scan{ID: "scan-1", UserID: sub.UserID, PrimaryWasteType: types.WastePlastic},
		PointsEarned: 29,
		TotalPoints:  509,
		LevelUp:      true,
		NewLevel:     2,
	}, nil
}

func (f *fakeScans) Get(_ context.Context, userID, scanID string) (*types.Scan, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.Scan{ID: scanID, UserID: userID}, nil
}

func (f *fakeScans) List(_ context.Context, filter types.ScanFilter) ([]*types.Scan, types.Pagination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	return []*types.Scan{{ID: "scan-1"}}, types.NewPagination(1, 20, 1), nil
}

func (f *fakeScans) Statistics(_ context.Context, _ string, timeframe string) (*types.ScanStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeframe = timeframe
	return &types.ScanStatistics{TotalScans: 3, TotalPoints: 60}, nil
}

func (f *fakeScans) Leaderboard(_ context.Context, timeframe string, _ uint64) ([]*types.LeaderboardUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeframe = timeframe
	return nil, nil
}

func (f *fakeScans) Report(_ context.Context, _, scanID, _ string) (*types.Scan, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.Scan{ID: scanID}, nil
}

func (f *fakeScans) Delete(context.Context, string, string) error {
	return f.err
}

type fakeChallenges struct {
	err        error
	activeRole types.UserRole
	activeNear *types.GeoPoint
}

func (f *fakeChallenges) Active(_ context.Context, role types.UserRole, near *types.GeoPoint) ([]*types.ChallengeView, error) {
	f.activeRole = role
	f.activeNear = near
	return []*types.ChallengeView{{Challenge: &types.Challenge{ID: "ch-1"}}}, nil
}

func (f *fakeChallenges) ByUser(context.Context, string) ([]*types.ChallengeView, error) {
	return nil, nil
}

func (f *fakeChallenges) Get(_ context.Context, id string) (*types.ChallengeView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.ChallengeView{Challenge: &types.Challenge{ID: id}}, nil
}

type fakeTraining struct {
	err     error
	role    types.UserRole
	attempt types.TrainingAttempt
	rating  int
}

func (f *fakeTraining) ByRole(_ context.Context, role types.UserRole) ([]*types.TrainingModuleView, error) {
	f.role = role
	return []*types.TrainingModuleView{{TrainingModule: &types.TrainingModule{ID: "tm-1"}}}, nil
}

func (f *fakeTraining) Recommended(_ context.Context, _ string, role types.UserRole) ([]*types.TrainingModuleView, error) {
	f.role = role
	return []*types.TrainingModuleView{}, nil
}

func (f *fakeTraining) Get(_ context.Context, id string) (*types.TrainingModuleView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.TrainingModuleView{TrainingModule: &types.TrainingModule{ID: id}}, nil
}

func (f *fakeTraining) ProgressByUser(context.Context, string) ([]*types.TrainingProgress, error) {
	return []*types.TrainingProgress{}, nil
}

func (f *fakeTraining) Enroll(_ context.Context, id, userID string) (*types.TrainingProgress, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.TrainingProgress{UserID: userID, ModuleID: id, Status: types.TrainingStatusEnrolled}, nil
}

func (f *fakeTraining) Complete(_ context.Context, id, userID string, attempt types.TrainingAttempt) (*types.TrainingOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.attempt = attempt
	return &types.TrainingOutcome{
		Passed:   len(attempt.Answers) > 0,
		Score:    100,
		Progress: &types.TrainingProgress{UserID: userID, ModuleID: id},
	}, nil
}

func (f *fakeTraining) Rate(_ context.Context, id, _ string, rating int) (*types.TrainingModuleView, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.rating = rating
	return &types.TrainingModuleView{TrainingModule: &types.TrainingModule{ID: id}}, nil
}

func (f *fakeChallenges) Join(_ context.Context, id, _ string) (*types.ChallengeView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.ChallengeView{Challenge: &types.Challenge{ID: id}}, nil
}

type fakeUsers struct {
	mu       sync.Mutex
	users    map[string]*types.User
	upserted []string
}

func (f *fakeUsers) User(_ context.Context, userID string) (*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpsertIdentity(_ context.Context, userID, email, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, userID)
	f.users[userID] = &types.User{ID: userID, Email: &email, Level: 1}
	return nil
}

type fakeCognito struct {
	signUpErr error
}

func (f *fakeCognito) InitiateAuth(_ context.Context, in *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	if in.AuthParameters["PASSWORD"] != "Correct-Horse-1" {
		return nil, &ctypes.NotAuthorizedException{Message: aws.String("bad credentials")}
	}
	return &cognitoidentityprovider.InitiateAuthOutput{
		AuthenticationResult: &ctypes.AuthenticationResultType{
			AccessToken: aws.String(validToken),
			ExpiresIn:   3600,
		},
	}, nil
}

func (f *fakeCognito) SignUp(context.Context, *cognitoidentityprovider.SignUpInput, ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &cognitoidentityprovider.SignUpOutput{UserSub: aws.String("new-user"), UserConfirmed: false}, nil
}

type harness struct {
	handler    http.Handler
	scans      *fakeScans
	challenges *fakeChallenges
	training   *fakeTraining
	users      *fakeUsers
	cognito    *fakeCognito
}

func testConfig() *types.Config {
	return &types.Config{
		ServerPort:         8080,
		CookieName:         "session_id",
		SessionMaxAgeSec:   604800,
		CookieHashKey:      base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("h"), 32)),
		CookieBlockKey:     base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("b"), 32)),
		MaxUploadBytes:     1 << 20,
		RateLimitPerMinute: 1000,
	}
}

func newHarness(t *testing.T, config *types.Config) *harness {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := &harness{
		scans:      &fakeScans{},
		challenges: &fakeChallenges{},
		training:   &fakeTraining{},
		users:      &fakeUsers{users: map[string]*types.User{}},
		cognito:    &fakeCognito{},
	}

	svc, err := New(config, logger, h.cognito, h.scans, h.challenges, h.training, h.users, fakeVerifier{})
	require.NoError(t, err)
	h.handler = svc.Handler()

	return h
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+validToken)
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func multipartScan(t *testing.T, img []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if img != nil {
		part, err := mw.CreateFormFile("image", "bottle.png")
		require.NoError(t, err)
		_, err = part.Write(img)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/scans", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return authed(req)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeEnvelope(t, rec)["success"])
}

func TestNewRejectsBadCookieKey(t *testing.T) {
	config := testConfig()
	config.CookieHashKey = "not base64!"

	_, err := New(config, logrus.New(), &fakeCognito{}, &fakeScans{}, &fakeChallenges{}, &fakeTraining{}, &fakeUsers{}, fakeVerifier{})
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestRequireAuth(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = h.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetMeCreatesMissingUser(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(authed(httptest.NewRequest(http.MethodGet, "/api/users/me", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"user-1"}, h.users.upserted)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	user := data["user"].(map[string]any)
	assert.Equal(t, "user-1", user["id"])
	assert.Equal(t, "ada@example.com", user["email"])

	// second call finds the row
	rec = h.do(authed(httptest.NewRequest(http.MethodGet, "/api/users/me", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, h.users.upserted, 1)
}

func TestLoginCookieAuthenticates(t *testing.T) {
	h := newHarness(t, testConfig())

	login := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"Correct-Horse-1"}`))
	rec := h.do(login)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_id", cookies[0].Name)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.NotEqual(t, validToken, cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.AddCookie(cookies[0])
	rec = h.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"wrong"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRegister(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(
		`{"givenName":"Ada","familyName":"Lovelace","email":"ada@example.com","password":"Correct-Horse-1","confirmPassword":"Correct-Horse-1"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"new-user"}, h.users.upserted)
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(
		`{"givenName":"","familyName":"Lovelace","email":"nope","password":"short","confirmPassword":"other"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	errs := decodeEnvelope(t, rec)["errors"].(map[string]any)
	assert.Contains(t, errs, "givenName")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
	assert.Contains(t, errs, "confirmPassword")
	assert.Empty(t, h.users.upserted)
}

func TestRegisterExistingAccount(t *testing.T) {
	h := newHarness(t, testConfig())
	h.cognito.signUpErr = &ctypes.UsernameExistsException{Message: aws.String("exists")}

	rec := h.do(httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(
		`{"givenName":"Ada","familyName":"Lovelace","email":"ada@example.com","password":"Correct-Horse-1","confirmPassword":"Correct-Horse-1"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPostScan(t *testing.T) {
	h := newHarness(t, testConfig())
	img := pngBytes(t)

	rec := h.do(multipartScan(t, img, map[string]string{
		"latitude":    "40.7128",
		"longitude":   "-74.006",
		"city":        "New York",
		"device_info": "pixel",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	sub := h.scans.submission
	require.NotNil(t, sub)
	assert.Equal(t, "user-1", sub.UserID)
	assert.Equal(t, img, sub.Image)
	assert.Equal(t, "bottle.png", sub.Filename)
	assert.Equal(t, "image/png", sub.ContentType)
	require.True(t, sub.Location.HasCoordinates())
	assert.InDelta(t, 40.7128, *sub.Location.Latitude, 1e-9)
	assert.Equal(t, "New York", *sub.Location.City)
	assert.Equal(t, "pixel", sub.Metadata.DeviceInfo)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.EqualValues(t, 29, data["pointsEarned"])
	assert.Equal(t, true, data["levelUp"])
}

func TestPostScanRejections(t *testing.T) {
	tests := []struct {
		name   string
		image  []byte
		fields map[string]string
		status int
	}{
		{name: "missing image", image: nil, status: http.StatusBadRequest},
		{name: "not an image", image: []byte("hello world, definitely text"), status: http.StatusBadRequest},
		{name: "latitude out of range", image: nil, fields: map[string]string{"latitude": "91", "longitude": "0"}, status: http.StatusBadRequest},
		{name: "lonely longitude", image: nil, fields: map[string]string{"longitude": "10"}, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, testConfig())
			img := tt.image
			if img == nil && tt.fields != nil {
				img = pngBytes(t)
			}

			rec := h.do(multipartScan(t, img, tt.fields))
			assert.Equal(t, tt.status, rec.Code)
			assert.Nil(t, h.scans.submission)
		})
	}
}

func TestPostScanTooLarge(t *testing.T) {
	config := testConfig()
	config.MaxUploadBytes = 64
	h := newHarness(t, config)

	big := append(pngBytes(t), bytes.Repeat([]byte{0}, 4096)...)
	rec := h.do(multipartScan(t, big, nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Nil(t, h.scans.submission)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: empty image", types.ErrInvalidInput), http.StatusBadRequest},
		{types.ErrScanVerified, http.StatusBadRequest},
		{types.ErrNotEligible, http.StatusForbidden},
		{types.ErrScanNotFound, http.StatusNotFound},
		{types.ErrChallengeNotFound, http.StatusNotFound},
		{types.ErrAlreadyParticipating, http.StatusConflict},
		{types.ErrNotParticipating, http.StatusConflict},
		{types.ErrChallengeClosed, http.StatusConflict},
		{types.ErrTrainingNotFound, http.StatusNotFound},
		{types.ErrPrerequisitesMissing, http.StatusForbidden},
		{types.ErrNotEnrolled, http.StatusConflict},
		{types.ErrTrainingCompleted, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := newHarness(t, testConfig())
			h.challenges.err = tt.err

			rec := h.do(authed(httptest.NewRequest(http.MethodPost, "/api/challenges/ch-1/join", nil)))
			assert.Equal(t, tt.status, rec.Code)
			body := decodeEnvelope(t, rec)
			assert.Equal(t, false, body["success"])
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", body["message"])
			}
		})
	}
}

func TestGetScansDecodesQuery(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(authed(httptest.NewRequest(http.MethodGet, "/api/scans?page=2&limit=5&wasteType=glass&verified=true", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	f := h.scans.filter
	assert.Equal(t, "user-1", f.UserID)
	assert.EqualValues(t, 2, f.Page)
	assert.EqualValues(t, 5, f.Limit)
	require.NotNil(t, f.WasteType)
	assert.Equal(t, types.WasteGlass, *f.WasteType)
	require.NotNil(t, f.Verified)
	assert.True(t, *f.Verified)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Contains(t, data, "pagination")
}

func TestStatisticsDefaultTimeframe(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(authed(httptest.NewRequest(http.MethodGet, "/api/scans/statistics", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, scan.DefaultTimeframe, h.scans.timeframe)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/leaderboard?timeframe=7d", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7d", h.scans.timeframe)
}

func TestScanRoutes(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(authed(httptest.NewRequest(http.MethodGet, "/api/scans/scan-9", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	scanBody := decodeEnvelope(t, rec)["data"].(map[string]any)["scan"].(map[string]any)
	assert.Equal(t, "scan-9", scanBody["id"])

	rec = h.do(authed(httptest.NewRequest(http.MethodPut, "/api/scans/scan-9/report",
		strings.NewReader(`{"reason":"this is not glass at all"}`))))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(authed(httptest.NewRequest(http.MethodDelete, "/api/scans/scan-9", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)

	h.scans.err = types.ErrScanVerified
	rec = h.do(authed(httptest.NewRequest(http.MethodDelete, "/api/scans/scan-9", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChallengeRoutes(t *testing.T) {
	h := newHarness(t, testConfig())

	h.users.users["user-1"] = &types.User{ID: "user-1", Role: types.UserRoleWasteWorker, Level: 1}

	rec := h.do(authed(httptest.NewRequest(http.MethodGet, "/api/challenges", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.UserRoleWasteWorker, h.challenges.activeRole)
	assert.Nil(t, h.challenges.activeNear)

	rec = h.do(authed(httptest.NewRequest(http.MethodGet, "/api/challenges?lat=28.6&lng=77.2", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, &types.GeoPoint{Lat: 28.6, Lng: 77.2}, h.challenges.activeNear)

	rec = h.do(authed(httptest.NewRequest(http.MethodGet, "/api/challenges?lat=28.6", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(authed(httptest.NewRequest(http.MethodGet, "/api/challenges?lat=91&lng=0", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(authed(httptest.NewRequest(http.MethodGet, "/api/challenges/mine", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(authed(httptest.NewRequest(http.MethodGet, "/api/challenges/ch-7", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	challenge := decodeEnvelope(t, rec)["data"].(map[string]any)["challenge"].(map[string]any)
	assert.Equal(t, "ch-7", challenge["id"])

	rec = h.do(authed(httptest.NewRequest(http.MethodPost, "/api/challenges/ch-7/join", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.users.upserted)
}

func TestTrainingRoutes(t *testing.T) {
	h := newHarness(t, testConfig())
	h.users.users["user-1"] = &types.User{ID: "user-1", Role: types.UserRoleGreenChampion, Level: 1}

	rec := h.do(authed(httptest.NewRequest(http.MethodGet, "/api/training", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.UserRoleGreenChampion, h.training.role)
	modules := decodeEnvelope(t, rec)["data"].(map[string]any)["modules"].([]any)
	require.Len(t, modules, 1)

	h.training.role = ""
	rec = h.do(authed(httptest.NewRequest(http.MethodGet, "/api/training/recommended", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.UserRoleGreenChampion, h.training.role)

	rec = h.do(authed(httptest.NewRequest(http.MethodGet, "/api/training/progress", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(authed(httptest.NewRequest(http.MethodGet, "/api/training/tm-4", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	module := decodeEnvelope(t, rec)["data"].(map[string]any)["module"].(map[string]any)
	assert.Equal(t, "tm-4", module["id"])

	rec = h.do(authed(httptest.NewRequest(http.MethodPost, "/api/training/tm-4/enroll", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(authed(httptest.NewRequest(http.MethodPost, "/api/training/tm-4/complete", strings.NewReader(`{"answers":[1,0,2]}`))))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{1, 0, 2}, h.training.attempt.Answers)
	assert.Equal(t, "training module completed", decodeEnvelope(t, rec)["message"])

	rec = h.do(authed(httptest.NewRequest(http.MethodPost, "/api/training/tm-4/complete", strings.NewReader(`{}`))))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completion criteria not met", decodeEnvelope(t, rec)["message"])

	rec = h.do(authed(httptest.NewRequest(http.MethodPost, "/api/training/tm-4/rate", strings.NewReader(`{"rating":4}`))))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, h.training.rating)

	rec = h.do(authed(httptest.NewRequest(http.MethodPost, "/api/training/tm-4/rate", strings.NewReader(`not json`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.training.err = types.ErrNotEnrolled
	rec = h.do(authed(httptest.NewRequest(http.MethodPost, "/api/training/tm-4/complete", strings.NewReader(`{}`))))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTrainingRequiresAuth(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/training", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit(t *testing.T) {
	config := testConfig()
	config.RateLimitPerMinute = 2
	h := newHarness(t, config)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// health checks are never limited
	rec = h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStripTrailingSlash(t *testing.T) {
	h := newHarness(t, testConfig())

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/challenges/?x=1", nil))
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "/api/challenges?x=1", rec.Header().Get("Location"))
}
