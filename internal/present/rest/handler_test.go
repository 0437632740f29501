package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bloodlink/bloodlink/internal/domain"
	"github.com/bloodlink/bloodlink/internal/geo"
	"github.com/bloodlink/bloodlink/internal/present/rest/middleware"
	"github.com/bloodlink/bloodlink/internal/service"
	"github.com/bloodlink/bloodlink/internal/usecase"
)

type stubRequestRepo struct {
	store map[string]domain.BloodRequest
}

func (s *stubRequestRepo) Create(ctx context.Context, r *domain.BloodRequest) error {
	s.store[r.ID] = *r
	return nil
}

func (s *stubRequestRepo) Get(ctx context.Context, id string) (*domain.BloodRequest, error) {
	stored, ok := s.store[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "request"}
	}
	copied := stored
	return &copied, nil
}

func (s *stubRequestRepo) UpdateStatus(ctx context.Context, r *domain.BloodRequest, expect domain.Status) error {
	stored, ok := s.store[r.ID]
	if !ok {
		return domain.NotFoundError{Resource: "request"}
	}
	if stored.Status != expect {
		return domain.ConflictError{Reason: "request status changed concurrently"}
	}
	s.store[r.ID] = *r
	return nil
}

func (s *stubRequestRepo) Fulfill(ctx context.Context, r *domain.BloodRequest, d *domain.Donation) error {
	return s.UpdateStatus(ctx, r, domain.StatusAccepted)
}

func (s *stubRequestRepo) ListActive(ctx context.Context) ([]*domain.BloodRequest, error) {
	var active []*domain.BloodRequest
	for id := range s.store {
		stored := s.store[id]
		if stored.Status == domain.StatusActive {
			copied := stored
			active = append(active, &copied)
		}
	}
	return active, nil
}

func (s *stubRequestRepo) ListByRequester(ctx context.Context, requester domain.Identity) ([]*domain.BloodRequest, error) {
	return nil, nil
}

func (s *stubRequestRepo) ListByAccepter(ctx context.Context, accepter domain.Identity) ([]*domain.BloodRequest, error) {
	return nil, nil
}

type stubDonationRepo struct {
	latest   *domain.Donation
	appended []*domain.Donation
}

func (s *stubDonationRepo) Append(ctx context.Context, d *domain.Donation) error {
	s.appended = append(s.appended, d)
	return nil
}

func (s *stubDonationRepo) Latest(ctx context.Context, donor domain.Identity) (*domain.Donation, error) {
	if s.latest == nil {
		return nil, domain.NotFoundError{Resource: "donation"}
	}
	return s.latest, nil
}

func (s *stubDonationRepo) ListByDonor(ctx context.Context, donor domain.Identity) ([]*domain.Donation, error) {
	return s.appended, nil
}

type stubDirectory struct {
	donors []domain.Candidate
}

func (s *stubDirectory) VerifiedDonors(ctx context.Context, group domain.BloodGroup, exclude domain.Identity) ([]domain.Candidate, error) {
	var result []domain.Candidate
	for _, c := range s.donors {
		if c.Identity != exclude {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *stubDirectory) Organizations(ctx context.Context, kind domain.IdentityKind) ([]domain.Candidate, error) {
	return nil, nil
}

func (s *stubDirectory) Contact(ctx context.Context, id domain.Identity) (domain.Contact, error) {
	return domain.Contact{Name: id.ID}, nil
}

func (s *stubDirectory) Location(ctx context.Context, id domain.Identity) (*geo.Point, error) {
	return &geo.Point{}, nil
}

type stubNotifier struct {
	events []domain.Event
}

func (s *stubNotifier) Publish(ctx context.Context, event domain.Event) error {
	s.events = append(s.events, event)
	return nil
}

type stubClassifier struct{}

func (s *stubClassifier) Classify(ctx context.Context, ref string) (bool, error) {
	return true, nil
}

type testServer struct {
	e         *echo.Echo
	requests  *stubRequestRepo
	donations *stubDonationRepo
	directory *stubDirectory
	notifier  *stubNotifier
}

func newTestServer() *testServer {
	ts := &testServer{
		e:         echo.New(),
		requests:  &stubRequestRepo{store: make(map[string]domain.BloodRequest)},
		donations: &stubDonationRepo{},
		directory: &stubDirectory{},
		notifier:  &stubNotifier{},
	}

	eligibility := usecase.NewEligibilityUsecase(ts.donations)
	request := usecase.NewRequestUsecase(ts.requests, ts.donations, ts.directory, ts.notifier, &stubClassifier{}, eligibility)
	donation := usecase.NewDonationUsecase(ts.donations)
	handler := NewHandler(request, donation, eligibility, service.NewConnectionRegistry())

	ts.e.Use(middleware.IdentifyIdentity)
	handler.RegisterRoutes(ts.e)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string, as *domain.Identity) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if as != nil {
		req.Header.Set(domain.IdentityKindHeader, string(as.Kind))
		req.Header.Set(domain.IdentityIDHeader, as.ID)
	}

	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

var (
	requester = domain.Identity{Kind: domain.KindDonor, ID: "alice"}
	accepter  = domain.Identity{Kind: domain.KindDonor, ID: "bob"}
)

func (ts *testServer) seedActive() {
	ts.requests.store["req-1"] = domain.BloodRequest{
		ID:          "req-1",
		Requester:   requester,
		BloodGroup:  domain.ONeg,
		UnitsNeeded: 2,
		Address:     "City Hospital",
		Status:      domain.StatusActive,
		Location:    &geo.Point{Latitude: 0, Longitude: 0},
	}
}

func TestCreateRequestRequiresIdentity(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/requests", `{"bloodGroup":"O-","unitsNeeded":2,"address":"City Hospital"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateRequestReturnsAlertCount(t *testing.T) {
	ts := newTestServer()
	ts.directory.donors = []domain.Candidate{
		{Identity: accepter, Location: &geo.Point{Latitude: 0, Longitude: 0.1}},
	}

	rec := ts.do(t, http.MethodPost, "/requests",
		`{"bloodGroup":"O-","unitsNeeded":2,"address":"City Hospital","latitude":0,"longitude":0}`,
		&requester,
	)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Request struct {
			ID     string        `json:"id"`
			Status domain.Status `json:"status"`
		} `json:"request"`
		AlertsSent int `json:"alertsSent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if result.AlertsSent != 1 {
		t.Fatalf("expected 1 alert, got %d", result.AlertsSent)
	}
	if result.Request.Status != domain.StatusActive || result.Request.ID == "" {
		t.Fatalf("unexpected request payload: %+v", result.Request)
	}
}

func TestCreateRequestRejectsBadBloodGroup(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/requests",
		`{"bloodGroup":"Z+","unitsNeeded":2,"address":"City Hospital"}`,
		&requester,
	)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateRequestRejectsHalfCoordinates(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/requests",
		`{"bloodGroup":"O-","unitsNeeded":2,"address":"City Hospital","latitude":12.5}`,
		&requester,
	)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAcceptUnknownRequestIs404(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPut, "/requests/missing/accept", "", &accepter)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAcceptReturnsAcceptedRequest(t *testing.T) {
	ts := newTestServer()
	ts.seedActive()

	rec := ts.do(t, http.MethodPut, "/requests/req-1/accept", "", &accepter)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var request struct {
		Status     domain.Status    `json:"status"`
		AcceptedBy *domain.Identity `json:"acceptedBy"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &request); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if request.Status != domain.StatusAccepted {
		t.Fatalf("expected accepted, got %s", request.Status)
	}
	if request.AcceptedBy == nil || request.AcceptedBy.ID != accepter.ID {
		t.Fatalf("accepter missing from payload: %+v", request.AcceptedBy)
	}
}

func TestAcceptOwnRequestIs400(t *testing.T) {
	ts := newTestServer()
	ts.seedActive()

	rec := ts.do(t, http.MethodPut, "/requests/req-1/accept", "", &requester)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAcceptDuringCooldownSurfacesWaitDays(t *testing.T) {
	ts := newTestServer()
	ts.seedActive()
	ts.donations.latest = &domain.Donation{DonatedAt: time.Now().AddDate(0, 0, -45)}

	rec := ts.do(t, http.MethodPut, "/requests/req-1/accept", "", &accepter)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Error    string `json:"error"`
		WaitDays int    `json:"waitDays"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if body.WaitDays != 45 {
		t.Fatalf("expected waitDays 45, got %+v", body)
	}
}

func TestEligibilityEndpoint(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/eligibility", "", &accepter)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var eligibility domain.Eligibility
	if err := json.Unmarshal(rec.Body.Bytes(), &eligibility); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !eligibility.Eligible || eligibility.WaitDays != 0 {
		t.Fatalf("expected eligible with 0 wait days, got %+v", eligibility)
	}
}

func TestLogDonationRejectsFutureDate(t *testing.T) {
	ts := newTestServer()

	future := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	rec := ts.do(t, http.MethodPost, "/donations",
		`{"bloodGroup":"O-","units":1,"donatedAt":"`+future+`"}`,
		&accepter,
	)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLogDonationCreates(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/donations", `{"bloodGroup":"O-","units":1}`, &accepter)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(ts.donations.appended) != 1 {
		t.Fatalf("expected 1 stored donation, got %d", len(ts.donations.appended))
	}
	if ts.donations.appended[0].Source != domain.SourceSelfReported {
		t.Fatalf("expected self-reported source, got %s", ts.donations.appended[0].Source)
	}
}

func TestAlertsEndpointFiltersOwnRequests(t *testing.T) {
	ts := newTestServer()
	ts.seedActive()

	rec := ts.do(t, http.MethodGet, "/requests/alerts", "", &requester)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var views []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("own request must not appear in alerts, got %d entries", len(views))
	}

	rec = ts.do(t, http.MethodGet, "/requests/alerts", "", &accepter)
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("nearby foreign request should appear, got %d entries", len(views))
	}
}
