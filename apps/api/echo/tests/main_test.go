package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	. "github.com/kymanzi/darasa/apps/api/echo"
	"github.com/kymanzi/darasa/core"
	"github.com/kymanzi/darasa/core/access"
	"github.com/kymanzi/darasa/core/assignment"
	"github.com/kymanzi/darasa/core/grades"
	"github.com/kymanzi/darasa/core/submission"
	"github.com/kymanzi/darasa/core/user"
	inmemdb "github.com/kymanzi/darasa/storage/database/inmem"
	testutil "github.com/kymanzi/darasa/tests"
)

var (
	app Server

	usrRepo    user.Repository
	courseRepo testutil.CourseSeeder
	assignRepo assignment.Repository

	assignSvc *assignment.Service
	subSvc    *submission.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	core.Conf.Debug = false
	core.Conf.TestMode = true

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		log.Fatalf("inmemdb.Open(): %v", err)
	}
	ur := inmemdb.NewUserRepository(db)
	cr := inmemdb.NewCourseRepository(db)
	ar := inmemdb.NewAssignmentRepository(db)
	sr := inmemdb.NewSubmissionRepository(db)
	usrRepo, courseRepo, assignRepo = ur, cr, ar

	// set up services
	clock := core.NewClock()
	mailSvc := &testutil.EmailServiceMock{}
	guard := access.NewGuard(cr)
	usrSvc := user.NewService(ur, mailSvc, clock)
	assignSvc = assignment.NewService(nil, ar, cr, clock)
	subSvc = submission.NewService(nil, sr, ar, assignSvc, ur, mailSvc, clock)
	gradesSvc := grades.NewService(cr, assignSvc, subSvc)

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	// set up server
	app = NewServer(ServerDeps{
		DisableReqLogs: true,
		Logger:         core.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags)),
		Clock:          clock,
		Validate:       validate,
		Translator:     translator,
		Guard:          guard,
		UserSvc:        usrSvc,
		AssignmentSvc:  assignSvc,
		SubmissionSvc:  subSvc,
		GradesSvc:      gradesSvc,
	})

	os.Exit(m.Run())
}

type httpErr struct {
	Error string `json:"error"`
}

type appErr struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()

	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if tt.wantCode == 0 {
		tt.wantCode = http.StatusOK
	}
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
