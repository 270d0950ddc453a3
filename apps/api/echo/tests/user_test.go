package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/kymanzi/darasa/core/user"
	testutil "github.com/kymanzi/darasa/tests"
)

func Test_userApi_register(t *testing.T) {
	body := func(name, email, pwd string, roles ...string) []byte {
		data, _ := json.Marshal(map[string]interface{}{
			"name":             name,
			"email":            email,
			"password":         pwd,
			"password_confirm": pwd,
			"roles":            roles,
		})
		return data
	}

	tests := []httpTest{
		{
			name: "register learner", method: http.MethodPost, path: "/v1/users/register",
			body: body("Asha", "asha.reg@test.cd", "G0od!pass"), wantCode: http.StatusCreated,
		},
		{
			name: "register instructor", method: http.MethodPost, path: "/v1/users/register",
			body:     body("Biko", "biko.reg@test.cd", "G0od!pass", user.RoleInstructor),
			wantCode: http.StatusCreated,
		},
		{
			name: "operator role rejected", method: http.MethodPost, path: "/v1/users/register",
			body:     body("Sly", "sly.reg@test.cd", "G0od!pass", user.RoleOperator),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "duplicate email", method: http.MethodPost, path: "/v1/users/register",
			body: body("Asha Again", "asha.reg@test.cd", "G0od!pass"), wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("default role is learner", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/register", body("Tati", "tati.reg@test.cd", "G0od!pass"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("register failed: %v %s", rec.Code, rec.Body.String())
		}
		var usr user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(usr.Roles) != 1 || usr.Roles[0] != user.RoleLearner {
			t.Errorf("roles = %v; want [%s]", usr.Roles, user.RoleLearner)
		}
	})
}

func Test_userApi_login(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Login User", "login@test.cd", "s3cr3t!pwd", []string{user.RoleLearner}, true)
	testutil.CreateUser(t, usrRepo, "Ghost", "ghost@test.cd", "s3cr3t!pwd", []string{user.RoleLearner}, false)

	body := func(email, pwd string) []byte {
		data, _ := json.Marshal(map[string]string{"email": email, "password": pwd})
		return data
	}

	tests := []httpTest{
		{name: "ok", method: http.MethodPost, path: "/v1/users/login", body: body(usr.Email, "s3cr3t!pwd")},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/users/login",
			body: body("nobody@test.cd", "s3cr3t!pwd"), wantCode: http.StatusBadRequest,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body: body(usr.Email, "nope"), wantCode: http.StatusBadRequest,
		},
		{
			name: "deactivated account", method: http.MethodPost, path: "/v1/users/login",
			body: body("ghost@test.cd", "s3cr3t!pwd"), wantCode: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
			if tt.name == "ok" {
				var res struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || res.Token == "" {
					t.Errorf("expected a token; body = %s", rec.Body.String())
				}
			}
		})
	}
}

func Test_userApi_retrieveSelf(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Self User", "self@test.cd", "s3cr3t!pwd", []string{user.RoleLearner}, true)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/users/me",
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
		},
		{name: "me", method: http.MethodGet, path: "/v1/users/me", token: getToken(t, usr), wantData: marshallObj(t, usr)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_queryRoles(t *testing.T) {
	learner := testutil.CreateUser(t, usrRepo, "Roles Learner", "roles.learner@test.cd", "s3cr3t!pwd", []string{user.RoleLearner}, true)
	operator := testutil.CreateUser(t, usrRepo, "Roles Op", "roles.op@test.cd", "s3cr3t!pwd", user.AllRoles, true)

	tests := []httpTest{
		{
			name: "operator required", method: http.MethodGet, path: "/v1/users/roles", token: getToken(t, learner),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "roles", method: http.MethodGet, path: "/v1/users/roles", token: getToken(t, operator),
			wantData: marshallObj(t, user.Roles),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
