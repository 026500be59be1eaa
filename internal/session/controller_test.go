package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"testing"

	"dashboard/internal/api"
	"dashboard/internal/models"
	"dashboard/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// fakeAuth is a test-only Authenticator with injectable results.
type fakeAuth struct {
	resp     *api.AuthResponse
	err      error
	calls    int
	observed []bool // loading flag seen while the call runs
	ctl      *Controller
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*api.AuthResponse, error) {
	return f.answer()
}

func (f *fakeAuth) Register(ctx context.Context, username, email, password string) (*api.AuthResponse, error) {
	return f.answer()
}

func (f *fakeAuth) answer() (*api.AuthResponse, error) {
	f.calls++
	if f.ctl != nil {
		f.observed = append(f.observed, f.ctl.Loading())
	}
	return f.resp, f.err
}

// ControllerTestSuite exercises the session controller over a real sqlite store
type ControllerTestSuite struct {
	suite.Suite
	db     *storage.DB
	store  *Store
	auth   *fakeAuth
	ctl    *Controller
	logBuf *bytes.Buffer
}

func (suite *ControllerTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db

	suite.logBuf = new(bytes.Buffer)
	logger := log.New(suite.logBuf, "", 0)
	suite.store = NewStore(db, logger)
	suite.auth = &fakeAuth{}
	suite.ctl = NewController(suite.store, suite.auth, logger)
	suite.auth.ctl = suite.ctl
}

func (suite *ControllerTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *ControllerTestSuite) keys() []string {
	keys, err := suite.db.Keys()
	require.NoError(suite.T(), err)
	return keys
}

func (suite *ControllerTestSuite) TestStartsLoading() {
	assert.True(suite.T(), suite.ctl.Loading())
	assert.Nil(suite.T(), suite.ctl.User())
}

func (suite *ControllerTestSuite) TestInitializeRestoresValidRecord() {
	require.NoError(suite.T(), suite.db.Put(map[string]string{
		KeyUser:  `{"username":"ann","email":"ann@example.com"}`,
		KeyToken: "tok",
	}))

	suite.ctl.Initialize()

	st := suite.ctl.State()
	assert.False(suite.T(), st.Loading)
	require.NotNil(suite.T(), st.User)
	assert.Equal(suite.T(), "ann", st.User.Username)
	assert.Equal(suite.T(), "ann@example.com", st.User.Email)
	assert.Equal(suite.T(), []string{KeyToken, KeyUser}, suite.keys())
}

func (suite *ControllerTestSuite) TestInitializePurgesMalformedRecords() {
	malformed := []struct {
		name string
		user string
	}{
		{"empty string", ""},
		{"non-JSON text", "not json"},
		{"literal undefined", "undefined"},
		{"JSON null", "null"},
		{"JSON number", "42"},
		{"object without identity", `{"foo":"bar"}`},
		{"truncated object", `{"username":"ann"`},
	}

	for _, tc := range malformed {
		suite.Run(tc.name, func() {
			require.NoError(suite.T(), suite.db.Put(map[string]string{KeyUser: tc.user, KeyToken: "tok"}))
			ctl := NewController(suite.store, suite.auth, log.New(new(bytes.Buffer), "", 0))

			ctl.Initialize()

			assert.Nil(suite.T(), ctl.User())
			assert.False(suite.T(), ctl.Loading())
			assert.Empty(suite.T(), suite.keys(), "both keys must be purged")
		})
	}
}

func (suite *ControllerTestSuite) TestInitializeMissingIdentityPurgesDanglingToken() {
	require.NoError(suite.T(), suite.db.Put(map[string]string{KeyToken: "tok"}))

	suite.ctl.Initialize()

	assert.Nil(suite.T(), suite.ctl.User())
	assert.Empty(suite.T(), suite.keys())
}

func (suite *ControllerTestSuite) TestInitializeIdentityWithoutTokenIsPurged() {
	require.NoError(suite.T(), suite.db.Put(map[string]string{KeyUser: `{"username":"ann","email":"a@b.c"}`}))

	suite.ctl.Initialize()

	assert.Nil(suite.T(), suite.ctl.User())
	assert.Empty(suite.T(), suite.keys())
}

func (suite *ControllerTestSuite) TestInitializeEmptyStore() {
	suite.ctl.Initialize()

	assert.Nil(suite.T(), suite.ctl.User())
	assert.False(suite.T(), suite.ctl.Loading())
}

func (suite *ControllerTestSuite) TestLoginSuccessPersistsRecord() {
	suite.ctl.Initialize()
	suite.auth.resp = &api.AuthResponse{Username: "ann", Email: "ann@example.com", Token: "jwt-1"}

	suite.ctl.Login(context.Background(), "ann@example.com", "pw")

	st := suite.ctl.State()
	assert.False(suite.T(), st.Loading)
	require.NotNil(suite.T(), st.User)
	assert.Equal(suite.T(), "ann", st.User.Username)
	assert.Equal(suite.T(), "ann@example.com", st.User.Email)
	assert.Equal(suite.T(), []bool{true}, suite.auth.observed, "loading is set during the call")

	raw, ok, err := suite.db.Get(KeyUser)
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)
	var stored models.Identity
	require.NoError(suite.T(), json.Unmarshal([]byte(raw), &stored))
	assert.Equal(suite.T(), *st.User, stored)

	token, ok := suite.store.Token()
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "jwt-1", token)
}

func (suite *ControllerTestSuite) TestLoginFailureLeavesStateUnchanged() {
	suite.ctl.Initialize()
	suite.auth.err = &api.RequestError{Status: 401, Message: "invalid email or password"}

	suite.ctl.Login(context.Background(), "ann@example.com", "wrong")

	assert.Nil(suite.T(), suite.ctl.User())
	assert.False(suite.T(), suite.ctl.Loading())
	assert.Empty(suite.T(), suite.keys())
	assert.Contains(suite.T(), suite.logBuf.String(), "login failed")
	assert.Equal(suite.T(), []bool{true}, suite.auth.observed, "loading is set during the call")
}

func (suite *ControllerTestSuite) TestLoginFailureKeepsExistingSession() {
	suite.ctl.Initialize()
	suite.auth.resp = &api.AuthResponse{Username: "ann", Email: "ann@example.com", Token: "jwt-1"}
	suite.ctl.Login(context.Background(), "ann@example.com", "pw")

	suite.auth.resp, suite.auth.err = nil, errors.New("network down")
	suite.ctl.Login(context.Background(), "bob@example.com", "pw")

	u := suite.ctl.User()
	require.NotNil(suite.T(), u)
	assert.Equal(suite.T(), "ann", u.Username)
	token, _ := suite.store.Token()
	assert.Equal(suite.T(), "jwt-1", token)
	assert.False(suite.T(), suite.ctl.Loading())
}

func (suite *ControllerTestSuite) TestLoginWithoutTokenIsAFailure() {
	suite.ctl.Initialize()
	suite.auth.resp = &api.AuthResponse{Username: "ann", Email: "ann@example.com"}

	suite.ctl.Login(context.Background(), "ann@example.com", "pw")

	assert.Nil(suite.T(), suite.ctl.User())
	assert.Empty(suite.T(), suite.keys())
}

func (suite *ControllerTestSuite) TestRegisterPropagatesFailure() {
	suite.ctl.Initialize()
	suite.auth.err = &api.RequestError{Status: 409, Message: "email already in use"}

	err := suite.ctl.Register(context.Background(), "ann", "ann@example.com", "pw")

	require.Error(suite.T(), err)
	var re *api.RequestError
	assert.True(suite.T(), errors.As(err, &re))
	assert.Equal(suite.T(), 409, re.Status)
	assert.Nil(suite.T(), suite.ctl.User())
	assert.False(suite.T(), suite.ctl.Loading())
	assert.Equal(suite.T(), []bool{true}, suite.auth.observed, "loading is set during the call")
}

func (suite *ControllerTestSuite) TestRegisterSuccess() {
	suite.ctl.Initialize()
	suite.auth.resp = &api.AuthResponse{Username: "ann", Email: "ann@example.com", Role: models.RoleAdmin, Token: "jwt-2"}

	err := suite.ctl.Register(context.Background(), "ann", "ann@example.com", "pw")

	require.NoError(suite.T(), err)
	u := suite.ctl.User()
	require.NotNil(suite.T(), u)
	assert.True(suite.T(), u.IsAdmin())
	assert.False(suite.T(), suite.ctl.Loading())
	assert.Equal(suite.T(), []bool{true}, suite.auth.observed, "loading is set during the call")
}

func (suite *ControllerTestSuite) TestLoadingBracketsAuthCalls() {
	type step struct {
		loading  bool
		loggedIn bool
	}
	calls := []struct {
		name string
		resp *api.AuthResponse
		err  error
		call func(ctl *Controller)
		want []step
	}{
		{
			name: "login success",
			resp: &api.AuthResponse{Username: "ann", Email: "ann@example.com", Token: "jwt-1"},
			call: func(ctl *Controller) { ctl.Login(context.Background(), "ann@example.com", "pw") },
			want: []step{{true, false}, {true, true}, {false, true}},
		},
		{
			name: "login failure",
			err:  &api.RequestError{Status: 401, Message: "invalid email or password"},
			call: func(ctl *Controller) { ctl.Login(context.Background(), "ann@example.com", "wrong") },
			want: []step{{true, false}, {false, false}},
		},
		{
			name: "register success",
			resp: &api.AuthResponse{Username: "ann", Email: "ann@example.com", Token: "jwt-2"},
			call: func(ctl *Controller) { _ = ctl.Register(context.Background(), "ann", "ann@example.com", "pw") },
			want: []step{{true, false}, {true, true}, {false, true}},
		},
		{
			name: "register failure",
			err:  &api.RequestError{Status: 409, Message: "email already in use"},
			call: func(ctl *Controller) { _ = ctl.Register(context.Background(), "ann", "ann@example.com", "pw") },
			want: []step{{true, false}, {false, false}},
		},
	}

	for _, tc := range calls {
		suite.Run(tc.name, func() {
			require.NoError(suite.T(), suite.store.Purge())
			auth := &fakeAuth{resp: tc.resp, err: tc.err}
			ctl := NewController(suite.store, auth, log.New(new(bytes.Buffer), "", 0))
			auth.ctl = ctl
			ctl.Initialize()
			var got []step
			ctl.Subscribe(func(st State) { got = append(got, step{st.Loading, st.LoggedIn()}) })

			tc.call(ctl)

			assert.Equal(suite.T(), tc.want, got)
			assert.Equal(suite.T(), []bool{true}, auth.observed)
			assert.False(suite.T(), ctl.Loading())
		})
	}
}

func (suite *ControllerTestSuite) TestLogoutIsIdempotent() {
	suite.ctl.Initialize()
	suite.auth.resp = &api.AuthResponse{Username: "ann", Email: "ann@example.com", Token: "jwt-1"}
	suite.ctl.Login(context.Background(), "ann@example.com", "pw")
	require.NotNil(suite.T(), suite.ctl.User())

	suite.ctl.Logout()
	first := suite.ctl.State()
	firstKeys := suite.keys()

	suite.ctl.Logout()

	assert.Equal(suite.T(), first, suite.ctl.State())
	assert.Equal(suite.T(), firstKeys, suite.keys())
	assert.Nil(suite.T(), suite.ctl.User())
	assert.Empty(suite.T(), suite.keys())
}

func (suite *ControllerTestSuite) TestSubscribeSeesChanges() {
	var seen []State
	cancel := suite.ctl.Subscribe(func(st State) { seen = append(seen, st) })

	suite.ctl.Initialize()
	suite.auth.resp = &api.AuthResponse{Username: "ann", Email: "ann@example.com", Token: "jwt-1"}
	suite.ctl.Login(context.Background(), "ann@example.com", "pw")

	require.NotEmpty(suite.T(), seen)
	last := seen[len(seen)-1]
	assert.True(suite.T(), last.LoggedIn())
	assert.False(suite.T(), last.Loading)

	cancel()
	n := len(seen)
	suite.ctl.Logout()
	assert.Len(suite.T(), seen, n, "no notifications after cancel")
}

func (suite *ControllerTestSuite) TestUserReturnsCopy() {
	suite.ctl.Initialize()
	suite.auth.resp = &api.AuthResponse{Username: "ann", Email: "ann@example.com", Token: "jwt-1"}
	suite.ctl.Login(context.Background(), "ann@example.com", "pw")

	u := suite.ctl.User()
	u.Username = "mallory"

	assert.Equal(suite.T(), "ann", suite.ctl.User().Username)
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}
