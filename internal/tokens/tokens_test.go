package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaprs/klinik-auth/internal/models"
)

var (
	accessSecret  = []byte("test-jwt-secret")
	refreshSecret = []byte("test-refresh-secret")
)

func testProfile() *models.Profile {
	email := "a@b.com"
	return &models.Profile{
		ID:    "u1",
		NIK:   "1234567890123456",
		Name:  "John Doe",
		Email: &email,
		Role:  models.RoleAdminFaskes,
	}
}

func TestIssueAccess_RoundTrip(t *testing.T) {
	t.Parallel()

	token, err := IssueAccess(testProfile(), accessSecret, 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseAccess(token, accessSecret)
	require.NoError(t, err)

	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, models.RoleAdminFaskes, claims.Role)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 2*time.Second)
}

func TestIssueAccess_NoEmail(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.Email = nil
	p.Role = models.RolePasien

	token, err := IssueAccess(p, accessSecret, time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccess(token, accessSecret)
	require.NoError(t, err)
	assert.Empty(t, claims.Email)
	assert.Equal(t, models.RolePasien, claims.Role)
}

func TestParseAccess_WrongSecretFails(t *testing.T) {
	t.Parallel()

	token, err := IssueAccess(testProfile(), accessSecret, time.Minute)
	require.NoError(t, err)

	_, err = ParseAccess(token, []byte("other-secret"))
	assert.Error(t, err)
}

func TestParseAccess_ExpiredFails(t *testing.T) {
	t.Parallel()

	token, err := IssueAccess(testProfile(), accessSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccess(token, accessSecret)
	assert.Error(t, err)
}

func TestIssueRefresh_RoundTripAndUniqueness(t *testing.T) {
	t.Parallel()

	tok1, err := IssueRefresh("u1", refreshSecret, time.Hour)
	require.NoError(t, err)
	tok2, err := IssueRefresh("u1", refreshSecret, time.Hour)
	require.NoError(t, err)

	// Same subject and expiry second must still yield distinct tokens.
	assert.NotEqual(t, tok1, tok2)

	claims, err := ParseRefresh(tok1, refreshSecret)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestParseRefresh_AccessSecretFails(t *testing.T) {
	t.Parallel()

	token, err := IssueRefresh("u1", refreshSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseRefresh(token, accessSecret)
	assert.Error(t, err)
}
