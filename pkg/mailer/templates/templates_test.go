package templates

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/admin-user-profile/config"
)

func TestRenderProfileUpdated(t *testing.T) {
	cfg := &config.Config{AppName: "Admin", CompanyName: "Acme"}
	data := NewProfileUpdatedData(cfg, "Ada Lovelace", "ada@example.com",
		map[string]string{"Email": "ada@example.com", "Password": "changed"},
		WithTime(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)),
		WithLocation("London, England, UK"),
	)

	subject, text, html, err := Render(ProfileUpdated, data)
	require.NoError(t, err)

	assert.Contains(t, subject, "Admin: your profile was updated")
	assert.Contains(t, text, "Hi Ada Lovelace")
	assert.Contains(t, text, "- Email: ada@example.com")
	assert.Contains(t, text, "- Password: changed")
	assert.Contains(t, text, "01 March 2024, 10:30")
	assert.Contains(t, text, "from London, England, UK")
	assert.Contains(t, html, "<td>changed</td>")
}

func TestNewProfileUpdatedDataRecipient(t *testing.T) {
	cfg := &config.Config{}
	data := NewProfileUpdatedData(cfg, "Ada", "new@example.com", nil, WithRecipient("old@example.com"))

	assert.Equal(t, "new@example.com", data["Email"])
	assert.Equal(t, "old@example.com", data["RecipientEmail"])
	assert.Equal(t, ProfileUpdated, data["Type"])
}

func TestFormatGeo(t *testing.T) {
	assert.Equal(t, "Paris, Île-de-France, France", FormatGeo(Geo{City: "Paris", Region: "Île-de-France", Country: "France"}))
	assert.Equal(t, "France", FormatGeo(Geo{Country: " France "}))
	assert.Equal(t, "", FormatGeo(Geo{}))
}

func TestIPAPIResolverSkipsPrivate(t *testing.T) {
	r := IPAPIResolver{}
	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.7", "::1"} {
		_, err := r.Lookup(context.Background(), ip)
		assert.ErrorIs(t, err, ErrPrivateIP, ip)
	}
	_, err := r.Lookup(context.Background(), "not-an-ip")
	assert.Error(t, err)
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("login_otp", map[string]any{})
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestDefaultFn(t *testing.T) {
	assert.Equal(t, "there", defaultFn("there", "  "))
	assert.Equal(t, "there", defaultFn("there", nil))
	assert.Equal(t, "there", defaultFn("there", 0))
	assert.Equal(t, "Ada", defaultFn("there", "Ada"))
	assert.Equal(t, 3, defaultFn("there", 3))
}

func TestIPAPIResolverLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/203.0.113.7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"success","country":"Japan","regionName":"Tokyo","city":"Shinjuku","timezone":"Asia/Tokyo"}`)
	}))
	defer srv.Close()

	g, err := IPAPIResolver{Client: srv.Client(), BaseURL: srv.URL}.Lookup(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, Geo{City: "Shinjuku", Region: "Tokyo", Country: "Japan", Timezone: "Asia/Tokyo"}, g)
}

func TestIPAPIResolverFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"fail","message":"reserved range"}`)
	}))
	defer srv.Close()

	_, err := IPAPIResolver{BaseURL: srv.URL}.Lookup(context.Background(), "203.0.113.7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved range")
}
