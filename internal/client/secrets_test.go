package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strongroom-io/strongroom-client/internal/constants"
	"github.com/strongroom-io/strongroom-client/pkg/strongroom"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	client, err := New(&strongroom.Config{
		VaultURL:     serverURL,
		AccessToken:  "test-token",
		PollInterval: constants.QuickPollInterval,
	})
	require.NoError(t, err)

	return client
}

func TestSecretsClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/secrets/db-password", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(strongroom.Secret{
			Name:    "db-password",
			Version: "3",
			Value:   "hunter2",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	secret, err := client.Secrets().Get(context.Background(), "db-password", "")
	require.NoError(t, err)
	assert.Equal(t, "db-password", secret.Name)
	assert.Equal(t, "3", secret.Version)
	assert.Equal(t, "hunter2", secret.Value)
}

func TestSecretsClient_GetVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("version"))

		_ = json.NewEncoder(w).Encode(strongroom.Secret{Name: "db-password", Version: "2"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	secret, err := client.Secrets().Get(context.Background(), "db-password", "2")
	require.NoError(t, err)
	assert.Equal(t, "2", secret.Version)
}

func TestSecretsClient_GetNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"SecretNotFound","message":"no secret named db-password"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Secrets().Get(context.Background(), "db-password", "")
	require.Error(t, err)
	assert.True(t, strongroom.IsNotFound(err))

	apiErr := &strongroom.APIError{}
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, strongroom.ErrorCodeSecretNotFound, apiErr.Code)
}

func TestSecretsClient_GetRequiresName(t *testing.T) {
	client := newTestClient(t, "http://vault.example")

	_, err := client.Secrets().Get(context.Background(), "", "")
	assert.ErrorIs(t, err, strongroom.ErrSecretNameRequired)
}

func TestSecretsClient_Set(t *testing.T) {
	enabled := true

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/secrets/api-key", r.URL.Path)

		var body setSecretRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "s3cr3t", body.Value)
		assert.Equal(t, "text/plain", body.ContentType)
		require.NotNil(t, body.Enabled)
		assert.True(t, *body.Enabled)

		_ = json.NewEncoder(w).Encode(strongroom.Secret{Name: "api-key", Version: "1", Value: "s3cr3t"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	secret, err := client.Secrets().Set(context.Background(), "api-key", "s3cr3t", &strongroom.SetSecretOptions{
		ContentType: "text/plain",
		Enabled:     &enabled,
	})
	require.NoError(t, err)
	assert.Equal(t, "1", secret.Version)
}

func TestSecretsClient_ListAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secrets", r.URL.Path)

		page := r.URL.Query().Get("page")

		list := strongroom.SecretList{
			Pagination: strongroom.Pagination{TotalResults: 3, TotalPages: 2},
		}

		if page == "2" {
			list.Resources = []strongroom.Secret{{Name: "third"}}
		} else {
			list.Resources = []strongroom.Secret{{Name: "first"}, {Name: "second"}}
			list.Pagination.Next = &strongroom.Link{Href: "/v1/secrets?page=2"}
		}

		_ = json.NewEncoder(w).Encode(list)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	secrets, err := client.Secrets().ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, secrets, 3)
	assert.Equal(t, "first", secrets[0].Name)
	assert.Equal(t, "third", secrets[2].Name)
}

func TestSecretsClient_BeginDelete_PollsUntilPropagated(t *testing.T) {
	var deletedGets atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/v1/secrets/db-password":
			_ = json.NewEncoder(w).Encode(strongroom.DeletedSecret{
				Secret:     strongroom.Secret{Name: "db-password"},
				RecoveryID: "/v1/deletedsecrets/db-password",
			})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/deletedsecrets/db-password":
			// Deletion propagates on the third check.
			if deletedGets.Add(1) < 3 {
				w.WriteHeader(http.StatusNotFound)

				return
			}

			_ = json.NewEncoder(w).Encode(strongroom.DeletedSecret{
				Secret:     strongroom.Secret{Name: "db-password"},
				RecoveryID: "/v1/deletedsecrets/db-password",
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	poller, err := client.Secrets().BeginDelete(context.Background(), "db-password")
	require.NoError(t, err)
	assert.False(t, poller.Done())

	deleted, err := poller.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "db-password", deleted.Name)
	assert.Equal(t, int32(3), deletedGets.Load())
}

func TestSecretsClient_BeginDelete_FinishedWithoutSoftDelete(t *testing.T) {
	var deletedGets atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete:
			// No recovery ID: soft-delete disabled, deletion already done.
			_ = json.NewEncoder(w).Encode(strongroom.DeletedSecret{
				Secret: strongroom.Secret{Name: "db-password"},
			})
		case r.Method == http.MethodGet:
			deletedGets.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	poller, err := client.Secrets().BeginDelete(context.Background(), "db-password")
	require.NoError(t, err)
	assert.True(t, poller.Done())

	deleted, err := poller.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "db-password", deleted.Name)
	assert.Zero(t, deletedGets.Load(), "a synchronously completed delete must never poll")
}

func TestSecretsClient_BeginRecover(t *testing.T) {
	var liveGets atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/deletedsecrets/db-password/recover":
			_ = json.NewEncoder(w).Encode(strongroom.Secret{Name: "db-password", Version: "3"})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/secrets/db-password":
			if liveGets.Add(1) < 2 {
				w.WriteHeader(http.StatusNotFound)

				return
			}

			_ = json.NewEncoder(w).Encode(strongroom.Secret{Name: "db-password", Version: "3"})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	poller, err := client.Secrets().BeginRecover(context.Background(), "db-password")
	require.NoError(t, err)

	recovered, err := poller.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3", recovered.Version)
	assert.Equal(t, int32(2), liveGets.Load())
}

func TestSecretsClient_Purge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1/deletedsecrets/db-password", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	err := client.Secrets().Purge(context.Background(), "db-password")
	require.NoError(t, err)
}

func TestSecretsClient_FollowsRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/secrets/moved":
			http.Redirect(w, r, "/v1/secrets/renamed", http.StatusTemporaryRedirect)
		case "/v1/secrets/renamed":
			_ = json.NewEncoder(w).Encode(strongroom.Secret{Name: "renamed"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	secret, err := client.Secrets().Get(context.Background(), "moved", "")
	require.NoError(t, err)
	assert.Equal(t, "renamed", secret.Name)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, strongroom.ErrConfigRequired)

	_, err = New(&strongroom.Config{})
	assert.ErrorIs(t, err, strongroom.ErrVaultURLRequired)
}
