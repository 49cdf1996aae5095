package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRESTClientStatusMapping(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	var gotPath, gotMethod, gotAuth string
	status := http.StatusNoContent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(status)
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, "secret")

	ref := MessageRef{TenantID: "t1", ChannelID: "c1", MessageID: "m1"}
	assert.NoError(client.DeleteMessage(ctx, ref))
	assert.Equal("/tenants/t1/channels/c1/messages/m1", gotPath)
	assert.Equal(http.MethodDelete, gotMethod)
	assert.Equal("Bearer secret", gotAuth)

	status = http.StatusForbidden
	assert.ErrorIs(client.MuteMember(ctx, "t1", "u1", time.Now().Add(time.Minute)), ErrPermissionDenied)

	status = http.StatusNotFound
	assert.ErrorIs(client.UnbanMember(ctx, "t1", "u1"), ErrNotFound)

	status = http.StatusInternalServerError
	err := client.BanMember(ctx, "t1", "u1")
	assert.Error(err)
	assert.NotErrorIs(err, ErrPermissionDenied)
	assert.NotErrorIs(err, ErrNotFound)
}
