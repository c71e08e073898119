package emailsvc

import (
	"net/http"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	logsvc "github.com/trezcool/ratiba/services/logger"
)

func passwordResetMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: "Jane", Address: "jane@test.cd"}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]string{"Name": "Jane", "UID": "uid", "Token": "tok"},
	}
}

func TestConsoleServiceMock(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewConsoleServiceMock(conf)

	svc.SendMessages(
		passwordResetMessage(),
		&core.EmailMessage{Subject: "nobody", BodyStr: "hello"}, // no recipient
		&core.EmailMessage{To: []mail.Address{{Address: "a@test.cd"}}, BodyStr: "plain"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].TextContent, "Hi Jane")
	assert.Contains(t, sent[0].TextContent, conf.FrontendBaseURL+"/password-reset/uid/tok")
	assert.Contains(t, sent[0].HTMLContent, "uid/tok")
	assert.Equal(t, "plain", sent[1].TextContent)
	assert.Empty(t, sent[1].HTMLContent)

	svc.Reset()
	assert.Empty(t, svc.SentMessages())

	assert.Panics(t, func() {
		svc.SendMessages(&core.EmailMessage{To: []mail.Address{{Address: "a@test.cd"}}, TemplateName: "nope"})
	})
}

func TestConsoleService_build(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewConsoleService(conf, logsvc.NewTestLogger()).(*consoleService)

	msg := passwordResetMessage()
	require.NoError(t, msg.Render(conf))
	require.NoError(t, msg.Attach(strings.NewReader("a,b\n1,2\n"), "grid.csv", "text/csv"))

	body, err := svc.build(*msg)
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: ["+conf.AppName+"] Password Reset")
	assert.Contains(t, body, "To: \"Jane\" <jane@test.cd>")
	assert.Contains(t, body, "multipart/mixed")
	assert.Contains(t, body, "filename=grid.csv")
}

func TestSendgridService(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewSendgridService(conf, logsvc.NewTestLogger()).(*sendgridService)

	reqs := make(chan rest.Request, 1)
	svc.api = func(req rest.Request) (*rest.Response, error) {
		reqs <- req
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}

	svc.SendMessages(passwordResetMessage())

	select {
	case req := <-reqs:
		assert.Equal(t, rest.Method(http.MethodPost), req.Method)
		assert.True(t, strings.HasSuffix(req.BaseURL, endpoint))
		body := string(req.Body)
		assert.Contains(t, body, "jane@test.cd")
		assert.Contains(t, body, "["+conf.AppName+"] Password Reset")
		assert.Contains(t, body, "text/html")
	case <-time.After(2 * time.Second):
		t.Fatal("email was not sent")
	}
}
