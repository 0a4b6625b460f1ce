package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/assets"
	"github.com/trezcool/academia/core"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := core.NewTestConfig()
	core.ParseEmailTemplates(assets.FS, conf, core.NewDiscardLogger())
	svc := NewConsoleServiceMock(conf)

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Ada", Address: "ada@test.io"}},
			Subject:      "Welcome",
			TemplateName: "welcome",
			TemplateData: struct{ Name string }{Name: "Ada"},
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
		&core.EmailMessage{To: []mail.Address{{Address: "bob@test.io"}}, Subject: "Plain", BodyStr: "hello"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)

	welcome := sent[0]
	assert.Contains(t, welcome.TextContent, "Hi Ada,")
	assert.Contains(t, welcome.TextContent, conf.FrontendBaseURL+"/courses")
	assert.True(t, strings.Contains(welcome.HTMLContent, "<p>Hi Ada,</p>"))

	assert.Equal(t, "hello", sent[1].TextContent)
	assert.Empty(t, sent[1].HTMLContent)
}
