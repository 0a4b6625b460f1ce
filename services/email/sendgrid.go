package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/academia/core"
)

// sendgridService delivers emails through the SendGrid v3 API.
// Every mail is tagged with the app name and its kind, so deliveries can be filtered per email in SendGrid.
type sendgridService struct {
	client  *sendgrid.Client
	from    *sgmail.Email
	appName string
	sandbox bool
	logger  core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	from := conf.DefaultFromEmail()
	return &sendgridService{
		client:  sendgrid.NewSendClient(conf.SendgridApiKey),
		from:    sgmail.NewEmail(from.Name, from.Address),
		appName: conf.AppName,
		sandbox: conf.SendgridSandbox,
		logger:  logger,
	}
}

func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.deliver(msg)
	}
}

func (svc *sendgridService) deliver(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering %s email", kind(msg)), err)
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}

	res, err := svc.client.Send(svc.build(msg))
	switch {
	case err != nil:
		svc.logger.Error(fmt.Sprintf("sending %s email", kind(msg)), err)
	case res.StatusCode >= http.StatusBadRequest:
		svc.logger.Error(
			fmt.Sprintf("sending %s email: sendgrid replied %d", kind(msg), res.StatusCode),
			map[string]interface{}{"response": res.Body},
		)
	}
}

// kind is the template of msg, or "plain" for non-templated mails.
func kind(msg *core.EmailMessage) string {
	if msg.TemplateName != "" {
		return msg.TemplateName
	}
	return "plain"
}

// build maps a rendered msg onto a single-personalization v3 mail.
func (svc *sendgridService) build(msg *core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = fmt.Sprintf("[%s] %s", svc.appName, msg.Subject)
	p.AddTos(sgEmails(msg.To)...)
	if len(msg.Cc) > 0 {
		p.AddCCs(sgEmails(msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		p.AddBCCs(sgEmails(msg.Bcc)...)
	}

	m := sgmail.NewV3Mail().
		SetFrom(svc.from).
		AddPersonalizations(p).
		AddCategories(strings.ToLower(svc.appName), kind(msg))

	// text/plain must come first
	if msg.TextContent != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	for _, at := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     at.Content.String(),
			Type:        at.ContentType,
			Filename:    at.Filename,
			Disposition: "attachment",
		})
	}

	if svc.sandbox {
		m.SetMailSettings(sgmail.NewMailSettings().SetSandboxMode(sgmail.NewSetting(true)))
	}
	return m
}

func sgEmails(addrs []mail.Address) []*sgmail.Email {
	emails := make([]*sgmail.Email, 0, len(addrs))
	for _, addr := range addrs {
		emails = append(emails, sgmail.NewEmail(addr.Name, addr.Address))
	}
	return emails
}
