package echoapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/account"
)

const (
	signatureHeader = "X-Signature"
	signaturePrefix = "sha256="
)

type hookApi struct {
	secret     []byte
	svc        *account.Service
	validate   *validator.Validate
	translator ut.Translator
}

// registerHookAPI mounts the endpoints called by the identity provider.
// They are authenticated by an HMAC of the body, not by a JWT.
func registerHookAPI(
	g *echo.Group,
	secret string,
	svc *account.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := hookApi{
		secret:     []byte(secret),
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	hg := g.Group("/hooks")
	hg.POST("/signup", api.signup)
}

// SignBody returns the X-Signature header value of body.
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

func (api *hookApi) verify(body []byte, signature string) bool {
	if len(api.secret) == 0 || !strings.HasPrefix(signature, signaturePrefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(signature, signaturePrefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, api.secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// signup provisions the account of a principal the identity provider just created.
func (api *hookApi) signup(ctx echo.Context) error {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading signup event")
	}
	if !api.verify(body, ctx.Request().Header.Get(signatureHeader)) {
		return errInvalidSignature
	}

	var evt account.SignupEvent
	if err = json.Unmarshal(body, &evt); err != nil {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "malformed signup event", Internal: err}
	}
	if err = evt.Validate(api.validate, api.translator); err != nil {
		return err
	}

	acct, err := api.svc.Bootstrap(ctx.Request().Context(), evt)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, acct)
}
