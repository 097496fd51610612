package echoweb

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

const flashCookie = "tne_flash"

// Flash kinds.
const (
	flashSuccess = "success"
	flashWarning = "warning"
	flashError   = "error"
)

// flash is a one-shot message carried across a redirect.
type flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

func setFlash(ctx echo.Context, kind, message string) {
	data, _ := json.Marshal(flash{Kind: kind, Message: message})
	ctx.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
	})
}

// popFlash returns the pending message, if any, and clears it.
func popFlash(ctx echo.Context) *flash {
	c, err := ctx.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	ctx.SetCookie(&http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1, HttpOnly: true})

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f flash
	if err = json.Unmarshal(data, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}
