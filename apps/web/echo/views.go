package echoweb

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"

	"github.com/tneregistro/portal/core/roster"
)

// viewCache holds one roster view per session ID. Idle views expire after the configured TTL.
type viewCache struct {
	views *cache.Cache
}

func newViewCache(ttl time.Duration) *viewCache {
	if ttl <= 0 {
		return &viewCache{views: cache.New(cache.NoExpiration, 0)}
	}
	return &viewCache{views: cache.New(ttl, 2*ttl)}
}

// get returns the session's view, creating an unmounted one if needed. Each hit extends its lifetime.
func (vc *viewCache) get(
	sessionID string,
	client roster.Client,
	validate *validator.Validate,
	translator ut.Translator,
) (*roster.View, bool) {
	if v, ok := vc.views.Get(sessionID); ok {
		view := v.(*roster.View)
		vc.views.SetDefault(sessionID, view)
		return view, true
	}
	view := roster.NewView(client, validate, translator)
	vc.views.SetDefault(sessionID, view)
	return view, false
}

func (vc *viewCache) drop(sessionID string) {
	vc.views.Delete(sessionID)
}
