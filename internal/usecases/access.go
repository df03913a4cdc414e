package usecases

import (
	"context"
	"crypto/subtle"
	"strings"
)

// AccessRequest is what an access check sees about a mutating call.
type AccessRequest struct {
	Authorization string
	Collection    string
	ID            string
	Preset        string
	VariantID     string
	VariantIndex  *int
}

type AccessFunc func(ctx context.Context, req AccessRequest) (bool, error)

// AccessControl holds one optional check per mutating operation. A nil check
// allows the call.
type AccessControl struct {
	Create          AccessFunc
	Enqueue         AccessFunc
	RemoveVariant   AccessFunc
	ReplaceOriginal AccessFunc
}

// BearerTokenAccess allows a request whose Authorization header carries the
// given bearer token.
func BearerTokenAccess(token string) AccessFunc {
	return func(_ context.Context, req AccessRequest) (bool, error) {
		scheme, presented, ok := strings.Cut(strings.TrimSpace(req.Authorization), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return false, nil
		}
		presented = strings.TrimSpace(presented)
		return subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1, nil
	}
}

// NewAccessControl installs the same check on every operation. An empty
// token leaves every operation open.
func NewAccessControl(apiToken string) AccessControl {
	if apiToken == "" {
		return AccessControl{}
	}
	check := BearerTokenAccess(apiToken)
	return AccessControl{Create: check, Enqueue: check, RemoveVariant: check, ReplaceOriginal: check}
}

func allowed(ctx context.Context, check AccessFunc, req AccessRequest) (bool, error) {
	if check == nil {
		return true, nil
	}
	return check(ctx, req)
}
