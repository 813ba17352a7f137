package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/venuelab/backend/internal/entity"
	"github.com/venuelab/backend/pkg/xcontext"
)

// tokenURL builds the public redemption URL printed on the token. It embeds
// the signature so scanning the QR code is enough to redeem.
func tokenURL(ctx context.Context, token *entity.Token) string {
	base := xcontext.Configs(ctx).Prize.PublicBaseURL
	if base == "" {
		return ""
	}

	return fmt.Sprintf("%s/t/%s?sig=%s&v=%d",
		strings.TrimSuffix(base, "/"), token.ID, token.Signature, token.SignatureVersion)
}

// reusableTokenURL is the reusable variant; the id prefix routes it to the
// reusable endpoint.
func reusableTokenURL(ctx context.Context, token *entity.ReusableToken) string {
	base := xcontext.Configs(ctx).Prize.PublicBaseURL
	if base == "" {
		return ""
	}

	return fmt.Sprintf("%s/t/%s?sig=%s&v=%d",
		strings.TrimSuffix(base, "/"), token.ID, token.Signature, token.SignatureVersion)
}
