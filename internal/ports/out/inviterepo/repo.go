package inviterepo

import (
	"context"
	"encoding/base32"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/fieldops-api/internal/domain"
)

// DefaultTTL is how long a freshly created invite code stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// CodeLength is the number of characters in a generated code.
const CodeLength = 8

// Repository manages team invite codes.
type Repository interface {
	// CreateCode issues a single-use code for teamID that grants role.
	CreateCode(ctx context.Context, teamID domain.TeamID, createdBy domain.UserID, role domain.Role) (domain.Invite, error)

	// ValidateCode looks the code up without changing any state.
	ValidateCode(ctx context.Context, code domain.InviteCode) (domain.Invite, error)

	// JoinWithCode validates the code, adds u to the invite's team with the invite's role
	// and marks the code redeemed, as one operation. On failure no membership is created.
	JoinWithCode(ctx context.Context, code domain.InviteCode, u domain.User) (domain.User, error)
}

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewCode returns a random, upper-case code of CodeLength characters.
func NewCode() domain.InviteCode {
	u := uuid.New()
	return domain.InviteCode(codeEncoding.EncodeToString(u[:])[:CodeLength])
}

// NormalizeCode upper-cases and trims user-entered codes.
func NormalizeCode(c domain.InviteCode) domain.InviteCode {
	return domain.InviteCode(strings.ToUpper(strings.TrimSpace(string(c))))
}
