package trackers

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// The OAuth state parameter is the only carrier of in-flight correlation:
// no pending-callback state is persisted anywhere. It encodes the user ID
// plus a random nonce so callbacks can be tied back to the initiating user.

// EncodeState builds a state value embedding the user ID.
func EncodeState(userID uint) string {
	raw := fmt.Sprintf("%d:%s", userID, uuid.NewString())
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeState extracts the user ID from a state value. A state with no
// decodable user ID is a terminal failure for the callback.
func DecodeState(state string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return 0, fmt.Errorf("malformed state: %w", err)
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed state: missing separator")
	}
	id, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("state carries no valid user id")
	}
	return uint(id), nil
}
