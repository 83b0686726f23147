package agent

import (
	"strconv"
	"strings"
)

// userIDPlaceholder is the token synthesis prompts tell the engine to emit
// wherever the caller's id belongs. The real id never appears in a prompt;
// it is substituted by trusted code after cleaning, so the scoping value
// cannot be invented or altered by generated text.
const userIDPlaceholder = "{{USER_ID}}"

// bindUserID substitutes the trusted caller id for every placeholder in a
// cleaned statement. found reports whether the engine emitted the
// placeholder at all.
func bindUserID(sql string, userID int64) (bound string, found bool) {
	if !strings.Contains(sql, userIDPlaceholder) {
		return sql, false
	}
	return strings.ReplaceAll(sql, userIDPlaceholder, strconv.FormatInt(userID, 10)), true
}
