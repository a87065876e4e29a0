package utils

import "strconv"

// Int64ToStr converts an int64 to its decimal string representation. Used
// where history metadata and provider payloads want string-typed IDs.
func Int64ToStr(num int64) string {
	return strconv.FormatInt(num, 10)
}
